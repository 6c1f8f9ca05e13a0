package enums

import (
	"fmt"
	"strings"
)

// CatalogKind selects one of the name-keyed catalog lookup tables.
type CatalogKind string

const (
	CatalogKindBrand    CatalogKind = "brand"
	CatalogKindCategory CatalogKind = "category"
)

var validCatalogKinds = []CatalogKind{
	CatalogKindBrand,
	CatalogKindCategory,
}

// String implements fmt.Stringer.
func (k CatalogKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known CatalogKind.
func (k CatalogKind) IsValid() bool {
	for _, candidate := range validCatalogKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// Table returns the backing table name.
func (k CatalogKind) Table() string {
	switch k {
	case CatalogKindBrand:
		return "brands"
	case CatalogKindCategory:
		return "categories"
	default:
		return ""
	}
}

// ParseCatalogKind converts raw input into a CatalogKind.
func ParseCatalogKind(value string) (CatalogKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validCatalogKinds {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid catalog kind %q", value)
}
