package catalog

import (
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
)

// MaxNameLength bounds brand and category names.
const MaxNameLength = 255

// NormalizeName trims the input and collapses inner whitespace runs.
func NormalizeName(raw string) (string, error) {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name is too long").
			WithDetails(map[string]any{"max": MaxNameLength})
	}
	return name, nil
}
