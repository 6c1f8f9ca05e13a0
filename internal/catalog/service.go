package catalog

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Service exposes catalog reads and the lookup-or-create used by product writes.
type Service interface {
	List(ctx context.Context, kind enums.CatalogKind, query string, limit int) ([]EntryDTO, error)
	Resolve(ctx context.Context, tx *gorm.DB, kind enums.CatalogKind, name string) (*models.CatalogEntry, error)
}

type service struct {
	repo Repository
}

// NewService builds a catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, kind enums.CatalogKind, query string, limit int) ([]EntryDTO, error) {
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown catalog kind")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	entries, err := s.repo.List(ctx, kind, query, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("list %s", kind))
	}
	out := make([]EntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, EntryFromModel(entry))
	}
	return out, nil
}

// Resolve runs GetOrCreate inside the caller's transaction.
func (s *service) Resolve(ctx context.Context, tx *gorm.DB, kind enums.CatalogKind, name string) (*models.CatalogEntry, error) {
	return s.repo.WithTx(tx).GetOrCreate(ctx, kind, name)
}
