package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/db"
	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
)

// Repository resolves brand and category rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetOrCreate(ctx context.Context, kind enums.CatalogKind, name string) (*models.CatalogEntry, error)
	FindByName(ctx context.Context, kind enums.CatalogKind, name string) (*models.CatalogEntry, error)
	FindByID(ctx context.Context, kind enums.CatalogKind, id uint64) (*models.CatalogEntry, error)
	List(ctx context.Context, kind enums.CatalogKind, query string, limit int) ([]models.CatalogEntry, error)
}

type repository struct {
	db *gorm.DB
	// afterMiss runs between a failed lookup and the insert attempt.
	afterMiss func(ctx context.Context, tx *gorm.DB, kind enums.CatalogKind, name string)
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx, afterMiss: r.afterMiss}
}

// GetOrCreate returns the row named name, inserting it when absent. A unique
// violation on insert means another writer won the race; the insert is rolled
// back to its savepoint and the row is read again exactly once.
func (r *repository) GetOrCreate(ctx context.Context, kind enums.CatalogKind, name string) (*models.CatalogEntry, error) {
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown catalog kind")
	}
	normalized, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	existing, err := r.FindByName(ctx, kind, normalized)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("lookup %s", kind))
	}

	if r.afterMiss != nil {
		r.afterMiss(ctx, r.db, kind, normalized)
	}

	entry := models.CatalogEntry{Name: normalized}
	insertErr := r.db.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		return inner.Table(kind.Table()).Create(&entry).Error
	})
	if insertErr == nil {
		return &entry, nil
	}
	if !db.IsUniqueViolation(insertErr, "") {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, insertErr, fmt.Sprintf("create %s", kind))
	}

	winner, err := r.FindByName(ctx, kind, normalized)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("reload %s after conflict", kind))
	}
	return winner, nil
}

func (r *repository) FindByName(ctx context.Context, kind enums.CatalogKind, name string) (*models.CatalogEntry, error) {
	var entry models.CatalogEntry
	err := r.db.WithContext(ctx).
		Table(kind.Table()).
		Where("name = ?", name).
		Take(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) FindByID(ctx context.Context, kind enums.CatalogKind, id uint64) (*models.CatalogEntry, error) {
	var entry models.CatalogEntry
	err := r.db.WithContext(ctx).
		Table(kind.Table()).
		Where("id = ?", id).
		Take(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) List(ctx context.Context, kind enums.CatalogKind, query string, limit int) ([]models.CatalogEntry, error) {
	q := r.db.WithContext(ctx).Table(kind.Table())
	if strings.TrimSpace(query) != "" {
		q = q.Where(db.ILikeClause("name"), db.ContainsPattern(query))
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []models.CatalogEntry
	if err := q.Order("name ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
