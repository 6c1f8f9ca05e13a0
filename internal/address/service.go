package address

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	"github.com/mercato-dev/mercato-backend/pkg/errors"
)

const (
	maxAddressLength = 255
	maxCityLength    = 120
)

// Input is a shipping destination as entered by a buyer.
type Input struct {
	Address string
	City    string
}

// Normalize trims whitespace and validates the destination.
func Normalize(input Input) (Input, error) {
	out := Input{
		Address: strings.Join(strings.Fields(input.Address), " "),
		City:    strings.Join(strings.Fields(input.City), " "),
	}
	if out.Address == "" {
		return Input{}, errors.New(errors.CodeValidation, "address is required")
	}
	if out.City == "" {
		return Input{}, errors.New(errors.CodeValidation, "city is required")
	}
	if utf8.RuneCountInString(out.Address) > maxAddressLength {
		return Input{}, errors.New(errors.CodeValidation, "address is too long")
	}
	if utf8.RuneCountInString(out.City) > maxCityLength {
		return Input{}, errors.New(errors.CodeValidation, "city is too long")
	}
	return out, nil
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, userID uint64, input Input) (*models.Address, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create normalizes input and stores it as a new address row for userID.
func (r *repository) Create(ctx context.Context, userID uint64, input Input) (*models.Address, error) {
	normalized, err := Normalize(input)
	if err != nil {
		return nil, err
	}
	row := &models.Address{UserID: userID, Address: normalized.Address, City: normalized.City}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "create address")
	}
	return row, nil
}
