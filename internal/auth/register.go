package auth

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/internal/address"
	"github.com/mercato-dev/mercato-backend/internal/users"
	"github.com/mercato-dev/mercato-backend/pkg/config"
	"github.com/mercato-dev/mercato-backend/pkg/db"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
	"github.com/mercato-dev/mercato-backend/pkg/security"
)

const minPasswordLength = 8

// RegisterRequest contains the payload required for creating an account.
type RegisterRequest struct {
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=8,max=72"`
	Role     enums.UserRole `json:"role" validate:"required"`
	Name     string         `json:"name" validate:"required,max=120"`
	Username string         `json:"username" validate:"required,min=3,max=40"`
	City     string         `json:"city,omitempty" validate:"omitempty,max=120"`
	Address  string         `json:"address,omitempty" validate:"omitempty,max=255"`
}

// RegisterService handles the account creation transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

// Register creates the user and its buyer or seller row in one transaction.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !req.Role.IsSelfServe() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be buyer or seller")
	}
	if len(req.Password) < minPasswordLength || len(req.Password) > security.MaxPasswordBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be between 8 and 72 bytes")
	}

	var shipTo address.Input
	if req.Role == enums.UserRoleBuyer {
		normalized, err := address.Normalize(address.Input{Address: req.Address, City: req.City})
		if err != nil {
			return nil, err
		}
		shipTo = normalized
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *users.UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		emailTaken, usernameTaken, err := userRepo.Taken(ctx, email, username)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user uniqueness")
		}
		if emailTaken {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered").
				WithDetails(map[string]any{"field": "email"})
		}
		if usernameTaken {
			return pkgerrors.New(pkgerrors.CodeConflict, "username already taken").
				WithDetails(map[string]any{"field": "username"})
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			Role:         req.Role,
			Name:         name,
			Username:     username,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email or username already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		switch req.Role {
		case enums.UserRoleSeller:
			err = userRepo.CreateSeller(ctx, user.ID)
		case enums.UserRoleBuyer:
			err = userRepo.CreateBuyer(ctx, user.ID, shipTo.City, shipTo.Address)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create role profile")
		}

		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
