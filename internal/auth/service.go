package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/internal/users"
	pkgAuth "github.com/mercato-dev/mercato-backend/pkg/auth"
	"github.com/mercato-dev/mercato-backend/pkg/config"
	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	pkgerrors "github.com/mercato-dev/mercato-backend/pkg/errors"
	"github.com/mercato-dev/mercato-backend/pkg/logger"
	"github.com/mercato-dev/mercato-backend/pkg/security"
)

// Every credential failure maps to the same response so callers cannot probe
// which emails are registered.
func errBadCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uint64, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uint64, hash string) error
}

// ServiceParams wires the login service. PasswordConfig is the current
// hashing policy: a stored hash made under different parameters is replaced
// after the next successful login. Logger is optional.
type ServiceParams struct {
	UserRepo       userRepository
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

type service struct {
	repo     userRepository
	jwt      config.JWTConfig
	password config.PasswordConfig
	logg     *logger.Logger
	clock    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.UserRepo == nil:
		return nil, fmt.Errorf("auth: user repository is required")
	case params.JWTConfig.Secret == "":
		return nil, fmt.Errorf("auth: jwt secret is required")
	}
	return &service{
		repo:     params.UserRepo,
		jwt:      params.JWTConfig,
		password: params.PasswordConfig,
		logg:     params.Logger,
		clock:    time.Now,
	}, nil
}

// Login checks the credentials, stamps last_login_at and returns a bearer
// token for the user's role.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.verify(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	issuedAt := s.clock().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, issuedAt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record login")
	}
	user.LastLoginAt = &issuedAt
	s.rehashIfStale(ctx, user, req.Password)

	token, err := pkgAuth.MintAccessToken(s.jwt, issuedAt, pkgAuth.AccessTokenPayload{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue access token")
	}
	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwt.TTL() / time.Second),
		User:        users.FromModel(user),
	}, nil
}

func (s *service) verify(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errBadCredentials()
	}

	user, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errBadCredentials()
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find user by email")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compare password hash")
	}
	if !ok || !user.Role.IsValid() {
		return nil, errBadCredentials()
	}
	return user, nil
}

// rehashIfStale never fails the login; a failed upgrade is retried on the
// next one.
func (s *service) rehashIfStale(ctx context.Context, user *models.User, password string) {
	if !security.NeedsRehash(user.PasswordHash, s.password) {
		return
	}
	hash, err := security.HashPassword(password, s.password)
	if err == nil {
		err = s.repo.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "user_id", user.ID), "password rehash skipped: "+err.Error())
		}
		return
	}
	user.PasswordHash = hash
}
