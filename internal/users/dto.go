package users

import (
	"time"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
	"github.com/mercato-dev/mercato-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uint64         `json:"id"`
	Email       string         `json:"email"`
	Role        enums.UserRole `json:"role"`
	Name        string         `json:"name"`
	Username    string         `json:"username"`
	AvatarURL   *string        `json:"avatar_url,omitempty"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ProfileDTO extends UserDTO with the role-specific fields.
type ProfileDTO struct {
	UserDTO
	SellerRating *float64 `json:"seller_rating,omitempty"`
	City         string   `json:"city,omitempty"`
	Address      string   `json:"address,omitempty"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	Role         enums.UserRole
	Name         string
	Username     string
	AvatarURL    *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		Name:        u.Name,
		Username:    u.Username,
		AvatarURL:   u.AvatarURL,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Role:         c.Role,
		Name:         c.Name,
		Username:     c.Username,
		AvatarURL:    c.AvatarURL,
	}
}
