package users

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateSeller inserts the seller row for userID with a zero rating.
func (r *Repository) CreateSeller(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).Omit("User").Create(&models.UserSeller{UserID: userID}).Error
}

// CreateBuyer inserts the buyer row carrying the default shipping address.
func (r *Repository) CreateBuyer(ctx context.Context, userID uint64, city, address string) error {
	row := &models.UserBuyer{UserID: userID, City: city, Address: address}
	return r.db.WithContext(ctx).Omit("User").Create(row).Error
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by id.
func (r *Repository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Taken reports which of email and username already belong to a user.
func (r *Repository) Taken(ctx context.Context, email, username string) (emailTaken, usernameTaken bool, err error) {
	var rows []models.User
	err = r.db.WithContext(ctx).
		Select("id", "email", "username").
		Where("email = ? OR username = ?", email, username).
		Find(&rows).Error
	if err != nil {
		return false, false, err
	}
	for _, row := range rows {
		if row.Email == email {
			emailTaken = true
		}
		if row.Username == username {
			usernameTaken = true
		}
	}
	return emailTaken, usernameTaken, nil
}

// FindSeller returns the seller row for userID.
func (r *Repository) FindSeller(ctx context.Context, userID uint64) (*models.UserSeller, error) {
	var row models.UserSeller
	if err := r.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindBuyer returns the buyer row for userID.
func (r *Repository) FindBuyer(ctx context.Context, userID uint64) (*models.UserBuyer, error) {
	var row models.UserBuyer
	if err := r.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// UpdatePasswordHash replaces the stored password hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uint64, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash).Error
}
