package reviews

import (
	"time"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
)

type ReviewDTO struct {
	ID        uint64    `json:"id"`
	ProductID uint64    `json:"product_id"`
	UserID    uint64    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Rating    float64   `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListResult struct {
	Reviews []ReviewDTO `json:"reviews"`
	Summary Summary     `json:"summary"`
}

func toReviewDTO(r models.Review) ReviewDTO {
	dto := ReviewDTO{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.User != nil {
		dto.Username = r.User.Username
	}
	return dto
}
