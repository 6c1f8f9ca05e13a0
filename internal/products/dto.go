package product

import (
	"time"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
)

// ProductDTO is the listing shape returned by search and seller writes.
type ProductDTO struct {
	ID          uint64    `json:"id"`
	SellerID    uint64    `json:"seller_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Quantity    int       `json:"quantity"`
	Brand       *string   `json:"brand,omitempty"`
	Category    *string   `json:"category,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SellerSummary identifies the seller on a product detail page.
type SellerSummary struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Rating   float64 `json:"rating"`
}

// ProductDetailDTO extends ProductDTO with seller and review context.
type ProductDetailDTO struct {
	ProductDTO
	Seller  SellerSummary `json:"seller"`
	Reviews ReviewSummary `json:"reviews"`
}

// SearchResult holds a page of products plus the cursor for the next page.
type SearchResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func toProductDTO(p models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID,
		SellerID:    p.SellerID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Quantity:    p.Quantity,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Brand != nil {
		name := p.Brand.Name
		dto.Brand = &name
	}
	if p.Category != nil {
		name := p.Category.Name
		dto.Category = &name
	}
	return dto
}

func toProductDetailDTO(p models.Product, summary ReviewSummary) ProductDetailDTO {
	detail := ProductDetailDTO{
		ProductDTO: toProductDTO(p),
		Reviews:    summary,
	}
	detail.Seller.ID = p.SellerID
	if p.Seller != nil {
		detail.Seller.Rating = p.Seller.SellerRating
		if p.Seller.User != nil {
			detail.Seller.Name = p.Seller.User.Name
			detail.Seller.Username = p.Seller.User.Username
		}
	}
	return detail
}
