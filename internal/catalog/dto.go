package catalog

import (
	"time"

	"github.com/mercato-dev/mercato-backend/pkg/db/models"
)

// EntryDTO is the public shape of a brand or category.
type EntryDTO struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func EntryFromModel(entry models.CatalogEntry) EntryDTO {
	return EntryDTO{ID: entry.ID, Name: entry.Name, CreatedAt: entry.CreatedAt}
}
