package models

import "time"

// CatalogEntry is a row of either the brands or categories lookup table.
type CatalogEntry struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

type Brand struct {
	CatalogEntry
}

func (Brand) TableName() string { return "brands" }

type Category struct {
	CatalogEntry
}

func (Category) TableName() string { return "categories" }
