// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category struct {
	BaseModel
	Name        string `json:"name" gorm:"size:100;not null"`
	Slug        string `json:"slug" gorm:"size:100;uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text"`

	Products []Product `json:"products,omitempty" gorm:"foreignKey:CategoryID"`
}

type Product struct {
	BaseModel
	Name        string          `json:"name" gorm:"size:255;not null;index"`
	Slug        string          `json:"slug" gorm:"size:255;uniqueIndex;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	CategoryID  *uuid.UUID      `json:"category_id" gorm:"type:uuid;index"`
	ImageURL    string          `json:"image_url" gorm:"size:512"`
	Images      StringList      `json:"images" gorm:"type:text"`
	Stock       int             `json:"stock" gorm:"default:0"`
	Active      bool            `json:"active" gorm:"not null;index"`

	// Denormalized review counters, maintained by the review write path.
	Rating      float64 `json:"rating" gorm:"type:decimal(3,2);default:0"`
	ReviewCount int64   `json:"review_count" gorm:"default:0"`

	// Relationships
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// CategoryName returns the category name when the relation is loaded.
func (p *Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}
