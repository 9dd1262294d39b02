// internal/models/review.go
package models

import (
	"github.com/google/uuid"
)

type Review struct {
	BaseModel
	ProductID        uuid.UUID `json:"product_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_product_user"`
	UserID           uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_product_user"`
	Rating           int       `json:"rating" gorm:"not null"`
	Title            string    `json:"title" gorm:"size:255"`
	Comment          string    `json:"comment" gorm:"type:text"`
	VerifiedPurchase bool      `json:"verified_purchase" gorm:"default:false"`
	LikeCount        int64     `json:"like_count" gorm:"default:0"`

	// Relationships
	User    *User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

type ReviewLike struct {
	BaseModel
	ReviewID uuid.UUID `json:"review_id" gorm:"type:uuid;not null;uniqueIndex:idx_review_likes_review_user"`
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_review_likes_review_user"`
}
