// internal/services/review_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type ReviewService struct {
	db *gorm.DB
}

type ReviewStats struct {
	Average     float64     `json:"average"`
	Total       int64       `json:"total"`
	Percentages map[int]int `json:"percentages"`
}

type ProductReviews struct {
	Reviews []models.Review `json:"reviews"`
	Stats   ReviewStats     `json:"stats"`
	Total   int64           `json:"total"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Title   string `json:"title" validate:"omitempty,max=255"`
	Comment string `json:"comment" validate:"omitempty,max=5000"`
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Title   *string `json:"title,omitempty" validate:"omitempty,max=255"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=5000"`
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// ComputeReviewStats takes average and total from the product counters and
// the star distribution from reviews. Each percentage is rounded on its own,
// so the sum may differ from 100.
func ComputeReviewStats(product *models.Product, reviews []models.Review) ReviewStats {
	stats := ReviewStats{
		Average:     product.Rating,
		Total:       product.ReviewCount,
		Percentages: map[int]int{5: 0, 4: 0, 3: 0, 2: 0, 1: 0},
	}
	if len(reviews) == 0 {
		return stats
	}

	counts := make(map[int]int, 5)
	for _, r := range reviews {
		counts[r.Rating]++
	}
	for star := 1; star <= 5; star++ {
		stats.Percentages[star] = int(math.Round(float64(counts[star]) * 100 / float64(len(reviews))))
	}
	return stats
}

// ListProductReviews returns a page of reviews with stats for the product.
// The distribution is computed over every rating of the product.
func (s *ReviewService) ListProductReviews(ctx context.Context, productID uuid.UUID, params utils.PaginationParams) (*ProductReviews, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var ratings []models.Review
	if err := s.db.WithContext(ctx).Select("rating").Where("product_id = ?", productID).Find(&ratings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch ratings: %w", err)
	}

	query := s.db.WithContext(ctx).Model(&models.Review{}).Where("product_id = ?", productID)
	query = utils.ApplySort(query, params, []string{"created_at", "rating", "like_count"})
	query = utils.ApplyPagination(query, params)

	var reviews []models.Review
	if err := query.Preload("User").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch reviews: %w", err)
	}

	return &ProductReviews{
		Reviews: reviews,
		Stats:   ComputeReviewStats(&product, ratings),
		Total:   int64(len(ratings)),
	}, nil
}

// CreateReview stores a review and refreshes the product counters in the
// same transaction. Verified purchase is decided here and never revisited.
func (s *ReviewService) CreateReview(ctx context.Context, productID, userID uuid.UUID, req *CreateReviewRequest) (*models.Review, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Title:     strings.TrimSpace(req.Title),
		Comment:   req.Comment,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var productCount int64
		if err := tx.Model(&models.Product{}).Where("id = ? AND active = ?", productID, true).Count(&productCount).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if productCount == 0 {
			return fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}

		var existing int64
		if err := tx.Model(&models.Review{}).Where("product_id = ? AND user_id = ?", productID, userID).Count(&existing).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("%w: product already reviewed", ErrConflict)
		}

		verified, err := hasPaidOrderFor(tx, userID, productID)
		if err != nil {
			return err
		}
		review.VerifiedPurchase = verified

		if err := tx.Create(review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}
		return refreshProductRating(tx, productID)
	})
	if err != nil {
		return nil, err
	}

	return s.getReview(ctx, review.ID)
}

func (s *ReviewService) UpdateReview(ctx context.Context, id, userID uuid.UUID, req *UpdateReviewRequest) (*models.Review, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	review, err := s.getReview(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.UserID != userID {
		return nil, fmt.Errorf("review %s: %w", id, ErrForbidden)
	}

	updates := make(map[string]interface{})
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Comment != nil {
		updates["comment"] = *req.Comment
	}
	if len(updates) == 0 {
		return review, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(review).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update review: %w", err)
		}
		if req.Rating != nil {
			return refreshProductRating(tx, review.ProductID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.getReview(ctx, id)
}

func (s *ReviewService) DeleteReview(ctx context.Context, id, userID uuid.UUID, isAdmin bool) error {
	review, err := s.getReview(ctx, id)
	if err != nil {
		return err
	}
	if review.UserID != userID && !isAdmin {
		return fmt.Errorf("review %s: %w", id, ErrForbidden)
	}

	// Hard delete so the author can review the product again
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("review_id = ?", id).Delete(&models.ReviewLike{}).Error; err != nil {
			return fmt.Errorf("failed to delete review likes: %w", err)
		}
		if err := tx.Unscoped().Delete(review).Error; err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}
		return refreshProductRating(tx, review.ProductID)
	})
}

// LikeReview records a like by userID. Liking twice is a no-op.
func (s *ReviewService) LikeReview(ctx context.Context, reviewID, userID uuid.UUID) (*models.Review, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reviewExists(tx, reviewID); err != nil {
			return err
		}

		var liked int64
		if err := tx.Model(&models.ReviewLike{}).Where("review_id = ? AND user_id = ?", reviewID, userID).Count(&liked).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if liked > 0 {
			return nil
		}

		if err := tx.Create(&models.ReviewLike{ReviewID: reviewID, UserID: userID}).Error; err != nil {
			return fmt.Errorf("failed to like review: %w", err)
		}
		return refreshLikeCount(tx, reviewID)
	})
	if err != nil {
		return nil, err
	}
	return s.getReview(ctx, reviewID)
}

func (s *ReviewService) UnlikeReview(ctx context.Context, reviewID, userID uuid.UUID) (*models.Review, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := reviewExists(tx, reviewID); err != nil {
			return err
		}

		result := tx.Unscoped().Where("review_id = ? AND user_id = ?", reviewID, userID).Delete(&models.ReviewLike{})
		if result.Error != nil {
			return fmt.Errorf("failed to unlike review: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		return refreshLikeCount(tx, reviewID)
	})
	if err != nil {
		return nil, err
	}
	return s.getReview(ctx, reviewID)
}

func (s *ReviewService) getReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := s.db.WithContext(ctx).Preload("User").First(&review, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("review %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &review, nil
}

func reviewExists(tx *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.Review{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	return nil
}

func hasPaidOrderFor(tx *gorm.DB, userID, productID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id AND orders.deleted_at IS NULL").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?", userID, models.OrderStatusPaid, productID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check purchase history: %w", err)
	}
	return count > 0, nil
}

// refreshProductRating rewrites the denormalized rating counters of a product.
func refreshProductRating(tx *gorm.DB, productID uuid.UUID) error {
	var agg struct {
		Count   int64
		Average float64
	}
	if err := tx.Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("product_id = ?", productID).
		Scan(&agg).Error; err != nil {
		return fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	return tx.Model(&models.Product{}).Where("id = ?", productID).UpdateColumns(map[string]interface{}{
		"rating":       math.Round(agg.Average*100) / 100,
		"review_count": agg.Count,
	}).Error
}

func refreshLikeCount(tx *gorm.DB, reviewID uuid.UUID) error {
	var likes int64
	if err := tx.Model(&models.ReviewLike{}).Where("review_id = ?", reviewID).Count(&likes).Error; err != nil {
		return fmt.Errorf("failed to count likes: %w", err)
	}
	return tx.Model(&models.Review{}).Where("id = ?", reviewID).UpdateColumn("like_count", likes).Error
}
