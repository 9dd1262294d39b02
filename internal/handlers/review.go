// internal/handlers/review.go
package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

// GET /products/:id/reviews
func (h *ReviewHandler) ListProductReviews(c *gin.Context) {
	productID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	reviews, err := h.reviewService.ListProductReviews(c.Request.Context(), productID, params)
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	result := utils.CreatePaginationResult(reviews.Reviews, reviews.Total, params)
	utils.SetPaginationHeaders(c, result)
	utils.SuccessResponseWithMeta(c, reviews, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

// POST /products/:id/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req services.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), productID, userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyReviewExists))
			return
		}
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.CreatedResponse(c, review)
}

// PUT /reviews/:id
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	reviewID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), reviewID, userID, &req)
	if err != nil {
		respondError(c, err, i18n.KeyReviewNotFound)
		return
	}

	utils.SuccessResponse(c, review)
}

// DELETE /reviews/:id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	userID, isAdmin, ok := currentUser(c)
	if !ok {
		return
	}
	reviewID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), reviewID, userID, isAdmin); err != nil {
		respondError(c, err, i18n.KeyReviewNotFound)
		return
	}

	utils.NoContentResponse(c)
}

// POST /reviews/:id/like
func (h *ReviewHandler) LikeReview(c *gin.Context) {
	h.toggleLike(c, h.reviewService.LikeReview)
}

// DELETE /reviews/:id/like
func (h *ReviewHandler) UnlikeReview(c *gin.Context) {
	h.toggleLike(c, h.reviewService.UnlikeReview)
}

func (h *ReviewHandler) toggleLike(c *gin.Context, apply func(ctx context.Context, reviewID, userID uuid.UUID) (*models.Review, error)) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	reviewID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	review, err := apply(c.Request.Context(), reviewID, userID)
	if err != nil {
		respondError(c, err, i18n.KeyReviewNotFound)
		return
	}

	utils.SuccessResponse(c, review)
}
