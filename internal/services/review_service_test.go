package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/testutil"
	"github.com/javajoker/storefront-backend/internal/utils"
)

func TestComputeReviewStats(t *testing.T) {
	product := &models.Product{Rating: 3.67, ReviewCount: 3}
	reviews := []models.Review{{Rating: 5}, {Rating: 5}, {Rating: 1}}

	stats := ComputeReviewStats(product, reviews)

	assert.Equal(t, 3.67, stats.Average)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, map[int]int{5: 67, 4: 0, 3: 0, 2: 0, 1: 33}, stats.Percentages)
}

func TestComputeReviewStatsNoReviews(t *testing.T) {
	stats := ComputeReviewStats(&models.Product{}, nil)

	assert.Zero(t, stats.Average)
	assert.Zero(t, stats.Total)
	assert.Equal(t, map[int]int{5: 0, 4: 0, 3: 0, 2: 0, 1: 0}, stats.Percentages)
}

func TestReviewCountersFollowWrites(t *testing.T) {
	db := testutil.NewTestDB(t)
	product := testutil.CreateProduct(t, db, "Classic Tee", "24.00")
	alice := testutil.CreateUser(t, db, "alice", models.UserRoleCustomer)
	bob := testutil.CreateUser(t, db, "bob", models.UserRoleCustomer)
	svc := NewReviewService(db)
	ctx := context.Background()

	_, err := svc.CreateReview(ctx, product.ID, alice.ID, &CreateReviewRequest{Rating: 5, Title: "Great"})
	require.NoError(t, err)
	bobs, err := svc.CreateReview(ctx, product.ID, bob.ID, &CreateReviewRequest{Rating: 2})
	require.NoError(t, err)

	_, err = svc.CreateReview(ctx, product.ID, bob.ID, &CreateReviewRequest{Rating: 4})
	assert.ErrorIs(t, err, ErrConflict)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, int64(2), reloaded.ReviewCount)
	assert.InDelta(t, 3.5, reloaded.Rating, 0.001)

	require.NoError(t, svc.DeleteReview(ctx, bobs.ID, bob.ID, false))
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, int64(1), reloaded.ReviewCount)
	assert.InDelta(t, 5.0, reloaded.Rating, 0.001)

	// Deleting frees the slot for a new review
	_, err = svc.CreateReview(ctx, product.ID, bob.ID, &CreateReviewRequest{Rating: 4})
	require.NoError(t, err)

	page, err := svc.ListProductReviews(ctx, product.ID, utils.PaginationParams{Page: 1, Limit: 1, Order: "desc"})
	require.NoError(t, err)
	assert.Len(t, page.Reviews, 1)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 50, page.Stats.Percentages[5])
	assert.Equal(t, 50, page.Stats.Percentages[4])
}

func TestReviewVerifiedPurchase(t *testing.T) {
	db := testutil.NewTestDB(t)
	product := testutil.CreateProduct(t, db, "Classic Tee", "24.00")
	buyer := testutil.CreateUser(t, db, "buyer", models.UserRoleCustomer)
	browser := testutil.CreateUser(t, db, "browser", models.UserRoleCustomer)
	svc := NewReviewService(db)
	ctx := context.Background()

	order := &models.Order{
		UserID:        buyer.ID,
		Status:        models.OrderStatusPaid,
		Total:         decimal.RequireFromString("24.00"),
		Currency:      "usd",
		PaymentMethod: models.PaymentMethodStripe,
		Items: []models.OrderItem{{
			ProductID: product.ID,
			Quantity:  1,
			UnitPrice: decimal.RequireFromString("24.00"),
		}},
	}
	require.NoError(t, db.Create(order).Error)

	verified, err := svc.CreateReview(ctx, product.ID, buyer.ID, &CreateReviewRequest{Rating: 4})
	require.NoError(t, err)
	assert.True(t, verified.VerifiedPurchase)

	unverified, err := svc.CreateReview(ctx, product.ID, browser.ID, &CreateReviewRequest{Rating: 3})
	require.NoError(t, err)
	assert.False(t, unverified.VerifiedPurchase)
}

func TestReviewLikesAreIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	product := testutil.CreateProduct(t, db, "Classic Tee", "24.00")
	author := testutil.CreateUser(t, db, "author", models.UserRoleCustomer)
	fan := testutil.CreateUser(t, db, "fan", models.UserRoleCustomer)
	svc := NewReviewService(db)
	ctx := context.Background()

	review, err := svc.CreateReview(ctx, product.ID, author.ID, &CreateReviewRequest{Rating: 5})
	require.NoError(t, err)

	_, err = svc.LikeReview(ctx, review.ID, fan.ID)
	require.NoError(t, err)
	liked, err := svc.LikeReview(ctx, review.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), liked.LikeCount)

	unliked, err := svc.UnlikeReview(ctx, review.ID, fan.ID)
	require.NoError(t, err)
	assert.Zero(t, unliked.LikeCount)

	_, err = svc.LikeReview(ctx, uuid.New(), fan.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewValidationAndOwnership(t *testing.T) {
	db := testutil.NewTestDB(t)
	product := testutil.CreateProduct(t, db, "Classic Tee", "24.00")
	author := testutil.CreateUser(t, db, "author", models.UserRoleCustomer)
	other := testutil.CreateUser(t, db, "other", models.UserRoleCustomer)
	svc := NewReviewService(db)
	ctx := context.Background()

	_, err := svc.CreateReview(ctx, product.ID, author.ID, &CreateReviewRequest{Rating: 6})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateReview(ctx, uuid.New(), author.ID, &CreateReviewRequest{Rating: 3})
	assert.ErrorIs(t, err, ErrNotFound)

	review, err := svc.CreateReview(ctx, product.ID, author.ID, &CreateReviewRequest{Rating: 3})
	require.NoError(t, err)

	rating := 1
	_, err = svc.UpdateReview(ctx, review.ID, other.ID, &UpdateReviewRequest{Rating: &rating})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.DeleteReview(ctx, review.ID, other.ID, false), ErrForbidden)
}
