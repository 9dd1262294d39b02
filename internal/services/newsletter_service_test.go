package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/testutil"
)

func TestNewsletterSubscribeIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewNewsletterService(db, &fakeGenerator{}, &fakeMailer{}, "https://shop.example/")
	ctx := context.Background()

	first, err := svc.Subscribe(ctx, &SubscribeRequest{Email: "Fan@Example.com"})
	require.NoError(t, err)
	second, err := svc.Subscribe(ctx, &SubscribeRequest{Email: "fan@example.com"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "fan@example.com", second.Email)

	var count int64
	db.Model(&models.NewsletterSubscriber{}).Count(&count)
	assert.Equal(t, int64(1), count)

	_, err = svc.Subscribe(ctx, &SubscribeRequest{Email: "nope"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewsletterUnsubscribeAndReactivate(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewNewsletterService(db, &fakeGenerator{}, &fakeMailer{}, "https://shop.example")
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, &SubscribeRequest{Email: "fan@example.com"})
	require.NoError(t, err)
	oldToken := sub.UnsubscribeToken

	require.NoError(t, svc.Unsubscribe(ctx, oldToken))
	var stored models.NewsletterSubscriber
	require.NoError(t, db.First(&stored, "id = ?", sub.ID).Error)
	assert.Equal(t, models.SubscriberStatusUnsubscribed, stored.Status)
	assert.NotNil(t, stored.UnsubscribedAt)

	assert.ErrorIs(t, svc.Unsubscribe(ctx, "unknown"), ErrNotFound)

	again, err := svc.Subscribe(ctx, &SubscribeRequest{Email: "fan@example.com"})
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)
	assert.Equal(t, models.SubscriberStatusActive, again.Status)
	assert.NotEqual(t, oldToken, again.UnsubscribeToken)
	assert.Nil(t, again.UnsubscribedAt)
}

func TestNewsletterGenerateDraft(t *testing.T) {
	db := testutil.NewTestDB(t)
	tee := testutil.CreateProduct(t, db, "Classic Tee", "24.00")
	generator := &fakeGenerator{}
	svc := NewNewsletterService(db, generator, &fakeMailer{}, "https://shop.example")

	draft, err := svc.Generate(context.Background(), &GenerateNewsletterRequest{
		Topic:      "Spring collection",
		ProductIDs: []uuid.UUID{tee.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, models.NewsletterStatusDraft, draft.Status)
	assert.Equal(t, "Spring drop", draft.Subject)
	assert.Equal(t, "Spring collection", generator.topic)
	require.Len(t, generator.highlights, 1)
	assert.True(t, strings.HasPrefix(generator.highlights[0], "Classic Tee (24.00)"))
}

func TestNewsletterGenerateProviderError(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewNewsletterService(db, &fakeGenerator{err: ErrNotConfigured}, &fakeMailer{}, "")

	_, err := svc.Generate(context.Background(), &GenerateNewsletterRequest{Topic: "Sale"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	var count int64
	db.Model(&models.NewsletterSend{}).Count(&count)
	assert.Zero(t, count)
}

func TestNewsletterSendCountsFailures(t *testing.T) {
	db := testutil.NewTestDB(t)
	mailer := &fakeMailer{failFor: map[string]bool{"bounce@example.com": true}}
	svc := NewNewsletterService(db, &fakeGenerator{}, mailer, "https://shop.example")
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "bounce@example.com", "gone@example.com"} {
		_, err := svc.Subscribe(ctx, &SubscribeRequest{Email: email})
		require.NoError(t, err)
	}
	var gone models.NewsletterSubscriber
	require.NoError(t, db.First(&gone, "email = ?", "gone@example.com").Error)
	require.NoError(t, svc.Unsubscribe(ctx, gone.UnsubscribeToken))

	draft, err := svc.Generate(ctx, &GenerateNewsletterRequest{Topic: "Restock"})
	require.NoError(t, err)

	result, err := svc.Send(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Recipients)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, models.NewsletterStatusSent, result.Newsletter.Status)
	assert.NotNil(t, result.Newsletter.SentAt)

	require.Len(t, mailer.newsletters, 1)
	assert.Equal(t, "a@example.com", mailer.newsletters[0].to)
	assert.True(t, strings.HasPrefix(mailer.newsletters[0].unsubscribeURL, "https://shop.example/newsletter/unsubscribe/"))

	_, err = svc.Send(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Send(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewsletterListPaginates(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewNewsletterService(db, &fakeGenerator{}, &fakeMailer{}, "")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Generate(ctx, &GenerateNewsletterRequest{Topic: "Weekly"})
		require.NoError(t, err)
	}

	sends, total, err := svc.List(ctx, paginationPage(1, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, sends, 2)
}
