package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/testutil"
)

func TestSupportMessageLifecycle(t *testing.T) {
	db := testutil.NewTestDB(t)
	mailer := &fakeMailer{}
	svc := NewSupportService(db, mailer)
	ctx := context.Background()

	msg, err := svc.Create(ctx, &CreateSupportMessageRequest{
		Name:    "Ana",
		Email:   "ana@example.com",
		Subject: "Order status",
		Message: "Where is my order? It has been a week.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SupportStatusOpen, msg.Status)
	assert.Equal(t, []string{"ana@example.com"}, mailer.acks)

	open, total, err := svc.List(ctx, SupportListParams{PaginationParams: paginationPage(1, 10), Status: models.SupportStatusOpen})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, msg.ID, open[0].ID)

	resolved, err := svc.Resolve(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SupportStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	// Resolving twice keeps the first timestamp.
	again, err := svc.Resolve(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, again.ResolvedAt)
	assert.WithinDuration(t, *resolved.ResolvedAt, *again.ResolvedAt, time.Millisecond)

	_, total, err = svc.List(ctx, SupportListParams{PaginationParams: paginationPage(1, 10), Status: models.SupportStatusOpen})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSupportMessageRejectsInvalidInput(t *testing.T) {
	svc := NewSupportService(testutil.NewTestDB(t), nil)

	_, err := svc.Create(context.Background(), &CreateSupportMessageRequest{Name: "Ana", Email: "not-an-email", Subject: "Hi", Message: "short"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSupportResolveUnknownMessage(t *testing.T) {
	svc := NewSupportService(testutil.NewTestDB(t), nil)

	_, err := svc.Resolve(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSupportAcknowledgementFailureIsNotFatal(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewSupportService(db, failingMailer{&fakeMailer{}})

	_, err := svc.Create(context.Background(), &CreateSupportMessageRequest{
		Name:    "Ada",
		Email:   "ada@example.com",
		Subject: "Hello",
		Message: "Just saying hello to the team.",
	})
	assert.NoError(t, err)
}

type failingMailer struct{ *fakeMailer }

func (failingMailer) SendSupportAcknowledgement(*models.SupportMessage) error {
	return errors.New("smtp down")
}
