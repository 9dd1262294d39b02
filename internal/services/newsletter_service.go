// internal/services/newsletter_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type NewsletterService struct {
	db         *gorm.DB
	generator  ContentGenerator
	mailer     Mailer
	publicBase string
}

type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type GenerateNewsletterRequest struct {
	Topic      string      `json:"topic" validate:"required,min=3,max=255"`
	ProductIDs []uuid.UUID `json:"product_ids,omitempty" validate:"max=10"`
}

// NewsletterSendResult reports the outcome of a send.
type NewsletterSendResult struct {
	Newsletter *models.NewsletterSend `json:"newsletter"`
	Recipients int                    `json:"recipients"`
	Failed     int                    `json:"failed"`
}

// NewNewsletterService builds unsubscribe links under publicBase, which is
// the frontend origin.
func NewNewsletterService(db *gorm.DB, generator ContentGenerator, mailer Mailer, publicBase string) *NewsletterService {
	return &NewsletterService{
		db:         db,
		generator:  generator,
		mailer:     mailer,
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

// Subscribe is idempotent. An unsubscribed address is re-activated with a
// fresh token.
func (s *NewsletterService) Subscribe(ctx context.Context, req *SubscribeRequest) (*models.NewsletterSubscriber, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var subscriber models.NewsletterSubscriber
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&subscriber).Error
	switch {
	case err == nil:
		if subscriber.Status == models.SubscriberStatusActive {
			return &subscriber, nil
		}
		token, err := utils.GenerateUnsubscribeToken()
		if err != nil {
			return nil, err
		}
		subscriber.Status = models.SubscriberStatusActive
		subscriber.UnsubscribeToken = token
		subscriber.UnsubscribedAt = nil
		if err := s.db.WithContext(ctx).Save(&subscriber).Error; err != nil {
			return nil, fmt.Errorf("failed to re-activate subscriber: %w", err)
		}
		return &subscriber, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("database error: %w", err)
	}

	token, err := utils.GenerateUnsubscribeToken()
	if err != nil {
		return nil, err
	}
	subscriber = models.NewsletterSubscriber{
		Email:            email,
		Status:           models.SubscriberStatusActive,
		UnsubscribeToken: token,
	}
	if err := s.db.WithContext(ctx).Create(&subscriber).Error; err != nil {
		if isUniqueViolation(err) {
			// Lost a race with a concurrent subscribe for the same address.
			if err := s.db.WithContext(ctx).Where("email = ?", email).First(&subscriber).Error; err == nil {
				return &subscriber, nil
			}
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create subscriber: %w", err)
	}
	return &subscriber, nil
}

func (s *NewsletterService) Unsubscribe(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: missing token", ErrValidation)
	}

	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.NewsletterSubscriber{}).
		Where("unsubscribe_token = ?", token).
		Updates(map[string]interface{}{
			"status":          models.SubscriberStatusUnsubscribed,
			"unsubscribed_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to unsubscribe: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("subscription: %w", ErrNotFound)
	}
	return nil
}

// Generate asks the content generator for a draft featuring the given products.
func (s *NewsletterService) Generate(ctx context.Context, req *GenerateNewsletterRequest) (*models.NewsletterSend, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var highlights []string
	if len(req.ProductIDs) > 0 {
		var products []models.Product
		if err := s.db.WithContext(ctx).Where("id IN ? AND active = ?", req.ProductIDs, true).Find(&products).Error; err != nil {
			return nil, fmt.Errorf("failed to load products: %w", err)
		}
		for _, p := range products {
			highlights = append(highlights, fmt.Sprintf("%s (%s): %s", p.Name, p.Price.StringFixed(2), p.Description))
		}
	}

	content, err := s.generator.GenerateNewsletter(ctx, req.Topic, highlights)
	if err != nil {
		return nil, err
	}

	draft := &models.NewsletterSend{
		Subject: content.Subject,
		Topic:   req.Topic,
		Content: content.HTML,
		Status:  models.NewsletterStatusDraft,
	}
	if err := s.db.WithContext(ctx).Create(draft).Error; err != nil {
		return nil, fmt.Errorf("failed to save newsletter draft: %w", err)
	}
	return draft, nil
}

// Send mails a draft to every active subscriber. Individual delivery failures
// are counted, not fatal. A newsletter is sent at most once.
func (s *NewsletterService) Send(ctx context.Context, id uuid.UUID) (*NewsletterSendResult, error) {
	var newsletter models.NewsletterSend
	if err := s.db.WithContext(ctx).First(&newsletter, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("newsletter %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if newsletter.Status == models.NewsletterStatusSent {
		return nil, fmt.Errorf("%w: newsletter already sent", ErrConflict)
	}

	var subscribers []models.NewsletterSubscriber
	if err := s.db.WithContext(ctx).Where("status = ?", models.SubscriberStatusActive).Find(&subscribers).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscribers: %w", err)
	}

	failed := 0
	for _, sub := range subscribers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.mailer.SendNewsletter(sub.Email, newsletter.Subject, newsletter.Content, s.unsubscribeURL(sub.UnsubscribeToken)); err != nil {
			failed++
			logrus.WithError(err).WithField("subscriber", sub.ID).Warn("Newsletter delivery failed")
		}
	}

	now := time.Now()
	newsletter.Status = models.NewsletterStatusSent
	newsletter.RecipientCount = len(subscribers) - failed
	newsletter.FailedCount = failed
	newsletter.SentAt = &now
	if err := s.db.WithContext(ctx).Save(&newsletter).Error; err != nil {
		return nil, fmt.Errorf("failed to record newsletter send: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"newsletter": newsletter.ID,
		"recipients": newsletter.RecipientCount,
		"failed":     failed,
	}).Info("Newsletter sent")

	return &NewsletterSendResult{Newsletter: &newsletter, Recipients: newsletter.RecipientCount, Failed: failed}, nil
}

func (s *NewsletterService) List(ctx context.Context, params utils.PaginationParams) ([]models.NewsletterSend, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.NewsletterSend{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count newsletters: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "sent_at", "subject"})
	query = utils.ApplyPagination(query, params)

	var sends []models.NewsletterSend
	if err := query.Find(&sends).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch newsletters: %w", err)
	}
	return sends, total, nil
}

func (s *NewsletterService) unsubscribeURL(token string) string {
	return fmt.Sprintf("%s/newsletter/unsubscribe/%s", s.publicBase, token)
}
