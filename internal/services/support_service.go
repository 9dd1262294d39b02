// internal/services/support_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type SupportService struct {
	db     *gorm.DB
	mailer Mailer
}

type CreateSupportMessageRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Subject string `json:"subject" validate:"required,max=255"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

type SupportListParams struct {
	utils.PaginationParams
	Status models.SupportStatus `json:"status,omitempty"`
}

func NewSupportService(db *gorm.DB, mailer Mailer) *SupportService {
	return &SupportService{db: db, mailer: mailer}
}

// Create stores the message. The acknowledgement email is best effort.
func (s *SupportService) Create(ctx context.Context, req *CreateSupportMessageRequest) (*models.SupportMessage, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	msg := &models.SupportMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
		Status:  models.SupportStatusOpen,
	}
	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to save support message: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendSupportAcknowledgement(msg); err != nil {
			logrus.WithError(err).WithField("message", msg.ID).Warn("Failed to acknowledge support message")
		}
	}
	return msg, nil
}

func (s *SupportService) List(ctx context.Context, params SupportListParams) ([]models.SupportMessage, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.SupportMessage{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count support messages: %w", err)
	}

	query = utils.ApplySort(query, params.PaginationParams, []string{"created_at", "status"})
	query = utils.ApplyPagination(query, params.PaginationParams)

	var messages []models.SupportMessage
	if err := query.Find(&messages).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch support messages: %w", err)
	}
	return messages, total, nil
}

func (s *SupportService) Resolve(ctx context.Context, id uuid.UUID) (*models.SupportMessage, error) {
	var msg models.SupportMessage
	if err := s.db.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("support message %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if msg.Status == models.SupportStatusResolved {
		return &msg, nil
	}

	now := time.Now()
	msg.Status = models.SupportStatusResolved
	msg.ResolvedAt = &now
	if err := s.db.WithContext(ctx).Save(&msg).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve support message: %w", err)
	}
	return &msg, nil
}
