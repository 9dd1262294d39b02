// internal/models/newsletter.go
package models

import (
	"time"
)

type NewsletterSubscriber struct {
	BaseModel
	Email            string           `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Status           SubscriberStatus `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`
	UnsubscribeToken string           `json:"-" gorm:"size:64;uniqueIndex"`
	UnsubscribedAt   *time.Time       `json:"unsubscribed_at"`
}

type NewsletterSend struct {
	BaseModel
	Subject        string           `json:"subject" gorm:"size:255;not null"`
	Topic          string           `json:"topic" gorm:"size:255"`
	Content        string           `json:"content" gorm:"type:text;not null"`
	Status         NewsletterStatus `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`
	RecipientCount int              `json:"recipient_count" gorm:"default:0"`
	FailedCount    int              `json:"failed_count" gorm:"default:0"`
	SentAt         *time.Time       `json:"sent_at"`
}

type SupportMessage struct {
	BaseModel
	Name       string        `json:"name" gorm:"size:100;not null"`
	Email      string        `json:"email" gorm:"size:255;not null;index"`
	Subject    string        `json:"subject" gorm:"size:255;not null"`
	Message    string        `json:"message" gorm:"type:text;not null"`
	Status     SupportStatus `json:"status" gorm:"type:varchar(20);not null;default:'open';index"`
	ResolvedAt *time.Time    `json:"resolved_at"`
}
