// internal/models/order.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	BaseModel
	UserID           uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index"`
	Status           OrderStatus      `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Total            decimal.Decimal  `json:"total" gorm:"type:decimal(12,2);not null"`
	Currency         string           `json:"currency" gorm:"size:8;not null;default:'usd'"`
	PaymentMethod    PaymentMethod    `json:"payment_method" gorm:"type:varchar(20);not null"`
	PaymentReference string           `json:"payment_reference" gorm:"size:255;index"`
	Shipping         ShippingSnapshot `json:"shipping" gorm:"type:text"`
	PaidAt           *time.Time       `json:"paid_at"`
	CancelledAt      *time.Time       `json:"cancelled_at"`

	// Relationships
	User  *User       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem snapshots the unit price at purchase time so later catalog price
// changes never alter historical orders.
type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	ProductName string          `json:"product_name" gorm:"size:255"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
}

// LineTotal is quantity x unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type ShippingSnapshot struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone,omitempty"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required,len=2"`
}

func (s ShippingSnapshot) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *ShippingSnapshot) Scan(value interface{}) error {
	data, err := scanBytes(value)
	if err != nil || data == nil {
		return err
	}
	return json.Unmarshal(data, s)
}

// WebhookEvent records processed payment-provider events so redelivered
// events are acknowledged without being applied twice.
type WebhookEvent struct {
	EventID     string    `json:"event_id" gorm:"primaryKey;size:128"`
	EventType   string    `json:"event_type" gorm:"size:64;index"`
	ProcessedAt time.Time `json:"processed_at"`
	CreatedAt   time.Time `json:"created_at"`
}
