// internal/services/checkout_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/database"
	"github.com/javajoker/storefront-backend/internal/events"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// Stripe event types the webhook acts on.
const (
	eventCheckoutCompleted      = "checkout.session.completed"
	eventCheckoutAsyncSucceeded = "checkout.session.async_payment_succeeded"
	eventCheckoutAsyncFailed    = "checkout.session.async_payment_failed"
	eventCheckoutExpired        = "checkout.session.expired"
)

type CheckoutService struct {
	db        *gorm.DB
	cfg       *config.Config
	gateway   PaymentGateway
	mapping   *MappingCache
	publisher events.Publisher
	mailer    Mailer
}

type CheckoutRequest struct {
	Items    []CartItem              `json:"items"`
	Shipping models.ShippingSnapshot `json:"shipping"`
}

type CheckoutSessionResponse struct {
	OrderID   uuid.UUID `json:"order_id"`
	SessionID string    `json:"session_id"`
	URL       string    `json:"url"`
}

type CryptoPaymentResponse struct {
	OrderID       uuid.UUID       `json:"order_id"`
	WalletAddress string          `json:"wallet_address"`
	Network       string          `json:"network"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Reference     string          `json:"reference"`
}

type OrderListParams struct {
	utils.PaginationParams
	Status models.OrderStatus `json:"status,omitempty"`
}

func NewCheckoutService(db *gorm.DB, cfg *config.Config, gateway PaymentGateway, mapping *MappingCache, publisher events.Publisher, mailer Mailer) *CheckoutService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &CheckoutService{
		db:        db,
		cfg:       cfg,
		gateway:   gateway,
		mapping:   mapping,
		publisher: publisher,
		mailer:    mailer,
	}
}

// CreateCheckoutSession writes a pending order for the cart and opens a
// hosted payment session for it. Line items use the synced price ids only;
// remote ids sent by the client are ignored. The order only becomes paid
// through the payment webhook. If the session cannot be created the pending
// order is left in place.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, req *CheckoutRequest) (*CheckoutSessionResponse, error) {
	if s.gateway == nil || !s.gateway.Configured() {
		return nil, fmt.Errorf("payment gateway: %w", ErrNotConfigured)
	}

	cart, err := s.prepareCart(req)
	if err != nil {
		return nil, err
	}

	lineItems, err := s.lineItems(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	items, total, err := s.priceItems(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	order, err := s.createOrder(ctx, userID, models.PaymentMethodStripe, "", total, req.Shipping, items)
	if err != nil {
		return nil, err
	}

	hosted, err := s.gateway.CreateCheckoutSession(ctx, &CheckoutSessionRequest{
		LineItems:         lineItems,
		SuccessURL:        s.cfg.CheckoutSuccessURL(),
		CancelURL:         s.cfg.CheckoutCancelURL(),
		ClientReferenceID: order.ID.String(),
		CustomerEmail:     req.Shipping.Email,
		Metadata: map[string]string{
			"order_id": order.ID.String(),
			"user_id":  userID.String(),
		},
	})
	if err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Error("Checkout session failed, order left pending")
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}

	if err := s.db.WithContext(ctx).Model(order).Update("payment_reference", hosted.ID).Error; err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Error("Failed to store checkout session id")
	}
	order.PaymentReference = hosted.ID
	s.publish(ctx, events.OrderCreated, order)

	return &CheckoutSessionResponse{
		OrderID:   order.ID,
		SessionID: hosted.ID,
		URL:       hosted.URL,
	}, nil
}

// CreateCryptoPayment writes a pending crypto order and returns the transfer
// instructions. Transfers are not verified on chain.
func (s *CheckoutService) CreateCryptoPayment(ctx context.Context, userID uuid.UUID, req *CheckoutRequest) (*CryptoPaymentResponse, error) {
	if s.cfg.Payment.CryptoWalletAddress == "" {
		return nil, fmt.Errorf("crypto wallet: %w", ErrNotConfigured)
	}

	cart, err := s.prepareCart(req)
	if err != nil {
		return nil, err
	}

	items, total, err := s.priceItems(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	reference, err := utils.GeneratePaymentReference()
	if err != nil {
		return nil, fmt.Errorf("failed to generate payment reference: %w", err)
	}

	order, err := s.createOrder(ctx, userID, models.PaymentMethodCrypto, reference, total, req.Shipping, items)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.OrderCreated, order)

	return &CryptoPaymentResponse{
		OrderID:       order.ID,
		WalletAddress: s.cfg.Payment.CryptoWalletAddress,
		Network:       s.cfg.Payment.CryptoNetwork,
		Amount:        total,
		Currency:      order.Currency,
		Reference:     reference,
	}, nil
}

// HandleStripeWebhook verifies and applies a payment provider event.
// Redelivered events are acknowledged without being applied again.
func (s *CheckoutService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	secret := s.cfg.Payment.StripeWebhookSecret
	if secret == "" {
		return fmt.Errorf("stripe webhook secret: %w", ErrNotConfigured)
	}

	// Only stable session fields are read, so events from any endpoint API
	// version are accepted.
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return fmt.Errorf("%w: webhook verification failed: %w", ErrValidation, err)
	}

	var target models.OrderStatus
	switch string(event.Type) {
	case eventCheckoutCompleted, eventCheckoutAsyncSucceeded:
		target = models.OrderStatusPaid
	case eventCheckoutExpired, eventCheckoutAsyncFailed:
		target = models.OrderStatusCancelled
	default:
		logrus.WithField("type", event.Type).Debug("Ignoring Stripe event")
		return nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("%w: failed to parse checkout session: %w", ErrValidation, err)
	}

	// Delayed payment methods complete the session before funds arrive
	if string(event.Type) == eventCheckoutCompleted && session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		target = ""
	}

	orderIDStr := session.Metadata["order_id"]
	if orderIDStr == "" {
		orderIDStr = session.ClientReferenceID
	}
	orderID, err := uuid.Parse(orderIDStr)
	if err != nil {
		logrus.WithFields(logrus.Fields{"event_id": event.ID, "session_id": session.ID}).Warn("Checkout session carries no order id")
		return s.recordEvent(ctx, event.ID, string(event.Type))
	}

	var updated *models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seen int64
		if err := tx.Model(&models.WebhookEvent{}).Where("event_id = ?", event.ID).Count(&seen).Error; err != nil {
			return fmt.Errorf("failed to check webhook event: %w", err)
		}
		if seen > 0 {
			return nil
		}

		if target == models.OrderStatusPaid {
			matches, err := amountMatches(tx, orderID, &session)
			if err != nil {
				return err
			}
			if !matches {
				target = ""
			}
		}

		if target != "" {
			order, err := transitionOrder(tx, orderID, target)
			if err != nil {
				return err
			}
			updated = order
		}

		return tx.Create(&models.WebhookEvent{
			EventID:     event.ID,
			EventType:   string(event.Type),
			ProcessedAt: time.Now(),
		}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to apply webhook event %s: %w", event.ID, err)
	}

	if updated == nil {
		return nil
	}

	logrus.WithFields(logrus.Fields{"order_id": updated.ID, "status": updated.Status}).Info("Order status updated from webhook")
	switch updated.Status {
	case models.OrderStatusPaid:
		s.publish(ctx, events.OrderPaid, updated)
		s.sendConfirmation(updated)
	case models.OrderStatusCancelled:
		s.publish(ctx, events.OrderCancelled, updated)
	}
	return nil
}

func (s *CheckoutService) ListOrders(ctx context.Context, userID uuid.UUID, params OrderListParams) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query = utils.ApplySort(query, params.PaginationParams, []string{"created_at", "total", "status"})
	query = utils.ApplyPagination(query, params.PaginationParams)

	var orders []models.Order
	if err := query.Preload("Items").Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, total, nil
}

// GetOrder returns an order visible to the caller. Other users' orders are
// reported as not found.
func (s *CheckoutService) GetOrder(ctx context.Context, userID, orderID uuid.UUID, isAdmin bool) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if order.UserID != userID && !isAdmin {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return &order, nil
}

// lineItems resolves every cart item to its synced price id. Items without a
// mapping make the cart invalid.
func (s *CheckoutService) lineItems(ctx context.Context, cartItems []CartItem) ([]CheckoutLineItem, error) {
	if s.mapping == nil {
		return nil, fmt.Errorf("%w: no payment prices available", ErrInvalidCart)
	}
	if err := s.mapping.EnsureFresh(ctx, s.cfg.Payment.MappingTTL); err != nil {
		logrus.WithError(err).Warn("Failed to refresh Stripe mapping before checkout")
	}

	lineItems := make([]CheckoutLineItem, len(cartItems))
	for i, item := range cartItems {
		entry, ok := s.mapping.Lookup(item.ProductID)
		if !ok || entry.PriceID == "" {
			return nil, fmt.Errorf("%w: product %s has no payment price", ErrInvalidCart, item.ProductID)
		}
		lineItems[i] = CheckoutLineItem{PriceID: entry.PriceID, Quantity: int64(item.Quantity)}
	}
	return lineItems, nil
}

// amountMatches reports whether the provider charged the order total in the
// order currency. Mismatches are logged and the order stays pending for
// manual review.
func amountMatches(tx *gorm.DB, orderID uuid.UUID, session *stripe.CheckoutSession) (bool, error) {
	var order models.Order
	if err := tx.Select("id", "total", "currency").First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.WithField("order_id", orderID).Warn("Webhook references unknown order")
			return false, nil
		}
		return false, fmt.Errorf("failed to load order: %w", err)
	}

	expected := MinorUnits(order.Total, order.Currency)
	if session.AmountTotal == expected && strings.EqualFold(string(session.Currency), order.Currency) {
		return true, nil
	}

	logrus.WithFields(logrus.Fields{
		"order_id":         orderID,
		"session_id":       session.ID,
		"expected_amount":  expected,
		"charged_amount":   session.AmountTotal,
		"order_currency":   order.Currency,
		"charged_currency": session.Currency,
	}).Error("Checkout amount does not match order total, order left pending")
	return false, nil
}

func (s *CheckoutService) prepareCart(req *CheckoutRequest) (Cart, error) {
	cart := Cart{Items: append([]CartItem(nil), req.Items...)}
	cart.Normalize()
	if len(cart.Items) == 0 {
		return Cart{}, fmt.Errorf("%w: cart is empty", ErrValidation)
	}
	if err := utils.ValidateStruct(&req.Shipping); err != nil {
		return Cart{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return cart, nil
}

// priceItems re-prices cart items from the catalog. Client supplied prices
// are ignored.
func (s *CheckoutService) priceItems(ctx context.Context, cartItems []CartItem) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]uuid.UUID, len(cartItems))
	for i, item := range cartItems {
		ids[i] = item.ProductID
	}

	var products []models.Product
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(cartItems))
	for _, item := range cartItems {
		product, ok := byID[item.ProductID]
		if !ok || !product.Active {
			return nil, decimal.Zero, fmt.Errorf("%w: product %s is not available", ErrInvalidCart, item.ProductID)
		}
		line := models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
		}
		total = total.Add(line.LineTotal())
		items = append(items, line)
	}
	return items, total, nil
}

// createOrder writes the order and its items in one transaction.
func (s *CheckoutService) createOrder(ctx context.Context, userID uuid.UUID, method models.PaymentMethod, reference string, total decimal.Decimal, shipping models.ShippingSnapshot, items []models.OrderItem) (*models.Order, error) {
	order := &models.Order{
		UserID:           userID,
		Status:           models.OrderStatusPending,
		Total:            total,
		Currency:         s.cfg.Payment.Currency,
		PaymentMethod:    method,
		PaymentReference: reference,
		Shipping:         shipping,
	}

	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Items = items
	return order, nil
}

// transitionOrder moves a pending order to target. Orders that already left
// pending are returned as nil without error.
func transitionOrder(tx *gorm.DB, orderID uuid.UUID, target models.OrderStatus) (*models.Order, error) {
	now := time.Now()
	updates := map[string]interface{}{"status": target}
	switch target {
	case models.OrderStatusPaid:
		updates["paid_at"] = now
	case models.OrderStatusCancelled:
		updates["cancelled_at"] = now
	}

	result := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		logrus.WithFields(logrus.Fields{"order_id": orderID, "target": target}).Warn("Order not pending, status unchanged")
		return nil, nil
	}

	var order models.Order
	if err := tx.Preload("Items").Preload("User").First(&order, "id = ?", orderID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	return &order, nil
}

func (s *CheckoutService) recordEvent(ctx context.Context, eventID, eventType string) error {
	err := s.db.WithContext(ctx).
		Where(models.WebhookEvent{EventID: eventID}).
		Attrs(models.WebhookEvent{EventType: eventType, ProcessedAt: time.Now()}).
		FirstOrCreate(&models.WebhookEvent{}).Error
	if err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	return nil
}

func (s *CheckoutService) publish(ctx context.Context, eventType string, order *models.Order) {
	err := s.publisher.PublishOrderEvent(ctx, events.OrderEvent{
		Type:          eventType,
		OrderID:       order.ID.String(),
		UserID:        order.UserID.String(),
		Status:        string(order.Status),
		Total:         order.Total.StringFixed(2),
		Currency:      order.Currency,
		PaymentMethod: string(order.PaymentMethod),
	})
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"order_id": order.ID, "type": eventType}).Warn("Failed to publish order event")
	}
}

func (s *CheckoutService) sendConfirmation(order *models.Order) {
	if s.mailer == nil {
		return
	}
	to := order.Shipping.Email
	if to == "" && order.User != nil {
		to = order.User.Email
	}
	if to == "" {
		return
	}
	if err := s.mailer.SendOrderConfirmation(order, to); err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Warn("Failed to send order confirmation")
	}
}
