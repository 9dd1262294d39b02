package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/events"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/testutil"
)

const testWebhookSecret = "whsec_test_secret"

type checkoutFixture struct {
	db        *gorm.DB
	svc       *CheckoutService
	gateway   *fakeGateway
	publisher *fakePublisher
	mailer    *fakeMailer
	user      *models.User
	tee       *models.Product
	mug       *models.Product
	tote      *models.Product
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	db := testutil.NewTestDB(t)

	cfg := &config.Config{}
	cfg.Frontend.BaseURL = "https://shop.example"
	cfg.Payment.Currency = "usd"
	cfg.Payment.MappingTTL = 10 * time.Minute
	cfg.Payment.SuccessPath = "/checkout/success"
	cfg.Payment.CancelPath = "/cart"
	cfg.Payment.StripeWebhookSecret = testWebhookSecret
	cfg.Payment.CryptoWalletAddress = "0xabc"
	cfg.Payment.CryptoNetwork = "ethereum"

	f := &checkoutFixture{
		db: db,
		gateway: &fakeGateway{
			products: []RemoteProduct{{ID: "prod_tee", Name: "Classic Tee"}, {ID: "prod_mug", Name: "enamel mug"}},
			prices:   []RemotePrice{{ID: "price_tee", ProductID: "prod_tee"}, {ID: "price_mug", ProductID: "prod_mug"}},
		},
		publisher: &fakePublisher{},
		mailer:    &fakeMailer{},
		user:      testutil.CreateUser(t, db, "shopper", models.UserRoleCustomer),
		tee:       testutil.CreateProduct(t, db, "Classic Tee", "24.00"),
		mug:       testutil.CreateProduct(t, db, "Enamel Mug", "16.00"),
		tote:      testutil.CreateProduct(t, db, "Canvas Tote", "12.00"),
	}
	f.svc = NewCheckoutService(db, cfg, f.gateway, NewMappingCache(db, f.gateway), f.publisher, f.mailer)
	return f
}

func testShipping() models.ShippingSnapshot {
	return models.ShippingSnapshot{
		Name:       "Ada Lovelace",
		Email:      "ada@example.com",
		Line1:      "1 Analytical Way",
		City:       "London",
		PostalCode: "N1 9GU",
		Country:    "GB",
	}
}

func (f *checkoutFixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&n).Error)
	return n
}

func TestCreateCheckoutSessionRejectsUnmappedItem(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.CreateCheckoutSession(context.Background(), f.user.ID, &CheckoutRequest{
		Items:    []CartItem{{ProductID: f.tee.ID, Quantity: 1}, {ProductID: f.tote.ID, Quantity: 1}},
		Shipping: testShipping(),
	})

	assert.ErrorIs(t, err, ErrInvalidCart)
	assert.Zero(t, f.orderCount(t))
	assert.Empty(t, f.gateway.sessions)
}

func TestCreateCheckoutSessionIgnoresClientPriceIDs(t *testing.T) {
	f := newCheckoutFixture(t)

	// A client supplied price id cannot stand in for a missing mapping.
	_, err := f.svc.CreateCheckoutSession(context.Background(), f.user.ID, &CheckoutRequest{
		Items:    []CartItem{{ProductID: f.tote.ID, Quantity: 1, StripePriceID: "price_one_cent"}},
		Shipping: testShipping(),
	})
	assert.ErrorIs(t, err, ErrInvalidCart)
	assert.Zero(t, f.orderCount(t))

	// Nor can it replace the synced one.
	resp, err := f.svc.CreateCheckoutSession(context.Background(), f.user.ID, &CheckoutRequest{
		Items:    []CartItem{{ProductID: f.mug.ID, Quantity: 3, StripeProductID: "prod_other", StripePriceID: "price_one_cent"}},
		Shipping: testShipping(),
	})
	require.NoError(t, err)

	var order models.Order
	require.NoError(t, f.db.First(&order, "id = ?", resp.OrderID).Error)
	assert.True(t, decimal.RequireFromString("48.00").Equal(order.Total), order.Total.String())
	require.Len(t, f.gateway.sessions, 1)
	assert.Equal(t, []CheckoutLineItem{{PriceID: "price_mug", Quantity: 3}}, f.gateway.sessions[0].LineItems)
}

func TestCreateCheckoutSessionRequiresConfiguredGateway(t *testing.T) {
	f := newCheckoutFixture(t)
	f.gateway.unconfigured = true

	_, err := f.svc.CreateCheckoutSession(context.Background(), f.user.ID, &CheckoutRequest{
		Items:    []CartItem{{ProductID: f.tee.ID, Quantity: 1}},
		Shipping: testShipping(),
	})

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Zero(t, f.orderCount(t))
	assert.Empty(t, f.gateway.sessions)
}

func TestCreateCheckoutSessionWritesPendingOrder(t *testing.T) {
	f := newCheckoutFixture(t)

	resp, err := f.svc.CreateCheckoutSession(context.Background(), f.user.ID, &CheckoutRequest{
		Items: []CartItem{
			{ProductID: f.tee.ID, Quantity: 2, Price: decimal.RequireFromString("0.01")},
			{ProductID: f.mug.ID, Quantity: 1, StripePriceID: "price_mug_cached"},
		},
		Shipping: testShipping(),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/cs_test_123", resp.URL)

	var order models.Order
	require.NoError(t, f.db.Preload("Items").First(&order, "id = ?", resp.OrderID).Error)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentMethodStripe, order.PaymentMethod)
	assert.Equal(t, "cs_test_123", order.PaymentReference)
	assert.True(t, decimal.RequireFromString("64.00").Equal(order.Total), order.Total.String())
	assert.Len(t, order.Items, 2)
	assert.Equal(t, "London", order.Shipping.City)

	require.Len(t, f.gateway.sessions, 1)
	session := f.gateway.sessions[0]
	assert.Equal(t, []CheckoutLineItem{{PriceID: "price_tee", Quantity: 2}, {PriceID: "price_mug", Quantity: 1}}, session.LineItems)
	assert.Equal(t, order.ID.String(), session.Metadata["order_id"])
	assert.Equal(t, order.ID.String(), session.ClientReferenceID)
	assert.Equal(t, "https://shop.example/checkout/success?session_id={CHECKOUT_SESSION_ID}", session.SuccessURL)

	assert.Equal(t, []string{events.OrderCreated}, f.publisher.types())
}

func TestCreateCheckoutSessionGatewayFailureLeavesPendingOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	f.gateway.sessionErr = errors.New("stripe unavailable")

	_, err := f.svc.CreateCheckoutSession(context.Background(), f.user.ID, &CheckoutRequest{
		Items:    []CartItem{{ProductID: f.tee.ID, Quantity: 1}},
		Shipping: testShipping(),
	})
	require.ErrorIs(t, err, ErrGateway)

	var orders []models.Order
	require.NoError(t, f.db.Find(&orders).Error)
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderStatusPending, orders[0].Status)
}

func TestCreateCheckoutSessionValidation(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.CreateCheckoutSession(context.Background(), f.user.ID, &CheckoutRequest{Shipping: testShipping()})
	assert.ErrorIs(t, err, ErrValidation)

	shipping := testShipping()
	shipping.Email = "not-an-email"
	_, err = f.svc.CreateCheckoutSession(context.Background(), f.user.ID, &CheckoutRequest{
		Items:    []CartItem{{ProductID: f.tee.ID, Quantity: 1}},
		Shipping: shipping,
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, f.orderCount(t))
}

func TestCreateCryptoPayment(t *testing.T) {
	f := newCheckoutFixture(t)

	resp, err := f.svc.CreateCryptoPayment(context.Background(), f.user.ID, &CheckoutRequest{
		Items:    []CartItem{{ProductID: f.mug.ID, Quantity: 3}},
		Shipping: testShipping(),
	})
	require.NoError(t, err)

	assert.Equal(t, "0xabc", resp.WalletAddress)
	assert.True(t, decimal.RequireFromString("48.00").Equal(resp.Amount))
	assert.Regexp(t, `^CRY-`, resp.Reference)

	var order models.Order
	require.NoError(t, f.db.First(&order, "id = ?", resp.OrderID).Error)
	assert.Equal(t, models.PaymentMethodCrypto, order.PaymentMethod)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Empty(t, f.gateway.sessions)
}

func TestCreateCryptoPaymentNotConfigured(t *testing.T) {
	f := newCheckoutFixture(t)
	f.svc.cfg.Payment.CryptoWalletAddress = ""

	_, err := f.svc.CreateCryptoPayment(context.Background(), f.user.ID, &CheckoutRequest{
		Items:    []CartItem{{ProductID: f.mug.ID, Quantity: 1}},
		Shipping: testShipping(),
	})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func signedEvent(t *testing.T, eventID, eventType string, session map[string]interface{}) ([]byte, string) {
	t.Helper()
	return signedEventForVersion(t, stripe.APIVersion, eventID, eventType, session)
}

func signedEventForVersion(t *testing.T, apiVersion, eventID, eventType string, session map[string]interface{}) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":          eventID,
		"object":      "event",
		"api_version": apiVersion,
		"type":        eventType,
		"created":     time.Now().Unix(),
		"data":        map[string]interface{}{"object": session},
	})
	require.NoError(t, err)

	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return payload, fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func (f *checkoutFixture) pendingOrder(t *testing.T) *models.Order {
	t.Helper()
	resp, err := f.svc.CreateCheckoutSession(context.Background(), f.user.ID, &CheckoutRequest{
		Items:    []CartItem{{ProductID: f.tee.ID, Quantity: 1}},
		Shipping: testShipping(),
	})
	require.NoError(t, err)

	var order models.Order
	require.NoError(t, f.db.First(&order, "id = ?", resp.OrderID).Error)
	return &order
}

func TestStripeWebhookMarksOrderPaid(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.pendingOrder(t)

	payload, sig := signedEvent(t, "evt_paid", "checkout.session.completed", map[string]interface{}{
		"id":             "cs_test_123",
		"object":         "checkout.session",
		"payment_status": "paid",
		"amount_total":   2400,
		"currency":       "usd",
		"metadata":       map[string]string{"order_id": order.ID.String()},
	})
	require.NoError(t, f.svc.HandleStripeWebhook(context.Background(), payload, sig))

	var updated models.Order
	require.NoError(t, f.db.First(&updated, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusPaid, updated.Status)
	assert.NotNil(t, updated.PaidAt)
	assert.Equal(t, []string{"ada@example.com"}, f.mailer.confirmations)
	assert.Equal(t, []string{events.OrderCreated, events.OrderPaid}, f.publisher.types())

	// Redelivery is acknowledged without side effects
	require.NoError(t, f.svc.HandleStripeWebhook(context.Background(), payload, sig))
	assert.Len(t, f.mailer.confirmations, 1)

	var seen int64
	f.db.Model(&models.WebhookEvent{}).Where("event_id = ?", "evt_paid").Count(&seen)
	assert.Equal(t, int64(1), seen)
}

func TestStripeWebhookAmountMismatchStaysPending(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.pendingOrder(t)

	payload, sig := signedEvent(t, "evt_underpaid", "checkout.session.completed", map[string]interface{}{
		"id":             "cs_test_123",
		"object":         "checkout.session",
		"payment_status": "paid",
		"amount_total":   3,
		"currency":       "usd",
		"metadata":       map[string]string{"order_id": order.ID.String()},
	})
	require.NoError(t, f.svc.HandleStripeWebhook(context.Background(), payload, sig))

	var updated models.Order
	require.NoError(t, f.db.First(&updated, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, updated.Status)
	assert.Nil(t, updated.PaidAt)
	assert.Empty(t, f.mailer.confirmations)
	assert.Equal(t, []string{events.OrderCreated}, f.publisher.types())

	var seen int64
	f.db.Model(&models.WebhookEvent{}).Where("event_id = ?", "evt_underpaid").Count(&seen)
	assert.Equal(t, int64(1), seen)
}

func TestStripeWebhookCurrencyMismatchStaysPending(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.pendingOrder(t)

	payload, sig := signedEvent(t, "evt_wrong_currency", "checkout.session.async_payment_succeeded", map[string]interface{}{
		"id":           "cs_test_123",
		"object":       "checkout.session",
		"amount_total": 2400,
		"currency":     "jpy",
		"metadata":     map[string]string{"order_id": order.ID.String()},
	})
	require.NoError(t, f.svc.HandleStripeWebhook(context.Background(), payload, sig))

	var updated models.Order
	require.NoError(t, f.db.First(&updated, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, updated.Status)
}

func TestStripeWebhookAcceptsOtherAPIVersions(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.pendingOrder(t)

	payload, sig := signedEventForVersion(t, "2020-08-27", "evt_old_version", "checkout.session.completed", map[string]interface{}{
		"id":             "cs_test_123",
		"object":         "checkout.session",
		"payment_status": "paid",
		"amount_total":   2400,
		"currency":       "usd",
		"metadata":       map[string]string{"order_id": order.ID.String()},
	})
	require.NoError(t, f.svc.HandleStripeWebhook(context.Background(), payload, sig))

	var updated models.Order
	require.NoError(t, f.db.First(&updated, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusPaid, updated.Status)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(4800), MinorUnits(decimal.RequireFromString("48.00"), "usd"))
	assert.Equal(t, int64(1999), MinorUnits(decimal.RequireFromString("19.99"), "EUR"))
	assert.Equal(t, int64(500), MinorUnits(decimal.RequireFromString("500"), "jpy"))
}

func TestStripeWebhookFallsBackToClientReference(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.pendingOrder(t)

	payload, sig := signedEvent(t, "evt_expired", "checkout.session.expired", map[string]interface{}{
		"id":                  "cs_test_123",
		"object":              "checkout.session",
		"client_reference_id": order.ID.String(),
	})
	require.NoError(t, f.svc.HandleStripeWebhook(context.Background(), payload, sig))

	var updated models.Order
	require.NoError(t, f.db.First(&updated, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)
}

func TestStripeWebhookUnpaidCompletionStaysPending(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.pendingOrder(t)

	payload, sig := signedEvent(t, "evt_delayed", "checkout.session.completed", map[string]interface{}{
		"id":             "cs_test_123",
		"object":         "checkout.session",
		"payment_status": "unpaid",
		"metadata":       map[string]string{"order_id": order.ID.String()},
	})
	require.NoError(t, f.svc.HandleStripeWebhook(context.Background(), payload, sig))

	var updated models.Order
	require.NoError(t, f.db.First(&updated, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusPending, updated.Status)
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	f := newCheckoutFixture(t)
	payload, _ := signedEvent(t, "evt_forged", "checkout.session.completed", map[string]interface{}{"id": "cs_x"})

	err := f.svc.HandleStripeWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetOrderHidesOtherUsersOrders(t *testing.T) {
	f := newCheckoutFixture(t)
	order := f.pendingOrder(t)
	other := testutil.CreateUser(t, f.db, "someone", models.UserRoleCustomer)

	_, err := f.svc.GetOrder(context.Background(), other.ID, order.ID, false)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := f.svc.GetOrder(context.Background(), other.ID, order.ID, true)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.svc.GetOrder(context.Background(), f.user.ID, uuid.New(), false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrdersFiltersByUser(t *testing.T) {
	f := newCheckoutFixture(t)
	f.pendingOrder(t)
	f.pendingOrder(t)

	params := OrderListParams{}
	params.Page, params.Limit, params.Order = 1, 10, "desc"
	orders, total, err := f.svc.ListOrders(context.Background(), f.user.ID, params)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, orders, 2)

	orders, total, err = f.svc.ListOrders(context.Background(), uuid.New(), params)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, orders)
}
