package services

import (
	"net/smtp"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/models"
)

type capturedMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestNotifier(host string) (*NotificationService, *[]capturedMail) {
	cfg := &config.Config{}
	cfg.Email.SMTPHost = host
	cfg.Email.SMTPPort = "2525"
	cfg.Email.FromEmail = "shop@example.com"
	cfg.Email.FromName = "Storefront"
	cfg.Frontend.BaseURL = "https://shop.example"

	var sent []capturedMail
	svc := NewNotificationService(cfg)
	svc.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, capturedMail{addr: addr, from: from, to: to, msg: string(msg)})
		return nil
	}
	return svc, &sent
}

func TestSendOrderConfirmation(t *testing.T) {
	svc, sent := newTestNotifier("smtp.example.com")
	order := &models.Order{
		Total:    decimal.RequireFromString("48"),
		Currency: "usd",
		Shipping: models.ShippingSnapshot{Name: "Ada"},
		Items: []models.OrderItem{
			{ProductName: "Classic Tee", Quantity: 2, UnitPrice: decimal.RequireFromString("24")},
		},
	}
	order.ID = uuid.New()

	require.NoError(t, svc.SendOrderConfirmation(order, "ada@example.com"))

	require.Len(t, *sent, 1)
	mail := (*sent)[0]
	assert.Equal(t, "smtp.example.com:2525", mail.addr)
	assert.Equal(t, []string{"ada@example.com"}, mail.to)
	assert.Contains(t, mail.msg, "Subject: Your order is confirmed")
	assert.Contains(t, mail.msg, "From: Storefront <shop@example.com>")
	assert.Contains(t, mail.msg, "Classic Tee")
	assert.Contains(t, mail.msg, "Total: 48.00 usd")
	assert.Contains(t, mail.msg, "https://shop.example/orders/"+order.ID.String())
}

func TestSendNewsletterKeepsHTMLAndEscapesLink(t *testing.T) {
	svc, sent := newTestNotifier("smtp.example.com")

	require.NoError(t, svc.SendNewsletter("fan@example.com", "Spring drop", "<h2>New arrivals</h2>", "https://shop.example/newsletter/unsubscribe/abc"))

	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0].msg, "<h2>New arrivals</h2>")
	assert.Contains(t, (*sent)[0].msg, `href="https://shop.example/newsletter/unsubscribe/abc"`)
}

func TestSupportAcknowledgementEscapesUserInput(t *testing.T) {
	svc, sent := newTestNotifier("smtp.example.com")

	require.NoError(t, svc.SendSupportAcknowledgement(&models.SupportMessage{
		Name:    "<script>",
		Email:   "ada@example.com",
		Subject: "Refund",
	}))

	require.Len(t, *sent, 1)
	assert.NotContains(t, (*sent)[0].msg, "<script>")
	assert.Contains(t, (*sent)[0].msg, "&lt;script&gt;")
}

func TestNotificationSkippedWithoutSMTP(t *testing.T) {
	svc, sent := newTestNotifier("")

	require.NoError(t, svc.SendNewsletter("fan@example.com", "Hi", "<p>hi</p>", "https://shop.example/u"))
	assert.Empty(t, *sent)
}
