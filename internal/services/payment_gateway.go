// internal/services/payment_gateway.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/checkout/session"
	"github.com/stripe/stripe-go/v74/price"
	"github.com/stripe/stripe-go/v74/product"
)

type RemoteProduct struct {
	ID   string
	Name string
}

type RemotePrice struct {
	ID         string
	ProductID  string
	UnitAmount int64
	Currency   string
}

type CheckoutLineItem struct {
	PriceID  string
	Quantity int64
}

type CheckoutSessionRequest struct {
	LineItems         []CheckoutLineItem
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	CustomerEmail     string
	Metadata          map[string]string
}

type HostedSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PaymentGateway is the hosted payment provider.
type PaymentGateway interface {
	Configured() bool
	ListActiveProducts(ctx context.Context) ([]RemoteProduct, error)
	ListActivePrices(ctx context.Context) ([]RemotePrice, error)
	CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*HostedSession, error)
}

type StripeGateway struct {
	configured bool
}

func NewStripeGateway(secretKey string) *StripeGateway {
	// Initialize Stripe
	stripe.Key = secretKey

	return &StripeGateway{configured: secretKey != ""}
}

func (g *StripeGateway) Configured() bool {
	return g.configured
}

func (g *StripeGateway) ListActiveProducts(ctx context.Context) ([]RemoteProduct, error) {
	if !g.configured {
		return nil, fmt.Errorf("stripe: %w", ErrNotConfigured)
	}

	params := &stripe.ProductListParams{Active: stripe.Bool(true)}
	params.Context = ctx

	var products []RemoteProduct
	i := product.List(params)
	for i.Next() {
		p := i.Product()
		products = append(products, RemoteProduct{ID: p.ID, Name: p.Name})
	}
	if err := i.Err(); err != nil {
		return nil, fmt.Errorf("failed to list stripe products: %w", err)
	}
	return products, nil
}

func (g *StripeGateway) ListActivePrices(ctx context.Context) ([]RemotePrice, error) {
	if !g.configured {
		return nil, fmt.Errorf("stripe: %w", ErrNotConfigured)
	}

	params := &stripe.PriceListParams{Active: stripe.Bool(true)}
	params.Context = ctx

	var prices []RemotePrice
	i := price.List(params)
	for i.Next() {
		p := i.Price()
		if p.Product == nil {
			continue
		}
		prices = append(prices, RemotePrice{
			ID:         p.ID,
			ProductID:  p.Product.ID,
			UnitAmount: p.UnitAmount,
			Currency:   string(p.Currency),
		})
	}
	if err := i.Err(); err != nil {
		return nil, fmt.Errorf("failed to list stripe prices: %w", err)
	}
	return prices, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req *CheckoutSessionRequest) (*HostedSession, error) {
	if !g.configured {
		return nil, fmt.Errorf("stripe: %w", ErrNotConfigured)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for _, item := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(item.PriceID),
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &HostedSession{ID: s.ID, URL: s.URL}, nil
}

// Currencies Stripe charges in whole units.
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// MinorUnits converts an amount to the integer unit the provider reports
// totals in.
func MinorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[strings.ToLower(currency)] {
		return amount.Round(0).IntPart()
	}
	return amount.Shift(2).Round(0).IntPart()
}
