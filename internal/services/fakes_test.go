package services

import (
	"context"
	"errors"
	"sync"

	"github.com/javajoker/storefront-backend/internal/events"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/search"
)

type fakeGateway struct {
	products     []RemoteProduct
	prices       []RemotePrice
	listErr      error
	sessionErr   error
	unconfigured bool

	mu       sync.Mutex
	sessions []*CheckoutSessionRequest
	listings int
}

func (g *fakeGateway) Configured() bool { return !g.unconfigured }

func (g *fakeGateway) ListActiveProducts(context.Context) ([]RemoteProduct, error) {
	g.mu.Lock()
	g.listings++
	g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	return g.products, nil
}

func (g *fakeGateway) ListActivePrices(context.Context) ([]RemotePrice, error) {
	if g.listErr != nil {
		return nil, g.listErr
	}
	return g.prices, nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req *CheckoutSessionRequest) (*HostedSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions = append(g.sessions, req)
	if g.sessionErr != nil {
		return nil, g.sessionErr
	}
	return &HostedSession{ID: "cs_test_123", URL: "https://checkout.stripe.test/cs_test_123"}, nil
}

type sentNewsletter struct {
	to, subject, unsubscribeURL string
}

type fakeMailer struct {
	mu            sync.Mutex
	confirmations []string
	newsletters   []sentNewsletter
	acks          []string
	failFor       map[string]bool
}

func (m *fakeMailer) SendOrderConfirmation(_ *models.Order, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, to)
	return nil
}

func (m *fakeMailer) SendNewsletter(to, subject, _ string, unsubscribeURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[to] {
		return errors.New("mailbox unavailable")
	}
	m.newsletters = append(m.newsletters, sentNewsletter{to: to, subject: subject, unsubscribeURL: unsubscribeURL})
	return nil
}

func (m *fakeMailer) SendSupportAcknowledgement(msg *models.SupportMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acks = append(m.acks, msg.Email)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *fakePublisher) PublishOrderEvent(_ context.Context, event events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeGenerator struct {
	topic      string
	highlights []string
	err        error
}

func (g *fakeGenerator) GenerateNewsletter(_ context.Context, topic string, highlights []string) (*GeneratedContent, error) {
	g.topic = topic
	g.highlights = highlights
	if g.err != nil {
		return nil, g.err
	}
	return &GeneratedContent{Subject: "Spring drop", HTML: "<p>New arrivals</p>"}, nil
}

type fakeIndex struct {
	docs      map[string]search.ProductDocument
	deleted   []string
	results   []string
	searchErr error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: map[string]search.ProductDocument{}}
}

func (f *fakeIndex) IndexProduct(_ context.Context, doc search.ProductDocument) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.docs, id)
	return nil
}

func (f *fakeIndex) SearchProducts(context.Context, string, int, int) ([]string, int64, error) {
	if f.searchErr != nil {
		return nil, 0, f.searchErr
	}
	return f.results, int64(len(f.results)), nil
}
