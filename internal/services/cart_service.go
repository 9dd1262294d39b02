// internal/services/cart_service.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CartService prices client-held carts against the catalog and keeps their
// remote payment ids current.
type CartService struct {
	catalog    *CatalogService
	mapping    *MappingCache
	mappingTTL time.Duration
}

type PricedCart struct {
	Cart
	Totals      CartTotals  `json:"totals"`
	Unavailable []uuid.UUID `json:"unavailable,omitempty"`
}

type AddCartItemRequest struct {
	Cart      Cart      `json:"cart"`
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

type UpdateCartItemRequest struct {
	Cart     Cart `json:"cart"`
	Quantity int  `json:"quantity"`
}

func NewCartService(catalog *CatalogService, mapping *MappingCache, mappingTTL time.Duration) *CartService {
	return &CartService{
		catalog:    catalog,
		mapping:    mapping,
		mappingTTL: mappingTTL,
	}
}

func (s *CartService) AddItem(ctx context.Context, cart Cart, productID uuid.UUID) (*PricedCart, error) {
	product, err := s.catalog.GetProduct(ctx, productID, false)
	if err != nil {
		return nil, err
	}

	cart.Normalize()
	cart.AddItem(NewCartItem(product))
	return s.Price(ctx, cart)
}

func (s *CartService) SetQuantity(ctx context.Context, cart Cart, productID uuid.UUID, quantity int) (*PricedCart, error) {
	cart.Normalize()
	cart.SetQuantity(productID, quantity)
	return s.Price(ctx, cart)
}

// Clear empties the cart and returns it priced, so clients get the same
// shape as every other cart endpoint.
func (s *CartService) Clear(ctx context.Context, cart Cart) (*PricedCart, error) {
	cart.Clear()
	return s.Price(ctx, cart)
}

// Price refreshes display fields and prices from the catalog, drops items
// that can no longer be bought and overlays the payment mapping.
func (s *CartService) Price(ctx context.Context, cart Cart) (*PricedCart, error) {
	cart.Normalize()

	ids := make([]uuid.UUID, len(cart.Items))
	for i, item := range cart.Items {
		ids[i] = item.ProductID
	}
	products, err := s.catalog.ProductsByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	priced := &PricedCart{}
	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok || !product.Active {
			priced.Unavailable = append(priced.Unavailable, item.ProductID)
			continue
		}
		fresh := NewCartItem(&product)
		fresh.Quantity = item.Quantity
		fresh.StripeProductID = item.StripeProductID
		fresh.StripePriceID = item.StripePriceID
		priced.Items = append(priced.Items, fresh)
	}

	s.applyMapping(ctx, &priced.Cart)
	if priced.Items == nil {
		priced.Items = []CartItem{}
	}
	priced.Totals = priced.Cart.Totals()
	return priced, nil
}

// applyMapping refreshes a stale mapping before overlaying it. A failed sync
// keeps whatever ids the cart already carries.
func (s *CartService) applyMapping(ctx context.Context, cart *Cart) {
	if s.mapping == nil {
		return
	}
	if err := s.mapping.EnsureFresh(ctx, s.mappingTTL); err != nil {
		entry := logrus.WithError(err)
		if errors.Is(err, ErrNotConfigured) {
			entry.Debug("Skipping Stripe mapping refresh")
		} else {
			entry.Warn("Failed to refresh Stripe mapping")
		}
	}
	s.mapping.Apply(cart)
}
