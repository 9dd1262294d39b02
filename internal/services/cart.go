// internal/services/cart.go
package services

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/storefront-backend/internal/models"
)

// Cart is the client-held cart. The server never persists it.
type Cart struct {
	Items []CartItem `json:"items"`
}

type CartItem struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	Image           string          `json:"image,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Category        string          `json:"category,omitempty"`
	Quantity        int             `json:"quantity"`
	StripeProductID string          `json:"stripe_product_id,omitempty"`
	StripePriceID   string          `json:"stripe_price_id,omitempty"`
}

type CartTotals struct {
	ItemCount int             `json:"item_count"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewCartItem snapshots the display fields of a catalog product.
func NewCartItem(p *models.Product) CartItem {
	return CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		Image:     p.ImageURL,
		Price:     p.Price,
		Category:  p.CategoryName(),
		Quantity:  1,
	}
}

// AddItem increments the quantity of an existing entry or appends item with
// quantity one.
func (c *Cart) AddItem(item CartItem) {
	if i := c.indexOf(item.ProductID); i >= 0 {
		c.Items[i].Quantity++
		return
	}
	item.Quantity = 1
	c.Items = append(c.Items, item)
}

// SetQuantity replaces the quantity of an entry. A quantity of zero or less
// removes it. Unknown ids are ignored.
func (c *Cart) SetQuantity(productID uuid.UUID, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}
	if i := c.indexOf(productID); i >= 0 {
		c.Items[i].Quantity = quantity
	}
}

func (c *Cart) RemoveItem(productID uuid.UUID) {
	if i := c.indexOf(productID); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) Totals() CartTotals {
	totals := CartTotals{Amount: decimal.Zero}
	for _, item := range c.Items {
		totals.ItemCount += item.Quantity
		totals.Amount = totals.Amount.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return totals
}

// Normalize merges duplicate entries and drops non-positive quantities, so a
// cart posted by a client obeys the same invariants as one built with AddItem.
func (c *Cart) Normalize() {
	merged := make([]CartItem, 0, len(c.Items))
	index := make(map[uuid.UUID]int, len(c.Items))
	for _, item := range c.Items {
		if item.Quantity <= 0 {
			continue
		}
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	c.Items = merged
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
