// internal/handlers/cart.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// CartHandler prices client-held carts. Nothing is stored server side; every
// endpoint returns the normalized cart with fresh prices and totals.
type CartHandler struct {
	cartService *services.CartService
}

func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req services.AddCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	priced, err := h.cartService.AddItem(c.Request.Context(), req.Cart, req.ProductID)
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.SuccessResponse(c, priced)
}

// PUT /cart/items/:productId
// A quantity of zero or less removes the item.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	productID, ok := paramUUID(c, "productId")
	if !ok {
		return
	}

	var req services.UpdateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	priced, err := h.cartService.SetQuantity(c.Request.Context(), req.Cart, productID, req.Quantity)
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.SuccessResponse(c, priced)
}

// DELETE /cart/items
func (h *CartHandler) Clear(c *gin.Context) {
	priced, err := h.cartService.Clear(c.Request.Context(), services.Cart{})
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.SuccessResponse(c, priced)
}

// POST /cart/price
func (h *CartHandler) Price(c *gin.Context) {
	var cart services.Cart
	if !bindJSON(c, &cart) {
		return
	}

	priced, err := h.cartService.Price(c.Request.Context(), cart)
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.SuccessResponse(c, priced)
}
