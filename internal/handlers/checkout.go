// internal/handlers/checkout.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

const stripeSignatureHeader = "Stripe-Signature"

type CheckoutHandler struct {
	checkoutService *services.CheckoutService
}

func NewCheckoutHandler(checkoutService *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

// POST /checkout/session
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.checkoutService.CreateCheckoutSession(c.Request.Context(), userID, &req)
	if err != nil {
		h.respondCheckoutError(c, err)
		return
	}

	utils.CreatedResponse(c, session)
}

// POST /checkout/crypto
func (h *CheckoutHandler) CreateCryptoPayment(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	payment, err := h.checkoutService.CreateCryptoPayment(c.Request.Context(), userID, &req)
	if err != nil {
		h.respondCheckoutError(c, err)
		return
	}

	utils.CreatedResponse(c, payment)
}

// POST /webhooks/stripe
func (h *CheckoutHandler) StripeWebhook(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	payload, err := c.GetRawData()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "payload"), nil)
		return
	}

	err = h.checkoutService.HandleStripeWebhook(c.Request.Context(), payload, c.GetHeader(stripeSignatureHeader))
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyWebhookInvalid), nil)
			return
		}
		respondError(c, err, i18n.KeyOrderNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{"received": true})
}

// GET /orders
func (h *CheckoutHandler) ListOrders(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	params := services.OrderListParams{
		PaginationParams: utils.GetPaginationParams(c),
		Status:           models.OrderStatus(c.Query("status")),
	}

	orders, total, err := h.checkoutService.ListOrders(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, err, i18n.KeyOrderNotFound)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, params.PaginationParams))
}

// GET /orders/:id
func (h *CheckoutHandler) GetOrder(c *gin.Context) {
	userID, isAdmin, ok := currentUser(c)
	if !ok {
		return
	}

	orderID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	order, err := h.checkoutService.GetOrder(c.Request.Context(), userID, orderID, isAdmin)
	if err != nil {
		respondError(c, err, i18n.KeyOrderNotFound)
		return
	}

	utils.SuccessResponse(c, order)
}

// respondCheckoutError keeps the 500 for provider failures but tags them with
// a payment error code.
func (h *CheckoutHandler) respondCheckoutError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	switch {
	case errors.Is(err, services.ErrNotConfigured):
		utils.ErrorResponse(c, http.StatusInternalServerError, "PAYMENT_UNAVAILABLE", i18n.T(lang, i18n.KeyPaymentNotConfigured), nil)
	case errors.Is(err, services.ErrGateway):
		utils.ErrorResponse(c, http.StatusInternalServerError, "PAYMENT_FAILED", i18n.T(lang, i18n.KeyPaymentFailed), nil)
	default:
		respondError(c, err, i18n.KeyProductNotFound)
	}
}
