// internal/handlers/newsletter.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type NewsletterHandler struct {
	newsletterService *services.NewsletterService
}

func NewNewsletterHandler(newsletterService *services.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{
		newsletterService: newsletterService,
	}
}

// POST /newsletter/subscribe
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.SubscribeRequest
	if !bindJSON(c, &req) {
		return
	}

	if _, err := h.newsletterService.Subscribe(c.Request.Context(), &req); err != nil {
		respondError(c, err, i18n.KeyNewsletterNotFound)
		return
	}

	// The token is only ever delivered by email
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySubscribed),
	})
}

// GET /newsletter/unsubscribe/:token
func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	if err := h.newsletterService.Unsubscribe(c.Request.Context(), c.Param("token")); err != nil {
		respondError(c, err, i18n.KeyNewsletterNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyUnsubscribed),
	})
}

// GET /admin/newsletters
func (h *NewsletterHandler) List(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	sends, total, err := h.newsletterService.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, i18n.KeyNewsletterNotFound)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(sends, total, params))
}

// POST /admin/newsletters/generate
func (h *NewsletterHandler) Generate(c *gin.Context) {
	var req services.GenerateNewsletterRequest
	if !bindJSON(c, &req) {
		return
	}

	draft, err := h.newsletterService.Generate(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, i18n.KeyNewsletterNotFound)
		return
	}

	utils.CreatedResponse(c, draft)
}

// POST /admin/newsletters/:id/send
func (h *NewsletterHandler) Send(c *gin.Context) {
	newsletterID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.newsletterService.Send(c.Request.Context(), newsletterID)
	if err != nil {
		respondError(c, err, i18n.KeyNewsletterNotFound)
		return
	}

	utils.SuccessResponse(c, result)
}
