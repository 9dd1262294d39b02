// internal/handlers/support.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type SupportHandler struct {
	supportService *services.SupportService
}

func NewSupportHandler(supportService *services.SupportService) *SupportHandler {
	return &SupportHandler{
		supportService: supportService,
	}
}

// POST /support/messages
func (h *SupportHandler) Create(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateSupportMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	message, err := h.supportService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, i18n.KeySupportNotFound)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeySupportMessageSent),
		"id":      message.ID,
	})
}

// GET /admin/support/messages
func (h *SupportHandler) List(c *gin.Context) {
	params := services.SupportListParams{
		PaginationParams: utils.GetPaginationParams(c),
		Status:           models.SupportStatus(c.Query("status")),
	}

	messages, total, err := h.supportService.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, i18n.KeySupportNotFound)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(messages, total, params.PaginationParams))
}

// PUT /admin/support/messages/:id/resolve
func (h *SupportHandler) Resolve(c *gin.Context) {
	messageID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	message, err := h.supportService.Resolve(c.Request.Context(), messageID)
	if err != nil {
		respondError(c, err, i18n.KeySupportNotFound)
		return
	}

	utils.SuccessResponse(c, message)
}
