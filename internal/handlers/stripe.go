// internal/handlers/stripe.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type StripeHandler struct {
	mapping *services.MappingCache
}

func NewStripeHandler(mapping *services.MappingCache) *StripeHandler {
	return &StripeHandler{
		mapping: mapping,
	}
}

// GET /stripe/mappings
// ?refresh=true forces a sync before answering.
func (h *StripeHandler) GetMappings(c *gin.Context) {
	if refresh, _ := strconv.ParseBool(c.Query("refresh")); refresh {
		h.Sync(c)
		return
	}

	utils.SuccessResponse(c, h.mapping.Snapshot())
}

// POST /admin/stripe/sync
func (h *StripeHandler) Sync(c *gin.Context) {
	snapshot, err := h.mapping.Sync(c.Request.Context())
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return
	}

	utils.SuccessResponse(c, snapshot)
}
