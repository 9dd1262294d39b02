// internal/handlers/admin.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/services"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// GET /admin/dashboard/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err, i18n.KeyError)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /admin/users
func (h *AdminHandler) GetUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.AdminUserFilter{
		PaginationParams: params,
		Role:             models.UserRole(c.Query("role")),
		Status:           models.UserStatus(c.Query("status")),
	}

	users, total, err := h.adminService.GetUsers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, i18n.KeyUserNotFound)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(users, total, params))
}

// PUT /admin/users/:id/status
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	userID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateUserStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.adminService.UpdateUserStatus(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, i18n.KeyUserNotFound)
		return
	}

	utils.SuccessResponse(c, user)
}

// GET /admin/orders
func (h *AdminHandler) ListOrders(c *gin.Context) {
	params := services.OrderListParams{
		PaginationParams: utils.GetPaginationParams(c),
		Status:           models.OrderStatus(c.Query("status")),
	}

	orders, total, err := h.adminService.ListOrders(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, i18n.KeyOrderNotFound)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, params.PaginationParams))
}

// GET /admin/orders/orphaned
// ?older_than=48h overrides the configured cutoff.
func (h *AdminHandler) GetOrphanedOrders(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	params := utils.GetPaginationParams(c)

	var olderThan time.Duration
	if raw := c.Query("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "older_than"), nil)
			return
		}
		olderThan = d
	}

	orders, total, err := h.adminService.OrphanedOrders(c.Request.Context(), olderThan, params)
	if err != nil {
		respondError(c, err, i18n.KeyOrderNotFound)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(orders, total, params))
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := services.AdminAuditFilter{
		PaginationParams: params,
		ResourceType:     c.Query("resource_type"),
	}
	if userIDStr := c.Query("user_id"); userIDStr != "" {
		if userID, err := uuid.Parse(userIDStr); err == nil {
			filter.UserID = &userID
		}
	}

	logs, total, err := h.adminService.GetAuditLogs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, i18n.KeyError)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(logs, total, params))
}

// POST /admin/setup/schema
func (h *AdminHandler) SetupSchema(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	if err := h.adminService.SetupSchema(c.Request.Context()); err != nil {
		respondError(c, err, i18n.KeyError)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdminSchemaReady),
	})
}

// POST /admin/setup/seed
func (h *AdminHandler) Seed(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	result, err := h.adminService.Seed(c.Request.Context())
	if err != nil {
		respondError(c, err, i18n.KeyError)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdminSeeded),
		"seeded":  result,
	})
}
