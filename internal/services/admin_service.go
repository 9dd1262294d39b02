// internal/services/admin_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/database"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type AdminService struct {
	db  *gorm.DB
	cfg config.AdminConfig
	now func() time.Time
}

type AdminDashboardStats struct {
	TotalUsers         int64                        `json:"total_users"`
	NewUsersThisMonth  int64                        `json:"new_users_this_month"`
	TotalProducts      int64                        `json:"total_products"`
	ActiveProducts     int64                        `json:"active_products"`
	OrdersByStatus     map[models.OrderStatus]int64 `json:"orders_by_status"`
	TotalRevenue       decimal.Decimal              `json:"total_revenue"`
	MonthlyRevenue     decimal.Decimal              `json:"monthly_revenue"`
	RevenueGrowth      float64                      `json:"revenue_growth"`
	ActiveSubscribers  int64                        `json:"active_subscribers"`
	TotalReviews       int64                        `json:"total_reviews"`
	OpenSupportTickets int64                        `json:"open_support_messages"`
	OrphanedOrders     int64                        `json:"orphaned_orders"`
}

type AdminUserFilter struct {
	utils.PaginationParams
	Role   models.UserRole   `json:"role,omitempty"`
	Status models.UserStatus `json:"status,omitempty"`
}

type AdminAuditFilter struct {
	utils.PaginationParams
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
}

type UpdateUserStatusRequest struct {
	Status models.UserStatus `json:"status" validate:"required,oneof=active suspended"`
}

func NewAdminService(db *gorm.DB, cfg config.AdminConfig) *AdminService {
	return &AdminService{db: db, cfg: cfg, now: time.Now}
}

// Dashboard Statistics
func (s *AdminService) GetDashboardStats(ctx context.Context) (*AdminDashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &AdminDashboardStats{OrdersByStatus: map[models.OrderStatus]int64{}}
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	// User statistics
	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	db.Model(&models.User{}).Where("created_at >= ?", monthStart).Count(&stats.NewUsersThisMonth)

	// Catalog statistics
	db.Model(&models.Product{}).Count(&stats.TotalProducts)
	db.Model(&models.Product{}).Where("active = ?", true).Count(&stats.ActiveProducts)

	// Order statistics
	var rows []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := db.Model(&models.Order{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	for _, r := range rows {
		stats.OrdersByStatus[r.Status] = r.Count
	}

	var err error
	if stats.TotalRevenue, err = s.paidRevenue(db, time.Time{}, time.Time{}); err != nil {
		return nil, err
	}
	if stats.MonthlyRevenue, err = s.paidRevenue(db, monthStart, time.Time{}); err != nil {
		return nil, err
	}
	lastMonthRevenue, err := s.paidRevenue(db, lastMonthStart, monthStart)
	if err != nil {
		return nil, err
	}
	if lastMonthRevenue.IsPositive() {
		stats.RevenueGrowth = stats.MonthlyRevenue.Sub(lastMonthRevenue).Div(lastMonthRevenue).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	db.Model(&models.Order{}).
		Where("status = ? AND created_at < ?", models.OrderStatusPending, now.Add(-s.cfg.OrphanedCutoff)).
		Count(&stats.OrphanedOrders)

	// Community statistics
	db.Model(&models.NewsletterSubscriber{}).Where("status = ?", models.SubscriberStatusActive).Count(&stats.ActiveSubscribers)
	db.Model(&models.Review{}).Count(&stats.TotalReviews)
	db.Model(&models.SupportMessage{}).Where("status = ?", models.SupportStatusOpen).Count(&stats.OpenSupportTickets)

	return stats, nil
}

// paidRevenue sums paid order totals in [from, to). Zero bounds are open.
func (s *AdminService) paidRevenue(db *gorm.DB, from, to time.Time) (decimal.Decimal, error) {
	query := db.Model(&models.Order{}).Where("status = ?", models.OrderStatusPaid)
	if !from.IsZero() {
		query = query.Where("paid_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("paid_at < ?", to)
	}

	// Summed in Go so the decimal column keeps its precision on every driver.
	var totals []decimal.Decimal
	if err := query.Pluck("total", &totals).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t)
	}
	return sum, nil
}

// User Management
func (s *AdminService) GetUsers(ctx context.Context, filter AdminUserFilter) ([]models.User, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})

	// Apply filters
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		searchTerm := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "username", "email", "role", "status"}
	query = utils.ApplySort(query, filter.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}
	return users, total, nil
}

// UpdateUserStatus suspends or re-activates a customer. Admin accounts cannot
// be changed through this path.
func (s *AdminService) UpdateUserStatus(ctx context.Context, userID uuid.UUID, req *UpdateUserStatusRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user.IsAdmin() {
		return nil, fmt.Errorf("%w: cannot modify admin user status", ErrForbidden)
	}

	if err := s.db.WithContext(ctx).Model(&user).Update("status", req.Status).Error; err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	user.Status = req.Status
	return &user, nil
}

// Order Management
func (s *AdminService) ListOrders(ctx context.Context, params OrderListParams) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	return s.findOrders(query, params.PaginationParams)
}

// OrphanedOrders lists pending orders older than the cutoff. These are
// checkouts whose payment session was never created or never completed.
func (s *AdminService) OrphanedOrders(ctx context.Context, olderThan time.Duration, params utils.PaginationParams) ([]models.Order, int64, error) {
	if olderThan <= 0 {
		olderThan = s.cfg.OrphanedCutoff
	}
	query := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("status = ? AND created_at < ?", models.OrderStatusPending, s.now().Add(-olderThan))
	return s.findOrders(query, params)
}

func (s *AdminService) findOrders(query *gorm.DB, params utils.PaginationParams) ([]models.Order, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "total", "status"})
	query = utils.ApplyPagination(query, params)

	var orders []models.Order
	if err := query.Preload("Items").Preload("User").Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, total, nil
}

func (s *AdminService) GetAuditLogs(ctx context.Context, filter AdminAuditFilter) ([]models.AuditLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query = utils.ApplySort(query, filter.PaginationParams, []string{"created_at", "action", "status_code"})
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}
	return logs, total, nil
}

// Setup
func (s *AdminService) SetupSchema(ctx context.Context) error {
	return database.RunMigrations(s.db.WithContext(ctx))
}

// Seed inserts sample data. The admin account is only created when a
// password is configured.
func (s *AdminService) Seed(ctx context.Context) (*database.SeedResult, error) {
	if s.cfg.Password == "" {
		logrus.Warn("ADMIN_PASSWORD not set, admin account will not be seeded")
	}
	return database.SeedSampleData(s.db.WithContext(ctx), s.cfg.Email, s.cfg.Password)
}
