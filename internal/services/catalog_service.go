// internal/services/catalog_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/search"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// ProductIndex is the full-text product index. A nil index means search runs
// against the database.
type ProductIndex interface {
	IndexProduct(ctx context.Context, doc search.ProductDocument) error
	DeleteProduct(ctx context.Context, id string) error
	SearchProducts(ctx context.Context, query string, from, size int) ([]string, int64, error)
}

type CatalogService struct {
	db      *gorm.DB
	index   ProductIndex
	storage *StorageService
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=2,max=255"`
	Slug        string          `json:"slug,omitempty" validate:"omitempty,slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	ImageURL    string          `json:"image_url,omitempty" validate:"omitempty,url"`
	Images      []string        `json:"images,omitempty"`
	Stock       int             `json:"stock" validate:"min=0"`
	Active      *bool           `json:"active,omitempty"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty"`
	Images      []string         `json:"images,omitempty"`
	Stock       *int             `json:"stock,omitempty" validate:"omitempty,min=0"`
	Active      *bool            `json:"active,omitempty"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Slug        string `json:"slug,omitempty" validate:"omitempty,slug"`
	Description string `json:"description"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	CategoryID      *uuid.UUID       `json:"category_id,omitempty"`
	PriceMin        *decimal.Decimal `json:"price_min,omitempty"`
	PriceMax        *decimal.Decimal `json:"price_max,omitempty"`
	InStock         bool             `json:"in_stock,omitempty"`
	IncludeInactive bool             `json:"include_inactive,omitempty"`
}

func NewCatalogService(db *gorm.DB, index ProductIndex, storage *StorageService) *CatalogService {
	return &CatalogService{
		db:      db,
		index:   index,
		storage: storage,
	}
}

func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if !req.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be greater than 0", ErrValidation)
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	slug := req.Slug
	if slug == "" {
		slug = utils.Slugify(req.Name)
	}

	product := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug,
		Description: req.Description,
		Price:       req.Price.Round(2),
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
		Images:      models.StringList(req.Images),
		Stock:       req.Stock,
		Active:      req.Active == nil || *req.Active,
	}
	if product.ImageURL == "" && len(product.Images) > 0 {
		product.ImageURL = product.Images[0]
	}

	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: product slug %q already exists", ErrConflict, slug)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return s.reindex(ctx, product.ID)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID, includeInactive bool) (*models.Product, error) {
	var product models.Product
	query := s.db.WithContext(ctx).Preload("Category")
	if !includeInactive {
		query = query.Where("active = ?", true)
	}
	if err := query.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).Preload("Category").
		Where("slug = ? AND active = ?", slug, true).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %q: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	product, err := s.GetProduct(ctx, id, true)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, fmt.Errorf("%w: price must be greater than 0", ErrValidation)
		}
		updates["price"] = req.Price.Round(2)
	}
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.Images != nil {
		updates["images"] = models.StringList(req.Images)
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	return s.reindex(ctx, id)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.GetProduct(ctx, id, true)
	if err != nil {
		return err
	}

	// Soft delete keeps order history joinable
	if err := s.db.WithContext(ctx).Delete(product).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if s.index != nil {
		if err := s.index.DeleteProduct(ctx, id.String()); err != nil {
			logrus.WithError(err).WithField("product_id", id).Warn("Failed to remove product from search index")
		}
	}
	return nil
}

func (s *CatalogService) SearchProducts(ctx context.Context, params ProductSearchParams) ([]models.Product, int64, error) {
	if params.Search != "" && s.index != nil && !params.IncludeInactive {
		products, total, err := s.searchIndex(ctx, params)
		if err == nil {
			return products, total, nil
		}
		logrus.WithError(err).Warn("Search index unavailable, falling back to database")
	}

	query := s.db.WithContext(ctx).Model(&models.Product{})

	if !params.IncludeInactive {
		query = query.Where("active = ?", true)
	}
	if params.CategoryID != nil {
		query = query.Where("category_id = ?", *params.CategoryID)
	} else if params.Category != "" {
		query = query.Where("category_id IN (?)", s.db.Model(&models.Category{}).Select("id").Where("slug = ?", params.Category))
	}
	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}
	if params.PriceMin != nil {
		query = query.Where("price >= ?", *params.PriceMin)
	}
	if params.PriceMax != nil {
		query = query.Where("price <= ?", *params.PriceMax)
	}
	if params.InStock {
		query = query.Where("stock > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "price", "rating", "review_count"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Preload("Category").Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

func (s *CatalogService) searchIndex(ctx context.Context, params ProductSearchParams) ([]models.Product, int64, error) {
	from := params.Offset()
	ids, total, err := s.index.SearchProducts(ctx, params.Search, from, params.Limit)
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []models.Product{}, total, nil
	}

	var found []models.Product
	if err := s.db.WithContext(ctx).Preload("Category").
		Where("id IN ? AND active = ?", ids, true).Find(&found).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	// Keep relevance order from the index
	byID := make(map[string]models.Product, len(found))
	for _, p := range found {
		byID[p.ID.String()] = p
	}
	products := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}
	return products, total, nil
}

// ProductsByID loads the given products keyed by id. Missing ids are absent
// from the result.
func (s *CatalogService) ProductsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	result := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var products []models.Product
	if err := s.db.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	for _, p := range products {
		result[p.ID] = p
	}
	return result, nil
}

// UploadProductImage stores an image and appends its url to the product.
func (s *CatalogService) UploadProductImage(ctx context.Context, id uuid.UUID, filename string, body io.Reader, size int64) (*models.Product, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("storage: %w", ErrNotConfigured)
	}

	product, err := s.GetProduct(ctx, id, true)
	if err != nil {
		return nil, err
	}

	upload, err := s.storage.UploadProductImage(ctx, filename, body, size)
	if err != nil {
		return nil, err
	}

	images := append(models.StringList{}, product.Images...)
	images = append(images, upload.URL)
	updates := map[string]interface{}{"images": images}
	if product.ImageURL == "" {
		updates["image_url"] = upload.URL
	}
	if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
		if delErr := s.storage.DeleteFile(ctx, upload.Key); delErr != nil {
			logrus.WithError(delErr).WithField("key", upload.Key).Warn("Failed to clean up uploaded image")
		}
		return nil, fmt.Errorf("failed to attach image: %w", err)
	}

	return s.GetProduct(ctx, id, true)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	category := &models.Category{
		Name:        strings.TrimSpace(req.Name),
		Slug:        req.Slug,
		Description: req.Description,
	}
	if category.Slug == "" {
		category.Slug = utils.Slugify(req.Name)
	}

	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: category slug %q already exists", ErrConflict, category.Slug)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// ReindexAll pushes every product into the search index.
func (s *CatalogService) ReindexAll(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, fmt.Errorf("search: %w", ErrNotConfigured)
	}

	var products []models.Product
	if err := s.db.WithContext(ctx).Preload("Category").Find(&products).Error; err != nil {
		return 0, fmt.Errorf("failed to load products: %w", err)
	}
	for i := range products {
		if err := s.index.IndexProduct(ctx, productDocument(&products[i])); err != nil {
			return i, err
		}
	}
	return len(products), nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: category %s does not exist", ErrValidation, *id)
	}
	return nil
}

// reindex reloads the product and pushes it to the search index. Index
// failures are logged; the database stays the source of truth.
func (s *CatalogService) reindex(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if s.index != nil {
		if err := s.index.IndexProduct(ctx, productDocument(product)); err != nil {
			logrus.WithError(err).WithField("product_id", id).Warn("Failed to index product")
		}
	}
	return product, nil
}

func productDocument(p *models.Product) search.ProductDocument {
	price, _ := p.Price.Float64()
	return search.ProductDocument{
		ID:          p.ID.String(),
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Category:    p.CategoryName(),
		Price:       price,
		Active:      p.Active,
	}
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}
