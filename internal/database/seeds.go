// internal/database/seeds.go
package database

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/models"
)

type SeedResult struct {
	Categories int  `json:"categories"`
	Products   int  `json:"products"`
	AdminUser  bool `json:"admin_user"`
}

type seedProduct struct {
	Name        string
	Slug        string
	Description string
	Price       string
	Category    string
	ImageURL    string
	Stock       int
}

var sampleCategories = []models.Category{
	{Name: "Apparel", Slug: "apparel", Description: "Shirts, hoodies and caps"},
	{Name: "Accessories", Slug: "accessories", Description: "Stickers, mugs and everything else"},
	{Name: "Digital", Slug: "digital", Description: "Downloadable goods"},
}

var sampleProducts = []seedProduct{
	{Name: "Classic Tee", Slug: "classic-tee", Description: "Heavyweight cotton t-shirt.", Price: "24.00", Category: "apparel", ImageURL: "/images/classic-tee.png", Stock: 120},
	{Name: "Logo Hoodie", Slug: "logo-hoodie", Description: "Fleece hoodie with embroidered logo.", Price: "58.00", Category: "apparel", ImageURL: "/images/logo-hoodie.png", Stock: 40},
	{Name: "Dad Cap", Slug: "dad-cap", Description: "Unstructured six panel cap.", Price: "19.50", Category: "apparel", ImageURL: "/images/dad-cap.png", Stock: 75},
	{Name: "Sticker Pack", Slug: "sticker-pack", Description: "Ten vinyl stickers.", Price: "6.00", Category: "accessories", ImageURL: "/images/sticker-pack.png", Stock: 500},
	{Name: "Enamel Mug", Slug: "enamel-mug", Description: "Camp style enamel mug.", Price: "16.00", Category: "accessories", ImageURL: "/images/enamel-mug.png", Stock: 60},
	{Name: "Wallpaper Bundle", Slug: "wallpaper-bundle", Description: "Desktop and phone wallpapers.", Price: "4.99", Category: "digital", ImageURL: "/images/wallpapers.png", Stock: 0},
}

// SeedSampleData inserts sample categories, products and an admin account.
// Existing rows (matched by slug or email) are left untouched.
func SeedSampleData(db *gorm.DB, adminEmail, adminPassword string) (*SeedResult, error) {
	logrus.Info("Seeding sample data...")
	result := &SeedResult{}

	categoryIDs := make(map[string]uuid.UUID)
	for _, c := range sampleCategories {
		category := c
		var existing models.Category
		err := db.Where("slug = ?", category.Slug).First(&existing).Error
		switch {
		case err == nil:
			categoryIDs[category.Slug] = existing.ID
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("failed to look up category %s: %w", category.Slug, err)
		}

		if err := db.Create(&category).Error; err != nil {
			return nil, fmt.Errorf("failed to create category %s: %w", category.Slug, err)
		}
		categoryIDs[category.Slug] = category.ID
		result.Categories++
	}

	for _, p := range sampleProducts {
		var count int64
		if err := db.Model(&models.Product{}).Where("slug = ?", p.Slug).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to look up product %s: %w", p.Slug, err)
		}
		if count > 0 {
			continue
		}

		categoryID := categoryIDs[p.Category]
		product := &models.Product{
			Name:        p.Name,
			Slug:        p.Slug,
			Description: p.Description,
			Price:       decimal.RequireFromString(p.Price),
			CategoryID:  &categoryID,
			ImageURL:    p.ImageURL,
			Images:      models.StringList{p.ImageURL},
			Stock:       p.Stock,
			Active:      true,
		}
		if err := db.Create(product).Error; err != nil {
			return nil, fmt.Errorf("failed to create product %s: %w", p.Slug, err)
		}
		result.Products++
	}

	if adminEmail != "" && adminPassword != "" {
		var adminCount int64
		db.Model(&models.User{}).Where("email = ?", adminEmail).Count(&adminCount)

		if adminCount == 0 {
			admin := &models.User{
				Username: "admin",
				Email:    adminEmail,
				Role:     models.UserRoleAdmin,
				Status:   models.UserStatusActive,
			}
			if err := admin.SetPassword(adminPassword); err != nil {
				return nil, fmt.Errorf("failed to set admin password: %w", err)
			}
			if err := db.Create(admin).Error; err != nil {
				return nil, fmt.Errorf("failed to create admin user: %w", err)
			}
			result.AdminUser = true
		}
	}

	logrus.WithFields(logrus.Fields{
		"categories": result.Categories,
		"products":   result.Products,
		"admin":      result.AdminUser,
	}).Info("Sample data seeding completed")
	return result, nil
}
