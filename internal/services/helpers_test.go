package services

import "github.com/javajoker/storefront-backend/internal/utils"

func paginationPage(page, limit int) utils.PaginationParams {
	return utils.PaginationParams{Page: page, Limit: limit, Sort: "created_at", Order: "desc"}
}
