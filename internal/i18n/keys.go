// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthAccountSuspended   = "auth.account_suspended"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"

	// Users
	KeyUserNotFound = "user.not_found"

	// Catalog
	KeyProductCreated    = "product.created"
	KeyProductUpdated    = "product.updated"
	KeyProductDeleted    = "product.deleted"
	KeyProductNotFound   = "product.not_found"
	KeyProductOutOfStock = "product.out_of_stock"
	KeyCategoryNotFound  = "category.not_found"

	// Cart and checkout
	KeyCartInvalid          = "cart.invalid"
	KeyCartEmpty            = "cart.empty"
	KeyOrderNotFound        = "order.not_found"
	KeyPaymentNotConfigured = "payment.not_configured"
	KeyPaymentFailed        = "payment.failed"
	KeyWebhookInvalid       = "webhook.invalid_signature"

	// Community
	KeyPostNotFound    = "forum.post_not_found"
	KeyCommentNotFound = "forum.comment_not_found"
	KeyReviewNotFound  = "review.not_found"
	KeyReviewExists    = "review.already_exists"

	// Newsletter and support
	KeySubscribed         = "newsletter.subscribed"
	KeyUnsubscribed       = "newsletter.unsubscribed"
	KeyNewsletterNotFound = "newsletter.not_found"
	KeySupportMessageSent = "support.message_sent"
	KeySupportNotFound    = "support.not_found"

	// Admin
	KeyAdminAccessDenied = "admin.access_denied"
	KeyAdminSchemaReady  = "admin.schema_ready"
	KeyAdminSeeded       = "admin.seeded"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// Conflicts
	KeyConflict = "conflict"

	// Rate limiting
	KeyRateLimited = "rate_limit.exceeded"

	// File Upload
	KeyFileUploadFailed = "file.upload_failed"
	KeyFileInvalidType  = "file.invalid_type"
	KeyFileTooLarge     = "file.too_large"

	// Notifications
	KeyServiceUnavailable = "service.unavailable"
)
