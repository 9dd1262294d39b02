// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

type Config struct {
	Environment   string `env:"ENVIRONMENT" envDefault:"development"`
	Server        ServerConfig
	Database      DatabaseConfig
	JWT           JWTConfig
	Payment       PaymentConfig
	Email         EmailConfig
	AWS           AWSConfig
	AI            AIConfig
	Kafka         KafkaConfig
	Elasticsearch ElasticsearchConfig
	I18n          I18nConfig
	Frontend      FrontendConfig
	Admin         AdminConfig
	Log           LogConfig
}

type FrontendConfig struct {
	BaseURL string `env:"FRONTEND_BASE_URL" envDefault:"http://localhost:3000"`
}

type ServerConfig struct {
	Port         string `env:"SERVER_PORT" envDefault:"8080"`
	Host         string `env:"SERVER_HOST" envDefault:"localhost"`
	ReadTimeout  int    `env:"SERVER_READ_TIMEOUT" envDefault:"15"`
	WriteTimeout int    `env:"SERVER_WRITE_TIMEOUT" envDefault:"15"`
	IdleTimeout  int    `env:"SERVER_IDLE_TIMEOUT" envDefault:"60"`
}

type DatabaseConfig struct {
	Host         string `env:"DB_HOST" envDefault:"localhost"`
	Port         string `env:"DB_PORT" envDefault:"5432"`
	User         string `env:"DB_USER" envDefault:"postgres"`
	Password     string `env:"DB_PASSWORD"`
	Database     string `env:"DB_NAME" envDefault:"storefront"`
	SSLMode      string `env:"DB_SSL_MODE" envDefault:"disable"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"25"`
	MaxLifetime  int    `env:"DB_MAX_LIFETIME" envDefault:"300"`
	LogLevel     string `env:"DB_LOG_LEVEL" envDefault:"warn"`
}

type JWTConfig struct {
	SecretKey       string `env:"JWT_SECRET" envDefault:"your-secret-key-change-in-production"`
	AccessTokenTTL  int    `env:"JWT_ACCESS_TTL" envDefault:"24"`   // in hours
	RefreshTokenTTL int    `env:"JWT_REFRESH_TTL" envDefault:"168"` // in hours
}

type PaymentConfig struct {
	StripeSecretKey      string        `env:"STRIPE_SECRET_KEY"`
	StripePublishableKey string        `env:"STRIPE_PUBLISHABLE_KEY"`
	StripeWebhookSecret  string        `env:"STRIPE_WEBHOOK_SECRET"`
	Currency             string        `env:"PAYMENT_CURRENCY" envDefault:"usd"`
	MappingTTL           time.Duration `env:"STRIPE_MAPPING_TTL" envDefault:"10m"`
	SuccessPath          string        `env:"CHECKOUT_SUCCESS_PATH" envDefault:"/checkout/success"`
	CancelPath           string        `env:"CHECKOUT_CANCEL_PATH" envDefault:"/cart"`
	CryptoWalletAddress  string        `env:"CRYPTO_WALLET_ADDRESS"`
	CryptoNetwork        string        `env:"CRYPTO_NETWORK" envDefault:"ethereum"`
}

type EmailConfig struct {
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	FromEmail    string `env:"FROM_EMAIL" envDefault:"noreply@storefront.local"`
	FromName     string `env:"FROM_NAME" envDefault:"Storefront"`
}

type AWSConfig struct {
	Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Bucket        string `env:"AWS_S3_BUCKET" envDefault:"storefront-assets"`
	CloudFrontURL   string `env:"AWS_CLOUDFRONT_URL"`
}

type AIConfig struct {
	BaseURL string        `env:"AI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	APIKey  string        `env:"AI_API_KEY"`
	Model   string        `env:"AI_MODEL" envDefault:"gpt-4o-mini"`
	Timeout time.Duration `env:"AI_TIMEOUT" envDefault:"60s"`
}

type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_ORDER_TOPIC" envDefault:"storefront.orders"`
}

type ElasticsearchConfig struct {
	URL      string `env:"ES_URL"`
	Username string `env:"ES_USER"`
	Password string `env:"ES_PASSWORD"`
	Index    string `env:"ES_PRODUCT_INDEX" envDefault:"products"`
}

type I18nConfig struct {
	DefaultLocale string `env:"DEFAULT_LOCALE" envDefault:"en"`
	LocalesPath   string `env:"LOCALES_PATH" envDefault:"./internal/i18n/locales"`
}

// AdminConfig is the account the seed endpoint creates.
type AdminConfig struct {
	Email          string        `env:"ADMIN_EMAIL" envDefault:"admin@storefront.local"`
	Password       string        `env:"ADMIN_PASSWORD"`
	OrphanedCutoff time.Duration `env:"ORPHANED_ORDER_CUTOFF" envDefault:"24h"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return config, config.Validate()
}

// Validate only enforces production hardening. Missing third-party
// credentials are reported by the operation that needs them.
func (c *Config) Validate() error {
	if c.JWT.SecretKey == defaultJWTSecret && c.IsProduction() {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.IsProduction() {
		return fmt.Errorf("database password is required in production")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CheckoutSuccessURL is the hosted-checkout redirect target. Stripe replaces
// the session placeholder.
func (c *Config) CheckoutSuccessURL() string {
	return c.Frontend.BaseURL + c.Payment.SuccessPath + "?session_id={CHECKOUT_SESSION_ID}"
}

func (c *Config) CheckoutCancelURL() string {
	return c.Frontend.BaseURL + c.Payment.CancelPath
}
