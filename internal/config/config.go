// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	AWS      AWSConfig
	Payment  PaymentConfig
	Email    EmailConfig
	I18n     I18nConfig
	Frontend FrontendConfig
	Permits  PermitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string
}

type JWTConfig struct {
	Secret               string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
}

type PaymentConfig struct {
	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

type I18nConfig struct {
	DefaultLanguage    string
	SupportedLanguages []string
}

type FrontendConfig struct {
	BaseURL string
}

// PermitConfig carries the numbering and validity policy for issued permits.
// Validity maps each permit type code to its window in days, counted from
// the release date.
type PermitConfig struct {
	RegionCode      string
	Validity        map[string]int
	ExpirySweepHour int
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  time.Duration(getEnvAsInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvAsInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "biodiversity"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "Asia/Manila"),
		},
		JWT: JWTConfig{
			Secret:               getEnv("JWT_SECRET", ""),
			AccessTokenDuration:  time.Duration(getEnvAsInt("JWT_ACCESS_DURATION", 15)) * time.Minute,
			RefreshTokenDuration: time.Duration(getEnvAsInt("JWT_REFRESH_DURATION", 7*24)) * time.Hour,
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "ap-southeast-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "biodiversity-documents"),
		},
		Payment: PaymentConfig{
			StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			Currency:            getEnv("PAYMENT_CURRENCY", "php"),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", "localhost"),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@biodiversity.gov.ph"),
			FromName:     getEnv("FROM_NAME", "Biodiversity Management Bureau"),
		},
		I18n: I18nConfig{
			DefaultLanguage:    getEnv("DEFAULT_LANGUAGE", "en"),
			SupportedLanguages: []string{"en", "fil"},
		},
		Frontend: FrontendConfig{
			BaseURL: getEnv("FRONTEND_BASE_URL", "http://localhost:3000"),
		},
		Permits: PermitConfig{
			RegionCode: getEnv("PERMIT_REGION_CODE", "PMDQ"),
			Validity: map[string]int{
				"WFP": getEnvAsInt("VALIDITY_DAYS_WFP", 1825),
				"WCP": getEnvAsInt("VALIDITY_DAYS_WCP", 1825),
				"LTP": getEnvAsInt("VALIDITY_DAYS_LTP", 30),
				"CWR": getEnvAsInt("VALIDITY_DAYS_CWR", 30),
				"GP":  getEnvAsInt("VALIDITY_DAYS_GP", 30),
			},
			ExpirySweepHour: getEnvAsInt("EXPIRY_SWEEP_HOUR", 1),
		},
	}

	return config, nil
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Database.Password == "" && c.Server.Environment == "production" {
		return fmt.Errorf("DB_PASSWORD is required in production")
	}
	for _, t := range []string{"WFP", "WCP", "LTP", "CWR", "GP"} {
		if c.Permits.Validity[t] <= 0 {
			return fmt.Errorf("validity window for %s must be positive", t)
		}
	}
	return nil
}

// ValidityDays returns the validity window for a permit type code.
func (c *Config) ValidityDays(permitType string) (int, bool) {
	days, ok := c.Permits.Validity[permitType]
	return days, ok
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
