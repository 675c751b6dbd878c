package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port    string `mapstructure:"PORT"`
	GinMode string `mapstructure:"GIN_MODE"`

	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	StorageBucket                    string `mapstructure:"STORAGE_BUCKET"`

	ClientURL string `mapstructure:"CLIENT_URL"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	// AI backend credentials. The three Google keys are attempted in reverse
	// numeric order (key 3 first), then the OpenAI key; unset keys are skipped.
	GoogleAPIKey1 string `mapstructure:"GOOGLE_API_KEY1"`
	GoogleAPIKey2 string `mapstructure:"GOOGLE_API_KEY2"`
	GoogleAPIKey3 string `mapstructure:"GOOGLE_API_KEY3"`
	OpenAIAPIKey  string `mapstructure:"OPENAI_API_KEY"`

	// MonthlyCostLimitCents caps each user's accumulated AI cost per month.
	MonthlyCostLimitCents int64 `mapstructure:"MONTHLY_COST_LIMIT_CENTS"`

	AppleSharedSecret string `mapstructure:"APPLE_SHARED_SECRET"`
	AppleKeyID        string `mapstructure:"APPLE_KEY_ID"`
	AppleIssuerID     string `mapstructure:"APPLE_ISSUER_ID"`
	ApplePrivateKey   string `mapstructure:"APPLE_PRIVATE_KEY"` // PEM-encoded EC key
	AppleBundleID     string `mapstructure:"APPLE_BUNDLE_ID"`

	GoogleIAPPackageName string `mapstructure:"GOOGLE_IAP_PACKAGE_NAME"`
	GoogleIAPAccessToken string `mapstructure:"GOOGLE_IAP_ACCESS_TOKEN"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPSender   string `mapstructure:"SMTP_SENDER"`
	AdminEmail   string `mapstructure:"ADMIN_EMAIL"`

	ReportTimezone string `mapstructure:"REPORT_TIMEZONE"`
}

// GoogleAPIKeys returns the configured Google keys in failover order.
func (c *Config) GoogleAPIKeys() []string {
	return []string{c.GoogleAPIKey3, c.GoogleAPIKey2, c.GoogleAPIKey1}
}

var appConfig *Config

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("MONTHLY_COST_LIMIT_CENTS", 300)
	viper.SetDefault("REPORT_TIMEZONE", "America/New_York")

	// Bind environment variables
	for _, key := range []string{
		"PORT", "GIN_MODE",
		"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS",
		"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64", "STORAGE_BUCKET",
		"CLIENT_URL",
		"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET",
		"GOOGLE_API_KEY1", "GOOGLE_API_KEY2", "GOOGLE_API_KEY3", "OPENAI_API_KEY",
		"MONTHLY_COST_LIMIT_CENTS",
		"APPLE_SHARED_SECRET", "APPLE_KEY_ID", "APPLE_ISSUER_ID", "APPLE_PRIVATE_KEY",
		"APPLE_BUNDLE_ID",
		"GOOGLE_IAP_PACKAGE_NAME", "GOOGLE_IAP_ACCESS_TOKEN",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_SENDER",
		"ADMIN_EMAIL", "REPORT_TIMEZONE",
	} {
		viper.BindEnv(key)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	// Validate required fields
	if cfg.FirebaseProjectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is required")
	}
	if cfg.StorageBucket == "" {
		return nil, errors.New("STORAGE_BUCKET is required")
	}
	if cfg.StripeSecretKey == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is required")
	}
	if cfg.StripeWebhookSecret == "" {
		return nil, errors.New("STRIPE_WEBHOOK_SECRET is required")
	}
	if cfg.ClientURL == "" {
		return nil, errors.New("CLIENT_URL is required")
	}
	if cfg.GoogleAPIKey1 == "" && cfg.GoogleAPIKey2 == "" && cfg.GoogleAPIKey3 == "" && cfg.OpenAIAPIKey == "" {
		return nil, errors.New("at least one AI backend API key is required")
	}
	if cfg.MonthlyCostLimitCents <= 0 {
		return nil, errors.New("MONTHLY_COST_LIMIT_CENTS must be positive")
	}

	appConfig = &cfg
	return appConfig, nil
}

// GetConfig returns the loaded application configuration.
// It will panic if LoadConfig has not been called successfully.
func GetConfig() *Config {
	if appConfig == nil {
		panic("config not loaded; call LoadConfig first")
	}
	return appConfig
}
