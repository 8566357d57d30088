package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/SscSPs/donation_payments_app/internal/apperrors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL        string
	Port               string
	IsProduction       bool
	EnableDBCheck      bool
	LedgerBackend      string
	MigrationsPath     string
	JWTSecret          string
	JWTExpiryDuration  time.Duration
	JWTIssuer          string
	CORSAllowedOrigins []string
	AdminEmails        []string

	// Rate limits in ulule/limiter format, e.g. "5-M".
	LoginRateLimit   string
	PaymentRateLimit string

	MaxOrderIDAttempts int

	Gateway GatewayConfig
}

// GatewayConfig carries the merchant credentials and checkout parameters.
type GatewayConfig struct {
	MerchantID      string
	MerchantSecret  string
	Sandbox         bool
	Currency        string
	ItemDescription string
	Country         string
	ReturnURL       string
	CancelURL       string
	NotifyURL       string
	// NotifyToken authorises notifications that arrive without an md5sig.
	NotifyToken string
}

// Validate reports ErrConfigurationMissing when the merchant credentials are absent.
func (g GatewayConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(g.MerchantID) == "" {
		missing = append(missing, "PAYHERE_MERCHANT_ID")
	}
	if strings.TrimSpace(g.MerchantSecret) == "" {
		missing = append(missing, "PAYHERE_MERCHANT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s not set", apperrors.ErrConfigurationMissing, strings.Join(missing, ", "))
	}
	return nil
}

// PaymentGateway returns the gateway section.
func (c *Config) PaymentGateway() GatewayConfig {
	return c.Gateway
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("LEDGER_BACKEND", BackendPostgres)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "donation-payments-app")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("ADMIN_EMAILS", "")
	viper.SetDefault("LOGIN_RATE_LIMIT", "5-M")
	viper.SetDefault("PAYMENT_RATE_LIMIT", "20-M")
	viper.SetDefault("MAX_ORDER_ID_ATTEMPTS", 5)
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	viper.SetDefault("PAYHERE_MERCHANT_ID", "")
	viper.SetDefault("PAYHERE_MERCHANT_SECRET", "")
	viper.SetDefault("PAYHERE_SANDBOX", true)
	viper.SetDefault("PAYHERE_CURRENCY", "LKR")
	viper.SetDefault("PAYHERE_ITEM_DESCRIPTION", "NGO Donation")
	viper.SetDefault("PAYHERE_COUNTRY", "Sri Lanka")
	viper.SetDefault("PAYHERE_RETURN_URL", "")
	viper.SetDefault("PAYHERE_CANCEL_URL", "")
	viper.SetDefault("PAYHERE_NOTIFY_URL", "")
	viper.SetDefault("PAYHERE_NOTIFY_TOKEN", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.LedgerBackend = strings.ToLower(viper.GetString("LEDGER_BACKEND"))
	switch cfg.LedgerBackend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			log.Println("Warning: PGSQL_URL environment variable not set.")
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("unsupported LEDGER_BACKEND %q", cfg.LedgerBackend)
	}
	cfg.MigrationsPath = viper.GetString("MIGRATIONS_PATH")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = time.Hour
		if jwtExpiryStr != "" {
			log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration.String())
		}
	}
	cfg.JWTExpiryDuration = jwtExpiryDuration
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.AdminEmails = splitList(viper.GetString("ADMIN_EMAILS"))
	cfg.LoginRateLimit = viper.GetString("LOGIN_RATE_LIMIT")
	cfg.PaymentRateLimit = viper.GetString("PAYMENT_RATE_LIMIT")

	cfg.MaxOrderIDAttempts = viper.GetInt("MAX_ORDER_ID_ATTEMPTS")
	if cfg.MaxOrderIDAttempts < 1 {
		log.Printf("Warning: MAX_ORDER_ID_ATTEMPTS must be at least 1 (got %d). Defaulting to 5.\n", cfg.MaxOrderIDAttempts)
		cfg.MaxOrderIDAttempts = 5
	}

	baseURL := strings.TrimRight(viper.GetString("PUBLIC_BASE_URL"), "/")
	cfg.Gateway = GatewayConfig{
		MerchantID:      strings.TrimSpace(viper.GetString("PAYHERE_MERCHANT_ID")),
		MerchantSecret:  viper.GetString("PAYHERE_MERCHANT_SECRET"),
		Sandbox:         viper.GetBool("PAYHERE_SANDBOX"),
		Currency:        viper.GetString("PAYHERE_CURRENCY"),
		ItemDescription: viper.GetString("PAYHERE_ITEM_DESCRIPTION"),
		Country:         viper.GetString("PAYHERE_COUNTRY"),
		ReturnURL:       orDefault(viper.GetString("PAYHERE_RETURN_URL"), baseURL+"/donations"),
		CancelURL:       orDefault(viper.GetString("PAYHERE_CANCEL_URL"), baseURL+"/donations"),
		NotifyURL:       orDefault(viper.GetString("PAYHERE_NOTIFY_URL"), baseURL+"/payment/notify"),
		NotifyToken:     viper.GetString("PAYHERE_NOTIFY_TOKEN"),
	}
	if err := cfg.Gateway.Validate(); err != nil {
		log.Printf("Warning: %v. Payment creation will be unavailable.\n", err)
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
