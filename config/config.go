package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"proshift/logger"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Config holds every setting read from the environment
type Config struct {
	AppHost     string
	AppPort     string
	AppEnv      string
	FrontendURL string

	StoreDriver   string
	MongoURI      string
	MongoDatabase string

	DBHost     string
	DBPort     string
	DBDatabase string
	DBUsername string
	DBPassword string
	DBSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	IdentityKeysURL  string
	IdentityAudience string
	IdentityIssuer   string

	StripeSecretKey string
	PaymentCurrency string

	GeminiAPIKey string
	GeminiModel  string

	RequestLogEnabled bool
}

// Load reads .env (when present) and the process environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Warning("No .env file found, using process environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env
func FromEnv() *Config {
	return &Config{
		AppHost:     getEnv("APP_HOST", ""),
		AppPort:     getEnv("APP_PORT", getEnv("PORT", "5000")),
		AppEnv:      getEnv("APP_ENV", "development"),
		FrontendURL: getEnv("FRONTEND_URL", "*"),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
		MongoURI:      getEnv("MONGODB_URI", ""),
		MongoDatabase: getEnv("MONGODB_DATABASE", "ProShift"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBDatabase: getEnv("DB_DATABASE", ""),
		DBUsername: getEnv("DB_USERNAME", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL", 60)) * time.Second,

		IdentityKeysURL:  getEnv("IDENTITY_KEYS_URL", "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"),
		IdentityAudience: getEnv("IDENTITY_AUDIENCE", ""),
		IdentityIssuer:   getEnv("IDENTITY_ISSUER", ""),

		StripeSecretKey: getEnv("PAYMENT_GATEWAY_KEY", ""),
		PaymentCurrency: strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		RequestLogEnabled: getEnvBool("REQUEST_LOG_ENABLED", true),
	}
}

// Validate checks that the selected store driver has what it needs
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required for the %s driver", DriverMongo)
		}
	case DriverPostgres:
		if c.DBDatabase == "" || c.DBUsername == "" {
			return fmt.Errorf("DB_DATABASE and DB_USERNAME are required for the %s driver", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if _, err := strconv.Atoi(c.AppPort); err != nil {
		return fmt.Errorf("invalid APP_PORT %q", c.AppPort)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	return nil
}

// ListenAddr is the host:port the HTTP server binds to
func (c *Config) ListenAddr() string {
	return c.AppHost + ":" + c.AppPort
}

// PostgresDSN builds the connection string for the gorm postgres driver
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUsername, c.DBPassword, c.DBDatabase, c.DBSSLMode)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warning(fmt.Sprintf("Invalid integer for %s: %q, using %d", key, v, fallback))
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
