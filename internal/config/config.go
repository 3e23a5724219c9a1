package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppEnv          string
	HTTPPort        string
	LogLevel        string
	ServiceName     string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	CartServiceURL     string
	ShippingServiceURL string
	ContactServiceURL  string
	StockServiceURL    string
	OrderServiceURL    string
	LocationServiceURL string

	GeolocationTimeout time.Duration
	SessionTTL         time.Duration

	RedisAddr     string
	RedisPassword string

	JWTSecret string

	KafkaBrokers       []string
	OrderEventsTopic   string
	StockEventsTopic   string
	StockConsumerGroup string

	FlatRateStandard decimal.Decimal
	FlatRateExpress  decimal.Decimal
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using system environment variables")
	}

	return &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ServiceName:     getEnv("OTEL_SERVICE_NAME", "storefront"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		CartServiceURL:     getEnv("CART_SERVICE_URL", "http://localhost:8081"),
		ShippingServiceURL: getEnv("SHIPPING_SERVICE_URL", "http://localhost:8082"),
		ContactServiceURL:  getEnv("CONTACT_SERVICE_URL", "http://localhost:8083"),
		StockServiceURL:    getEnv("STOCK_SERVICE_URL", "http://localhost:8084"),
		OrderServiceURL:    getEnv("ORDER_SERVICE_URL", "http://localhost:8085"),
		LocationServiceURL: getEnv("LOCATION_SERVICE_URL", "http://localhost:8086"),

		GeolocationTimeout: getDuration("GEOLOCATION_TIMEOUT", 3*time.Second),
		SessionTTL:         getDuration("SESSION_TTL", 2*time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		JWTSecret: getEnv("JWT_SECRET", "secret"),

		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "")),
		OrderEventsTopic:   getEnv("ORDER_EVENTS_TOPIC", "order-placed"),
		StockEventsTopic:   getEnv("STOCK_EVENTS_TOPIC", "stock-changed"),
		StockConsumerGroup: getEnv("STOCK_CONSUMER_GROUP", "storefront-stock"),

		FlatRateStandard: getDecimal("FLAT_RATE_STANDARD", decimal.RequireFromString("9.99")),
		FlatRateExpress:  getDecimal("FLAT_RATE_EXPRESS", decimal.RequireFromString("19.99")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", raw, "default", defaultValue)
		return defaultValue
	}
	return d
}

func getDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		slog.Warn("invalid decimal, using default", "key", key, "value", raw)
		return defaultValue
	}
	return d
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
