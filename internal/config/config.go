package config

import (
	"os"
	"strings"
)

type Config struct {
	Addr  string
	DBDSN string

	// Paystack
	PaystackSecretKey string
	PaystackBaseURL   string
	Currency          string

	// Identity tokens are issued by the user service; we only verify them.
	JWTSecret string

	// Optional event bus. Empty URL disables publishing.
	RabbitMQURL   string
	OrderExchange string
}

func Load() *Config {
	return &Config{
		Addr:              getEnv("ADDR", ":8080"),
		DBDSN:             getEnv("DB_DSN", ""),
		PaystackSecretKey: getEnvFromFile("PAYSTACK_SECRET_KEY_FILE", "PAYSTACK_SECRET_KEY", ""),
		PaystackBaseURL:   getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		Currency:          getEnv("CURRENCY", "GHS"),
		JWTSecret:         getEnvFromFile("JWT_SECRET_FILE", "JWT_SECRET", ""),
		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		OrderExchange:     getEnv("ORDER_EXCHANGE", "orders_exchange"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvFromFile supports docker-style *_FILE secrets.
func getEnvFromFile(fileKey, envKey, defaultValue string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return getEnv(envKey, defaultValue)
}
