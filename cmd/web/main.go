package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"akwaabamarket.com/app/internal/config"
	apphttp "akwaabamarket.com/app/internal/http"
	"akwaabamarket.com/app/internal/modules/events"
	"akwaabamarket.com/app/internal/modules/payments"
)

func main() {
	// Load .env file (ignore error if not found - prod uses real env vars)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := config.Load()
	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN environment variable is required")
	}
	if cfg.PaystackSecretKey == "" {
		log.Fatal("PAYSTACK_SECRET_KEY environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	provider := payments.NewPaystack(cfg.PaystackSecretKey, cfg.PaystackBaseURL)

	var pub events.Publisher = events.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.OrderExchange)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer amqpPub.Close()
		pub = amqpPub
	}

	r := apphttp.NewRouter(logger, db, cfg, provider, pub)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
