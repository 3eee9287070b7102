package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"akwaabamarket.com/app/internal/modules/orders"
	"akwaabamarket.com/app/internal/modules/payments"
	"akwaabamarket.com/app/internal/modules/products"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&products.Product{},
		&orders.Order{},
		&orders.OrderItem{},
		&payments.ProviderEvent{},
	)
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	fmt.Println("tables created")
}
