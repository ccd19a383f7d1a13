package main

import (
	"backend/internal/app/ds"
	"backend/internal/app/dsn"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Отладочный скрипт: печатает контракты с их подписками
func main() {
	_ = godotenv.Load()

	db, err := gorm.Open(postgres.Open(dsn.FromEnv()), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	var contracts []ds.Contract
	if err := db.Where("is_deleted = ?", false).Find(&contracts).Error; err != nil {
		log.Fatal("Failed to get contracts:", err)
	}

	fmt.Println("Contracts in database:")
	for _, c := range contracts {
		fmt.Printf("ID: %d, Vendor: %s, Total: %s %s\n", c.ID, c.VendorName, c.TotalAmount.StringFixed(2), c.TotalCurrency)

		var subs []ds.Subscription
		if err := db.Where("contract_id = ? AND is_deleted = ?", c.ID, false).Find(&subs).Error; err != nil {
			log.Fatal("Failed to get subscriptions:", err)
		}
		for _, s := range subs {
			fmt.Printf("  Subscription %d: %s, Total: %s %s\n", s.ID, s.Name, s.TotalAmount.StringFixed(2), s.TotalCurrency)
		}
	}
}
