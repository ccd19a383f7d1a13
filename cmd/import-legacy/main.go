package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"backend/internal/app/dsn"
	"backend/internal/app/etl"
	"backend/internal/app/repository"
)

// Разовый импорт лицензий сотрудников из xlsx выгрузки старой системы.
// После вставки стоимость подписки и контракта пересчитываются
func main() {
	filePath := flag.String("file", "", "путь к xlsx файлу")
	tenantID := flag.Uint("tenant", 0, "ID арендатора")
	subscriptionID := flag.Uint("subscription", 0, "ID подписки")
	flag.Parse()

	if *filePath == "" || *tenantID == 0 || *subscriptionID == 0 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	repo, err := repository.New(dsn.FromEnv())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if _, err := repo.GetSubscriptionByID(*tenantID, *subscriptionID); err != nil {
		log.Fatalf("Subscription %d not found for tenant %d", *subscriptionID, *tenantID)
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}
	defer f.Close()

	licenses, rowErrs, err := etl.ParseEmployeeLicenses(f, *tenantID, *subscriptionID)
	if err != nil {
		log.Fatalf("Failed to parse xlsx: %v", err)
	}
	for _, re := range rowErrs {
		log.Printf("skip: %v", re)
	}
	if len(licenses) == 0 {
		log.Fatal("No valid rows in file")
	}

	imported, err := repo.BulkCreateEmployeeLicenses(*tenantID, licenses)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("Imported %d licenses, skipped %d rows", imported, len(rowErrs))
}
