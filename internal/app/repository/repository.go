package repository

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"backend/internal/app/ds"
)

// ErrNotFound возвращается, когда сущность не найдена в рамках арендатора
var ErrNotFound = errors.New("запись не найдена")

type Repository struct {
	db *gorm.DB
}

func New(dsn string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Автоматическая миграция всех таблиц
	err = db.AutoMigrate(
		&ds.User{},
		&ds.Contract{},
		&ds.Subscription{},
		&ds.LicensePeriod{},
		&ds.EmployeeLicense{},
		&ds.Document{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// NewWithDB оборачивает готовое соединение (используется в тестах)
func NewWithDB(db *gorm.DB) (*Repository, error) {
	err := db.AutoMigrate(
		&ds.User{},
		&ds.Contract{},
		&ds.Subscription{},
		&ds.LicensePeriod{},
		&ds.EmployeeLicense{},
		&ds.Document{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Repository{db: db}, nil
}

// InTransaction выполняет fn в одной транзакции БД. Валидация, мутации
// и каскад пересчёта всегда коммитятся или откатываются вместе
func (r *Repository) InTransaction(fn func(tx *Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}
