package ds

import (
	"time"

	"github.com/shopspring/decimal"

	"backend/internal/app/money"
)

// 1. Таблица контрактов с поставщиками.
// StartDate/EndDate/TotalAmount — вычисляемые поля, пишет их только rollup
type Contract struct {
	ID         uint       `gorm:"primaryKey"`
	TenantID   uint       `gorm:"not null;index"`
	VendorName string     `gorm:"type:varchar(100);not null"`
	Number     string     `gorm:"type:varchar(50)"`
	Comment    string     `gorm:"type:text"`
	StartDate  *time.Time `gorm:"type:date"`
	EndDate    *time.Time `gorm:"type:date"`

	TotalAmount   decimal.Decimal `gorm:"type:numeric(14,2);default:0"`
	TotalCurrency string          `gorm:"type:varchar(3);default:'USD'"`

	IsDeleted bool `gorm:"type:boolean;default:false;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Contract) Total() money.Money {
	return money.New(c.TotalAmount, c.TotalCurrency)
}

func (c *Contract) SetTotal(m money.Money) {
	c.TotalAmount = m.Amount
	if m.Currency != "" {
		c.TotalCurrency = m.Currency
	}
}
