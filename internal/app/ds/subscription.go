package ds

import (
	"time"

	"github.com/shopspring/decimal"

	"backend/internal/app/money"
)

// 2. Таблица подписок. Подписка может существовать без контракта
// (ContractID = NULL). Даты и сумма — вычисляемые поля
type Subscription struct {
	ID         uint       `gorm:"primaryKey"`
	TenantID   uint       `gorm:"not null;index"`
	ContractID *uint      `gorm:"index;default:null"`
	Name       string     `gorm:"type:varchar(100);not null"`
	StartDate  *time.Time `gorm:"type:date"`
	EndDate    *time.Time `gorm:"type:date"`

	TotalAmount   decimal.Decimal `gorm:"type:numeric(14,2);default:0"`
	TotalCurrency string          `gorm:"type:varchar(3);default:'USD'"`

	IsDeleted bool `gorm:"type:boolean;default:false;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Contract *Contract `gorm:"foreignKey:ContractID"`
}

func (s *Subscription) Total() money.Money {
	return money.New(s.TotalAmount, s.TotalCurrency)
}

func (s *Subscription) SetTotal(m money.Money) {
	s.TotalAmount = m.Amount
	if m.Currency != "" {
		s.TotalCurrency = m.Currency
	}
}
