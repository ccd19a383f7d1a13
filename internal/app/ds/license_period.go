package ds

import (
	"time"

	"github.com/shopspring/decimal"

	"backend/internal/app/money"
)

// Типы тарификации периода лицензии
const (
	PeriodEnterprise    = "enterprise"
	PeriodPerUser       = "per_user"
	PeriodUserLimit     = "user_limit"
	PeriodPrepaidCredit = "prepaid_credit"
	PeriodUsageBased    = "usage_based"
	PeriodOther         = "other"
)

// 3. Таблица периодов лицензии. Периоды одной подписки покрывают её
// таймлайн без разрывов и пересечений, EndDate = NULL — открытый период.
// CalculatedAmount пишет только rollup
type LicensePeriod struct {
	ID             uint       `gorm:"primaryKey"`
	SubscriptionID uint       `gorm:"not null;index"`
	Type           string     `gorm:"type:varchar(20);not null;default:'other'"`
	StartDate      time.Time  `gorm:"type:date;not null"`
	EndDate        *time.Time `gorm:"type:date;default:null"`
	MaxUsers       *int       `gorm:"default:null"`

	PriceAmount         decimal.Decimal `gorm:"type:numeric(14,2);default:0"`
	PriceCurrency       string          `gorm:"type:varchar(3);default:'USD'"`
	IncrementalAmount   decimal.Decimal `gorm:"type:numeric(14,2);default:0"`
	IncrementalCurrency string          `gorm:"type:varchar(3);default:'USD'"`
	CalculatedAmount    decimal.Decimal `gorm:"type:numeric(14,2);default:0"`
	CalculatedCurrency  string          `gorm:"type:varchar(3);default:'USD'"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Subscription *Subscription `gorm:"foreignKey:SubscriptionID"`
}

func (p *LicensePeriod) Price() money.Money {
	return money.New(p.PriceAmount, p.PriceCurrency)
}

func (p *LicensePeriod) IncrementalUserPrice() money.Money {
	return money.New(p.IncrementalAmount, p.IncrementalCurrency)
}

func (p *LicensePeriod) CalculatedTotal() money.Money {
	return money.New(p.CalculatedAmount, p.CalculatedCurrency)
}

func (p *LicensePeriod) SetCalculatedTotal(m money.Money) {
	p.CalculatedAmount = m.Amount
	if m.Currency != "" {
		p.CalculatedCurrency = m.Currency
	}
}

// ValidPeriodType проверяет тип тарификации
func ValidPeriodType(t string) bool {
	switch t {
	case PeriodEnterprise, PeriodPerUser, PeriodUserLimit, PeriodPrepaidCredit, PeriodUsageBased, PeriodOther:
		return true
	}
	return false
}
