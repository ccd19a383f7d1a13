package pricing

import (
	"backend/internal/app/ds"
	"backend/internal/app/money"
)

// CalculateTotal считает стоимость периода лицензии.
// Функция чистая: входные данные считаются уже провалидированными
// (в частности, валюты цены и доплаты за пользователя совпадают)
func CalculateTotal(p ds.LicensePeriod, activeUserCount int) money.Money {
	switch p.Type {
	case ds.PeriodPerUser, ds.PeriodUserLimit:
		maxUsers := 0
		if p.MaxUsers != nil {
			maxUsers = *p.MaxUsers
		}
		overage := activeUserCount - maxUsers
		if overage <= 0 {
			return p.Price()
		}
		total, err := p.Price().Add(p.IncrementalUserPrice().Mul(int64(overage)))
		if err != nil {
			// валюты проверяются до расчёта, сюда не попадаем
			return p.Price()
		}
		return total

	default: // enterprise, prepaid_credit, usage_based, other — фиксированная цена
		return p.Price()
	}
}

// ActiveUserCount считает лицензии сотрудников, пересекающиеся с периодом.
// Лицензия учитывается, если (el.EndDate = NULL или el.EndDate >= p.StartDate)
// и (p.EndDate = NULL или el.StartDate = NULL или el.StartDate <= p.EndDate)
func ActiveUserCount(p ds.LicensePeriod, licenses []ds.EmployeeLicense) int {
	count := 0
	for _, el := range licenses {
		if el.EndDate != nil && el.EndDate.Before(p.StartDate) {
			continue
		}
		if p.EndDate != nil && el.StartDate != nil && el.StartDate.After(*p.EndDate) {
			continue
		}
		count++
	}
	return count
}
