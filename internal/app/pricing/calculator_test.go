package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"backend/internal/app/ds"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func intPtr(n int) *int { return &n }

func period(typ string, price int64, incremental int64, maxUsers *int) ds.LicensePeriod {
	return ds.LicensePeriod{
		Type:                typ,
		StartDate:           date(2021, 1, 1),
		EndDate:             datePtr(2021, 12, 31),
		MaxUsers:            maxUsers,
		PriceAmount:         decimal.NewFromInt(price),
		PriceCurrency:       "USD",
		IncrementalAmount:   decimal.NewFromInt(incremental),
		IncrementalCurrency: "USD",
	}
}

func TestFlatTypesReturnPriceUnchanged(t *testing.T) {
	for _, typ := range []string{ds.PeriodEnterprise, ds.PeriodPrepaidCredit, ds.PeriodUsageBased, ds.PeriodOther} {
		p := period(typ, 1000, 50, intPtr(1))
		total := CalculateTotal(p, 100)
		assert.True(t, total.Amount.Equal(decimal.NewFromInt(1000)), "тип %s", typ)
	}
}

func TestUserLimitOverage(t *testing.T) {
	// price=$100, incremental=$50, maxUsers=1, 3 активных пользователя => $200
	p := period(ds.PeriodUserLimit, 100, 50, intPtr(1))
	total := CalculateTotal(p, 3)
	assert.True(t, total.Amount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "USD", total.Currency)
}

func TestPerUserNoOverage(t *testing.T) {
	p := period(ds.PeriodPerUser, 100, 50, intPtr(5))
	total := CalculateTotal(p, 3)
	assert.True(t, total.Amount.Equal(decimal.NewFromInt(100)))
}

func TestPerUserNilMaxUsersDefaultsToZero(t *testing.T) {
	p := period(ds.PeriodPerUser, 100, 50, nil)
	total := CalculateTotal(p, 2)
	assert.True(t, total.Amount.Equal(decimal.NewFromInt(200)))
}

func TestActiveUserCountOverlap(t *testing.T) {
	p := period(ds.PeriodPerUser, 100, 50, nil)

	licenses := []ds.EmployeeLicense{
		// закончилась до начала периода — не считается
		{StartDate: datePtr(2020, 1, 1), EndDate: datePtr(2020, 12, 31)},
		// начинается после конца периода — не считается
		{StartDate: datePtr(2022, 6, 1), EndDate: nil},
		// пересекается частично
		{StartDate: datePtr(2020, 6, 1), EndDate: datePtr(2021, 3, 1)},
		// бессрочная без даты начала — считается
		{StartDate: nil, EndDate: nil},
		// закончилась ровно в день начала периода — считается
		{StartDate: datePtr(2020, 1, 1), EndDate: datePtr(2021, 1, 1)},
	}

	assert.Equal(t, 3, ActiveUserCount(p, licenses))
}

func TestActiveUserCountOpenEndedPeriod(t *testing.T) {
	p := period(ds.PeriodPerUser, 100, 50, nil)
	p.EndDate = nil

	licenses := []ds.EmployeeLicense{
		// период открыт — любая лицензия, не закончившаяся до его начала, считается
		{StartDate: datePtr(2030, 1, 1), EndDate: nil},
		{StartDate: datePtr(2020, 1, 1), EndDate: datePtr(2020, 6, 1)},
	}

	assert.Equal(t, 1, ActiveUserCount(p, licenses))
}

func TestStatusOn(t *testing.T) {
	start := date(2021, 1, 1)
	end := datePtr(2021, 12, 31)

	assert.Equal(t, StatusUpcoming, StatusOn(date(2020, 12, 31), start, end))
	assert.Equal(t, StatusActive, StatusOn(date(2021, 1, 1), start, end))
	assert.Equal(t, StatusActive, StatusOn(date(2021, 12, 31), start, end))
	assert.Equal(t, StatusInactive, StatusOn(date(2022, 1, 1), start, end))
	// открытый период не становится неактивным
	assert.Equal(t, StatusActive, StatusOn(date(2099, 1, 1), start, nil))
}
