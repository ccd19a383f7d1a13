package rollup

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/app/ds"
)

// fakeSource — граф сущностей в памяти для тестов каскада
type fakeSource struct {
	periods   map[uint][]ds.LicensePeriod
	licenses  map[uint][]ds.EmployeeLicense
	subs      map[uint]ds.Subscription
	contracts map[uint]ds.Contract
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		periods:   make(map[uint][]ds.LicensePeriod),
		licenses:  make(map[uint][]ds.EmployeeLicense),
		subs:      make(map[uint]ds.Subscription),
		contracts: make(map[uint]ds.Contract),
	}
}

func (f *fakeSource) PeriodsBySubscription(subID uint) ([]ds.LicensePeriod, error) {
	out := make([]ds.LicensePeriod, len(f.periods[subID]))
	copy(out, f.periods[subID])
	return out, nil
}

func (f *fakeSource) EmployeeLicensesBySubscription(subID uint) ([]ds.EmployeeLicense, error) {
	out := make([]ds.EmployeeLicense, len(f.licenses[subID]))
	copy(out, f.licenses[subID])
	return out, nil
}

func (f *fakeSource) SubscriptionByID(subID uint) (*ds.Subscription, error) {
	s := f.subs[subID]
	return &s, nil
}

func (f *fakeSource) SubscriptionsByContract(contractID uint) ([]ds.Subscription, error) {
	var out []ds.Subscription
	for _, s := range f.subs {
		if s.ContractID != nil && *s.ContractID == contractID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSource) ContractByID(contractID uint) (*ds.Contract, error) {
	c := f.contracts[contractID]
	return &c, nil
}

// apply записывает результат пересчёта обратно в граф, как это делает репозиторий
func (f *fakeSource) apply(res *Result) {
	if res.Subscription != nil {
		f.subs[res.Subscription.ID] = *res.Subscription
	}
	if res.Contract != nil {
		f.contracts[res.Contract.ID] = *res.Contract
	}
	if res.Periods != nil && res.Subscription != nil {
		f.periods[res.Subscription.ID] = res.Periods
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func uintPtr(n uint) *uint { return &n }

func intPtr(n int) *int { return &n }

func period(id, subID uint, typ string, price int64, start time.Time, end *time.Time) ds.LicensePeriod {
	return ds.LicensePeriod{
		ID:                  id,
		SubscriptionID:      subID,
		Type:                typ,
		StartDate:           start,
		EndDate:             end,
		PriceAmount:         decimal.NewFromInt(price),
		PriceCurrency:       "USD",
		IncrementalCurrency: "USD",
		CalculatedCurrency:  "USD",
	}
}

func setupContractWithTwoSubs() *fakeSource {
	src := newFakeSource()
	src.contracts[1] = ds.Contract{ID: 1, TotalCurrency: "USD"}
	src.subs[10] = ds.Subscription{ID: 10, ContractID: uintPtr(1), TotalCurrency: "USD"}
	src.subs[20] = ds.Subscription{ID: 20, ContractID: uintPtr(1), TotalCurrency: "USD"}
	src.periods[10] = []ds.LicensePeriod{
		period(101, 10, ds.PeriodEnterprise, 100, date(2021, 1, 1), datePtr(2021, 12, 31)),
		period(102, 10, ds.PeriodEnterprise, 200, date(2022, 1, 1), datePtr(2022, 12, 31)),
	}
	src.periods[20] = []ds.LicensePeriod{
		period(201, 20, ds.PeriodEnterprise, 50, date(2020, 6, 1), datePtr(2023, 5, 31)),
	}
	return src
}

func recomputeAll(t *testing.T, src *fakeSource) {
	t.Helper()
	p := New(src)
	for id := range src.subs {
		res, err := p.ApplyAndRecompute(MutationEvent{Trigger: TriggerLicensePeriod, SubscriptionID: id})
		require.NoError(t, err)
		src.apply(res)
	}
}

func TestSumAndDateSpanInvariants(t *testing.T) {
	src := setupContractWithTwoSubs()
	recomputeAll(t, src)

	sub := src.subs[10]
	assert.True(t, sub.TotalAmount.Equal(decimal.NewFromInt(300)))
	require.NotNil(t, sub.StartDate)
	assert.Equal(t, date(2021, 1, 1), *sub.StartDate)
	require.NotNil(t, sub.EndDate)
	assert.Equal(t, date(2022, 12, 31), *sub.EndDate)

	contract := src.contracts[1]
	assert.True(t, contract.TotalAmount.Equal(decimal.NewFromInt(350)))
	require.NotNil(t, contract.StartDate)
	assert.Equal(t, date(2020, 6, 1), *contract.StartDate)
	require.NotNil(t, contract.EndDate)
	assert.Equal(t, date(2023, 5, 31), *contract.EndDate)
}

func TestOpenEndedPeriodMakesSubscriptionOpenEnded(t *testing.T) {
	src := setupContractWithTwoSubs()
	src.periods[10] = append(src.periods[10],
		period(103, 10, ds.PeriodEnterprise, 10, date(2023, 1, 1), nil))
	recomputeAll(t, src)

	assert.Nil(t, src.subs[10].EndDate)
	// открытая подписка делает открытым и контракт
	assert.Nil(t, src.contracts[1].EndDate)
}

func TestIdempotence(t *testing.T) {
	src := setupContractWithTwoSubs()
	src.licenses[10] = []ds.EmployeeLicense{
		{ID: 1, SubscriptionID: 10, StartDate: datePtr(2021, 1, 1)},
	}
	recomputeAll(t, src)

	before := struct {
		sub      ds.Subscription
		contract ds.Contract
	}{src.subs[10], src.contracts[1]}

	p := New(src)
	res, err := p.ApplyAndRecompute(MutationEvent{Trigger: TriggerEmployeeLicense, SubscriptionID: 10})
	require.NoError(t, err)
	src.apply(res)

	assert.True(t, before.sub.TotalAmount.Equal(src.subs[10].TotalAmount))
	assert.Equal(t, before.sub.StartDate, src.subs[10].StartDate)
	assert.Equal(t, before.sub.EndDate, src.subs[10].EndDate)
	assert.True(t, before.contract.TotalAmount.Equal(src.contracts[1].TotalAmount))
}

func TestEmployeeLicenseTriggerRecomputesPerUserPeriods(t *testing.T) {
	src := newFakeSource()
	src.subs[10] = ds.Subscription{ID: 10, TotalCurrency: "USD"}
	perUser := period(101, 10, ds.PeriodUserLimit, 100, date(2021, 1, 1), datePtr(2021, 12, 31))
	perUser.IncrementalAmount = decimal.NewFromInt(50)
	perUser.MaxUsers = intPtr(1)
	src.periods[10] = []ds.LicensePeriod{perUser}
	src.licenses[10] = []ds.EmployeeLicense{
		{ID: 1, SubscriptionID: 10, StartDate: datePtr(2021, 1, 1)},
		{ID: 2, SubscriptionID: 10, StartDate: datePtr(2021, 2, 1)},
		{ID: 3, SubscriptionID: 10, StartDate: datePtr(2021, 3, 1)},
	}

	p := New(src)
	res, err := p.ApplyAndRecompute(MutationEvent{Trigger: TriggerEmployeeLicense, SubscriptionID: 10})
	require.NoError(t, err)

	// 100 + 50 * (3 - 1) = 200
	require.Len(t, res.Periods, 1)
	assert.True(t, res.Periods[0].CalculatedAmount.Equal(decimal.NewFromInt(200)))
	require.NotNil(t, res.Subscription)
	assert.True(t, res.Subscription.TotalAmount.Equal(decimal.NewFromInt(200)))
}

func TestCascadeOnPeriodDeletion(t *testing.T) {
	src := setupContractWithTwoSubs()
	recomputeAll(t, src)
	contractBefore := src.contracts[1].TotalAmount
	subBefore := src.subs[10].TotalAmount

	// удаляем все периоды подписки 10 и пересчитываем
	src.periods[10] = nil
	p := New(src)
	res, err := p.ApplyAndRecompute(MutationEvent{Trigger: TriggerLicensePeriod, SubscriptionID: 10})
	require.NoError(t, err)
	src.apply(res)

	sub := src.subs[10]
	assert.Nil(t, sub.StartDate)
	assert.Nil(t, sub.EndDate)
	assert.True(t, sub.TotalAmount.IsZero())
	assert.Equal(t, "USD", sub.TotalCurrency)

	// контракт просел ровно на прежний вклад подписки
	expected := contractBefore.Sub(subBefore)
	assert.True(t, src.contracts[1].TotalAmount.Equal(expected))
}

func TestSubscriptionDeletionRecomputesContract(t *testing.T) {
	src := setupContractWithTwoSubs()
	recomputeAll(t, src)

	// подписка 20 удалена — её агрегат отбрасывается
	delete(src.subs, 20)
	delete(src.periods, 20)

	p := New(src)
	res, err := p.ApplyAndRecompute(MutationEvent{Trigger: TriggerMembership, ContractID: 1})
	require.NoError(t, err)
	src.apply(res)

	contract := src.contracts[1]
	assert.True(t, contract.TotalAmount.Equal(decimal.NewFromInt(300)))
	require.NotNil(t, contract.StartDate)
	assert.Equal(t, date(2021, 1, 1), *contract.StartDate)
}

func TestContractWithoutSubscriptions(t *testing.T) {
	src := newFakeSource()
	src.contracts[1] = ds.Contract{ID: 1, TotalCurrency: "EUR"}

	p := New(src)
	res, err := p.ApplyAndRecompute(MutationEvent{Trigger: TriggerMembership, ContractID: 1})
	require.NoError(t, err)

	require.NotNil(t, res.Contract)
	assert.Nil(t, res.Contract.StartDate)
	assert.Nil(t, res.Contract.EndDate)
	assert.True(t, res.Contract.TotalAmount.IsZero())
	assert.Equal(t, "EUR", res.Contract.TotalCurrency)
}

func TestEmptySubscriptionIsTotal(t *testing.T) {
	src := newFakeSource()
	src.subs[10] = ds.Subscription{ID: 10, TotalCurrency: "USD"}

	p := New(src)
	res, err := p.ApplyAndRecompute(MutationEvent{Trigger: TriggerLicensePeriod, SubscriptionID: 10})
	require.NoError(t, err)

	require.NotNil(t, res.Subscription)
	assert.Nil(t, res.Subscription.StartDate)
	assert.True(t, res.Subscription.TotalAmount.IsZero())
}

func TestCurrencyMismatchAbortsWithoutPartialWrite(t *testing.T) {
	src := newFakeSource()
	src.subs[10] = ds.Subscription{ID: 10, TotalCurrency: "USD"}
	usd := period(101, 10, ds.PeriodEnterprise, 100, date(2021, 1, 1), datePtr(2021, 12, 31))
	eur := period(102, 10, ds.PeriodEnterprise, 200, date(2022, 1, 1), datePtr(2022, 12, 31))
	eur.PriceCurrency = "EUR"
	eur.CalculatedCurrency = "EUR"
	src.periods[10] = []ds.LicensePeriod{usd, eur}

	p := New(src)
	_, err := p.ApplyAndRecompute(MutationEvent{Trigger: TriggerLicensePeriod, SubscriptionID: 10})
	require.Error(t, err)

	// агрегат подписки не тронут
	assert.True(t, src.subs[10].TotalAmount.IsZero())
}

func TestUnattachedSubscriptionStopsAtSubscription(t *testing.T) {
	src := newFakeSource()
	src.subs[10] = ds.Subscription{ID: 10, TotalCurrency: "USD"}
	src.periods[10] = []ds.LicensePeriod{
		period(101, 10, ds.PeriodEnterprise, 100, date(2021, 1, 1), datePtr(2021, 12, 31)),
	}

	p := New(src)
	res, err := p.ApplyAndRecompute(MutationEvent{Trigger: TriggerLicensePeriod, SubscriptionID: 10})
	require.NoError(t, err)
	assert.NotNil(t, res.Subscription)
	assert.Nil(t, res.Contract)
}
