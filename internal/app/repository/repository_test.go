package repository

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"backend/internal/app/ds"
	"backend/internal/app/money"
	"backend/internal/app/timeline"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	repo, err := NewWithDB(db)
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return repo
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func usd(amount int64) money.Money {
	return money.New(decimal.NewFromInt(amount), "USD")
}

func createOp(idx int, price int64, start, end *time.Time) timeline.PeriodOp {
	return timeline.PeriodOp{
		OpIndex:              idx,
		Kind:                 timeline.OpCreate,
		Type:                 ds.PeriodEnterprise,
		StartDate:            start,
		EndDate:              end,
		Price:                usd(price),
		IncrementalUserPrice: usd(0),
	}
}

func seedContractAndSubscription(t *testing.T, repo *Repository) (*ds.Contract, *ds.Subscription) {
	t.Helper()
	contract := &ds.Contract{TenantID: 1, VendorName: "Acme", TotalCurrency: "USD"}
	require.NoError(t, repo.CreateContract(contract))

	sub := &ds.Subscription{TenantID: 1, ContractID: &contract.ID, Name: "Acme Suite", TotalCurrency: "USD"}
	require.NoError(t, repo.CreateSubscription(sub))
	return contract, sub
}

func TestApplyPeriodBatchHappyPath(t *testing.T) {
	repo := newTestRepo(t)
	contract, sub := seedContractAndSubscription(t, repo)

	ops := []timeline.PeriodOp{
		createOp(0, 100, datePtr(2021, 1, 1), datePtr(2021, 12, 31)),
		createOp(1, 200, datePtr(2022, 1, 1), datePtr(2022, 12, 31)),
	}

	res, verrs, err := repo.ApplyPeriodBatch(1, sub.ID, ops)
	require.NoError(t, err)
	require.Empty(t, verrs)
	require.NotNil(t, res)

	// производные поля подписки записаны
	got, err := repo.GetSubscriptionByID(1, sub.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(300)))
	require.NotNil(t, got.StartDate)
	assert.Equal(t, 2021, got.StartDate.Year())
	require.NotNil(t, got.EndDate)
	assert.Equal(t, 2022, got.EndDate.Year())

	// и контракта
	gotContract, err := repo.GetContractByID(1, contract.ID)
	require.NoError(t, err)
	assert.True(t, gotContract.TotalAmount.Equal(decimal.NewFromInt(300)))
}

func TestApplyPeriodBatchValidationErrorsNoWrite(t *testing.T) {
	repo := newTestRepo(t)
	_, sub := seedContractAndSubscription(t, repo)

	ops := []timeline.PeriodOp{
		createOp(0, 100, datePtr(2021, 1, 1), datePtr(2021, 12, 31)),
		createOp(1, 200, datePtr(2022, 1, 2), datePtr(2022, 12, 31)), // разрыв
	}

	_, verrs, err := repo.ApplyPeriodBatch(1, sub.ID, ops)
	require.NoError(t, err)
	require.Len(t, verrs, 1)

	periods, err := repo.PeriodsBySubscription(sub.ID)
	require.NoError(t, err)
	assert.Empty(t, periods)
}

func TestApplyPeriodBatchUnknownSubscription(t *testing.T) {
	repo := newTestRepo(t)

	_, _, err := repo.ApplyPeriodBatch(1, 999, []timeline.PeriodOp{
		createOp(0, 100, datePtr(2021, 1, 1), nil),
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestApplyPeriodBatchForeignPeriodIsIntegrityError(t *testing.T) {
	repo := newTestRepo(t)
	_, subA := seedContractAndSubscription(t, repo)

	subB := &ds.Subscription{TenantID: 1, Name: "Other", TotalCurrency: "USD"}
	require.NoError(t, repo.CreateSubscription(subB))

	_, verrs, err := repo.ApplyPeriodBatch(1, subA.ID, []timeline.PeriodOp{
		createOp(0, 100, datePtr(2021, 1, 1), datePtr(2021, 12, 31)),
	})
	require.NoError(t, err)
	require.Empty(t, verrs)
	periods, err := repo.PeriodsBySubscription(subA.ID)
	require.NoError(t, err)
	require.Len(t, periods, 1)

	// чужой период нельзя ни обновить, ни удалить через другую подписку
	_, _, err = repo.ApplyPeriodBatch(1, subB.ID, []timeline.PeriodOp{
		{OpIndex: 0, Kind: timeline.OpDelete, PeriodID: periods[0].ID},
	})
	require.Error(t, err)
	var integrity *timeline.IntegrityError
	require.ErrorAs(t, err, &integrity)
}

func TestDeleteOnlyBatchCascades(t *testing.T) {
	repo := newTestRepo(t)
	contract, sub := seedContractAndSubscription(t, repo)

	_, verrs, err := repo.ApplyPeriodBatch(1, sub.ID, []timeline.PeriodOp{
		createOp(0, 100, datePtr(2021, 1, 1), datePtr(2021, 12, 31)),
	})
	require.NoError(t, err)
	require.Empty(t, verrs)

	periods, err := repo.PeriodsBySubscription(sub.ID)
	require.NoError(t, err)
	require.Len(t, periods, 1)

	// удаляем единственный период — агрегаты обнуляются
	_, verrs, err = repo.ApplyPeriodBatch(1, sub.ID, []timeline.PeriodOp{
		{OpIndex: 0, Kind: timeline.OpDelete, PeriodID: periods[0].ID},
	})
	require.NoError(t, err)
	require.Empty(t, verrs)

	got, err := repo.GetSubscriptionByID(1, sub.ID)
	require.NoError(t, err)
	assert.Nil(t, got.StartDate)
	assert.Nil(t, got.EndDate)
	assert.True(t, got.TotalAmount.IsZero())

	gotContract, err := repo.GetContractByID(1, contract.ID)
	require.NoError(t, err)
	assert.True(t, gotContract.TotalAmount.IsZero())
	assert.Nil(t, gotContract.StartDate)
}

func TestEmployeeLicenseMutationCascades(t *testing.T) {
	repo := newTestRepo(t)
	_, sub := seedContractAndSubscription(t, repo)

	maxUsers := 1
	op := createOp(0, 100, datePtr(2021, 1, 1), datePtr(2021, 12, 31))
	op.Type = ds.PeriodUserLimit
	op.MaxUsers = &maxUsers
	op.IncrementalUserPrice = usd(50)

	_, verrs, err := repo.ApplyPeriodBatch(1, sub.ID, []timeline.PeriodOp{op})
	require.NoError(t, err)
	require.Empty(t, verrs)

	for i := 0; i < 3; i++ {
		_, err := repo.CreateEmployeeLicense(&ds.EmployeeLicense{
			TenantID:       1,
			SubscriptionID: sub.ID,
			EmployeeName:   "Сотрудник",
			StartDate:      datePtr(2021, 1, 1),
		})
		require.NoError(t, err)
	}

	// 100 + 50 * (3 - 1) = 200
	got, err := repo.GetSubscriptionByID(1, sub.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(200)), "got %s", got.TotalAmount)

	// удаление одной лицензии снимает доплату
	licenses, err := repo.GetEmployeeLicenses(1, sub.ID)
	require.NoError(t, err)
	require.Len(t, licenses, 3)
	_, err = repo.DeleteEmployeeLicense(1, licenses[0].ID)
	require.NoError(t, err)

	got, err = repo.GetSubscriptionByID(1, sub.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(150)))
}

func TestDeleteSubscriptionRecomputesContract(t *testing.T) {
	repo := newTestRepo(t)
	contract, subA := seedContractAndSubscription(t, repo)

	subB := &ds.Subscription{TenantID: 1, ContractID: &contract.ID, Name: "Second", TotalCurrency: "USD"}
	require.NoError(t, repo.CreateSubscription(subB))

	_, _, err := repo.ApplyPeriodBatch(1, subA.ID, []timeline.PeriodOp{
		createOp(0, 100, datePtr(2021, 1, 1), datePtr(2021, 12, 31)),
	})
	require.NoError(t, err)
	_, _, err = repo.ApplyPeriodBatch(1, subB.ID, []timeline.PeriodOp{
		createOp(0, 200, datePtr(2022, 1, 1), datePtr(2022, 12, 31)),
	})
	require.NoError(t, err)

	gotContract, err := repo.GetContractByID(1, contract.ID)
	require.NoError(t, err)
	require.True(t, gotContract.TotalAmount.Equal(decimal.NewFromInt(300)))

	require.NoError(t, repo.DeleteSubscription(1, subB.ID))

	gotContract, err = repo.GetContractByID(1, contract.ID)
	require.NoError(t, err)
	assert.True(t, gotContract.TotalAmount.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, gotContract.EndDate)
	assert.Equal(t, 2021, gotContract.EndDate.Year())
}

func TestTenantIsolation(t *testing.T) {
	repo := newTestRepo(t)
	_, sub := seedContractAndSubscription(t, repo)

	// другой арендатор не видит чужую подписку
	_, err := repo.GetSubscriptionByID(2, sub.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, _, err = repo.ApplyPeriodBatch(2, sub.ID, []timeline.PeriodOp{
		createOp(0, 100, datePtr(2021, 1, 1), nil),
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestApplyContractEditAllOrNothing(t *testing.T) {
	repo := newTestRepo(t)
	contract, subA := seedContractAndSubscription(t, repo)

	subB := &ds.Subscription{TenantID: 1, ContractID: &contract.ID, Name: "Second", TotalCurrency: "USD"}
	require.NoError(t, repo.CreateSubscription(subB))

	// батч по subB невалиден — не применяется ничего, включая валидный subA
	batches := []SubscriptionPeriodBatch{
		{SubscriptionID: subA.ID, Ops: []timeline.PeriodOp{
			createOp(0, 100, datePtr(2021, 1, 1), datePtr(2021, 12, 31)),
		}},
		{SubscriptionID: subB.ID, Ops: []timeline.PeriodOp{
			createOp(0, 200, datePtr(2022, 1, 1), datePtr(2021, 12, 31)), // инвертированный
		}},
	}

	batchErrs, err := repo.ApplyContractEdit(1, contract.ID, batches)
	require.NoError(t, err)
	require.Len(t, batchErrs, 1)
	assert.Equal(t, subB.ID, batchErrs[0].SubscriptionID)

	periods, err := repo.PeriodsBySubscription(subA.ID)
	require.NoError(t, err)
	assert.Empty(t, periods)

	// исправленный батч применяется целиком
	batches[1].Ops[0] = createOp(0, 200, datePtr(2022, 1, 1), datePtr(2022, 12, 31))
	batchErrs, err = repo.ApplyContractEdit(1, contract.ID, batches)
	require.NoError(t, err)
	assert.Empty(t, batchErrs)

	gotContract, err := repo.GetContractByID(1, contract.ID)
	require.NoError(t, err)
	assert.True(t, gotContract.TotalAmount.Equal(decimal.NewFromInt(300)))
}
