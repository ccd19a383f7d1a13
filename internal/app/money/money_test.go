package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSameCurrency(t *testing.T) {
	a := New(decimal.NewFromInt(100), "USD")
	b := New(decimal.NewFromInt(50), "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, "USD", sum.Currency)
}

func TestAddCurrencyMismatch(t *testing.T) {
	a := New(decimal.NewFromInt(100), "USD")
	b := New(decimal.NewFromInt(50), "EUR")

	_, err := a.Add(b)
	require.Error(t, err)
	var mismatch *ErrCurrencyMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "USD", mismatch.Left)
	assert.Equal(t, "EUR", mismatch.Right)
}

func TestAddZeroNeutral(t *testing.T) {
	zero := Money{}
	b := New(decimal.NewFromInt(50), "EUR")

	sum, err := zero.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Equal(b))
}

func TestSum(t *testing.T) {
	items := []Money{
		New(decimal.NewFromInt(100), "EUR"),
		New(decimal.NewFromInt(200), "EUR"),
	}
	total, err := Sum(items, "USD")
	require.NoError(t, err)
	assert.True(t, total.Amount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "EUR", total.Currency)
}

func TestSumEmptyUsesFallbackCurrency(t *testing.T) {
	total, err := Sum(nil, "USD")
	require.NoError(t, err)
	assert.True(t, total.IsZero())
	assert.Equal(t, "USD", total.Currency)
}

func TestSumMismatch(t *testing.T) {
	items := []Money{
		New(decimal.NewFromInt(100), "USD"),
		New(decimal.NewFromInt(200), "EUR"),
	}
	_, err := Sum(items, "USD")
	require.Error(t, err)
}

func TestMul(t *testing.T) {
	m := New(decimal.NewFromInt(50), "USD").Mul(3)
	assert.True(t, m.Amount.Equal(decimal.NewFromInt(150)))
}

func TestValidCurrency(t *testing.T) {
	assert.True(t, ValidCurrency("USD"))
	assert.True(t, ValidCurrency("EUR"))
	assert.False(t, ValidCurrency("XXX_NOPE"))
	assert.False(t, ValidCurrency(""))
}
