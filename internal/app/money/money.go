package money

import (
	"fmt"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money — денежная сумма с валютой. Суммирование валидно только
// в пределах одной валюты, смешивание валют — ошибка валидации.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// ErrCurrencyMismatch возвращается при попытке сложить суммы в разных валютах
type ErrCurrencyMismatch struct {
	Left  string
	Right string
}

func (e *ErrCurrencyMismatch) Error() string {
	return fmt.Sprintf("несовпадение валют: %s и %s", e.Left, e.Right)
}

func New(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// Zero возвращает нулевую сумму в указанной валюте
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// ValidCurrency проверяет код валюты по справочнику ISO 4217
func ValidCurrency(code string) bool {
	return gomoney.GetCurrency(code) != nil
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Add складывает две суммы, ошибка при разных валютах.
// Нулевая сумма без валюты считается нейтральной.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency == "" && m.Amount.IsZero() {
		return other, nil
	}
	if other.Currency == "" && other.Amount.IsZero() {
		return m, nil
	}
	if m.Currency != other.Currency {
		return Money{}, &ErrCurrencyMismatch{Left: m.Currency, Right: other.Currency}
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Mul умножает сумму на целый коэффициент (количество пользователей и т.п.)
func (m Money) Mul(n int64) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(n)), Currency: m.Currency}
}

func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}

// Sum суммирует список сумм. Пустой список — ноль в валюте fallback.
func Sum(items []Money, fallbackCurrency string) (Money, error) {
	total := Zero(fallbackCurrency)
	if len(items) == 0 {
		return total, nil
	}
	total = Zero(items[0].Currency)
	for _, it := range items {
		var err error
		total, err = total.Add(it)
		if err != nil {
			return Money{}, err
		}
	}
	return total, nil
}
