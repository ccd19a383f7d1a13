package timeline

import (
	"fmt"

	"backend/internal/app/ds"
	"backend/internal/app/money"
)

// ValidateFields проверяет денежные и справочные поля батча: корректность
// типа тарификации и кодов валют, совпадение валюты доплаты с валютой цены
// и единую валюту по всем периодам подписки (суммировать разные валюты
// в один агрегат нельзя). Ошибки собираются все сразу
func ValidateFields(existing []ds.LicensePeriod, batch []PeriodOp) []FieldError {
	var errs []FieldError

	deleted := make(map[uint]bool)
	updated := make(map[uint]bool)
	for _, op := range batch {
		switch op.Kind {
		case OpDelete:
			deleted[op.PeriodID] = true
		case OpUpdate:
			updated[op.PeriodID] = true
		}
	}

	for _, op := range batch {
		if op.Kind == OpDelete {
			continue
		}
		if !ds.ValidPeriodType(op.Type) {
			errs = append(errs, FieldError{OpIndex: op.OpIndex, Field: "type",
				Message: fmt.Sprintf("неизвестный тип тарификации: %q", op.Type)})
		}
		if !money.ValidCurrency(op.Price.Currency) {
			errs = append(errs, FieldError{OpIndex: op.OpIndex, Field: "price_currency",
				Message: fmt.Sprintf("неизвестный код валюты: %q", op.Price.Currency)})
		} else if op.IncrementalUserPrice.Currency != op.Price.Currency {
			errs = append(errs, FieldError{OpIndex: op.OpIndex, Field: "incremental_user_price_currency",
				Message: "валюта доплаты за пользователя должна совпадать с валютой цены"})
		}
		if op.MaxUsers != nil && *op.MaxUsers < 0 {
			errs = append(errs, FieldError{OpIndex: op.OpIndex, Field: "max_users",
				Message: "лимит пользователей не может быть отрицательным"})
		}
	}

	// Единая валюта итогового набора периодов
	canonical := ""
	for _, p := range existing {
		if deleted[p.ID] || updated[p.ID] {
			continue
		}
		canonical = p.PriceCurrency
		break
	}
	for _, op := range batch {
		if op.Kind == OpDelete {
			continue
		}
		if canonical == "" {
			canonical = op.Price.Currency
			continue
		}
		if op.Price.Currency != canonical {
			errs = append(errs, FieldError{OpIndex: op.OpIndex, Field: "price_currency",
				Message: fmt.Sprintf("валюта периода (%s) не совпадает с валютой подписки (%s)",
					op.Price.Currency, canonical)})
		}
	}

	return errs
}
