package repository

import (
	"fmt"

	"backend/internal/app/ds"
	"backend/internal/app/rollup"
	"backend/internal/app/timeline"
)

// SubscriptionPeriodBatch — батч операций над периодами одной подписки
type SubscriptionPeriodBatch struct {
	SubscriptionID uint
	Ops            []timeline.PeriodOp
}

// SubscriptionBatchErrors — ошибки валидации батча, адресованные подписке
type SubscriptionBatchErrors struct {
	SubscriptionID uint                  `json:"subscription_id"`
	Errors         []timeline.FieldError `json:"errors"`
}

// ValidatePeriodBatch прогоняет батч через валидаторы без записи в БД.
// Возвращает нормализованный батч (с автозаполненными датами начала)
// либо полный список ошибок валидации
func (r *Repository) ValidatePeriodBatch(tenantID, subscriptionID uint, ops []timeline.PeriodOp) ([]timeline.PeriodOp, []timeline.FieldError, error) {
	sub, err := r.GetSubscriptionByID(tenantID, subscriptionID)
	if err != nil {
		return nil, nil, err
	}

	existing, err := r.PeriodsBySubscription(sub.ID)
	if err != nil {
		return nil, nil, err
	}

	verrs := timeline.ValidateFields(existing, ops)
	norm, dateErrs, err := timeline.ValidateAndNormalize(existing, ops)
	if err != nil {
		return nil, nil, err
	}
	verrs = append(verrs, dateErrs...)
	if len(verrs) > 0 {
		return nil, verrs, nil
	}
	return norm, nil, nil
}

// ApplyPeriodBatch валидирует батч и применяет его в одной транзакции:
// мутации периодов, затем каскад пересчёта подписки и контракта.
// Ошибки валидации возвращаются все разом, без частичного применения
func (r *Repository) ApplyPeriodBatch(tenantID, subscriptionID uint, ops []timeline.PeriodOp) (*rollup.Result, []timeline.FieldError, error) {
	norm, verrs, err := r.ValidatePeriodBatch(tenantID, subscriptionID, ops)
	if err != nil || len(verrs) > 0 {
		return nil, verrs, err
	}

	var result *rollup.Result
	err = r.InTransaction(func(tx *Repository) error {
		if err := tx.applyPeriodOps(subscriptionID, norm); err != nil {
			return err
		}

		res, err := rollup.New(tx).ApplyAndRecompute(rollup.MutationEvent{
			Trigger:        rollup.TriggerLicensePeriod,
			SubscriptionID: subscriptionID,
		})
		if err != nil {
			return err
		}
		if err := tx.SaveRollupResult(res); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}

// applyPeriodOps применяет нормализованные операции батча к таблице периодов
func (r *Repository) applyPeriodOps(subscriptionID uint, ops []timeline.PeriodOp) error {
	for _, op := range ops {
		switch op.Kind {
		case timeline.OpCreate:
			if op.StartDate == nil {
				return fmt.Errorf("период без даты начала после нормализации")
			}
			period := ds.LicensePeriod{
				SubscriptionID:      subscriptionID,
				Type:                op.Type,
				StartDate:           *op.StartDate,
				EndDate:             op.EndDate,
				MaxUsers:            op.MaxUsers,
				PriceAmount:         op.Price.Amount,
				PriceCurrency:       op.Price.Currency,
				IncrementalAmount:   op.IncrementalUserPrice.Amount,
				IncrementalCurrency: op.IncrementalUserPrice.Currency,
				CalculatedCurrency:  op.Price.Currency,
			}
			if err := r.db.Create(&period).Error; err != nil {
				return err
			}

		case timeline.OpUpdate:
			if op.StartDate == nil {
				return fmt.Errorf("период без даты начала после нормализации")
			}
			updates := map[string]interface{}{
				"type":                 op.Type,
				"start_date":           *op.StartDate,
				"end_date":             op.EndDate,
				"max_users":            op.MaxUsers,
				"price_amount":         op.Price.Amount,
				"price_currency":       op.Price.Currency,
				"incremental_amount":   op.IncrementalUserPrice.Amount,
				"incremental_currency": op.IncrementalUserPrice.Currency,
			}
			result := r.db.Model(&ds.LicensePeriod{}).
				Where("id = ? AND subscription_id = ?", op.PeriodID, subscriptionID).
				Updates(updates)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return &timeline.IntegrityError{PeriodID: op.PeriodID}
			}

		case timeline.OpDelete:
			result := r.db.Where("id = ? AND subscription_id = ?", op.PeriodID, subscriptionID).
				Delete(&ds.LicensePeriod{})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return &timeline.IntegrityError{PeriodID: op.PeriodID}
			}
		}
	}
	return nil
}

// SaveRollupResult записывает пересчитанные вычисляемые поля обратно в БД.
// Только этот путь пишет производные поля подписок и контрактов
func (r *Repository) SaveRollupResult(res *rollup.Result) error {
	for i := range res.Periods {
		p := &res.Periods[i]
		err := r.db.Model(&ds.LicensePeriod{}).Where("id = ?", p.ID).
			Updates(map[string]interface{}{
				"calculated_amount":   p.CalculatedAmount,
				"calculated_currency": p.CalculatedCurrency,
			}).Error
		if err != nil {
			return err
		}
	}

	if res.Subscription != nil {
		s := res.Subscription
		err := r.db.Model(&ds.Subscription{}).Where("id = ?", s.ID).
			Updates(map[string]interface{}{
				"start_date":     s.StartDate,
				"end_date":       s.EndDate,
				"total_amount":   s.TotalAmount,
				"total_currency": s.TotalCurrency,
			}).Error
		if err != nil {
			return err
		}
	}

	if res.Contract != nil {
		c := res.Contract
		err := r.db.Model(&ds.Contract{}).Where("id = ?", c.ID).
			Updates(map[string]interface{}{
				"start_date":     c.StartDate,
				"end_date":       c.EndDate,
				"total_amount":   c.TotalAmount,
				"total_currency": c.TotalCurrency,
			}).Error
		if err != nil {
			return err
		}
	}

	return nil
}
