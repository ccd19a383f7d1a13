package repository

import (
	"errors"

	"gorm.io/gorm"

	"backend/internal/app/ds"
	"backend/internal/app/rollup"
	"backend/internal/app/timeline"
)

// Методы для работы с контрактами

func (r *Repository) GetContracts(tenantID uint, search string) ([]ds.Contract, error) {
	var contracts []ds.Contract
	q := r.db.Where("tenant_id = ? AND is_deleted = ?", tenantID, false)
	if search != "" {
		q = q.Where("vendor_name ILIKE ?", "%"+search+"%")
	}
	err := q.Order("id ASC").Find(&contracts).Error
	return contracts, err
}

func (r *Repository) GetContractByID(tenantID, id uint) (*ds.Contract, error) {
	var contract ds.Contract
	err := r.db.Where("id = ? AND tenant_id = ? AND is_deleted = ?", id, tenantID, false).First(&contract).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &contract, nil
}

func (r *Repository) CreateContract(contract *ds.Contract) error {
	return r.db.Create(contract).Error
}

// UpdateContractFields меняет пользовательские поля контракта.
// Даты и сумма вычисляемые, снаружи не задаются
func (r *Repository) UpdateContractFields(tenantID, id uint, vendorName, number, comment *string) (*ds.Contract, error) {
	contract, err := r.GetContractByID(tenantID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if vendorName != nil {
		updates["vendor_name"] = *vendorName
	}
	if number != nil {
		updates["number"] = *number
	}
	if comment != nil {
		updates["comment"] = *comment
	}
	if len(updates) > 0 {
		if err := r.db.Model(&ds.Contract{}).Where("id = ?", contract.ID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return r.GetContractByID(tenantID, id)
}

// DeleteContract логически удаляет контракт, подписки отвязываются
// и продолжают жить самостоятельно
func (r *Repository) DeleteContract(tenantID, id uint) error {
	return r.InTransaction(func(tx *Repository) error {
		contract, err := tx.GetContractByID(tenantID, id)
		if err != nil {
			return err
		}

		err = tx.db.Model(&ds.Subscription{}).Where("contract_id = ?", contract.ID).
			Update("contract_id", nil).Error
		if err != nil {
			return err
		}

		return tx.db.Model(&ds.Contract{}).Where("id = ?", contract.ID).
			Update("is_deleted", true).Error
	})
}

// ApplyContractEdit применяет полный батч по контракту: операции над
// периодами нескольких подписок как одно целое. Сначала валидируются все
// подписки, при любой ошибке не применяется ничего
func (r *Repository) ApplyContractEdit(tenantID, contractID uint, batches []SubscriptionPeriodBatch) ([]SubscriptionBatchErrors, error) {
	contract, err := r.GetContractByID(tenantID, contractID)
	if err != nil {
		return nil, err
	}

	// фаза 1: валидация всех батчей
	normOps := make(map[uint][]timeline.PeriodOp, len(batches))
	var allErrs []SubscriptionBatchErrors
	for _, batch := range batches {
		sub, err := r.GetSubscriptionByID(tenantID, batch.SubscriptionID)
		if err != nil {
			return nil, err
		}
		if sub.ContractID == nil || *sub.ContractID != contract.ID {
			return nil, ErrNotFound
		}

		norm, verrs, err := r.ValidatePeriodBatch(tenantID, sub.ID, batch.Ops)
		if err != nil {
			return nil, err
		}
		if len(verrs) > 0 {
			allErrs = append(allErrs, SubscriptionBatchErrors{SubscriptionID: sub.ID, Errors: verrs})
			continue
		}
		normOps[sub.ID] = norm
	}
	if len(allErrs) > 0 {
		return allErrs, nil
	}

	// фаза 2: применение и каскад в одной транзакции
	err = r.InTransaction(func(tx *Repository) error {
		for _, batch := range batches {
			if err := tx.applyPeriodOps(batch.SubscriptionID, normOps[batch.SubscriptionID]); err != nil {
				return err
			}
			res, err := rollup.New(tx).ApplyAndRecompute(rollup.MutationEvent{
				Trigger:        rollup.TriggerLicensePeriod,
				SubscriptionID: batch.SubscriptionID,
			})
			if err != nil {
				return err
			}
			if err := tx.SaveRollupResult(res); err != nil {
				return err
			}
		}
		return nil
	})
	return nil, err
}
