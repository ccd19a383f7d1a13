package repository

import (
	"errors"

	"gorm.io/gorm"

	"backend/internal/app/ds"
	"backend/internal/app/rollup"
)

// Методы для работы с подписками

func (r *Repository) GetSubscriptions(tenantID uint, search string) ([]ds.Subscription, error) {
	var subs []ds.Subscription
	q := r.db.Where("tenant_id = ? AND is_deleted = ?", tenantID, false)
	if search != "" {
		q = q.Where("name ILIKE ?", "%"+search+"%")
	}
	err := q.Order("id ASC").Find(&subs).Error
	return subs, err
}

func (r *Repository) GetSubscriptionByID(tenantID, id uint) (*ds.Subscription, error) {
	var sub ds.Subscription
	err := r.db.Where("id = ? AND tenant_id = ? AND is_deleted = ?", id, tenantID, false).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription создаёт подписку. Вычисляемые поля пустые до первого
// батча периодов; привязка к контракту сразу запускает пересчёт контракта
func (r *Repository) CreateSubscription(sub *ds.Subscription) error {
	return r.InTransaction(func(tx *Repository) error {
		if err := tx.db.Create(sub).Error; err != nil {
			return err
		}
		if sub.ContractID == nil {
			return nil
		}
		return tx.recomputeContractTx(*sub.ContractID)
	})
}

// UpdateSubscription меняет имя и привязку к контракту. При смене контракта
// пересчитываются оба: старый теряет вклад подписки, новый получает
func (r *Repository) UpdateSubscription(tenantID, id uint, name *string, contractID *uint, detach bool) (*ds.Subscription, error) {
	var updated *ds.Subscription
	err := r.InTransaction(func(tx *Repository) error {
		sub, err := tx.GetSubscriptionByID(tenantID, id)
		if err != nil {
			return err
		}

		oldContract := sub.ContractID
		updates := map[string]interface{}{}
		if name != nil {
			updates["name"] = *name
		}
		if detach {
			updates["contract_id"] = nil
		} else if contractID != nil {
			if _, err := tx.GetContractByID(tenantID, *contractID); err != nil {
				return err
			}
			updates["contract_id"] = *contractID
		}
		if len(updates) > 0 {
			if err := tx.db.Model(&ds.Subscription{}).Where("id = ?", sub.ID).Updates(updates).Error; err != nil {
				return err
			}
		}

		// каскад по старому и новому контракту
		newContract := oldContract
		if detach {
			newContract = nil
		} else if contractID != nil {
			newContract = contractID
		}
		if oldContract != nil && (newContract == nil || *newContract != *oldContract) {
			if err := tx.recomputeContractTx(*oldContract); err != nil {
				return err
			}
		}
		if newContract != nil {
			if err := tx.recomputeContractTx(*newContract); err != nil {
				return err
			}
		}

		updated, err = tx.GetSubscriptionByID(tenantID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteSubscription логически удаляет подписку. Её собственный агрегат
// отбрасывается, контракт пересчитывается по оставшимся подпискам
func (r *Repository) DeleteSubscription(tenantID, id uint) error {
	return r.InTransaction(func(tx *Repository) error {
		sub, err := tx.GetSubscriptionByID(tenantID, id)
		if err != nil {
			return err
		}

		err = tx.db.Model(&ds.Subscription{}).Where("id = ?", sub.ID).
			Update("is_deleted", true).Error
		if err != nil {
			return err
		}

		if sub.ContractID == nil {
			return nil
		}
		return tx.recomputeContractTx(*sub.ContractID)
	})
}

// recomputeContractTx запускает пересчёт контракта внутри текущей транзакции
func (r *Repository) recomputeContractTx(contractID uint) error {
	res, err := rollup.New(r).ApplyAndRecompute(rollup.MutationEvent{
		Trigger:    rollup.TriggerMembership,
		ContractID: contractID,
	})
	if err != nil {
		return err
	}
	return r.SaveRollupResult(res)
}
