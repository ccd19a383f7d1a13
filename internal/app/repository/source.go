package repository

import (
	"errors"

	"gorm.io/gorm"

	"backend/internal/app/ds"
)

// Репозиторий реализует rollup.Source: чтение зафиксированного состояния
// графа сущностей внутри текущей транзакции

func (r *Repository) PeriodsBySubscription(subscriptionID uint) ([]ds.LicensePeriod, error) {
	var periods []ds.LicensePeriod
	err := r.db.Where("subscription_id = ?", subscriptionID).
		Order("start_date ASC").
		Find(&periods).Error
	return periods, err
}

func (r *Repository) EmployeeLicensesBySubscription(subscriptionID uint) ([]ds.EmployeeLicense, error) {
	var licenses []ds.EmployeeLicense
	err := r.db.Where("subscription_id = ?", subscriptionID).Find(&licenses).Error
	return licenses, err
}

func (r *Repository) SubscriptionByID(subscriptionID uint) (*ds.Subscription, error) {
	var sub ds.Subscription
	err := r.db.Where("id = ? AND is_deleted = ?", subscriptionID, false).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *Repository) SubscriptionsByContract(contractID uint) ([]ds.Subscription, error) {
	var subs []ds.Subscription
	err := r.db.Where("contract_id = ? AND is_deleted = ?", contractID, false).Find(&subs).Error
	return subs, err
}

func (r *Repository) ContractByID(contractID uint) (*ds.Contract, error) {
	var contract ds.Contract
	err := r.db.Where("id = ? AND is_deleted = ?", contractID, false).First(&contract).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &contract, nil
}
