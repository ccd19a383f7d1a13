package repository

import (
	"errors"

	"gorm.io/gorm"

	"backend/internal/app/ds"
	"backend/internal/app/rollup"
)

// Методы для работы с лицензиями сотрудников. Любая мутация запускает
// каскад пересчёта: стоимость периодов зависит от числа активных лицензий

func (r *Repository) GetEmployeeLicenses(tenantID, subscriptionID uint) ([]ds.EmployeeLicense, error) {
	var licenses []ds.EmployeeLicense
	err := r.db.Where("tenant_id = ? AND subscription_id = ?", tenantID, subscriptionID).
		Order("id ASC").
		Find(&licenses).Error
	return licenses, err
}

func (r *Repository) GetEmployeeLicenseByID(tenantID, id uint) (*ds.EmployeeLicense, error) {
	var license ds.EmployeeLicense
	err := r.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&license).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &license, nil
}

func (r *Repository) CreateEmployeeLicense(license *ds.EmployeeLicense) (*rollup.Result, error) {
	var result *rollup.Result
	err := r.InTransaction(func(tx *Repository) error {
		if _, err := tx.GetSubscriptionByID(license.TenantID, license.SubscriptionID); err != nil {
			return err
		}
		if err := tx.db.Create(license).Error; err != nil {
			return err
		}
		res, err := tx.recomputeAfterEmployeeChange(license.SubscriptionID)
		result = res
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Repository) UpdateEmployeeLicense(tenantID, id uint, license *ds.EmployeeLicense) (*rollup.Result, error) {
	var result *rollup.Result
	err := r.InTransaction(func(tx *Repository) error {
		existing, err := tx.GetEmployeeLicenseByID(tenantID, id)
		if err != nil {
			return err
		}

		err = tx.db.Model(&ds.EmployeeLicense{}).Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"employee_name":  license.EmployeeName,
				"employee_email": license.EmployeeEmail,
				"start_date":     license.StartDate,
				"end_date":       license.EndDate,
			}).Error
		if err != nil {
			return err
		}

		res, err := tx.recomputeAfterEmployeeChange(existing.SubscriptionID)
		result = res
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Repository) DeleteEmployeeLicense(tenantID, id uint) (*rollup.Result, error) {
	var result *rollup.Result
	err := r.InTransaction(func(tx *Repository) error {
		existing, err := tx.GetEmployeeLicenseByID(tenantID, id)
		if err != nil {
			return err
		}

		if err := tx.db.Delete(&ds.EmployeeLicense{}, existing.ID).Error; err != nil {
			return err
		}

		res, err := tx.recomputeAfterEmployeeChange(existing.SubscriptionID)
		result = res
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BulkCreateEmployeeLicenses создаёт пачку лицензий (импорт из файла)
// с одним каскадом пересчёта на подписку
func (r *Repository) BulkCreateEmployeeLicenses(tenantID uint, licenses []ds.EmployeeLicense) (int, error) {
	created := 0
	err := r.InTransaction(func(tx *Repository) error {
		touched := make(map[uint]bool)
		for i := range licenses {
			licenses[i].TenantID = tenantID
			if _, err := tx.GetSubscriptionByID(tenantID, licenses[i].SubscriptionID); err != nil {
				return err
			}
			if err := tx.db.Create(&licenses[i]).Error; err != nil {
				return err
			}
			touched[licenses[i].SubscriptionID] = true
			created++
		}
		for subID := range touched {
			if _, err := tx.recomputeAfterEmployeeChange(subID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (r *Repository) recomputeAfterEmployeeChange(subscriptionID uint) (*rollup.Result, error) {
	res, err := rollup.New(r).ApplyAndRecompute(rollup.MutationEvent{
		Trigger:        rollup.TriggerEmployeeLicense,
		SubscriptionID: subscriptionID,
	})
	if err != nil {
		return nil, err
	}
	if err := r.SaveRollupResult(res); err != nil {
		return nil, err
	}
	return res, nil
}
