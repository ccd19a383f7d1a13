package repository

import (
	"errors"

	"gorm.io/gorm"

	"backend/internal/app/ds"
)

// Методы для пользователей (ORM)

func (r *Repository) GetUserByID(id uint) (*ds.User, error) {
	var user ds.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetUserByLogin(login string) (*ds.User, error) {
	var user ds.User
	err := r.db.Where("login = ?", login).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *Repository) UserExistsByLogin(login string) (bool, error) {
	var count int64
	err := r.db.Model(&ds.User{}).Where("login = ?", login).Count(&count).Error
	return count > 0, err
}

// CreateUser создает пользователя. Если арендатор не указан,
// регистрация открывает новый арендатор с этим пользователем
func (r *Repository) CreateUser(user *ds.User) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if user.TenantID == 0 {
			user.TenantID = user.ID
			return tx.Model(user).Update("tenant_id", user.TenantID).Error
		}
		return nil
	})
}

func (r *Repository) UpdateUser(id uint, fullName, email, password *string) (*ds.User, error) {
	updates := map[string]interface{}{}
	if fullName != nil {
		updates["full_name"] = *fullName
	}
	if email != nil {
		updates["email"] = *email
	}
	if password != nil {
		updates["password"] = *password
	}
	if len(updates) > 0 {
		if err := r.db.Model(&ds.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return r.GetUserByID(id)
}
