package ds

import "time"

// 4. Таблица пользовательских лицензий. Лицензия привязана к подписке,
// а не к конкретному периоду — сопоставление идёт по пересечению дат
type EmployeeLicense struct {
	ID             uint       `gorm:"primaryKey"`
	TenantID       uint       `gorm:"not null;index"`
	SubscriptionID uint       `gorm:"not null;index"`
	EmployeeName   string     `gorm:"type:varchar(100);not null"`
	EmployeeEmail  string     `gorm:"type:varchar(100)"`
	StartDate      *time.Time `gorm:"type:date"`
	EndDate        *time.Time `gorm:"type:date"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Subscription *Subscription `gorm:"foreignKey:SubscriptionID"`
}
