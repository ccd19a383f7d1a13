package ds

import "time"

// 6. Таблица документов контракта. Сам файл лежит в MinIO,
// в БД храним только метаданные и ключ объекта
type Document struct {
	ID          uint   `gorm:"primaryKey"`
	TenantID    uint   `gorm:"not null;index"`
	ContractID  uint   `gorm:"not null;index"`
	Filename    string `gorm:"type:varchar(255);not null"`
	ObjectKey   string `gorm:"type:varchar(255);not null"`
	ContentType string `gorm:"type:varchar(100)"`
	Size        int64  `gorm:"not null"`
	UploadedBy  uint   `gorm:"not null"`

	CreatedAt time.Time

	Contract *Contract `gorm:"foreignKey:ContractID"`
}
