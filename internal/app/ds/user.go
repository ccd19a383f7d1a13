package ds

// 5. Таблица пользователей
type User struct {
	ID       uint   `gorm:"primaryKey"`
	TenantID uint   `gorm:"not null;index"`
	Login    string `gorm:"type:varchar(50);unique;not null"`
	Password string `gorm:"type:varchar(255);not null"`
	Role     int    `gorm:"type:int;default:0;not null"`
	Email    string `gorm:"type:varchar(100)"`
	FullName string `gorm:"type:varchar(100)"`
}
