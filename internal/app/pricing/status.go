package pricing

import "time"

// Статус периода лицензии относительно даты
const (
	StatusUpcoming = "upcoming"
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// StatusOn определяет статус периода на дату today.
// Чистая функция от (today, start, end), не зависит от способа выборки
func StatusOn(today time.Time, start time.Time, end *time.Time) string {
	if today.Before(start) {
		return StatusUpcoming
	}
	if end != nil && today.After(*end) {
		return StatusInactive
	}
	return StatusActive
}
