package timeline

import (
	"fmt"
	"time"

	"backend/internal/app/money"
)

// Виды операций над периодами в батче
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// PeriodOp — одна операция батча над периодами подписки.
// OpIndex — позиция в исходном батче, по ней адресуются ошибки
type PeriodOp struct {
	OpIndex  int
	Kind     string
	PeriodID uint // для update/delete

	Type                 string
	StartDate            *time.Time
	EndDate              *time.Time
	MaxUsers             *int
	Price                money.Money
	IncrementalUserPrice money.Money
}

// FieldError — ошибка валидации, адресованная полю конкретной операции
// батча. OpIndex = -1, если виноват уже сохранённый период, не попавший в батч
type FieldError struct {
	OpIndex int    `json:"op_index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// IntegrityError — фатальная ошибка ссылочной целостности:
// операция ссылается на чужой или несуществующий период
type IntegrityError struct {
	PeriodID uint
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("период %d не существует или не принадлежит подписке", e.PeriodID)
}
