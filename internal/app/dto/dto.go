package dto

import "time"

// ============ Общие структуры ============

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Суммы передаются строкой, чтобы не терять точность на float64
type MoneyDTO struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// Ошибка валидации батча периодов. OpIndex = -1 означает,
// что виновата уже сохранённая запись, а не операция из батча
type FieldErrorDTO struct {
	OpIndex int    `json:"op_index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Status string          `json:"status"`
	Errors []FieldErrorDTO `json:"errors"`
}

// ============ Контракты (Contracts) ============

type ContractResponse struct {
	ID         uint      `json:"id"`
	VendorName string    `json:"vendor_name"`
	Number     string    `json:"number"`
	Comment    string    `json:"comment,omitempty"`
	StartDate  *string   `json:"start_date"` // YYYY-MM-DD, вычисляемое
	EndDate    *string   `json:"end_date"`   // YYYY-MM-DD, вычисляемое
	Total      MoneyDTO  `json:"total"`      // вычисляемое
	CreatedAt  time.Time `json:"created_at"`

	Subscriptions []SubscriptionResponse `json:"subscriptions,omitempty"` // только для GET одного контракта
}

type ContractListResponse struct {
	Contracts []ContractResponse `json:"contracts"`
	Total     int                `json:"total"`
}

type CreateContractRequest struct {
	VendorName string `json:"vendor_name" binding:"required,max=100"`
	Number     string `json:"number" binding:"max=50"`
	Comment    string `json:"comment"`
	Currency   string `json:"currency" binding:"omitempty,len=3"`
}

type UpdateContractRequest struct {
	VendorName *string `json:"vendor_name" binding:"omitempty,max=100"`
	Number     *string `json:"number" binding:"omitempty,max=50"`
	Comment    *string `json:"comment"`
}

// Вложенное редактирование: батчи периодов по нескольким подпискам
// контракта применяются атомарно — либо все, либо ни один
type ContractEditRequest struct {
	Subscriptions []SubscriptionBatchRequest `json:"subscriptions" binding:"required,min=1,dive"`
}

type SubscriptionBatchRequest struct {
	SubscriptionID uint              `json:"subscription_id" binding:"required"`
	Ops            []PeriodOpRequest `json:"ops" binding:"dive"`
}

type SubscriptionBatchErrorsDTO struct {
	SubscriptionID uint            `json:"subscription_id"`
	Errors         []FieldErrorDTO `json:"errors"`
}

type ContractEditErrorResponse struct {
	Status        string                       `json:"status"`
	Subscriptions []SubscriptionBatchErrorsDTO `json:"subscriptions"`
}

// ============ Подписки (Subscriptions) ============

type SubscriptionResponse struct {
	ID         uint      `json:"id"`
	ContractID *uint     `json:"contract_id,omitempty"`
	Name       string    `json:"name"`
	StartDate  *string   `json:"start_date"` // вычисляемое
	EndDate    *string   `json:"end_date"`   // вычисляемое
	Total      MoneyDTO  `json:"total"`      // вычисляемое
	CreatedAt  time.Time `json:"created_at"`

	Periods []PeriodResponse `json:"periods,omitempty"` // только для GET одной подписки
}

type SubscriptionListResponse struct {
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
	Total         int                    `json:"total"`
}

type CreateSubscriptionRequest struct {
	Name       string `json:"name" binding:"required,max=100"`
	ContractID *uint  `json:"contract_id"`
	Currency   string `json:"currency" binding:"omitempty,len=3"`
}

type UpdateSubscriptionRequest struct {
	Name       *string `json:"name" binding:"omitempty,max=100"`
	ContractID *uint   `json:"contract_id"`
	Detach     bool    `json:"detach"` // true — отвязать подписку от контракта
}

// ============ Лицензионные периоды (License Periods) ============

type PeriodResponse struct {
	ID                   uint      `json:"id"`
	Type                 string    `json:"type"`
	StartDate            string    `json:"start_date"`
	EndDate              *string   `json:"end_date"` // null — бессрочный
	MaxUsers             *int      `json:"max_users,omitempty"`
	Price                MoneyDTO  `json:"price"`
	IncrementalUserPrice *MoneyDTO `json:"incremental_user_price,omitempty"`
	CalculatedTotal      MoneyDTO  `json:"calculated_total"`
	Status               string    `json:"status"` // upcoming / active / inactive
	ActiveUsers          int       `json:"active_users"`
}

type PeriodListResponse struct {
	Periods []PeriodResponse `json:"periods"`
	Total   int              `json:"total"`
}

// Одна операция батча. Для update и delete обязателен ID,
// для create он должен отсутствовать
type PeriodOpRequest struct {
	Op                   string    `json:"op" binding:"required,oneof=create update delete"`
	ID                   uint      `json:"id"`
	Type                 string    `json:"type"`
	StartDate            *string   `json:"start_date"` // YYYY-MM-DD; null — начало подставится автоматически
	EndDate              *string   `json:"end_date"`
	MaxUsers             *int      `json:"max_users"`
	Price                *MoneyDTO `json:"price"`
	IncrementalUserPrice *MoneyDTO `json:"incremental_user_price"`
}

type PeriodBatchRequest struct {
	Ops []PeriodOpRequest `json:"ops" binding:"required,dive"`
}

// ============ Лицензии сотрудников (Employee Licenses) ============

type EmployeeLicenseResponse struct {
	ID             uint    `json:"id"`
	SubscriptionID uint    `json:"subscription_id"`
	EmployeeName   string  `json:"employee_name"`
	EmployeeEmail  string  `json:"employee_email,omitempty"`
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`
}

type EmployeeLicenseListResponse struct {
	Licenses []EmployeeLicenseResponse `json:"licenses"`
	Total    int                       `json:"total"`
}

type CreateEmployeeLicenseRequest struct {
	EmployeeName  string  `json:"employee_name" binding:"required,max=100"`
	EmployeeEmail string  `json:"employee_email" binding:"omitempty,email"`
	StartDate     *string `json:"start_date"`
	EndDate       *string `json:"end_date"`
}

type UpdateEmployeeLicenseRequest struct {
	EmployeeName  *string `json:"employee_name" binding:"omitempty,max=100"`
	EmployeeEmail *string `json:"employee_email" binding:"omitempty,email"`
	StartDate     *string `json:"start_date"`
	EndDate       *string `json:"end_date"`
}

type ImportResultResponse struct {
	Imported int `json:"imported"`
}

// ============ Документы контрактов (Documents) ============

type DocumentResponse struct {
	ID          uint      `json:"id"`
	ContractID  uint      `json:"contract_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	URL         string    `json:"url,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Total     int                `json:"total"`
}

// ============ Пользователи (Users) ============

type UserResponse struct {
	ID       uint   `json:"id"`
	Login    string `json:"login"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type RegisterRequest struct {
	Login    string `json:"login" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
}

type UpdateUserRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,min=6"`
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
