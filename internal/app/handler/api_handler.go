package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"backend/internal/app/ds"
	"backend/internal/app/dto"
	"backend/internal/app/money"
	"backend/internal/app/pricing"
	"backend/internal/app/repository"
	"backend/internal/app/role"
	"backend/internal/app/storage"
	"backend/internal/app/timeline"
)

const dateLayout = "2006-01-02"

// APIHandler содержит обработчики для REST API
type APIHandler struct {
	Repository  *repository.Repository
	MinIOClient *storage.MinIOClient
	AuthHandler *AuthHandler
}

func NewAPIHandler(r *repository.Repository, minioClient *storage.MinIOClient, authHandler *AuthHandler) *APIHandler {
	return &APIHandler{
		Repository:  r,
		MinIOClient: minioClient,
		AuthHandler: authHandler,
	}
}

// Получение текущего пользователя из контекста
func (h *APIHandler) getUserFromContext(c *gin.Context) (uint, uint, role.Role, error) {
	userIDVal, exists := c.Get("userID")
	if !exists {
		logrus.Warn("userID not found in context")
		return 0, 0, role.Viewer, fmt.Errorf("user not authenticated")
	}

	userID, ok := userIDVal.(uint)
	if !ok {
		logrus.Errorf("getUserFromContext: invalid userID type: %T", userIDVal)
		return 0, 0, role.Viewer, fmt.Errorf("invalid user ID")
	}

	tenantIDVal, _ := c.Get("tenantID")
	tenantID, _ := tenantIDVal.(uint)

	userRoleVal, _ := c.Get("userRole")
	r, _ := userRoleVal.(role.Role)

	return userID, tenantID, r, nil
}

// ============ Вспомогательные функции ============

func (h *APIHandler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.ErrorResponse{
		Status:  "fail",
		Message: message,
	})
}

func (h *APIHandler) successResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	response := dto.SuccessResponse{
		Status:  "success",
		Message: message,
	}
	if data != nil {
		response.Data = data
	}
	c.JSON(statusCode, response)
}

// validationResponse отдаёт 422 со списком ошибок валидации батча
func (h *APIHandler) validationResponse(c *gin.Context, errs []timeline.FieldError) {
	c.JSON(422, dto.ValidationErrorResponse{
		Status: "fail",
		Errors: fieldErrorsToDTO(errs),
	})
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, err
	}
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &t, nil
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// ============ Маппинг в DTO ============

func moneyToDTO(m money.Money) dto.MoneyDTO {
	return dto.MoneyDTO{
		Amount:   m.Amount.StringFixed(2),
		Currency: m.Currency,
	}
}

func moneyFromDTO(d *dto.MoneyDTO) (money.Money, error) {
	if d == nil {
		return money.Money{}, nil
	}
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return money.Money{}, fmt.Errorf("неверная сумма: %s", d.Amount)
	}
	return money.New(amount, d.Currency), nil
}

func fieldErrorsToDTO(errs []timeline.FieldError) []dto.FieldErrorDTO {
	out := make([]dto.FieldErrorDTO, len(errs))
	for i, e := range errs {
		out[i] = dto.FieldErrorDTO{OpIndex: e.OpIndex, Field: e.Field, Message: e.Message}
	}
	return out
}

func contractToDTO(c *ds.Contract) dto.ContractResponse {
	return dto.ContractResponse{
		ID:         c.ID,
		VendorName: c.VendorName,
		Number:     c.Number,
		Comment:    c.Comment,
		StartDate:  formatDatePtr(c.StartDate),
		EndDate:    formatDatePtr(c.EndDate),
		Total:      moneyToDTO(c.Total()),
		CreatedAt:  c.CreatedAt,
	}
}

func subscriptionToDTO(s *ds.Subscription) dto.SubscriptionResponse {
	return dto.SubscriptionResponse{
		ID:         s.ID,
		ContractID: s.ContractID,
		Name:       s.Name,
		StartDate:  formatDatePtr(s.StartDate),
		EndDate:    formatDatePtr(s.EndDate),
		Total:      moneyToDTO(s.Total()),
		CreatedAt:  s.CreatedAt,
	}
}

// periodToDTO считает статус на сегодня и число активных пользователей
func periodToDTO(p ds.LicensePeriod, licenses []ds.EmployeeLicense) dto.PeriodResponse {
	resp := dto.PeriodResponse{
		ID:              p.ID,
		Type:            p.Type,
		StartDate:       p.StartDate.Format(dateLayout),
		EndDate:         formatDatePtr(p.EndDate),
		MaxUsers:        p.MaxUsers,
		Price:           moneyToDTO(p.Price()),
		CalculatedTotal: moneyToDTO(p.CalculatedTotal()),
		Status:          pricing.StatusOn(time.Now().UTC(), p.StartDate, p.EndDate),
		ActiveUsers:     pricing.ActiveUserCount(p, licenses),
	}
	if p.Type == ds.PeriodPerUser || p.Type == ds.PeriodUserLimit {
		incremental := moneyToDTO(p.IncrementalUserPrice())
		resp.IncrementalUserPrice = &incremental
	}
	return resp
}

func employeeLicenseToDTO(l *ds.EmployeeLicense) dto.EmployeeLicenseResponse {
	return dto.EmployeeLicenseResponse{
		ID:             l.ID,
		SubscriptionID: l.SubscriptionID,
		EmployeeName:   l.EmployeeName,
		EmployeeEmail:  l.EmployeeEmail,
		StartDate:      formatDatePtr(l.StartDate),
		EndDate:        formatDatePtr(l.EndDate),
	}
}

// periodOpsFromDTO разбирает батч операций. Ошибки формата дат и сумм
// возвращаются как ошибки валидации с индексом операции
func periodOpsFromDTO(ops []dto.PeriodOpRequest) ([]timeline.PeriodOp, []timeline.FieldError) {
	var result []timeline.PeriodOp
	var errs []timeline.FieldError

	for i, op := range ops {
		out := timeline.PeriodOp{
			OpIndex:  i,
			Kind:     op.Op,
			PeriodID: op.ID,
			Type:     op.Type,
			MaxUsers: op.MaxUsers,
		}

		if op.Op != timeline.OpCreate && op.ID == 0 {
			errs = append(errs, timeline.FieldError{OpIndex: i, Field: "id", Message: "не указан идентификатор периода"})
			continue
		}
		if op.Op == timeline.OpCreate && op.ID != 0 {
			errs = append(errs, timeline.FieldError{OpIndex: i, Field: "id", Message: "для create идентификатор не указывается"})
			continue
		}
		if op.Op == timeline.OpDelete {
			result = append(result, out)
			continue
		}

		start, err := parseDatePtr(op.StartDate)
		if err != nil {
			errs = append(errs, timeline.FieldError{OpIndex: i, Field: "start_date", Message: "неверный формат даты, ожидается YYYY-MM-DD"})
			continue
		}
		end, err := parseDatePtr(op.EndDate)
		if err != nil {
			errs = append(errs, timeline.FieldError{OpIndex: i, Field: "end_date", Message: "неверный формат даты, ожидается YYYY-MM-DD"})
			continue
		}
		out.StartDate = start
		out.EndDate = end

		price, err := moneyFromDTO(op.Price)
		if err != nil {
			errs = append(errs, timeline.FieldError{OpIndex: i, Field: "price", Message: err.Error()})
			continue
		}
		incremental, err := moneyFromDTO(op.IncrementalUserPrice)
		if err != nil {
			errs = append(errs, timeline.FieldError{OpIndex: i, Field: "incremental_user_price", Message: err.Error()})
			continue
		}
		out.Price = price
		out.IncrementalUserPrice = incremental

		result = append(result, out)
	}

	return result, errs
}
