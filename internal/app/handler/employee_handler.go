package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"backend/internal/app/ds"
	"backend/internal/app/dto"
	"backend/internal/app/etl"
	"backend/internal/app/repository"
)

// максимальный размер xlsx для импорта — 10 МБ
const maxImportFileSize = 10 << 20

// ============ ДОМЕН ЛИЦЕНЗИИ СОТРУДНИКОВ ============

// GetEmployeeLicenses получает лицензии подписки
// @Summary Получение лицензий сотрудников
// @Description Возвращает лицензии сотрудников по подписке
// @Tags EmployeeLicenses
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID подписки"
// @Success 200 {object} dto.EmployeeLicenseListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/subscriptions/{id}/licenses [get]
func (h *APIHandler) GetEmployeeLicenses(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	subID, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID подписки")
		return
	}

	if _, err := h.Repository.GetSubscriptionByID(tenantID, subID); err != nil {
		h.errorResponse(c, http.StatusNotFound, "Подписка не найдена")
		return
	}

	licenses, err := h.Repository.GetEmployeeLicenses(tenantID, subID)
	if err != nil {
		logrus.Error("Error getting employee licenses: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения лицензий")
		return
	}

	dtoLicenses := make([]dto.EmployeeLicenseResponse, len(licenses))
	for i := range licenses {
		dtoLicenses[i] = employeeLicenseToDTO(&licenses[i])
	}

	c.JSON(http.StatusOK, dto.EmployeeLicenseListResponse{
		Licenses: dtoLicenses,
		Total:    len(dtoLicenses),
	})
}

// CreateEmployeeLicense выдает лицензию сотруднику
// @Summary Выдача лицензии
// @Description Создает лицензию сотрудника и пересчитывает стоимость подписки
// @Tags EmployeeLicenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID подписки"
// @Param request body dto.CreateEmployeeLicenseRequest true "Данные лицензии"
// @Success 201 {object} dto.EmployeeLicenseResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/subscriptions/{id}/licenses [post]
func (h *APIHandler) CreateEmployeeLicense(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	subID, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID подписки")
		return
	}

	if _, err := h.Repository.GetSubscriptionByID(tenantID, subID); err != nil {
		h.errorResponse(c, http.StatusNotFound, "Подписка не найдена")
		return
	}

	var req dto.CreateEmployeeLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Неверные данные: "+err.Error())
		return
	}

	start, err := parseDatePtr(req.StartDate)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Неверный формат даты начала")
		return
	}
	end, err := parseDatePtr(req.EndDate)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Неверный формат даты окончания")
		return
	}
	if start != nil && end != nil && end.Before(*start) {
		h.errorResponse(c, http.StatusBadRequest, "Дата окончания раньше даты начала")
		return
	}

	license := &ds.EmployeeLicense{
		TenantID:       tenantID,
		SubscriptionID: subID,
		EmployeeName:   req.EmployeeName,
		EmployeeEmail:  req.EmployeeEmail,
		StartDate:      start,
		EndDate:        end,
	}

	if _, err := h.Repository.CreateEmployeeLicense(license); err != nil {
		logrus.Error("Error creating employee license: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка выдачи лицензии")
		return
	}

	c.JSON(http.StatusCreated, employeeLicenseToDTO(license))
}

// UpdateEmployeeLicense обновляет лицензию сотрудника
// @Summary Обновление лицензии
// @Description Меняет данные лицензии и пересчитывает стоимость подписки
// @Tags EmployeeLicenses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID лицензии"
// @Param request body dto.UpdateEmployeeLicenseRequest true "Данные для обновления"
// @Success 200 {object} dto.EmployeeLicenseResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/licenses/{id} [put]
func (h *APIHandler) UpdateEmployeeLicense(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID лицензии")
		return
	}

	var req dto.UpdateEmployeeLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Неверные данные: "+err.Error())
		return
	}

	existing, err := h.Repository.GetEmployeeLicenseByID(tenantID, id)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "Лицензия не найдена")
		return
	}

	if req.EmployeeName != nil {
		existing.EmployeeName = *req.EmployeeName
	}
	if req.EmployeeEmail != nil {
		existing.EmployeeEmail = *req.EmployeeEmail
	}
	if req.StartDate != nil {
		start, err := parseDatePtr(req.StartDate)
		if err != nil {
			h.errorResponse(c, http.StatusBadRequest, "Неверный формат даты начала")
			return
		}
		existing.StartDate = start
	}
	if req.EndDate != nil {
		end, err := parseDatePtr(req.EndDate)
		if err != nil {
			h.errorResponse(c, http.StatusBadRequest, "Неверный формат даты окончания")
			return
		}
		existing.EndDate = end
	}
	if existing.StartDate != nil && existing.EndDate != nil && existing.EndDate.Before(*existing.StartDate) {
		h.errorResponse(c, http.StatusBadRequest, "Дата окончания раньше даты начала")
		return
	}

	if _, err := h.Repository.UpdateEmployeeLicense(tenantID, id, existing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.errorResponse(c, http.StatusNotFound, "Лицензия не найдена")
			return
		}
		logrus.Error("Error updating employee license: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка обновления лицензии")
		return
	}

	c.JSON(http.StatusOK, employeeLicenseToDTO(existing))
}

// DeleteEmployeeLicense отзывает лицензию
// @Summary Отзыв лицензии
// @Description Удаляет лицензию сотрудника и пересчитывает стоимость подписки
// @Tags EmployeeLicenses
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID лицензии"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/licenses/{id} [delete]
func (h *APIHandler) DeleteEmployeeLicense(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID лицензии")
		return
	}

	if _, err := h.Repository.DeleteEmployeeLicense(tenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.errorResponse(c, http.StatusNotFound, "Лицензия не найдена")
			return
		}
		logrus.Error("Error deleting employee license: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка отзыва лицензии")
		return
	}

	h.successResponse(c, http.StatusOK, "лицензия отозвана", nil)
}

// ImportEmployeeLicenses импортирует лицензии из xlsx
// @Summary Импорт лицензий из xlsx
// @Description Загружает xlsx с колонками ФИО, Email, Дата начала, Дата окончания и создает лицензии
// @Tags EmployeeLicenses
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID подписки"
// @Param file formData file true "Файл xlsx"
// @Success 200 {object} dto.ImportResultResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/subscriptions/{id}/licenses/import [post]
func (h *APIHandler) ImportEmployeeLicenses(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	subID, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID подписки")
		return
	}

	if _, err := h.Repository.GetSubscriptionByID(tenantID, subID); err != nil {
		h.errorResponse(c, http.StatusNotFound, "Подписка не найдена")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Файл не передан")
		return
	}
	if fileHeader.Size > maxImportFileSize {
		h.errorResponse(c, http.StatusBadRequest, "Файл слишком большой, максимум 10 МБ")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Не удалось прочитать файл")
		return
	}
	defer file.Close()

	licenses, rowErrs, err := etl.ParseEmployeeLicenses(file, tenantID, subID)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Не удалось разобрать xlsx: "+err.Error())
		return
	}
	if len(rowErrs) > 0 {
		messages := make([]string, len(rowErrs))
		for i, re := range rowErrs {
			messages[i] = re.Error()
		}
		h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("Ошибки в файле: %v", messages))
		return
	}
	if len(licenses) == 0 {
		h.errorResponse(c, http.StatusBadRequest, "Файл не содержит ни одной лицензии")
		return
	}

	imported, err := h.Repository.BulkCreateEmployeeLicenses(tenantID, licenses)
	if err != nil {
		logrus.Error("Error importing employee licenses: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка импорта лицензий")
		return
	}

	c.JSON(http.StatusOK, dto.ImportResultResponse{Imported: imported})
}
