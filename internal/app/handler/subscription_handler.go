package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"backend/internal/app/ds"
	"backend/internal/app/dto"
	"backend/internal/app/money"
	"backend/internal/app/repository"
	"backend/internal/app/timeline"
)

// ============ ДОМЕН ПОДПИСКИ ============

// GetSubscriptions получает список подписок
// @Summary Получение списка подписок
// @Description Возвращает подписки арендатора с поиском по названию
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param query query string false "Поиск по названию подписки"
// @Success 200 {object} dto.SubscriptionListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/subscriptions [get]
func (h *APIHandler) GetSubscriptions(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	subs, err := h.Repository.GetSubscriptions(tenantID, c.Query("query"))
	if err != nil {
		logrus.Error("Error getting subscriptions: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения подписок")
		return
	}

	dtoSubs := make([]dto.SubscriptionResponse, len(subs))
	for i := range subs {
		dtoSubs[i] = subscriptionToDTO(&subs[i])
	}

	c.JSON(http.StatusOK, dto.SubscriptionListResponse{
		Subscriptions: dtoSubs,
		Total:         len(dtoSubs),
	})
}

// GetSubscription получает одну подписку с периодами
// @Summary Получение подписки по ID
// @Description Возвращает подписку вместе с лицензионными периодами, их статусом и числом активных пользователей
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID подписки"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/subscriptions/{id} [get]
func (h *APIHandler) GetSubscription(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID подписки")
		return
	}

	sub, err := h.Repository.GetSubscriptionByID(tenantID, id)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "Подписка не найдена")
		return
	}

	periods, err := h.Repository.PeriodsBySubscription(sub.ID)
	if err != nil {
		logrus.Error("Error getting periods: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения периодов")
		return
	}
	licenses, err := h.Repository.EmployeeLicensesBySubscription(sub.ID)
	if err != nil {
		logrus.Error("Error getting employee licenses: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения лицензий")
		return
	}

	response := subscriptionToDTO(sub)
	response.Periods = make([]dto.PeriodResponse, len(periods))
	for i, p := range periods {
		response.Periods[i] = periodToDTO(p, licenses)
	}

	c.JSON(http.StatusOK, response)
}

// CreateSubscription создает новую подписку
// @Summary Создание подписки
// @Description Создает подписку, опционально привязывая ее к контракту
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSubscriptionRequest true "Данные подписки"
// @Success 201 {object} dto.SubscriptionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/subscriptions [post]
func (h *APIHandler) CreateSubscription(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	var req dto.CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Неверные данные: "+err.Error())
		return
	}

	if req.ContractID != nil {
		if _, err := h.Repository.GetContractByID(tenantID, *req.ContractID); err != nil {
			h.errorResponse(c, http.StatusNotFound, "Контракт не найден")
			return
		}
	}

	sub := &ds.Subscription{
		TenantID:   tenantID,
		ContractID: req.ContractID,
		Name:       req.Name,
	}
	if req.Currency != "" {
		if !money.ValidCurrency(req.Currency) {
			h.errorResponse(c, http.StatusBadRequest, "Неизвестный код валюты: "+req.Currency)
			return
		}
		sub.TotalCurrency = req.Currency
	}

	if err := h.Repository.CreateSubscription(sub); err != nil {
		logrus.Error("Error creating subscription: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка создания подписки")
		return
	}

	c.JSON(http.StatusCreated, subscriptionToDTO(sub))
}

// UpdateSubscription обновляет подписку
// @Summary Обновление подписки
// @Description Меняет название, привязывает или отвязывает подписку от контракта
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID подписки"
// @Param request body dto.UpdateSubscriptionRequest true "Данные для обновления"
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/subscriptions/{id} [put]
func (h *APIHandler) UpdateSubscription(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID подписки")
		return
	}

	var req dto.UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Неверные данные: "+err.Error())
		return
	}

	if req.ContractID != nil {
		if _, err := h.Repository.GetContractByID(tenantID, *req.ContractID); err != nil {
			h.errorResponse(c, http.StatusNotFound, "Контракт не найден")
			return
		}
	}

	sub, err := h.Repository.UpdateSubscription(tenantID, id, req.Name, req.ContractID, req.Detach)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.errorResponse(c, http.StatusNotFound, "Подписка не найдена")
			return
		}
		logrus.Error("Error updating subscription: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка обновления подписки")
		return
	}

	c.JSON(http.StatusOK, subscriptionToDTO(sub))
}

// DeleteSubscription удаляет подписку
// @Summary Удаление подписки
// @Description Помечает подписку удаленной и пересчитывает контракт
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID подписки"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/subscriptions/{id} [delete]
func (h *APIHandler) DeleteSubscription(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID подписки")
		return
	}

	if err := h.Repository.DeleteSubscription(tenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.errorResponse(c, http.StatusNotFound, "Подписка не найдена")
			return
		}
		logrus.Error("Error deleting subscription: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка удаления подписки")
		return
	}

	h.successResponse(c, http.StatusOK, "подписка удалена", nil)
}

// GetSubscriptionPeriods получает периоды подписки
// @Summary Получение периодов подписки
// @Description Возвращает лицензионные периоды в хронологическом порядке
// @Tags Periods
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID подписки"
// @Success 200 {object} dto.PeriodListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/subscriptions/{id}/periods [get]
func (h *APIHandler) GetSubscriptionPeriods(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID подписки")
		return
	}

	if _, err := h.Repository.GetSubscriptionByID(tenantID, id); err != nil {
		h.errorResponse(c, http.StatusNotFound, "Подписка не найдена")
		return
	}

	periods, err := h.Repository.PeriodsBySubscription(id)
	if err != nil {
		logrus.Error("Error getting periods: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения периодов")
		return
	}
	licenses, err := h.Repository.EmployeeLicensesBySubscription(id)
	if err != nil {
		logrus.Error("Error getting employee licenses: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения лицензий")
		return
	}

	dtoPeriods := make([]dto.PeriodResponse, len(periods))
	for i, p := range periods {
		dtoPeriods[i] = periodToDTO(p, licenses)
	}

	c.JSON(http.StatusOK, dto.PeriodListResponse{
		Periods: dtoPeriods,
		Total:   len(dtoPeriods),
	})
}

// UpdateSubscriptionPeriods применяет батч операций над периодами
// @Summary Батч-редактирование периодов
// @Description Применяет create/update/delete операции над периодами атомарно с валидацией непрерывности
// @Tags Periods
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID подписки"
// @Param request body dto.PeriodBatchRequest true "Батч операций"
// @Success 200 {object} dto.PeriodListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ValidationErrorResponse
// @Router /api/subscriptions/{id}/periods [put]
func (h *APIHandler) UpdateSubscriptionPeriods(c *gin.Context) {
	h.applyPeriodBatch(c, false)
}

// ValidateSubscriptionPeriods проверяет батч без применения
// @Summary Проверка батча периодов
// @Description Прогоняет валидацию батча, ничего не записывая. Возвращает все найденные ошибки
// @Tags Periods
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID подписки"
// @Param request body dto.PeriodBatchRequest true "Батч операций"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ValidationErrorResponse
// @Router /api/subscriptions/{id}/periods/validate [post]
func (h *APIHandler) ValidateSubscriptionPeriods(c *gin.Context) {
	h.applyPeriodBatch(c, true)
}

func (h *APIHandler) applyPeriodBatch(c *gin.Context, dryRun bool) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID подписки")
		return
	}

	var req dto.PeriodBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Неверные данные: "+err.Error())
		return
	}

	ops, convErrs := periodOpsFromDTO(req.Ops)
	if len(convErrs) > 0 {
		h.validationResponse(c, convErrs)
		return
	}

	var verrs []timeline.FieldError
	if dryRun {
		_, verrs, err = h.Repository.ValidatePeriodBatch(tenantID, id, ops)
	} else {
		_, verrs, err = h.Repository.ApplyPeriodBatch(tenantID, id, ops)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.errorResponse(c, http.StatusNotFound, "Подписка не найдена")
			return
		}
		var integrity *timeline.IntegrityError
		if errors.As(err, &integrity) {
			h.errorResponse(c, http.StatusConflict, integrity.Error())
			return
		}
		logrus.Error("Error applying period batch: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка применения батча")
		return
	}
	if len(verrs) > 0 {
		h.validationResponse(c, verrs)
		return
	}

	if dryRun {
		h.successResponse(c, http.StatusOK, "батч валиден", nil)
		return
	}

	periods, err := h.Repository.PeriodsBySubscription(id)
	if err != nil {
		logrus.Error("Error getting periods after batch: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения периодов")
		return
	}
	licenses, err := h.Repository.EmployeeLicensesBySubscription(id)
	if err != nil {
		logrus.Error("Error getting employee licenses: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения лицензий")
		return
	}

	dtoPeriods := make([]dto.PeriodResponse, len(periods))
	for i, p := range periods {
		dtoPeriods[i] = periodToDTO(p, licenses)
	}

	c.JSON(http.StatusOK, dto.PeriodListResponse{
		Periods: dtoPeriods,
		Total:   len(dtoPeriods),
	})
}
