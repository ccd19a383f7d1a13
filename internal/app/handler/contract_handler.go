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
	"backend/internal/app/money"
	"backend/internal/app/repository"
	"backend/internal/app/timeline"
)

// ============ ДОМЕН КОНТРАКТЫ ============

// GetContracts получает список контрактов
// @Summary Получение списка контрактов
// @Description Возвращает контракты арендатора с поиском по поставщику
// @Tags Contracts
// @Produce json
// @Security BearerAuth
// @Param query query string false "Поиск по названию поставщика"
// @Success 200 {object} dto.ContractListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/contracts [get]
func (h *APIHandler) GetContracts(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	contracts, err := h.Repository.GetContracts(tenantID, c.Query("query"))
	if err != nil {
		logrus.Error("Error getting contracts: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения контрактов")
		return
	}

	dtoContracts := make([]dto.ContractResponse, len(contracts))
	for i := range contracts {
		dtoContracts[i] = contractToDTO(&contracts[i])
	}

	c.JSON(http.StatusOK, dto.ContractListResponse{
		Contracts: dtoContracts,
		Total:     len(dtoContracts),
	})
}

// GetContract получает один контракт с его подписками
// @Summary Получение контракта по ID
// @Description Возвращает контракт вместе со списком его подписок
// @Tags Contracts
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID контракта"
// @Success 200 {object} dto.ContractResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/contracts/{id} [get]
func (h *APIHandler) GetContract(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID контракта")
		return
	}

	contract, err := h.Repository.GetContractByID(tenantID, id)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "Контракт не найден")
		return
	}

	response := contractToDTO(contract)

	subs, err := h.Repository.SubscriptionsByContract(contract.ID)
	if err != nil {
		logrus.Error("Error getting contract subscriptions: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения подписок контракта")
		return
	}
	response.Subscriptions = make([]dto.SubscriptionResponse, len(subs))
	for i := range subs {
		response.Subscriptions[i] = subscriptionToDTO(&subs[i])
	}

	c.JSON(http.StatusOK, response)
}

// CreateContract создает новый контракт
// @Summary Создание контракта
// @Description Создает контракт. Даты и сумма будут вычислены по подпискам
// @Tags Contracts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateContractRequest true "Данные контракта"
// @Success 201 {object} dto.ContractResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/contracts [post]
func (h *APIHandler) CreateContract(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	var req dto.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Неверные данные: "+err.Error())
		return
	}

	contract := &ds.Contract{
		TenantID:   tenantID,
		VendorName: req.VendorName,
		Number:     req.Number,
		Comment:    req.Comment,
	}
	if req.Currency != "" {
		if !money.ValidCurrency(req.Currency) {
			h.errorResponse(c, http.StatusBadRequest, "Неизвестный код валюты: "+req.Currency)
			return
		}
		contract.TotalCurrency = req.Currency
	}

	if err := h.Repository.CreateContract(contract); err != nil {
		logrus.Error("Error creating contract: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка создания контракта")
		return
	}

	c.JSON(http.StatusCreated, contractToDTO(contract))
}

// UpdateContract обновляет описательные поля контракта
// @Summary Обновление контракта
// @Description Обновляет поставщика, номер и комментарий. Даты и сумма не редактируются
// @Tags Contracts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID контракта"
// @Param request body dto.UpdateContractRequest true "Данные для обновления"
// @Success 200 {object} dto.ContractResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/contracts/{id} [put]
func (h *APIHandler) UpdateContract(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID контракта")
		return
	}

	var req dto.UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Неверные данные: "+err.Error())
		return
	}

	contract, err := h.Repository.UpdateContractFields(tenantID, id, req.VendorName, req.Number, req.Comment)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.errorResponse(c, http.StatusNotFound, "Контракт не найден")
			return
		}
		logrus.Error("Error updating contract: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка обновления контракта")
		return
	}

	c.JSON(http.StatusOK, contractToDTO(contract))
}

// DeleteContract удаляет контракт
// @Summary Удаление контракта
// @Description Помечает контракт удаленным, подписки отвязываются и продолжают жить
// @Tags Contracts
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID контракта"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/contracts/{id} [delete]
func (h *APIHandler) DeleteContract(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID контракта")
		return
	}

	if err := h.Repository.DeleteContract(tenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.errorResponse(c, http.StatusNotFound, "Контракт не найден")
			return
		}
		logrus.Error("Error deleting contract: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка удаления контракта")
		return
	}

	h.successResponse(c, http.StatusOK, "контракт удален", nil)
}

// EditContract применяет вложенное редактирование периодов нескольких подписок
// @Summary Вложенное редактирование контракта
// @Description Применяет батчи периодов по подпискам контракта атомарно: либо все, либо ни один
// @Tags Contracts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID контракта"
// @Param request body dto.ContractEditRequest true "Батчи операций по подпискам"
// @Success 200 {object} dto.ContractResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ContractEditErrorResponse
// @Router /api/contracts/{id}/edit [post]
func (h *APIHandler) EditContract(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID контракта")
		return
	}

	var req dto.ContractEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Неверные данные: "+err.Error())
		return
	}

	batches := make([]repository.SubscriptionPeriodBatch, 0, len(req.Subscriptions))
	var convErrs []dto.SubscriptionBatchErrorsDTO
	for _, sb := range req.Subscriptions {
		ops, errs := periodOpsFromDTO(sb.Ops)
		if len(errs) > 0 {
			convErrs = append(convErrs, dto.SubscriptionBatchErrorsDTO{
				SubscriptionID: sb.SubscriptionID,
				Errors:         fieldErrorsToDTO(errs),
			})
			continue
		}
		batches = append(batches, repository.SubscriptionPeriodBatch{
			SubscriptionID: sb.SubscriptionID,
			Ops:            ops,
		})
	}
	if len(convErrs) > 0 {
		c.JSON(422, dto.ContractEditErrorResponse{Status: "fail", Subscriptions: convErrs})
		return
	}

	batchErrs, err := h.Repository.ApplyContractEdit(tenantID, id, batches)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.errorResponse(c, http.StatusNotFound, "Контракт не найден")
			return
		}
		var integrity *timeline.IntegrityError
		if errors.As(err, &integrity) {
			h.errorResponse(c, http.StatusConflict, integrity.Error())
			return
		}
		logrus.Error("Error applying contract edit: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка редактирования контракта")
		return
	}
	if len(batchErrs) > 0 {
		out := make([]dto.SubscriptionBatchErrorsDTO, len(batchErrs))
		for i, be := range batchErrs {
			out[i] = dto.SubscriptionBatchErrorsDTO{
				SubscriptionID: be.SubscriptionID,
				Errors:         fieldErrorsToDTO(be.Errors),
			}
		}
		c.JSON(422, dto.ContractEditErrorResponse{Status: "fail", Subscriptions: out})
		return
	}

	contract, err := h.Repository.GetContractByID(tenantID, id)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "Контракт не найден")
		return
	}
	c.JSON(http.StatusOK, contractToDTO(contract))
}

// ExportContracts выгружает отчет по контрактам в xlsx
// @Summary Экспорт контрактов
// @Description Формирует xlsx-отчет по контрактам арендатора с подписками
// @Tags Contracts
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} binary
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/contracts/export [get]
func (h *APIHandler) ExportContracts(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	contracts, err := h.Repository.GetContracts(tenantID, "")
	if err != nil {
		logrus.Error("Error getting contracts for export: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения контрактов")
		return
	}

	subsByContract := make(map[uint][]ds.Subscription, len(contracts))
	for _, contract := range contracts {
		subs, err := h.Repository.SubscriptionsByContract(contract.ID)
		if err != nil {
			logrus.Error("Error getting subscriptions for export: ", err)
			h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения подписок")
			return
		}
		subsByContract[contract.ID] = subs
	}

	buf, err := etl.ExportContracts(contracts, subsByContract)
	if err != nil {
		logrus.Error("Error building export: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка формирования отчета")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=contracts_%d.xlsx", tenantID))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
