package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"backend/internal/app/ds"
	"backend/internal/app/dto"
)

// максимальный размер документа — 20 МБ
const maxDocumentSize = 20 << 20

// ============ ДОМЕН ДОКУМЕНТЫ КОНТРАКТОВ ============

// GetContractDocuments получает документы контракта
// @Summary Получение документов контракта
// @Description Возвращает метаданные документов с временными ссылками на скачивание
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID контракта"
// @Success 200 {object} dto.DocumentListResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/contracts/{id}/documents [get]
func (h *APIHandler) GetContractDocuments(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	contractID, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID контракта")
		return
	}

	if _, err := h.Repository.GetContractByID(tenantID, contractID); err != nil {
		h.errorResponse(c, http.StatusNotFound, "Контракт не найден")
		return
	}

	docs, err := h.Repository.GetDocumentsByContract(tenantID, contractID)
	if err != nil {
		logrus.Error("Error getting documents: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения документов")
		return
	}

	dtoDocs := make([]dto.DocumentResponse, len(docs))
	for i, d := range docs {
		url, err := h.MinIOClient.GetDocumentURL(c.Request.Context(), d.ObjectKey)
		if err != nil {
			logrus.Error("Error generating document URL: ", err)
			url = ""
		}
		dtoDocs[i] = dto.DocumentResponse{
			ID:          d.ID,
			ContractID:  d.ContractID,
			FileName:    d.Filename,
			ContentType: d.ContentType,
			Size:        d.Size,
			URL:         url,
			UploadedAt:  d.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, dto.DocumentListResponse{
		Documents: dtoDocs,
		Total:     len(dtoDocs),
	})
}

// UploadContractDocument загружает документ контракта
// @Summary Загрузка документа
// @Description Загружает файл в MinIO и сохраняет метаданные
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID контракта"
// @Param file formData file true "Файл документа"
// @Success 201 {object} dto.DocumentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/contracts/{id}/documents [post]
func (h *APIHandler) UploadContractDocument(c *gin.Context) {
	userID, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	contractID, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID контракта")
		return
	}

	if _, err := h.Repository.GetContractByID(tenantID, contractID); err != nil {
		h.errorResponse(c, http.StatusNotFound, "Контракт не найден")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Файл не передан")
		return
	}
	if fileHeader.Size > maxDocumentSize {
		h.errorResponse(c, http.StatusBadRequest, "Файл слишком большой, максимум 20 МБ")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Не удалось прочитать файл")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Не удалось прочитать файл")
		return
	}

	objectKey, contentType, err := h.MinIOClient.UploadDocument(c.Request.Context(), contractID, data, fileHeader.Filename)
	if err != nil {
		logrus.Error("Error uploading document: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка загрузки файла")
		return
	}

	doc := &ds.Document{
		TenantID:    tenantID,
		ContractID:  contractID,
		Filename:    fileHeader.Filename,
		ObjectKey:   objectKey,
		ContentType: contentType,
		Size:        int64(len(data)),
		UploadedBy:  userID,
	}
	if err := h.Repository.CreateDocument(doc); err != nil {
		// метаданные не записались, убираем объект чтобы не копить мусор
		if delErr := h.MinIOClient.DeleteDocument(c.Request.Context(), objectKey); delErr != nil {
			logrus.Error("Error cleaning up orphan object: ", delErr)
		}
		logrus.Error("Error saving document metadata: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка сохранения документа")
		return
	}

	c.JSON(http.StatusCreated, dto.DocumentResponse{
		ID:          doc.ID,
		ContractID:  doc.ContractID,
		FileName:    doc.Filename,
		ContentType: doc.ContentType,
		Size:        doc.Size,
		UploadedAt:  doc.CreatedAt,
	})
}

// DownloadContractDocument скачивает документ
// @Summary Скачивание документа
// @Description Отдает содержимое документа из MinIO
// @Tags Documents
// @Produce application/octet-stream
// @Security BearerAuth
// @Param id path int true "ID документа"
// @Success 200 {file} binary
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/documents/{id} [get]
func (h *APIHandler) DownloadContractDocument(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID документа")
		return
	}

	doc, err := h.Repository.GetDocumentByID(tenantID, id)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "Документ не найден")
		return
	}

	data, err := h.MinIOClient.DownloadDocument(c.Request.Context(), doc.ObjectKey)
	if err != nil {
		logrus.Error("Error downloading document: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка скачивания документа")
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+doc.Filename)
	c.Data(http.StatusOK, doc.ContentType, data)
}

// DeleteContractDocument удаляет документ
// @Summary Удаление документа
// @Description Удаляет метаданные и объект из MinIO
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID документа"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/documents/{id} [delete]
func (h *APIHandler) DeleteContractDocument(c *gin.Context) {
	_, tenantID, _, err := h.getUserFromContext(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Пользователь не авторизован")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		h.errorResponse(c, http.StatusBadRequest, "Неверный ID документа")
		return
	}

	doc, err := h.Repository.DeleteDocument(tenantID, id)
	if err != nil {
		h.errorResponse(c, http.StatusNotFound, "Документ не найден")
		return
	}

	if err := h.MinIOClient.DeleteDocument(c.Request.Context(), doc.ObjectKey); err != nil {
		// запись уже удалена, объект доудалим вручную
		logrus.Error("Error deleting object from MinIO: ", err)
	}

	h.successResponse(c, http.StatusOK, "документ удален", nil)
}
