package handler

import (
	"backend/internal/app/middleware"
	"backend/internal/app/role"

	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes регистрирует все REST API маршруты с авторизацией
func (h *APIHandler) RegisterAPIRoutes(router *gin.Engine, authMiddleware *middleware.AuthMiddleware) {
	// REST API маршруты
	api := router.Group("/api")

	anyRole := authMiddleware.WithAuthCheck(role.Viewer, role.Manager, role.Admin)
	editors := authMiddleware.WithAuthCheck(role.Manager, role.Admin)

	// ============ Контракты (Contracts) ============
	contracts := api.Group("/contracts")
	{
		contracts.GET("", anyRole, h.GetContracts)
		contracts.GET("/export", anyRole, h.ExportContracts)
		contracts.GET("/:id", anyRole, h.GetContract)

		contracts.POST("", editors, h.CreateContract)
		contracts.PUT("/:id", editors, h.UpdateContract)
		contracts.DELETE("/:id", authMiddleware.WithAuthCheck(role.Admin), h.DeleteContract)

		// Вложенное редактирование периодов по нескольким подпискам сразу
		contracts.POST("/:id/edit", editors, h.EditContract)

		// Документы контракта
		contracts.GET("/:id/documents", anyRole, h.GetContractDocuments)
		contracts.POST("/:id/documents", editors, h.UploadContractDocument)
	}

	documents := api.Group("/documents")
	{
		documents.GET("/:id", anyRole, h.DownloadContractDocument)
		documents.DELETE("/:id", editors, h.DeleteContractDocument)
	}

	// ============ Подписки (Subscriptions) ============
	subscriptions := api.Group("/subscriptions")
	{
		subscriptions.GET("", anyRole, h.GetSubscriptions)
		subscriptions.GET("/:id", anyRole, h.GetSubscription)

		subscriptions.POST("", editors, h.CreateSubscription)
		subscriptions.PUT("/:id", editors, h.UpdateSubscription)
		subscriptions.DELETE("/:id", authMiddleware.WithAuthCheck(role.Admin), h.DeleteSubscription)

		// Лицензионные периоды: просмотр, батч-редактирование, проверка без записи
		subscriptions.GET("/:id/periods", anyRole, h.GetSubscriptionPeriods)
		subscriptions.PUT("/:id/periods", editors, h.UpdateSubscriptionPeriods)
		subscriptions.POST("/:id/periods/validate", editors, h.ValidateSubscriptionPeriods)

		// Лицензии сотрудников
		subscriptions.GET("/:id/licenses", anyRole, h.GetEmployeeLicenses)
		subscriptions.POST("/:id/licenses", editors, h.CreateEmployeeLicense)
		subscriptions.POST("/:id/licenses/import", editors, h.ImportEmployeeLicenses)
	}

	licenses := api.Group("/licenses")
	{
		licenses.PUT("/:id", editors, h.UpdateEmployeeLicense)
		licenses.DELETE("/:id", editors, h.DeleteEmployeeLicense)
	}

	// ============ Аутентификация ============
	auth := api.Group("/auth")
	{
		// Публичные эндпоинты
		auth.POST("/register", h.AuthHandler.RegisterUser)
		auth.POST("/login", h.AuthHandler.LoginUser)

		// Защищенные эндпоинты
		auth.GET("/profile", anyRole, h.AuthHandler.GetUserProfile)
		auth.PUT("/profile", anyRole, h.AuthHandler.UpdateProfile)
		auth.POST("/logout", anyRole, h.AuthHandler.LogoutUser)
	}

	// Ping эндпоинт для проверки
	router.GET("/ping", h.Ping)
}

// Ping проверяет работоспособность API
// @Summary Проверка работоспособности
// @Description Возвращает простой ответ для проверки работы сервера
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /ping [get]
func (h *APIHandler) Ping(ctx *gin.Context) {
	ctx.JSON(200, gin.H{"message": "pong"})
}
