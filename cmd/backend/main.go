package main

import (
	"backend/internal/api"
	"log"
)

// @title Contract Ledger API
// @version 1.0
// @description Бэкенд учета вендорских контрактов, подписок и пользовательских лицензий

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	log.Println("App start")
	api.StartServer()
	log.Println("App terminated")
}
