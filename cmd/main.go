package main

import (
	_ "gw-teller-ledger/docs"
	"gw-teller-ledger/internal/app"
	"log"
)

// @title           Teller Ledger API
// @version         1.0
// @description     Кассы операторов, денежные переводы и обмен валют в отделениях

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app, err := app.NewApp()
	if err != nil {
		log.Fatalf("Ошибка создания приложения: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("Ошибка при работе приложения: %v", err)
	}
}
