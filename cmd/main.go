package main

import (
	"log"
	_ "rehive-autosave/docs"
	"rehive-autosave/internal/app"
)

// @title           Rehive Auto-Savings Webhook
// @version         1.0
// @description     Вебхук-приемник Rehive: отчисляет 10% завершенной транзакции на счет-копилку пользователя

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey WebhookSecret
// @in header
// @name Authorization
func main() {
	app, err := app.NewApp()
	if err != nil {
		log.Fatalf("Ошибка создания приложения: %v", err)
	}

	app.BuildWebhookLayer()

	if err := app.Run(); err != nil {
		log.Fatalf("Ошибка при работе приложения: %v", err)
	}
}
