package models

import "time"

// событие об успешном отчислении в накопления
type SavingsTransferEvent struct {
	EventID        string    `json:"event_id"`        // Уникальный ID события
	UserIdentifier string    `json:"user_identifier"` // ID пользователя в Rehive
	DebitAccount   string    `json:"debit_account"`   // Счет, с которого списано
	CreditAccount  string    `json:"credit_account"`  // Субсчет-копилка
	Currency       string    `json:"currency"`        // Код валюты
	OriginalAmount int64     `json:"original_amount"` // Сумма исходной транзакции
	SavedAmount    int64     `json:"saved_amount"`    // Отчисленная сумма
	AccountCreated bool      `json:"account_created"` // Копилка создана этим запросом
	Timestamp      time.Time `json:"timestamp"`       // Время операции
}
