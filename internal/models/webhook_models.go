package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"rehive-autosave/internal/custom_err"
)

// Статус транзакции в Rehive. Перевод в накопления запускается
// только для завершенных транзакций.
const StatusComplete = "Complete"

// SavingsAccountName имя субсчета-копилки, создаваемого для пользователя
const SavingsAccountName = "savings"

// SavingsRatePercent — процент от суммы транзакции, отчисляемый в накопления
const SavingsRatePercent = 10

// MinTransferAmount — транзакции с amount <= 10 не обрабатываются
const MinTransferAmount = 10

// TransactionWebhook внешний конверт вебхука Rehive о транзакции
type TransactionWebhook struct {
	Event string           `json:"event,omitempty"`
	Data  TransactionEvent `json:"data"`
}

// TransactionEvent данные транзакции из вебхука.
// Обязательные поля объявлены указателями: их отсутствие в JSON
// отличимо от нулевого значения и приводит к ошибке 400.
type TransactionEvent struct {
	TxType            string          `json:"tx_type,omitempty"`
	SourceTransaction json.RawMessage `json:"source_transaction"`
	Status            *string         `json:"status"`
	Amount            *int64          `json:"amount"`
	Account           *string         `json:"account"`
	Currency          *CurrencyInfo   `json:"currency"`
	User              *UserInfo       `json:"user"`
}

type CurrencyInfo struct {
	Code *string `json:"code"`
}

type UserInfo struct {
	Identifier *string `json:"identifier"`
}

var jsonNull = []byte("null")

// HasSourceTransaction сообщает, является ли транзакция производной.
// Отсутствующее поле и явный null означают исходную транзакцию.
func (e *TransactionEvent) HasSourceTransaction() bool {
	return len(e.SourceTransaction) > 0 && !bytes.Equal(bytes.TrimSpace(e.SourceTransaction), jsonNull)
}

// Validate проверяет наличие обязательных полей вебхука
func (e *TransactionEvent) Validate() error {
	switch {
	case e.Status == nil:
		return fmt.Errorf("%w: data.status", custom_err.ErrMissingField)
	case e.Amount == nil:
		return fmt.Errorf("%w: data.amount", custom_err.ErrMissingField)
	case e.Account == nil || *e.Account == "":
		return fmt.Errorf("%w: data.account", custom_err.ErrMissingField)
	case e.Currency == nil || e.Currency.Code == nil || *e.Currency.Code == "":
		return fmt.Errorf("%w: data.currency.code", custom_err.ErrMissingField)
	case e.User == nil || e.User.Identifier == nil || *e.User.Identifier == "":
		return fmt.Errorf("%w: data.user.identifier", custom_err.ErrMissingField)
	}
	return nil
}

// SavingsTransferAmount вычисляет сумму отчисления: целые 10% от суммы,
// остаток отбрасывается (целочисленное деление)
func SavingsTransferAmount(amount int64) int64 {
	return amount * SavingsRatePercent / 100
}
