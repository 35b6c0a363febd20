package rehive

import "fmt"

// Account счет пользователя в Rehive
type Account struct {
	Reference string `json:"reference"`
	Name      string `json:"name"`
	Primary   bool   `json:"primary"`
}

// TransferRequest запрос на перевод между счетами одного пользователя
type TransferRequest struct {
	User          string `json:"user"`
	Recipient     string `json:"recipient"`
	DebitAccount  string `json:"debit_account"`
	CreditAccount string `json:"credit_account"`
	Currency      string `json:"currency"`
	Amount        int64  `json:"amount"`
}

// Transfer созданный леджером перевод
type Transfer struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type createAccountRequest struct {
	Name    string `json:"name"`
	Primary bool   `json:"primary"`
	User    string `json:"user"`
}

// конверт ответа Rehive API: {"status": "...", "data": ...}
type apiEnvelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type accountListPage struct {
	Count   int       `json:"count"`
	Results []Account `json:"results"`
}

// APIError ошибка, возвращенная Rehive API с не-2xx статусом
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rehive: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("rehive: status %d: %s", e.StatusCode, e.Message)
}
