package rehive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"rehive-autosave/internal/custom_err"
)

// Client операции админского Rehive API, которые использует сервис накоплений
type Client interface {
	ListAccounts(ctx context.Context, name, user string) ([]Account, error)
	CreateAccount(ctx context.Context, name string, primary bool, user string) (*Account, error)
	CreateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error)
}

type restClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	timeout    time.Duration
	log        *slog.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, log *slog.Logger) Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "rehive",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("rehive circuit breaker сменил состояние",
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &restClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		timeout:    timeout,
		log:        log,
	}
}

func (c *restClient) ListAccounts(ctx context.Context, name, user string) ([]Account, error) {
	const op = "rehive.ListAccounts"

	query := url.Values{}
	query.Set("name", name)
	query.Set("user", user)

	var page apiEnvelope[accountListPage]
	if err := c.do(ctx, http.MethodGet, "/admin/accounts/?"+query.Encode(), nil, &page); err != nil {
		c.log.Error("ошибка получения списка счетов",
			slog.String("op", op),
			slog.String("user", user),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page.Data.Results, nil
}

func (c *restClient) CreateAccount(ctx context.Context, name string, primary bool, user string) (*Account, error) {
	const op = "rehive.CreateAccount"

	body := createAccountRequest{
		Name:    name,
		Primary: primary,
		User:    user,
	}

	var resp apiEnvelope[Account]
	if err := c.do(ctx, http.MethodPost, "/admin/accounts/", body, &resp); err != nil {
		c.log.Error("ошибка создания счета",
			slog.String("op", op),
			slog.String("user", user),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.log.Info("создан новый счет",
		slog.String("op", op),
		slog.String("user", user),
		slog.String("reference", resp.Data.Reference))

	return &resp.Data, nil
}

func (c *restClient) CreateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	const op = "rehive.CreateTransfer"

	var resp apiEnvelope[Transfer]
	if err := c.do(ctx, http.MethodPost, "/admin/transactions/transfer/", req, &resp); err != nil {
		c.log.Error("ошибка создания перевода",
			slog.String("op", op),
			slog.String("user", req.User),
			slog.Int64("amount", req.Amount),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.log.Debug("перевод создан",
		slog.String("op", op),
		slog.String("id", resp.Data.ID),
		slog.Int64("amount", req.Amount))

	return &resp.Data, nil
}

// do выполняет запрос к Rehive через circuit breaker и разбирает конверт ответа
func (c *restClient) do(ctx context.Context, method, path string, body, out any) error {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.breaker.Execute(func() (interface{}, error) {
		var reader io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("marshal request: %w", err)
			}
			reader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Token "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			var envelope apiEnvelope[json.RawMessage]
			_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&envelope)
			return nil, &APIError{StatusCode: resp.StatusCode, Message: envelope.Message}
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return nil, fmt.Errorf("decode response: %w", err)
			}
		}
		return nil, nil
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return err
		}
		// транспортная ошибка, таймаут или открытый breaker
		return fmt.Errorf("%w: %v", custom_err.ErrLedgerUnavailable, err)
	}

	duration := time.Since(start)
	if duration > 500*time.Millisecond {
		c.log.Warn("медленный запрос к Rehive",
			slog.String("path", path),
			slog.Duration("duration", duration))
	}

	return nil
}
