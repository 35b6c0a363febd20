package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"rehive-autosave/internal/locks"
	"rehive-autosave/internal/metrics"
	"rehive-autosave/internal/models"
	"rehive-autosave/internal/rehive"
)

func setupSavingsService() (*SavingsService, *MockRehiveClient, *MockUserLocker) {
	ledger := new(MockRehiveClient)
	locker := new(MockUserLocker)

	service := &SavingsService{
		ledger:     ledger,
		locker:     locker,
		metrics:    metrics.New(prometheus.NewRegistry()),
		log:        slog.New(slog.NewJSONHandler(io.Discard, nil)),
		eventQueue: make(chan models.SavingsTransferEvent, 10),
		stopCh:     make(chan struct{}),
	}

	return service, ledger, locker
}

func makeEvent(status string, amount int64) models.TransactionEvent {
	account := "debit-ref"
	code := "USD"
	identifier := "user-001"

	return models.TransactionEvent{
		Status:   &status,
		Amount:   &amount,
		Account:  &account,
		Currency: &models.CurrencyInfo{Code: &code},
		User:     &models.UserInfo{Identifier: &identifier},
	}
}

func TestSavingsService_ProcessTransaction_StatusNotComplete(t *testing.T) {
	service, ledger, _ := setupSavingsService()
	ctx := context.Background()

	result, err := service.ProcessTransaction(ctx, makeEvent("Pending", 100))

	assert.NoError(t, err)
	assert.False(t, result.Transferred)
	assert.Equal(t, SkipStatusNotComplete, result.SkipReason)
	ledger.AssertNotCalled(t, "ListAccounts")
	ledger.AssertNotCalled(t, "CreateAccount")
	ledger.AssertNotCalled(t, "CreateTransfer")
}

func TestSavingsService_ProcessTransaction_DerivedTransaction(t *testing.T) {
	service, ledger, _ := setupSavingsService()
	ctx := context.Background()

	event := makeEvent(models.StatusComplete, 100)
	event.SourceTransaction = json.RawMessage(`"tx-parent-42"`)

	result, err := service.ProcessTransaction(ctx, event)

	assert.NoError(t, err)
	assert.False(t, result.Transferred)
	assert.Equal(t, SkipDerivedTransaction, result.SkipReason)
	ledger.AssertNotCalled(t, "ListAccounts")
	ledger.AssertNotCalled(t, "CreateTransfer")
}

func TestSavingsService_ProcessTransaction_AmountAtThreshold(t *testing.T) {
	service, ledger, _ := setupSavingsService()
	ctx := context.Background()

	result, err := service.ProcessTransaction(ctx, makeEvent(models.StatusComplete, 10))

	assert.NoError(t, err)
	assert.False(t, result.Transferred)
	assert.Equal(t, SkipAmountBelowThreshold, result.SkipReason)
	ledger.AssertNotCalled(t, "ListAccounts")
	ledger.AssertNotCalled(t, "CreateTransfer")
}

func TestSavingsService_ProcessTransaction_ExistingAccount(t *testing.T) {
	service, ledger, locker := setupSavingsService()
	ctx := context.Background()

	locker.On("Acquire", ctx, "user-001").Return(func() {}, true)
	ledger.On("ListAccounts", ctx, "savings", "user-001").
		Return([]rehive.Account{{Reference: "sav-1", Name: "savings"}}, nil)
	ledger.On("CreateTransfer", ctx, rehive.TransferRequest{
		User:          "user-001",
		Recipient:     "user-001",
		DebitAccount:  "debit-ref",
		CreditAccount: "sav-1",
		Currency:      "USD",
		Amount:        10,
	}).Return(&rehive.Transfer{ID: "tr-1", Amount: 10}, nil)

	result, err := service.ProcessTransaction(ctx, makeEvent(models.StatusComplete, 100))

	assert.NoError(t, err)
	assert.True(t, result.Transferred)
	assert.Equal(t, "sav-1", result.CreditAccount)
	assert.False(t, result.AccountCreated)
	assert.Equal(t, int64(10), result.TransferAmount)
	ledger.AssertNotCalled(t, "CreateAccount")
	ledger.AssertExpectations(t)
	locker.AssertExpectations(t)
}

func TestSavingsService_ProcessTransaction_CreatesAccountWhenMissing(t *testing.T) {
	service, ledger, locker := setupSavingsService()
	ctx := context.Background()

	locker.On("Acquire", ctx, "user-001").Return(func() {}, true)
	ledger.On("ListAccounts", ctx, "savings", "user-001").
		Return([]rehive.Account{}, nil)
	ledger.On("CreateAccount", ctx, "savings", false, "user-001").
		Return(&rehive.Account{Reference: "sav-new", Name: "savings"}, nil)
	ledger.On("CreateTransfer", ctx, rehive.TransferRequest{
		User:          "user-001",
		Recipient:     "user-001",
		DebitAccount:  "debit-ref",
		CreditAccount: "sav-new",
		Currency:      "USD",
		Amount:        1,
	}).Return(&rehive.Transfer{ID: "tr-2", Amount: 1}, nil)

	result, err := service.ProcessTransaction(ctx, makeEvent(models.StatusComplete, 15))

	assert.NoError(t, err)
	assert.True(t, result.Transferred)
	assert.True(t, result.AccountCreated)
	assert.Equal(t, "sav-new", result.CreditAccount)
	assert.Equal(t, int64(1), result.TransferAmount)
	ledger.AssertNumberOfCalls(t, "CreateAccount", 1)
	ledger.AssertExpectations(t)
}

func TestSavingsService_ProcessTransaction_ExplicitNullSource(t *testing.T) {
	service, ledger, locker := setupSavingsService()
	ctx := context.Background()

	event := makeEvent(models.StatusComplete, 11)
	event.SourceTransaction = json.RawMessage(`null`)

	locker.On("Acquire", ctx, "user-001").Return(func() {}, true)
	ledger.On("ListAccounts", ctx, "savings", "user-001").
		Return([]rehive.Account{{Reference: "sav-1"}}, nil)
	ledger.On("CreateTransfer", ctx, rehive.TransferRequest{
		User:          "user-001",
		Recipient:     "user-001",
		DebitAccount:  "debit-ref",
		CreditAccount: "sav-1",
		Currency:      "USD",
		Amount:        1,
	}).Return(&rehive.Transfer{ID: "tr-3", Amount: 1}, nil)

	result, err := service.ProcessTransaction(ctx, event)

	assert.NoError(t, err)
	assert.True(t, result.Transferred)
	ledger.AssertExpectations(t)
}

func TestSavingsService_ProcessTransaction_ListAccountsError(t *testing.T) {
	service, ledger, locker := setupSavingsService()
	ctx := context.Background()

	locker.On("Acquire", ctx, "user-001").Return(func() {}, true)
	ledger.On("ListAccounts", ctx, "savings", "user-001").
		Return(nil, errors.New("connection refused"))

	result, err := service.ProcessTransaction(ctx, makeEvent(models.StatusComplete, 100))

	assert.Error(t, err)
	assert.Nil(t, result)
	ledger.AssertNotCalled(t, "CreateAccount")
	ledger.AssertNotCalled(t, "CreateTransfer")
}

func TestSavingsService_ProcessTransaction_TransferError(t *testing.T) {
	service, ledger, locker := setupSavingsService()
	ctx := context.Background()

	locker.On("Acquire", ctx, "user-001").Return(func() {}, true)
	ledger.On("ListAccounts", ctx, "savings", "user-001").
		Return([]rehive.Account{{Reference: "sav-1"}}, nil)
	ledger.On("CreateTransfer", ctx, mock.AnythingOfType("rehive.TransferRequest")).
		Return(nil, errors.New("internal server error"))

	result, err := service.ProcessTransaction(ctx, makeEvent(models.StatusComplete, 100))

	assert.Error(t, err)
	assert.Nil(t, result)
	ledger.AssertExpectations(t)
}

func TestSavingsService_ProcessTransaction_EventQueueOverflow(t *testing.T) {
	service, ledger, locker := setupSavingsService()
	service.eventQueue = make(chan models.SavingsTransferEvent, 1)
	ctx := context.Background()

	locker.On("Acquire", ctx, "user-001").Return(func() {}, true)
	ledger.On("ListAccounts", ctx, "savings", "user-001").
		Return([]rehive.Account{{Reference: "sav-1"}}, nil)
	ledger.On("CreateTransfer", ctx, mock.AnythingOfType("rehive.TransferRequest")).
		Return(&rehive.Transfer{ID: "tr-1", Amount: 10}, nil)

	first, err := service.ProcessTransaction(ctx, makeEvent(models.StatusComplete, 100))
	assert.NoError(t, err)
	assert.True(t, first.Transferred)

	// очередь заполнена: событие отбрасывается, но перевод выполняется
	second, err := service.ProcessTransaction(ctx, makeEvent(models.StatusComplete, 100))
	assert.NoError(t, err)
	assert.True(t, second.Transferred)

	assert.Equal(t, 1, len(service.eventQueue))
	ledger.AssertNumberOfCalls(t, "CreateTransfer", 2)
}

func TestSavingsService_Shutdown_DrainsQueuedEvents(t *testing.T) {
	producer := new(MockKafkaProducer)
	producer.On("SendSavingsTransferEvent", mock.Anything, mock.AnythingOfType("models.SavingsTransferEvent")).
		Return(nil)

	service := NewSavingsService(
		new(MockRehiveClient),
		locks.NewNoOpLocker(),
		producer,
		metrics.New(prometheus.NewRegistry()),
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
	)

	const queued = 5
	for i := 0; i < queued; i++ {
		service.eventQueue <- models.SavingsTransferEvent{EventID: fmt.Sprintf("ev-%d", i)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.NoError(t, service.Shutdown(ctx))
	producer.AssertNumberOfCalls(t, "SendSavingsTransferEvent", queued)
}

func TestSavingsService_ProcessTransaction_ProceedsWithoutLock(t *testing.T) {
	service, ledger, locker := setupSavingsService()
	ctx := context.Background()

	locker.On("Acquire", ctx, "user-001").Return(func() {}, false)
	ledger.On("ListAccounts", ctx, "savings", "user-001").
		Return([]rehive.Account{{Reference: "sav-1"}}, nil)
	ledger.On("CreateTransfer", ctx, mock.AnythingOfType("rehive.TransferRequest")).
		Return(&rehive.Transfer{ID: "tr-4", Amount: 10}, nil)

	result, err := service.ProcessTransaction(ctx, makeEvent(models.StatusComplete, 100))

	assert.NoError(t, err)
	assert.True(t, result.Transferred)
	ledger.AssertExpectations(t)
}
