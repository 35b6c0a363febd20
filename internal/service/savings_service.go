package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"rehive-autosave/internal/kafka"
	"rehive-autosave/internal/locks"
	"rehive-autosave/internal/metrics"
	"rehive-autosave/internal/models"
	"rehive-autosave/internal/rehive"
)

// причины, по которым вебхук принят, но перевод не выполняется
const (
	SkipStatusNotComplete    = "status_not_complete"
	SkipDerivedTransaction   = "derived_transaction"
	SkipAmountBelowThreshold = "amount_below_threshold"
)

// ProcessResult итог обработки одного вебхука
type ProcessResult struct {
	Transferred    bool
	SkipReason     string
	CreditAccount  string
	AccountCreated bool
	TransferAmount int64
	TransferID     string
}

type Savings interface {
	ProcessTransaction(ctx context.Context, event models.TransactionEvent) (*ProcessResult, error)
}

type SavingsService struct {
	ledger        rehive.Client
	locker        locks.UserLocker
	kafkaProducer kafka.Producer
	metrics       *metrics.Metrics
	log           *slog.Logger

	eventQueue chan models.SavingsTransferEvent
	wg         sync.WaitGroup
	stopCh     chan struct{}
}

func NewSavingsService(
	ledger rehive.Client,
	locker locks.UserLocker,
	kafkaProducer kafka.Producer,
	m *metrics.Metrics,
	log *slog.Logger,
) *SavingsService {
	svc := &SavingsService{
		ledger:        ledger,
		locker:        locker,
		kafkaProducer: kafkaProducer,
		metrics:       m,
		log:           log,
		eventQueue:    make(chan models.SavingsTransferEvent, 100),
		stopCh:        make(chan struct{}),
	}

	for i := 0; i < 3; i++ {
		svc.wg.Add(1)
		go svc.kafkaWorker(i)
	}

	return svc
}

func (s *SavingsService) kafkaWorker(id int) {
	defer s.wg.Done()
	s.log.Info("kafka worker started", slog.Int("worker_id", id))

	for {
		select {
		case event := <-s.eventQueue:
			s.publishEvent(id, event)

		case <-s.stopCh:
			// дослать события, оставшиеся в очереди, прежде чем выйти
			for {
				select {
				case event := <-s.eventQueue:
					s.publishEvent(id, event)
				default:
					s.log.Info("kafka worker stopping", slog.Int("worker_id", id))
					return
				}
			}
		}
	}
}

func (s *SavingsService) publishEvent(workerID int, event models.SavingsTransferEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.kafkaProducer.SendSavingsTransferEvent(ctx, event); err != nil {
		s.log.Error("kafka send failed",
			slog.Int("worker_id", workerID),
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()))
		return
	}

	s.log.Info("event sent to kafka",
		slog.Int("worker_id", workerID),
		slog.String("event_id", event.EventID))
}

func (s *SavingsService) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down savings service")

	close(s.stopCh)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("all kafka workers stopped")
		return nil
	case <-ctx.Done():
		s.log.Warn("shutdown timeout exceeded")
		return ctx.Err()
	}
}

// ProcessTransaction применяет бизнес-правило накоплений к событию транзакции.
// Перевод выполняется только для завершенной исходной транзакции с amount > 10;
// остальные события принимаются без действий. Событие должно пройти Validate
// до вызова.
func (s *SavingsService) ProcessTransaction(ctx context.Context, event models.TransactionEvent) (*ProcessResult, error) {
	const op = "service.ProcessTransaction"

	status := *event.Status
	amount := *event.Amount
	accountReference := *event.Account
	currencyCode := *event.Currency.Code
	userIdentifier := *event.User.Identifier

	if status != models.StatusComplete {
		s.metrics.WebhooksSkipped.WithLabelValues(SkipStatusNotComplete).Inc()
		return &ProcessResult{SkipReason: SkipStatusNotComplete}, nil
	}
	if event.HasSourceTransaction() {
		s.metrics.WebhooksSkipped.WithLabelValues(SkipDerivedTransaction).Inc()
		return &ProcessResult{SkipReason: SkipDerivedTransaction}, nil
	}
	if amount <= models.MinTransferAmount {
		s.metrics.WebhooksSkipped.WithLabelValues(SkipAmountBelowThreshold).Inc()
		return &ProcessResult{SkipReason: SkipAmountBelowThreshold}, nil
	}

	// окно find-or-create сериализуется по пользователю; если блокировку
	// получить не удалось, продолжаем — дубликат копилки лучше, чем
	// потерянное отчисление
	release, _ := s.locker.Acquire(ctx, userIdentifier)
	defer release()

	accounts, err := s.ledger.ListAccounts(ctx, models.SavingsAccountName, userIdentifier)
	if err != nil {
		s.metrics.LedgerErrors.Inc()
		s.log.Error("не удалось получить счета пользователя",
			slog.String("op", op),
			slog.String("user", userIdentifier),
			slog.Int64("amount", amount))
		return nil, fmt.Errorf("%s: failed to list savings accounts: %w", op, err)
	}

	var creditAccountReference string
	accountCreated := false

	if len(accounts) > 0 {
		creditAccountReference = accounts[0].Reference
	} else {
		account, err := s.ledger.CreateAccount(ctx, models.SavingsAccountName, false, userIdentifier)
		if err != nil {
			s.metrics.LedgerErrors.Inc()
			s.log.Error("не удалось создать счет-копилку",
				slog.String("op", op),
				slog.String("user", userIdentifier),
				slog.Int64("amount", amount))
			return nil, fmt.Errorf("%s: failed to create savings account: %w", op, err)
		}
		creditAccountReference = account.Reference
		accountCreated = true
		s.metrics.AccountsCreated.Inc()
	}

	transferAmount := models.SavingsTransferAmount(amount)

	transfer, err := s.ledger.CreateTransfer(ctx, rehive.TransferRequest{
		User:          userIdentifier,
		Recipient:     userIdentifier,
		DebitAccount:  accountReference,
		CreditAccount: creditAccountReference,
		Currency:      currencyCode,
		Amount:        transferAmount,
	})
	if err != nil {
		s.metrics.LedgerErrors.Inc()
		s.log.Error("не удалось создать перевод в накопления",
			slog.String("op", op),
			slog.String("user", userIdentifier),
			slog.Int64("amount", amount),
			slog.Int64("transfer_amount", transferAmount))
		return nil, fmt.Errorf("%s: failed to create transfer: %w", op, err)
	}

	s.metrics.TransfersCreated.Inc()

	s.log.Info("отчисление в накопления выполнено",
		slog.String("op", op),
		slog.String("user", userIdentifier),
		slog.String("credit_account", creditAccountReference),
		slog.Int64("amount", amount),
		slog.Int64("transfer_amount", transferAmount),
		slog.Bool("account_created", accountCreated))

	savingsEvent := models.SavingsTransferEvent{
		EventID:        uuid.NewString(),
		UserIdentifier: userIdentifier,
		DebitAccount:   accountReference,
		CreditAccount:  creditAccountReference,
		Currency:       currencyCode,
		OriginalAmount: amount,
		SavedAmount:    transferAmount,
		AccountCreated: accountCreated,
		Timestamp:      time.Now(),
	}

	select {
	case s.eventQueue <- savingsEvent:
		s.log.Debug("событие об отчислении добавлено в очередь", slog.String("event_id", savingsEvent.EventID))
	default:
		s.log.Error("очередь событий переполнена, событие отброшено",
			slog.String("event_id", savingsEvent.EventID),
			slog.String("user", userIdentifier))
	}

	return &ProcessResult{
		Transferred:    true,
		CreditAccount:  creditAccountReference,
		AccountCreated: accountCreated,
		TransferAmount: transferAmount,
		TransferID:     transfer.ID,
	}, nil
}
