package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"rehive-autosave/internal/models"
	"time"

	"github.com/IBM/sarama"
)

// заголовки сообщения, по которым консьюмеры фильтруют события без разбора тела
const (
	HeaderEventID        = "event_id"
	HeaderAccountCreated = "account_created"
)

type Producer interface {
	SendSavingsTransferEvent(ctx context.Context, event models.SavingsTransferEvent) error
	Close() error
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	log      *slog.Logger
}

func NewKafkaProducer(brokers []string, topic string, log *slog.Logger) (Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true

	// топик читает сверка отчислений: дубликат события хуже задержки,
	// поэтому включен идемпотентный продюсер
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1

	config.Producer.Retry.Max = 5
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Info("kafka producer создан", slog.String("topic", topic), slog.Any("brokers", brokers))

	return &KafkaProducer{
		producer: producer,
		topic:    topic,
		log:      log,
	}, nil
}

func (p *KafkaProducer) SendSavingsTransferEvent(ctx context.Context, event models.SavingsTransferEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	// ключ — идентификатор пользователя: события одного пользователя
	// попадают в одну партицию и читаются по порядку
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.UserIdentifier),
		Value: sarama.ByteEncoder(eventData),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderEventID), Value: []byte(event.EventID)},
			{Key: []byte(HeaderAccountCreated), Value: []byte(fmt.Sprintf("%t", event.AccountCreated))},
		},
	}

	type result struct {
		partition int32
		offset    int64
		err       error
	}

	resultCh := make(chan result, 1)

	go func() {
		partition, offset, err := p.producer.SendMessage(msg)
		resultCh <- result{partition, offset, err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			p.log.Error("kafka send failed",
				slog.String("event_id", event.EventID),
				slog.String("user", event.UserIdentifier),
				slog.String("error", res.err.Error()))
			return res.err
		}
		p.log.Debug("kafka send success",
			slog.String("event_id", event.EventID),
			slog.Int("partition", int(res.partition)),
			slog.Int64("offset", res.offset))
		return nil

	case <-ctx.Done():
		p.log.Warn("kafka send cancelled",
			slog.String("event_id", event.EventID))
		return ctx.Err()
	}
}

func (p *KafkaProducer) Close() error {
	if p.producer == nil {
		return nil
	}
	p.log.Info("закрытие kafka producer")
	return p.producer.Close()
}

type NoOpProducer struct {
	log *slog.Logger
}

func NewNoOpProducer(log *slog.Logger) Producer {
	return &NoOpProducer{log: log}
}

func (p *NoOpProducer) SendSavingsTransferEvent(ctx context.Context, event models.SavingsTransferEvent) error {
	p.log.Debug("kafka отключен, событие не отправлено",
		slog.String("event_id", event.EventID))
	return nil
}

func (p *NoOpProducer) Close() error {
	return nil
}
