package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"gw-teller-ledger/internal/models"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

type Producer interface {
	PublishAuditEvent(ctx context.Context, event models.AuditEvent) error
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
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Info("kafka producer создан", slog.String("topic", topic), slog.Any("brokers", brokers))

	return NewProducerFromSync(producer, topic, log), nil
}

// NewProducerFromSync оборачивает готовый sarama.SyncProducer
func NewProducerFromSync(producer sarama.SyncProducer, topic string, log *slog.Logger) *KafkaProducer {
	return &KafkaProducer{
		producer: producer,
		topic:    topic,
		log:      log,
	}
}

// PublishAuditEvent ключ сообщения - оператор, чтобы события одного оператора шли в одну партицию
func (p *KafkaProducer) PublishAuditEvent(ctx context.Context, event models.AuditEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.UserID),
		Value: sarama.ByteEncoder(eventData),
		Headers: []sarama.RecordHeader{
			{Key: []byte("action"), Value: []byte(event.Action)},
			{Key: []byte("event_id"), Value: []byte(event.EventID.String())},
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
				slog.String("event_id", event.EventID.String()),
				slog.String("action", event.Action),
				slog.String("error", res.err.Error()))
			return res.err
		}
		p.log.Debug("kafka send success",
			slog.String("event_id", event.EventID.String()),
			slog.Int("partition", int(res.partition)),
			slog.Int64("offset", res.offset))
		return nil

	case <-ctx.Done():
		p.log.Warn("kafka send cancelled",
			slog.String("event_id", event.EventID.String()))
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

func (p *NoOpProducer) PublishAuditEvent(ctx context.Context, event models.AuditEvent) error {
	p.log.Debug("kafka отключен, событие аудита не отправлено",
		slog.String("action", event.Action),
		slog.String("event_id", event.EventID.String()))
	return nil
}

func (p *NoOpProducer) Close() error {
	return nil
}
