package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"gw-teller-ledger/internal/models"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

// AuditArchive хранилище, в которое архиватор складывает события аудита
type AuditArchive interface {
	SaveAuditRecord(ctx context.Context, record *models.AuditRecord) error
}

type Consumer struct {
	consumerGroup sarama.ConsumerGroup
	archive       AuditArchive
	topic         string
	workers       int
	log           *slog.Logger
	wg            sync.WaitGroup
}

func NewConsumer(brokers []string, groupID, topic string, workers int, archive AuditArchive, log *slog.Logger) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V3_0_0_0
	config.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Return.Errors = true

	consumerGroup, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	log.Info("kafka consumer создан",
		slog.String("group_id", groupID),
		slog.String("topic", topic),
		slog.Int("workers", workers))

	return &Consumer{
		consumerGroup: consumerGroup,
		archive:       archive,
		topic:         topic,
		workers:       workers,
		log:           log,
	}, nil
}

func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info("запуск kafka consumer")

	handler := &auditHandler{
		archive: c.archive,
		log:     c.log,
		now:     time.Now,
	}

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go func(workerID int) {
			defer c.wg.Done()
			c.log.Info("воркер запущен", slog.Int("worker_id", workerID))

			for {
				if err := c.consumerGroup.Consume(ctx, []string{c.topic}, handler); err != nil {
					c.log.Error("ошибка consume",
						slog.Int("worker_id", workerID),
						slog.String("error", err.Error()))
					return
				}

				if ctx.Err() != nil {
					return
				}
			}
		}(i)
	}

	go func() {
		for err := range c.consumerGroup.Errors() {
			c.log.Error("ошибка consumer group", slog.String("error", err.Error()))
		}
	}()

	return nil
}

func (c *Consumer) Close(ctx context.Context) error {
	c.log.Info("закрытие kafka consumer")

	done := make(chan struct{})
	go func() {
		if err := c.consumerGroup.Close(); err != nil {
			c.log.Error("failed to close consumer group", slog.String("error", err.Error()))
		}
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.log.Info("kafka consumer закрыт")
		return nil
	case <-ctx.Done():
		c.log.Warn("kafka consumer close timeout")
		return ctx.Err()
	}
}

type auditHandler struct {
	archive AuditArchive
	log     *slog.Logger
	now     func() time.Time
}

func (h *auditHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *auditHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *auditHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := h.processMessage(session.Context(), message); err != nil {
			h.log.Error("failed to process message",
				slog.Int64("offset", message.Offset),
				slog.String("error", err.Error()))
			// оффсет не коммитим: сообщение будет перечитано после ребаланса
			continue
		}
		session.MarkMessage(message, "")
	}
	return nil
}

func (h *auditHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	h.log.Debug("получено сообщение из kafka",
		slog.String("topic", message.Topic),
		slog.Int("partition", int(message.Partition)),
		slog.Int64("offset", message.Offset))

	var event models.AuditEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		h.log.Error("ошибка десериализации сообщения",
			slog.String("error", err.Error()),
			slog.String("raw_message", string(message.Value)))

		return nil
	}

	record := &models.AuditRecord{
		EventID:     event.EventID.String(),
		Action:      event.Action,
		Module:      event.Module,
		Details:     event.Details,
		Status:      string(event.Status),
		UserID:      event.UserID,
		Metadata:    event.Metadata,
		Timestamp:   event.Timestamp,
		ProcessedAt: h.now(),
	}

	if err := h.archive.SaveAuditRecord(ctx, record); err != nil {
		h.log.Error("ошибка сохранения события аудита",
			slog.String("event_id", record.EventID),
			slog.String("error", err.Error()))
		return err
	}

	h.log.Info("событие аудита сохранено",
		slog.String("event_id", record.EventID),
		slog.String("action", record.Action),
		slog.String("user_id", record.UserID))

	return nil
}
