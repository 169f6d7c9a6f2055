package service

import (
	"context"
	"gw-teller-ledger/internal/kafka"
	"gw-teller-ledger/internal/models"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	auditModuleRegisters    = "registers"
	auditModuleTransactions = "transactions"
	auditModuleRates        = "rates"
)

// AuditSink получает события аудита. Record never fails the calling operation.
type AuditSink interface {
	Record(ctx context.Context, event models.AuditEvent)
}

type NoOpAuditSink struct{}

func (NoOpAuditSink) Record(context.Context, models.AuditEvent) {}

func newAuditEvent(action, module, details string, status models.AuditStatus, userID string, metadata map[string]string) models.AuditEvent {
	return models.AuditEvent{
		EventID:   uuid.New(),
		Action:    action,
		Module:    module,
		Details:   details,
		Status:    status,
		UserID:    userID,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
}

// AuditDispatcher очередь событий и пул воркеров, публикующих их в kafka
type AuditDispatcher struct {
	producer kafka.Producer
	log      *slog.Logger
	timeout  time.Duration

	queue  chan models.AuditEvent
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func NewAuditDispatcher(producer kafka.Producer, workers, queueSize int, log *slog.Logger) *AuditDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}

	d := &AuditDispatcher{
		producer: producer,
		log:      log,
		timeout:  5 * time.Second,
		queue:    make(chan models.AuditEvent, queueSize),
		stopCh:   make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	return d
}

func (d *AuditDispatcher) Record(_ context.Context, event models.AuditEvent) {
	select {
	case <-d.stopCh:
		d.log.Warn("аудит остановлен, событие отброшено",
			slog.String("event_id", event.EventID.String()),
			slog.String("action", event.Action))
		return
	default:
	}

	select {
	case d.queue <- event:
		d.log.Debug("событие аудита добавлено в очередь", slog.String("event_id", event.EventID.String()))
	default:
		d.log.Error("очередь аудита переполнена, событие отброшено",
			slog.String("event_id", event.EventID.String()),
			slog.String("action", event.Action))
	}
}

func (d *AuditDispatcher) worker(id int) {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.queue:
			d.publish(id, event)
		case <-d.stopCh:
			// дочищаем очередь перед остановкой
			for {
				select {
				case event := <-d.queue:
					d.publish(id, event)
				default:
					return
				}
			}
		}
	}
}

func (d *AuditDispatcher) publish(workerID int, event models.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.producer.PublishAuditEvent(ctx, event); err != nil {
		d.log.Error("не удалось отправить событие аудита",
			slog.Int("worker_id", workerID),
			slog.String("event_id", event.EventID.String()),
			slog.String("error", err.Error()))
	}
}

func (d *AuditDispatcher) Shutdown(ctx context.Context) error {
	d.log.Info("остановка аудита")
	d.once.Do(func() { close(d.stopCh) })

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info("воркеры аудита остановлены")
		return nil
	case <-ctx.Done():
		d.log.Warn("shutdown timeout exceeded")
		return ctx.Err()
	}
}
