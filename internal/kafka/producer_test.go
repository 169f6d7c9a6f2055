package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"gw-teller-ledger/internal/models"
	"gw-teller-ledger/pkg/logger"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() models.AuditEvent {
	return models.AuditEvent{
		EventID:   uuid.New(),
		Action:    "REGISTER_OPENED",
		Module:    "registers",
		Status:    models.AuditSuccess,
		UserID:    "op-1",
		Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestKafkaProducer_PublishAuditEvent_Success(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	event := testEvent()

	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got models.AuditEvent
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.EventID != event.EventID {
			return errors.New("unexpected event id")
		}
		return nil
	})

	p := NewProducerFromSync(sp, "teller-audit", logger.NewDiscard())

	err := p.PublishAuditEvent(context.Background(), event)

	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestKafkaProducer_PublishAuditEvent_Failure(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerFromSync(sp, "teller-audit", logger.NewDiscard())

	err := p.PublishAuditEvent(context.Background(), testEvent())

	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	assert.NoError(t, p.Close())
}

func TestNoOpProducer(t *testing.T) {
	p := NewNoOpProducer(logger.NewDiscard())

	assert.NoError(t, p.PublishAuditEvent(context.Background(), testEvent()))
	assert.NoError(t, p.Close())
}
