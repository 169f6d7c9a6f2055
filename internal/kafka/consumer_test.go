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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArchive struct {
	records []*models.AuditRecord
	err     error
}

func (a *fakeArchive) SaveAuditRecord(_ context.Context, record *models.AuditRecord) error {
	if a.err != nil {
		return a.err
	}
	a.records = append(a.records, record)
	return nil
}

func newTestHandler(archive AuditArchive) *auditHandler {
	processed := time.Date(2026, 3, 1, 9, 0, 5, 0, time.UTC)
	return &auditHandler{
		archive: archive,
		log:     logger.NewDiscard(),
		now:     func() time.Time { return processed },
	}
}

func TestAuditHandler_ProcessMessage(t *testing.T) {
	archive := &fakeArchive{}
	h := newTestHandler(archive)

	event := testEvent()
	event.Metadata = map[string]string{"session_id": "s-1"}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	err = h.processMessage(context.Background(), &sarama.ConsumerMessage{Topic: "teller-audit", Value: payload})

	require.NoError(t, err)
	require.Len(t, archive.records, 1)
	rec := archive.records[0]
	assert.Equal(t, event.EventID.String(), rec.EventID)
	assert.Equal(t, "REGISTER_OPENED", rec.Action)
	assert.Equal(t, "SUCCESS", rec.Status)
	assert.Equal(t, "s-1", rec.Metadata["session_id"])
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 5, 0, time.UTC), rec.ProcessedAt)
}

func TestAuditHandler_ProcessMessage_BadJSONIsSkipped(t *testing.T) {
	archive := &fakeArchive{}
	h := newTestHandler(archive)

	err := h.processMessage(context.Background(), &sarama.ConsumerMessage{Value: []byte("{not json")})

	assert.NoError(t, err)
	assert.Empty(t, archive.records)
}

func TestAuditHandler_ProcessMessage_ArchiveError(t *testing.T) {
	archive := &fakeArchive{err: errors.New("mongo down")}
	h := newTestHandler(archive)

	payload, err := json.Marshal(testEvent())
	require.NoError(t, err)

	err = h.processMessage(context.Background(), &sarama.ConsumerMessage{Value: payload})

	assert.Error(t, err)
}
