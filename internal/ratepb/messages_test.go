package ratepb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestRateReply_StructRoundTrip(t *testing.T) {
	expires := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	reply := RateReply{
		Base:        "USD",
		Target:      "EUR",
		Rate:        "0.9200000000",
		BuyRate:     "0.91",
		SellRate:    "0.93",
		EffectiveAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		ExpiresAt:   &expires,
	}

	s, err := reply.ToStruct()
	require.NoError(t, err)

	back, err := RateReplyFromStruct(s)
	require.NoError(t, err)
	assert.Equal(t, reply.Rate, back.Rate)
	assert.True(t, back.EffectiveAt.Equal(reply.EffectiveAt))
	require.NotNil(t, back.ExpiresAt)
	assert.True(t, back.ExpiresAt.Equal(expires))
}

func TestRateRequest_FromStruct(t *testing.T) {
	s, err := structpb.NewStruct(map[string]interface{}{"base": "USD", "target": "JPY"})
	require.NoError(t, err)

	req, err := RateRequestFromStruct(s)
	require.NoError(t, err)
	assert.Equal(t, "USD", req.Base)
	assert.True(t, req.At.IsZero())

	bad, err := structpb.NewStruct(map[string]interface{}{"base": "USD", "target": "JPY", "at": "yesterday"})
	require.NoError(t, err)
	_, err = RateRequestFromStruct(bad)
	assert.Error(t, err)
}

func TestRateReplyFromStruct_MissingEffectiveAt(t *testing.T) {
	s, err := structpb.NewStruct(map[string]interface{}{"base": "USD", "target": "EUR", "rate": "0.92"})
	require.NoError(t, err)

	_, err = RateReplyFromStruct(s)
	assert.Error(t, err)
}
