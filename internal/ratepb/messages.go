package ratepb

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// RateRequest запрос курса пары на момент At
type RateRequest struct {
	Base   string
	Target string
	At     time.Time
}

// RateReply курс пары. Decimals travel as strings, times as RFC 3339.
type RateReply struct {
	Base        string
	Target      string
	Rate        string
	BuyRate     string
	SellRate    string
	EffectiveAt time.Time
	ExpiresAt   *time.Time
}

func (r RateRequest) ToStruct() (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"base":   r.Base,
		"target": r.Target,
	}
	if !r.At.IsZero() {
		fields["at"] = r.At.UTC().Format(time.RFC3339Nano)
	}
	return structpb.NewStruct(fields)
}

func RateRequestFromStruct(s *structpb.Struct) (RateRequest, error) {
	req := RateRequest{
		Base:   stringField(s, "base"),
		Target: stringField(s, "target"),
	}
	if raw := stringField(s, "at"); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return RateRequest{}, fmt.Errorf("invalid at: %w", err)
		}
		req.At = at
	}
	return req, nil
}

func (r RateReply) ToStruct() (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"base":         r.Base,
		"target":       r.Target,
		"rate":         r.Rate,
		"buy_rate":     r.BuyRate,
		"sell_rate":    r.SellRate,
		"effective_at": r.EffectiveAt.UTC().Format(time.RFC3339Nano),
	}
	if r.ExpiresAt != nil {
		fields["expires_at"] = r.ExpiresAt.UTC().Format(time.RFC3339Nano)
	}
	return structpb.NewStruct(fields)
}

func RateReplyFromStruct(s *structpb.Struct) (RateReply, error) {
	reply := RateReply{
		Base:     stringField(s, "base"),
		Target:   stringField(s, "target"),
		Rate:     stringField(s, "rate"),
		BuyRate:  stringField(s, "buy_rate"),
		SellRate: stringField(s, "sell_rate"),
	}

	effective, err := time.Parse(time.RFC3339Nano, stringField(s, "effective_at"))
	if err != nil {
		return RateReply{}, fmt.Errorf("invalid effective_at: %w", err)
	}
	reply.EffectiveAt = effective

	if raw := stringField(s, "expires_at"); raw != "" {
		expires, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return RateReply{}, fmt.Errorf("invalid expires_at: %w", err)
		}
		reply.ExpiresAt = &expires
	}
	return reply, nil
}

func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[key].GetStringValue()
}
