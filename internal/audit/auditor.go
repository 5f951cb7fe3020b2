package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"campuschat/pkg/logger"
)

// Entry is one append-only audit record.
type Entry struct {
	Action   string         `json:"action"`
	UserID   uuid.UUID      `json:"user_id"`
	SchoolID uuid.UUID      `json:"school_id"`
	Metadata map[string]any `json:"metadata,omitempty"`
	At       time.Time      `json:"at"`
}

// Auditor records command outcomes. Failures are the caller's to log and
// swallow; auditing never fails a command.
type Auditor interface {
	Record(ctx context.Context, e Entry)
}

// StreamAuditor appends entries to a Redis stream consumed out-of-band, so
// audit persistence is structurally decoupled from command transactions.
type StreamAuditor struct {
	client *goredis.Client
	stream string
	log    *logger.Logger
}

func NewStreamAuditor(client *goredis.Client, log *logger.Logger) *StreamAuditor {
	return &StreamAuditor{client: client, stream: "audit:events", log: log}
}

func (a *StreamAuditor) Record(ctx context.Context, e Entry) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		metadata = []byte("{}")
	}
	err = a.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: a.stream,
		Values: map[string]any{
			"action":    e.Action,
			"user_id":   e.UserID.String(),
			"school_id": e.SchoolID.String(),
			"metadata":  string(metadata),
			"at":        e.At.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil && a.log != nil {
		a.log.Warnf("audit append failed for %s: %v", e.Action, err)
	}
}

// NopAuditor is used in tests.
type NopAuditor struct{}

func (NopAuditor) Record(context.Context, Entry) {}
