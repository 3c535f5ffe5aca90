package history

import (
	"context"
	"time"
)

// Entry is one recorded ask: what was asked, what query came back, and how
// it ended. QueryJSON is nil when generation produced no structured query.
type Entry struct {
	ID          int64
	SessionID   string
	DatasetName string
	Prompt      string
	QueryJSON   []byte
	Outcome     string
	RowCount    int
	Duration    time.Duration
	CreatedAt   time.Time
}

type Recorder interface {
	RecordAsk(ctx context.Context, entry Entry) (Entry, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]Entry, error)
}
