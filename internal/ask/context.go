package ask

import (
	"encoding/json"

	"github.com/askblob/askblob/internal/omni"
)

// ContextTracker holds the most recently executed structured query for one
// conversation so follow-up prompts ("now filter by state") can be
// disambiguated against the prior query shape. The query is kept as raw
// bytes and round-trips untouched. Last write wins; there is no history.
type ContextTracker struct {
	current json.RawMessage
}

// Attach serializes the tracked query under the request's contextQuery
// field as a stringified {"query": <context>} envelope. Without a tracked
// query the field stays empty and is omitted from the wire payload.
func (t *ContextTracker) Attach(req *omni.GenerateRequest) {
	if t.current == nil {
		return
	}
	envelope, err := json.Marshal(map[string]json.RawMessage{"query": t.current})
	if err != nil {
		return
	}
	req.ContextQuery = string(envelope)
}

// Update replaces the tracked query with the one extracted from a
// generation response. A response without a well-formed query object
// clears the context rather than leaving it stale.
func (t *ContextTracker) Update(resp omni.GenerateResponse) {
	t.current = resp.Query
}

// Reset clears the context. Called when the session switches dataset.
func (t *ContextTracker) Reset() {
	t.current = nil
}

func (t *ContextTracker) Current() json.RawMessage {
	return t.current
}
