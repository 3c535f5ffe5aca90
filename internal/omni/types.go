package omni

import (
	"context"
	"encoding/json"
)

// Table is a tabular query result. Cells keep whatever JSON type the
// service produced; nil marks a null cell.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// GenerateRequest is the wire payload for the generate-query endpoint.
// ContextQuery, when set, is a JSON-encoded string of {"query": <prior>}.
type GenerateRequest struct {
	CurrentTopicName string `json:"currentTopicName"`
	ModelID          string `json:"modelId"`
	Prompt           string `json:"prompt"`
	ContextQuery     string `json:"contextQuery,omitempty"`
}

// GenerateResponse carries the raw response document (re-sent verbatim to
// the execution endpoint) and the structured query extracted from it.
// Query is nil when the response has no usable query object.
type GenerateResponse struct {
	Raw   json.RawMessage
	Query json.RawMessage
}

// RunResult is a materialized execution result. A nil *RunResult with a
// nil error is the distinguished no-result outcome.
type RunResult struct {
	Table    Table
	Metadata map[string]any
}

type QueryGenerator interface {
	GenerateQuery(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}

type QueryRunner interface {
	RunQueryBlocking(ctx context.Context, document json.RawMessage) (*RunResult, error)
}
