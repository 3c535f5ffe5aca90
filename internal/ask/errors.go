package ask

import "errors"

// ErrEmptyPrompt marks a submission that was blank after trimming.
var ErrEmptyPrompt = errors.New("prompt is empty")

// ErrNoResult marks an execution call that returned no result document.
// This is an error outcome, distinct from a query that ran and produced
// zero rows.
var ErrNoResult = errors.New("no result returned from the execution service")

// GenerationError wraps a transport failure or non-2xx response from the
// query-generation endpoint. Generation failures are surfaced to the user
// and never retried.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return "generate query: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
