package ask

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/askblob/askblob/internal/dataset"
	"github.com/askblob/askblob/internal/normalize"
	"github.com/askblob/askblob/internal/omni"
)

type OutcomeKind string

const (
	// OutcomeAnswer is a fixed literal answer produced without touching
	// any external service.
	OutcomeAnswer OutcomeKind = "answer"
	// OutcomeTable is a normalized multi-cell result table.
	OutcomeTable OutcomeKind = "table"
	// OutcomeHeadline is a single-cell result rendered as one large value.
	OutcomeHeadline OutcomeKind = "headline"
	// OutcomeEmpty is a query that ran successfully but returned no rows.
	OutcomeEmpty OutcomeKind = "empty"
)

type Outcome struct {
	Kind     OutcomeKind
	Headline string
	Source   string
	Table    omni.Table
	Summary  *QuerySummary
}

// Orchestrator sequences one submission: easter egg check, query
// generation with conversational context, blocking execution, and result
// normalization. The two external calls are strictly sequential and are
// never retried.
type Orchestrator struct {
	Generator omni.QueryGenerator
	Runner    omni.QueryRunner
	Logger    *slog.Logger
}

func (o *Orchestrator) Execute(ctx context.Context, prompt string, ds dataset.Descriptor, tracker *ContextTracker) (Outcome, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Outcome{}, ErrEmptyPrompt
	}

	// Checked before any network call.
	if isEasterEgg(prompt) {
		return Outcome{Kind: OutcomeAnswer, Headline: easterEggAnswer, Source: easterEggSource}, nil
	}

	request := omni.GenerateRequest{
		CurrentTopicName: ds.Topic,
		ModelID:          ds.ModelID,
		Prompt:           prompt,
	}
	tracker.Attach(&request)

	response, err := o.Generator.GenerateQuery(ctx, request)
	if err != nil {
		return Outcome{}, &GenerationError{Err: err}
	}

	// A response without a usable query silently clears the context; the
	// run below still gets the full response document.
	tracker.Update(response)
	if response.Query == nil && o.Logger != nil {
		o.Logger.DebugContext(ctx, "generation response had no query object, context cleared")
	}

	result, err := o.Runner.RunQueryBlocking(ctx, response.Raw)
	if err != nil {
		return Outcome{}, fmt.Errorf("run query: %w", err)
	}
	if result == nil {
		return Outcome{}, ErrNoResult
	}

	table := normalize.Normalize(result.Table)
	outcome := Outcome{
		Table:   table,
		Summary: SummarizeQuery(response.Query),
	}
	switch {
	case len(table.Rows) == 0:
		outcome.Kind = OutcomeEmpty
	case len(table.Rows) == 1 && len(table.Columns) == 1:
		outcome.Kind = OutcomeHeadline
		outcome.Headline = headline(table.Columns[0], table.Rows[0][0])
	default:
		outcome.Kind = OutcomeTable
	}
	return outcome, nil
}

// headline re-applies the per-column formatting rule before display. The
// cell is already normalized so this is a no-op for formatted values, but
// the check keeps the single-cell path on the same rule as tables.
func headline(column string, value any) string {
	formatted := normalize.FormatValue(column, value)
	if formatted == nil {
		return ""
	}
	return normalize.CellString(formatted)
}
