package ask

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/askblob/askblob/internal/dataset"
	"github.com/askblob/askblob/internal/omni"
)

var testDataset = dataset.Descriptor{
	Name:    "eCommerce Store Sales",
	Topic:   "orders_ai",
	ModelID: "model-1",
}

func TestExecuteRejectsEmptyPrompt(t *testing.T) {
	o := &Orchestrator{Generator: &fakeGenerator{}, Runner: &fakeRunner{}}
	if _, err := o.Execute(context.Background(), "   ", testDataset, &ContextTracker{}); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("Execute() error = %v, want ErrEmptyPrompt", err)
	}
}

func TestExecuteEasterEggSkipsExternalCalls(t *testing.T) {
	generator := &fakeGenerator{}
	runner := &fakeRunner{}
	o := &Orchestrator{Generator: generator, Runner: runner}

	outcome, err := o.Execute(context.Background(), "What is the meaning of life?", testDataset, &ContextTracker{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if outcome.Kind != OutcomeAnswer || outcome.Headline != "42" {
		t.Fatalf("outcome = %+v", outcome)
	}
	if len(generator.requests) != 0 || runner.calls != 0 {
		t.Fatal("easter egg must not reach any external service")
	}
}

func TestExecuteGenerationFailure(t *testing.T) {
	generator := &fakeGenerator{err: errors.New("status=502")}
	o := &Orchestrator{Generator: generator, Runner: &fakeRunner{}}

	_, err := o.Execute(context.Background(), "top products", testDataset, &ContextTracker{})
	var generationErr *GenerationError
	if !errors.As(err, &generationErr) {
		t.Fatalf("Execute() error = %v, want *GenerationError", err)
	}
}

func TestExecuteNoResultIsDistinctFromEmpty(t *testing.T) {
	generator := &fakeGenerator{response: omni.GenerateResponse{
		Raw:   json.RawMessage(`{"query":{"fields":[]}}`),
		Query: json.RawMessage(`{"fields":[]}`),
	}}

	// Null result from the execution service.
	o := &Orchestrator{Generator: generator, Runner: &fakeRunner{result: nil}}
	if _, err := o.Execute(context.Background(), "top products", testDataset, &ContextTracker{}); !errors.Is(err, ErrNoResult) {
		t.Fatalf("Execute() error = %v, want ErrNoResult", err)
	}

	// Zero-row result is an outcome, not an error.
	runner := &fakeRunner{result: &omni.RunResult{Table: omni.Table{Columns: []string{"orders.state"}}}}
	o = &Orchestrator{Generator: generator, Runner: runner}
	outcome, err := o.Execute(context.Background(), "top products", testDataset, &ContextTracker{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if outcome.Kind != OutcomeEmpty {
		t.Fatalf("Kind = %q, want %q", outcome.Kind, OutcomeEmpty)
	}
}

func TestExecuteReturnsNormalizedTable(t *testing.T) {
	generator := &fakeGenerator{response: omni.GenerateResponse{
		Raw:   json.RawMessage(`{"query":{"fields":["orders.state","order_items.sale_price"],"filters":{"orders.state":{"kind":"EQUALS","values":["Vermont"]}}}}`),
		Query: json.RawMessage(`{"fields":["orders.state","order_items.sale_price"],"filters":{"orders.state":{"kind":"EQUALS","values":["Vermont"]}}}`),
	}}
	runner := &fakeRunner{result: &omni.RunResult{Table: omni.Table{
		Columns: []string{"orders.state", "order_items.sale_price", "sort_order"},
		Rows: [][]any{
			{"Vermont", 1999.5, 1},
			{"Maine", "$3.1", 2},
		},
	}}}
	o := &Orchestrator{Generator: generator, Runner: runner}

	outcome, err := o.Execute(context.Background(), "sales by state", testDataset, &ContextTracker{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if outcome.Kind != OutcomeTable {
		t.Fatalf("Kind = %q", outcome.Kind)
	}
	if len(outcome.Table.Columns) != 2 {
		t.Fatalf("Columns = %v", outcome.Table.Columns)
	}
	if outcome.Table.Rows[0][1] != "$1,999.50" {
		t.Fatalf("sale price = %v", outcome.Table.Rows[0][1])
	}
	if outcome.Summary == nil || len(outcome.Summary.Filters) != 1 {
		t.Fatalf("Summary = %+v", outcome.Summary)
	}
	if outcome.Summary.Filters[0].Description != "orders.state is equals Vermont" {
		t.Fatalf("filter description = %q", outcome.Summary.Filters[0].Description)
	}

	if len(generator.requests) != 1 {
		t.Fatalf("generator requests = %d", len(generator.requests))
	}
	if generator.requests[0].CurrentTopicName != "orders_ai" || generator.requests[0].ModelID != "model-1" {
		t.Fatalf("request = %+v", generator.requests[0])
	}
}

func TestExecuteSingleCellHeadlineUsesColumnRule(t *testing.T) {
	generator := &fakeGenerator{response: omni.GenerateResponse{
		Raw:   json.RawMessage(`{"query":{"fields":["products.margin"]}}`),
		Query: json.RawMessage(`{"fields":["products.margin"]}`),
	}}
	runner := &fakeRunner{result: &omni.RunResult{Table: omni.Table{
		Columns: []string{"products.margin"},
		Rows:    [][]any{{42.5}},
	}}}
	o := &Orchestrator{Generator: generator, Runner: runner}

	outcome, err := o.Execute(context.Background(), "average margin", testDataset, &ContextTracker{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if outcome.Kind != OutcomeHeadline {
		t.Fatalf("Kind = %q", outcome.Kind)
	}
	if outcome.Headline != "$42.50" {
		t.Fatalf("Headline = %q", outcome.Headline)
	}
}

func TestExecuteCarriesContextAcrossSubmissions(t *testing.T) {
	generator := &fakeGenerator{response: omni.GenerateResponse{
		Raw:   json.RawMessage(`{"query":{"fields":["orders.state"]}}`),
		Query: json.RawMessage(`{"fields":["orders.state"]}`),
	}}
	runner := &fakeRunner{result: &omni.RunResult{Table: omni.Table{
		Columns: []string{"orders.state"},
		Rows:    [][]any{{"Vermont"}, {"Maine"}},
	}}}
	o := &Orchestrator{Generator: generator, Runner: runner}
	tracker := &ContextTracker{}

	if _, err := o.Execute(context.Background(), "orders by state", testDataset, tracker); err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if generator.requests[0].ContextQuery != "" {
		t.Fatalf("first request ContextQuery = %q, want empty", generator.requests[0].ContextQuery)
	}

	if _, err := o.Execute(context.Background(), "now only the east coast", testDataset, tracker); err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	want := `{"query":{"fields":["orders.state"]}}`
	if generator.requests[1].ContextQuery != want {
		t.Fatalf("second request ContextQuery = %q, want %q", generator.requests[1].ContextQuery, want)
	}
}

func TestExecuteClearsContextOnMalformedResponse(t *testing.T) {
	generator := &fakeGenerator{response: omni.GenerateResponse{
		Raw:   json.RawMessage(`{"sql":"not a structured query"}`),
		Query: nil,
	}}
	runner := &fakeRunner{result: &omni.RunResult{Table: omni.Table{
		Columns: []string{"c"},
		Rows:    [][]any{{"v"}, {"w"}},
	}}}
	o := &Orchestrator{Generator: generator, Runner: runner}

	tracker := &ContextTracker{}
	tracker.Update(omni.GenerateResponse{Query: json.RawMessage(`{"fields":[]}`)})

	if _, err := o.Execute(context.Background(), "whatever next", testDataset, tracker); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if tracker.Current() != nil {
		t.Fatal("context should be cleared after a response without a query")
	}
}

type fakeGenerator struct {
	requests []omni.GenerateRequest
	response omni.GenerateResponse
	err      error
}

func (f *fakeGenerator) GenerateQuery(_ context.Context, req omni.GenerateRequest) (omni.GenerateResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return omni.GenerateResponse{}, f.err
	}
	return f.response, nil
}

type fakeRunner struct {
	calls  int
	result *omni.RunResult
	err    error
}

func (f *fakeRunner) RunQueryBlocking(_ context.Context, _ json.RawMessage) (*omni.RunResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}
