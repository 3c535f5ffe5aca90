package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/askblob/askblob/internal/ask"
	"github.com/askblob/askblob/internal/history"
	"github.com/askblob/askblob/internal/observability"
	"github.com/askblob/askblob/internal/omni"
	"github.com/askblob/askblob/internal/session"
)

type askRequest struct {
	Prompt string `json:"prompt"`
}

type askResponse struct {
	SessionID string            `json:"session_id"`
	Dataset   string            `json:"dataset"`
	Outcome   ask.OutcomeKind   `json:"outcome"`
	Headline  string            `json:"headline,omitempty"`
	Source    string            `json:"source,omitempty"`
	Table     *omni.Table       `json:"table,omitempty"`
	Summary   *ask.QuerySummary `json:"query_summary,omitempty"`
	Warning   string            `json:"warning,omitempty"`
	ElapsedMS int64             `json:"elapsed_ms"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil || deps.Ask == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASK_NOT_CONFIGURED", "ask pipeline is not configured", false, nil)
		return
	}
	if err := requireRole(r, "asker"); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	sess, err := sessionFromRequest(deps, r)
	if err != nil {
		writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", "session does not exist", false, nil)
		return
	}

	var request askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON", false, map[string]any{"details": err.Error()})
		return
	}
	prompt := strings.TrimSpace(request.Prompt)
	if prompt == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "PROMPT_REQUIRED", "prompt must not be empty", false, nil)
		return
	}

	started := time.Now()
	outcome, err := deps.Ask.Execute(r.Context(), prompt, sess.Dataset, &sess.Tracker)
	elapsed := time.Since(started)
	if err != nil {
		handleAskError(deps, w, r, sess, prompt, elapsed, err)
		return
	}

	if outcome.Kind == ask.OutcomeAnswer {
		observability.IncrementEasterEgg()
	} else {
		sess.LastResult = &outcome.Table
	}
	observability.ObserveAsk(string(outcome.Kind), len(outcome.Table.Rows), elapsed)
	recordAsk(deps, r, sess, prompt, string(outcome.Kind), len(outcome.Table.Rows), elapsed)

	response := askResponse{
		SessionID: sess.ID,
		Dataset:   sess.Dataset.Name,
		Outcome:   outcome.Kind,
		Headline:  outcome.Headline,
		Source:    outcome.Source,
		Summary:   outcome.Summary,
		ElapsedMS: elapsed.Milliseconds(),
	}
	if outcome.Kind != ask.OutcomeAnswer {
		table := outcome.Table
		response.Table = &table
	}
	if outcome.Kind == ask.OutcomeEmpty {
		response.Warning = "query ran successfully but returned no data"
	}
	writeJSON(w, http.StatusOK, response)
}

func handleAskError(deps Dependencies, w http.ResponseWriter, r *http.Request, sess *session.Session, prompt string, elapsed time.Duration, err error) {
	var generationErr *ask.GenerationError
	switch {
	case errors.Is(err, ask.ErrEmptyPrompt):
		writeError(r.Context(), w, http.StatusBadRequest, "PROMPT_REQUIRED", "prompt must not be empty", false, nil)
	case errors.As(err, &generationErr):
		observability.IncrementGenerationFailure()
		recordAsk(deps, r, sess, prompt, "generation_failed", 0, elapsed)
		if deps.Logger != nil {
			deps.Logger.ErrorContext(r.Context(), "query generation failed",
				slog.String("session_id", sess.ID),
				slog.String("error", err.Error()))
		}
		writeError(r.Context(), w, http.StatusBadGateway, "GENERATION_FAILED", "failed to generate a query for the prompt", true, map[string]any{"details": generationErr.Err.Error()})
	case errors.Is(err, ask.ErrNoResult):
		recordAsk(deps, r, sess, prompt, "no_result", 0, elapsed)
		writeError(r.Context(), w, http.StatusBadGateway, "NO_RESULT", "query execution returned no result document", true, nil)
	default:
		recordAsk(deps, r, sess, prompt, "error", 0, elapsed)
		if deps.Logger != nil {
			deps.Logger.ErrorContext(r.Context(), "ask failed",
				slog.String("session_id", sess.ID),
				slog.String("error", err.Error()))
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "ASK_FAILED", "failed to execute the query", true, map[string]any{"details": err.Error()})
	}
}

// recordAsk persists one history row when a recorder is configured.
// Persistence failures are logged and never surface to the caller.
func recordAsk(deps Dependencies, r *http.Request, sess *session.Session, prompt, outcome string, rows int, elapsed time.Duration) {
	if deps.History == nil {
		return
	}
	entry := history.Entry{
		SessionID:   sess.ID,
		DatasetName: sess.Dataset.Name,
		Prompt:      prompt,
		QueryJSON:   sess.Tracker.Current(),
		Outcome:     outcome,
		RowCount:    rows,
		Duration:    elapsed,
	}
	if _, err := deps.History.RecordAsk(r.Context(), entry); err != nil && deps.Logger != nil {
		deps.Logger.WarnContext(r.Context(), "failed to record ask history",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()))
	}
}

func handleAskHistory(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session store is not configured", false, nil)
		return
	}
	if deps.History == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "HISTORY_NOT_CONFIGURED", "ask history store is not configured", false, nil)
		return
	}
	if err := requireRole(r, "asker"); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	sess, err := sessionFromRequest(deps, r)
	if err != nil {
		writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", "session does not exist", false, nil)
		return
	}

	entries, err := deps.History.ListBySession(r.Context(), sess.ID, 0)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "HISTORY_QUERY_FAILED", "failed to list ask history", true, map[string]any{"details": err.Error()})
		return
	}

	type historyView struct {
		ID          int64           `json:"id"`
		Prompt      string          `json:"prompt"`
		DatasetName string          `json:"dataset"`
		Query       json.RawMessage `json:"query,omitempty"`
		Outcome     string          `json:"outcome"`
		RowCount    int             `json:"row_count"`
		ElapsedMS   int64           `json:"elapsed_ms"`
		CreatedAt   time.Time       `json:"created_at"`
	}
	views := make([]historyView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, historyView{
			ID:          entry.ID,
			Prompt:      entry.Prompt,
			DatasetName: entry.DatasetName,
			Query:       entry.QueryJSON,
			Outcome:     entry.Outcome,
			RowCount:    entry.RowCount,
			ElapsedMS:   entry.Duration.Milliseconds(),
			CreatedAt:   entry.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"entries":    views,
	})
}
