package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/askblob/askblob/internal/dataset"
	"github.com/askblob/askblob/internal/observability"
	"github.com/askblob/askblob/internal/session"
)

type sessionView struct {
	SessionID  string      `json:"session_id"`
	Title      string      `json:"title"`
	Dataset    datasetView `json:"dataset"`
	HasContext bool        `json:"has_context"`
	CreatedAt  time.Time   `json:"created_at"`
}

func viewOfSession(sess *session.Session) sessionView {
	return sessionView{
		SessionID: sess.ID,
		Title:     sess.Title,
		Dataset: datasetView{
			Name:           sess.Dataset.Name,
			Topic:          sess.Dataset.Topic,
			Description:    sess.Dataset.Description,
			ExamplePrompts: sess.Dataset.ExamplePrompts,
		},
		HasContext: sess.Tracker.Current() != nil,
		CreatedAt:  sess.CreatedAt,
	}
}

func handleCreateSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session store is not configured", false, nil)
		return
	}
	if err := requireRole(r, "asker"); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	sess := deps.Sessions.Create()
	writeJSON(w, http.StatusCreated, viewOfSession(sess))
}

func handleGetSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session store is not configured", false, nil)
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
	writeJSON(w, http.StatusOK, viewOfSession(sess))
}

func handleDeleteSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session store is not configured", false, nil)
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
	deps.Sessions.Delete(sess.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":     sess.ID,
		"deleted":        true,
		"sessions_count": deps.Sessions.Count(),
	})
}

func handleSwitchDataset(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil || deps.Registry == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session store is not configured", false, nil)
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

	var request struct {
		Dataset string `json:"dataset"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "request body must be valid JSON", false, map[string]any{"details": err.Error()})
		return
	}
	name := strings.TrimSpace(request.Dataset)
	if name == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "DATASET_REQUIRED", "dataset name is required", false, nil)
		return
	}

	descriptor, err := deps.Registry.Get(name)
	if err != nil {
		if errors.Is(err, dataset.ErrNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "DATASET_NOT_FOUND", "unknown dataset "+strconv.Quote(name), false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "DATASET_LOOKUP_FAILED", "failed to resolve dataset", true, nil)
		return
	}

	if descriptor.Name != sess.Dataset.Name {
		sess.SwitchDataset(descriptor)
		observability.IncrementDatasetSwitch()
		if deps.Logger != nil {
			deps.Logger.InfoContext(r.Context(), "session switched dataset",
				slog.String("session_id", sess.ID),
				slog.String("dataset", descriptor.Name))
		}
	}
	writeJSON(w, http.StatusOK, viewOfSession(sess))
}

func handleLuckyPrompt(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SESSIONS_NOT_CONFIGURED", "session store is not configured", false, nil)
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
	prompt := sess.LuckyPrompt()
	if prompt == "" {
		writeError(r.Context(), w, http.StatusNotFound, "NO_EXAMPLE_PROMPTS", "active dataset has no example prompts", false, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"dataset":    sess.Dataset.Name,
		"prompt":     prompt,
	})
}
