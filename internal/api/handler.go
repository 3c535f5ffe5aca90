package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/askblob/askblob/internal/ask"
	"github.com/askblob/askblob/internal/auth"
	"github.com/askblob/askblob/internal/config"
	"github.com/askblob/askblob/internal/dataset"
	"github.com/askblob/askblob/internal/history"
	"github.com/askblob/askblob/internal/observability"
	"github.com/askblob/askblob/internal/session"
)

type ReadinessCheck func(ctx context.Context) error

// AskExecutor runs one submission through the orchestrated two-call flow.
type AskExecutor interface {
	Execute(ctx context.Context, prompt string, ds dataset.Descriptor, tracker *ask.ContextTracker) (ask.Outcome, error)
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	AuthMiddleware    func(http.Handler) http.Handler
	DependencyTimeout time.Duration
	Registry          *dataset.Registry
	Sessions          *session.Store
	Ask               AskExecutor
	History           history.Recorder
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	protected := http.NewServeMux()
	protected.HandleFunc("GET /v1/datasets", func(w http.ResponseWriter, r *http.Request) {
		handleListDatasets(deps, w, r)
	})
	protected.HandleFunc("POST /v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		handleCreateSession(deps, w, r)
	})
	protected.HandleFunc("GET /v1/sessions/{session}", func(w http.ResponseWriter, r *http.Request) {
		handleGetSession(deps, w, r)
	})
	protected.HandleFunc("DELETE /v1/sessions/{session}", func(w http.ResponseWriter, r *http.Request) {
		handleDeleteSession(deps, w, r)
	})
	protected.HandleFunc("POST /v1/sessions/{session}/dataset", func(w http.ResponseWriter, r *http.Request) {
		handleSwitchDataset(deps, w, r)
	})
	protected.HandleFunc("GET /v1/sessions/{session}/lucky", func(w http.ResponseWriter, r *http.Request) {
		handleLuckyPrompt(deps, w, r)
	})
	protected.HandleFunc("POST /v1/sessions/{session}/ask", func(w http.ResponseWriter, r *http.Request) {
		handleAsk(deps, w, r)
	})
	protected.HandleFunc("GET /v1/sessions/{session}/result.csv", func(w http.ResponseWriter, r *http.Request) {
		handleExportCSV(deps, w, r)
	})
	protected.HandleFunc("GET /v1/sessions/{session}/history", func(w http.ResponseWriter, r *http.Request) {
		handleAskHistory(deps, w, r)
	})

	var protectedHandler http.Handler = protected
	if cfg.Auth.Required {
		if deps.AuthMiddleware == nil {
			if deps.Logger != nil {
				deps.Logger.Error("auth required but auth middleware missing")
			}
			protectedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(r.Context(), w, http.StatusInternalServerError, "AUTH_MIDDLEWARE_MISSING", "auth middleware is required by configuration", false, nil)
			})
		} else {
			protectedHandler = deps.AuthMiddleware(protectedHandler)
		}
	}
	mux.Handle("GET /v1/datasets", protectedHandler)
	mux.Handle("POST /v1/sessions", protectedHandler)
	mux.Handle("GET /v1/sessions/{session}", protectedHandler)
	mux.Handle("DELETE /v1/sessions/{session}", protectedHandler)
	mux.Handle("POST /v1/sessions/{session}/dataset", protectedHandler)
	mux.Handle("GET /v1/sessions/{session}/lucky", protectedHandler)
	mux.Handle("POST /v1/sessions/{session}/ask", protectedHandler)
	mux.Handle("GET /v1/sessions/{session}/result.csv", protectedHandler)
	mux.Handle("GET /v1/sessions/{session}/history", protectedHandler)

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

func CheckOmniConfig(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if cfg.Omni.BaseURL == "" {
			return errors.New("omni base url is not configured")
		}
		if cfg.Omni.APIKey == "" {
			return errors.New("omni api key is not configured")
		}
		return nil
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func requireRole(r *http.Request, role string) error {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil
	}
	if identity.HasRole(role) {
		return nil
	}
	return fmt.Errorf("missing required role %q", role)
}

func sessionFromRequest(deps Dependencies, r *http.Request) (*session.Session, error) {
	sessionID := strings.TrimSpace(r.PathValue("session"))
	if sessionID == "" {
		return nil, session.ErrNotFound
	}
	return deps.Sessions.Get(sessionID)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
