package api

import (
	"net/http"

	"github.com/askblob/askblob/internal/normalize"
)

func handleExportCSV(deps Dependencies, w http.ResponseWriter, r *http.Request) {
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
	if sess.LastResult == nil {
		writeError(r.Context(), w, http.StatusNotFound, "NO_RESULT_AVAILABLE", "session has no result to export", false, nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="query_results.csv"`)
	if err := normalize.WriteCSV(w, *sess.LastResult); err != nil && deps.Logger != nil {
		deps.Logger.WarnContext(r.Context(), "csv export aborted mid-write", "error", err.Error())
	}
}
