package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/IncidentUpload/internal/core"
)

// writeJSON encodes v with status. Encoding errors are only logged since
// the header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// handleIndex serves the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "upload page missing", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status          string                  `json:"status"`
	Batches         core.BatchLimiterStatus `json:"batches"`
	ReportAvailable bool                    `json:"report_available"`
}

// handleHealth reports liveness plus batch slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:          "ok",
		Batches:         s.limiter.Status(),
		ReportAvailable: s.reports.Exists(),
	})
}
