package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/JonMunkholm/IncidentUpload/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleDownloadFailures serves the failure report of the most recent batch.
func (s *Server) handleDownloadFailures(w http.ResponseWriter, r *http.Request) {
	f, err := s.reports.Open()
	if err != nil {
		if errors.Is(err, report.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			s.respondError(w, r, report.ErrNotFound, http.StatusNotFound)
			return
		}
		s.respondError(w, r, fmt.Errorf("open report: %w", err), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.respondError(w, r, fmt.Errorf("stat report: %w", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.reports.FileName()))
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, s.reports.FileName(), info.ModTime(), f)
}
