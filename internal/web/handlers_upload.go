package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/IncidentUpload/internal/core"
	"github.com/JonMunkholm/IncidentUpload/internal/logging"
)

var (
	errNoFile    = errors.New("no file provided")
	errEmptyFile = errors.New("empty file")
)

// handleBulkUpload runs a single uploaded workbook and returns its summary.
// Missing columns are a normal 200 response carrying an "error" field.
func (s *Server) handleBulkUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		if isTooLarge(err) {
			s.respondError(w, r, fmt.Errorf("file too large: limit is %d bytes", maxSize), http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err), http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		s.respondError(w, r, errEmptyFile, http.StatusBadRequest)
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		if errors.Is(err, core.ErrTooManyBatches) {
			w.Header().Set("Retry-After", "30")
			s.respondError(w, r, err, http.StatusServiceUnavailable)
			return
		}
		s.respondError(w, r, err, http.StatusRequestTimeout)
		return
	}
	defer s.limiter.Release()

	logging.FromContext(r.Context()).Info("bulk upload received",
		"filename", header.Filename,
		"bytes", len(data),
	)

	// A client disconnect must not abandon a half-submitted batch.
	resp, err := s.runner.Run(context.WithoutCancel(r.Context()), data)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	w.Header().Set("X-Batch-ID", resp.BatchID)
	writeJSON(w, http.StatusOK, resp)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
