package web

// errors.go renders request errors as JSON. The technical error is logged
// with the request id; the client gets the coded message from core.MapError.

import (
	"net/http"

	"github.com/JonMunkholm/IncidentUpload/internal/core"
	"github.com/JonMunkholm/IncidentUpload/internal/logging"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error and writes its user-facing form
// with statusCode.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	uerr := core.NewUserError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", uerr.Technical.Error(),
		"code", uerr.User.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	writeJSON(w, statusCode, ErrorResponse{
		Error:   uerr.Error(),
		Message: uerr.User.Message,
		Action:  uerr.User.Action,
		Code:    uerr.User.Code,
	})
}
