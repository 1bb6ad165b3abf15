package core

// error_messages.go maps technical errors surfaced to uploaders onto short
// messages with a code support staff can look up.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: upload exceeds UPLOAD_MAX_FILE_SIZE
//	          Patterns: "file too large", "request body too large"
//	FILE002 - Invalid spreadsheet: upload is not a readable .xlsx workbook
//	          Patterns: "invalid spreadsheet"
//	FILE004 - No file: the form had no "file" part
//	          Patterns: "no file provided"
//	FILE005 - Empty file
//	          Patterns: "empty file"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL004 - Missing columns: one or more required columns absent
//	         Patterns: "missing columns"
//
// # Batch Errors (UPL001-UPL099)
//
//	UPL002 - System busy: another batch is running
//	         Patterns: "too many batches"
//	UPL004 - Request cancelled
//	         Patterns: "context canceled"
//	UPL005 - Request timed out
//	         Patterns: "context deadline exceeded"
//
// # Report Errors (RPT001-RPT099)
//
//	RPT001 - No failure report: the last batch had no failures
//	         Patterns: "report not found"
//
// # Default (ERR000)
//
// Anything else. Check the server log for the original error.
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins.

import (
	"fmt"
	"strings"
)

// UserMessage is an error as shown to an uploader.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// File
	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the sheet into smaller files", "FILE001"}},
	{"request body too large", UserMessage{"File exceeds the maximum upload size", "Split the sheet into smaller files", "FILE001"}},
	{"invalid spreadsheet", UserMessage{"File is not a valid Excel workbook", "Save the file as .xlsx and upload it again", "FILE002"}},
	{"no file provided", UserMessage{"No file was selected", "Please select an .xlsx file to upload", "FILE004"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Please upload a sheet with a header row and data rows", "FILE005"}},

	// Validation
	{"missing columns", UserMessage{"Required columns are missing", "Check the header row against the upload template", "VAL004"}},

	// Batch
	{"too many batches", UserMessage{"Another upload is being processed", "Please wait a moment and try again", "UPL002"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or try again later", "UPL005"}},

	// Report
	{"report not found", UserMessage{"There is no failure report to download", "The last upload had no failed rows", "RPT001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError returns the message for the first pattern err matches, or the
// ERR000 fallback. A nil error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	text := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(text, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the fallback.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (for logs) with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string { return e.User.Message }

func (e *UserError) Unwrap() error { return e.Technical }

// NewUserError wraps err with its mapped message. Returns nil for nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
