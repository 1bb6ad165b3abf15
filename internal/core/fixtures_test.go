package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ============================================================================
// Workbook Fixtures
// ============================================================================

var requiredHeader = []any{"ListName", "IncidentID", "ProductName", "AuditPeriod", "AssigneeName", "AuditedByName"}

// buildWorkbook writes rows to Sheet1 starting at A1 and returns the .xlsx
// bytes. A nil row leaves that sheet row empty.
func buildWorkbook(t testing.TB, rows ...[]any) []byte {
	t.Helper()
	return buildWorkbookWith(t, nil, rows...)
}

// buildWorkbookWith is buildWorkbook with a hook to style or edit cells
// before the workbook is serialized.
func buildWorkbookWith(t testing.TB, edit func(f *excelize.File), rows ...[]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		if row == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow(%s) error = %v", cell, err)
		}
	}
	if edit != nil {
		edit(f)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}
	return buf.Bytes()
}

// ============================================================================
// Fakes
// ============================================================================

// mapResolver resolves names case-insensitively after trimming.
type mapResolver map[string]string

func (m mapResolver) Resolve(name string) (json.RawMessage, bool) {
	id, ok := m[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return json.RawMessage(id), true
}

var testProducts = mapResolver{
	"AUDIT PRO":    `101`,
	"RISK MONITOR": `"RM-7"`,
}

// fakeFlow records submissions and answers with respond, or HTTP 200 with an
// empty body when respond is nil.
type fakeFlow struct {
	mu       sync.Mutex
	payloads []Payload
	respond  func(p Payload) (Outcome, error)
}

func (f *fakeFlow) Submit(_ context.Context, p Payload) (Outcome, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, p)
	f.mu.Unlock()

	if f.respond == nil {
		return Outcome{StatusCode: 200, Body: map[string]any{}}, nil
	}
	return f.respond(p)
}

func (f *fakeFlow) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

// memReport records what the pipeline did to the failure report.
type memReport struct {
	removed   int
	written   int
	columns   []string
	rows      []RowResult
	removeErr error
	writeErr  error
}

func (r *memReport) Remove() error {
	r.removed++
	r.columns, r.rows = nil, nil
	return r.removeErr
}

func (r *memReport) Write(columns []string, rows []RowResult) error {
	r.written++
	if r.writeErr != nil {
		return r.writeErr
	}
	r.columns, r.rows = columns, rows
	return nil
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:9: connect: connection refused")
