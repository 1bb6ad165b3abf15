package report

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/IncidentUpload/internal/core"
	"github.com/xuri/excelize/v2"
)

type products map[string]json.RawMessage

func (p products) Resolve(name string) (json.RawMessage, bool) {
	id, ok := p[strings.ToUpper(strings.TrimSpace(name))]
	return id, ok
}

// rejectingFlow answers 200 except for incident ids listed in reject.
type rejectingFlow struct {
	reject map[string]string
}

func (f rejectingFlow) Submit(_ context.Context, p core.Payload) (core.Outcome, error) {
	if reason, ok := f.reject[p.IncidentID.String]; ok {
		return core.Outcome{StatusCode: 409, Body: map[string]any{"error": reason}}, nil
	}
	return core.Outcome{StatusCode: 200, Body: map[string]any{}}, nil
}

func workbook(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

var requiredHeader = []any{"ListName", "IncidentID", "ProductName", "AuditPeriod", "AssigneeName", "AuditedByName"}

// ============================================================================
// Pipeline + Store Tests
// ============================================================================

func TestPipeline_ReportFollowsLatestBatch(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "failures.xlsx"))
	flow := rejectingFlow{reject: map[string]string{"INC-3": "Duplicate"}}
	p := core.NewPipeline(products{"AUDIT PRO": json.RawMessage(`101`)}, flow, store)

	failing := workbook(t,
		requiredHeader,
		[]any{"Q1", "INC-1", "Audit Pro", "Jan - 2026", "Ann", "Bob"},
		[]any{"Q1", "INC-2", "Unknown", "Jan - 2026", "Ann", "Bob"},
		[]any{"Q1", "INC-3", "Audit Pro", "Jan - 2026", nil, "Bob"},
	)
	if _, err := p.Run(context.Background(), failing); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := readReport(t, store.Path())
	want := [][]string{
		{"_row", "ListName", "IncidentID", "ProductName", "AuditPeriod", "AssigneeName", "AuditedByName", "Status", "Reason"},
		{"3", "Q1", "INC-2", "Unknown", "Jan - 2026", "Ann", "Bob", "Failed", "Invalid Product Name"},
		{"4", "Q1", "INC-3", "Audit Pro", "Jan - 2026", "", "Bob", "Failed", "Duplicate"},
	}
	if len(got) != len(want) {
		t.Fatalf("report = %v, want %v", got, want)
	}
	for i := range want {
		if strings.Join(pad(got[i], len(want[i])), "|") != strings.Join(want[i], "|") {
			t.Errorf("report row %d = %v, want %v", i, got[i], want[i])
		}
	}

	passing := workbook(t,
		requiredHeader,
		[]any{"Q1", "INC-9", "Audit Pro", "Jan - 2026", "Ann", "Bob"},
	)
	if _, err := p.Run(context.Background(), passing); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if store.Exists() {
		t.Error("report from the failing batch survived a batch with no failures")
	}
}

func TestPipeline_MissingColumnsKeepsReport(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "failures.xlsx"))
	p := core.NewPipeline(products{}, rejectingFlow{}, store)

	if _, err := p.Run(context.Background(), workbook(t, requiredHeader, []any{"Q1", "INC-1", "Nope", "", "", ""})); err != nil {
		t.Fatal(err)
	}
	if !store.Exists() {
		t.Fatal("failing batch should write a report")
	}

	resp, err := p.Run(context.Background(), workbook(t, []any{"IncidentID"}))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Error == "" {
		t.Fatal("expected missing-columns response")
	}
	if !store.Exists() {
		t.Error("rejected batch must not touch the report")
	}
}

// pad extends a GetRows row, which drops trailing empty cells.
func pad(row []string, n int) []string {
	for len(row) < n {
		row = append(row, "")
	}
	return row
}
