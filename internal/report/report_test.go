package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/IncidentUpload/internal/core"
	"github.com/xuri/excelize/v2"
)

func failedRow(row int, incident string, assignee core.NormalizedValue) core.RowResult {
	return core.RowResult{
		Row:     row,
		Columns: []string{"IncidentID", "AssigneeName"},
		Values:  []core.NormalizedValue{core.Text(incident), assignee},
		Status:  core.StatusFailed,
		Reason:  core.ReasonInvalidProduct,
	}
}

func readReport(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	return rows
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "failures.xlsx")
	s := New(path)

	columns := core.ResultColumns([]string{"IncidentID", "AssigneeName"})
	rows := []core.RowResult{
		failedRow(3, "INC-2", core.Text("Ann")),
		failedRow(7, "INC-6", core.Null()),
	}
	if err := s.Write(columns, rows); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got := readReport(t, path)
	want := [][]string{
		{"_row", "IncidentID", "AssigneeName", "Status", "Reason"},
		{"3", "INC-2", "Ann", "Failed", "Invalid Product Name"},
		{"7", "INC-6", "", "Failed", "Invalid Product Name"},
	}
	if len(got) != len(want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
	for i := range want {
		for j := range want[i] {
			cell := ""
			if j < len(got[i]) {
				cell = got[i][j]
			}
			if cell != want[i][j] {
				t.Errorf("cell[%d][%d] = %q, want %q", i, j, cell, want[i][j])
			}
		}
	}
	if !s.Exists() {
		t.Error("Exists() = false after Write")
	}
}

func TestWrite_Overwrites(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "failures.xlsx"))
	columns := core.ResultColumns([]string{"IncidentID", "AssigneeName"})

	if err := s.Write(columns, []core.RowResult{failedRow(2, "A", core.Null()), failedRow(3, "B", core.Null())}); err != nil {
		t.Fatal(err)
	}
	if err := s.Write(columns, []core.RowResult{failedRow(2, "C", core.Null())}); err != nil {
		t.Fatal(err)
	}

	got := readReport(t, s.Path())
	if len(got) != 2 || got[1][1] != "C" {
		t.Errorf("report = %v, want header plus C", got)
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(s.Path()), ".report-*"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestRemove(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "failures.xlsx"))

	if err := s.Remove(); err != nil {
		t.Errorf("Remove() on missing report error = %v", err)
	}

	if err := os.WriteFile(s.Path(), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if s.Exists() {
		t.Error("report still exists after Remove")
	}
}

func TestOpen(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "failures.xlsx"))

	if _, err := s.Open(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open() on missing report error = %v, want ErrNotFound", err)
	}

	if err := s.Write(core.ResultColumns(nil), []core.RowResult{{Row: 2, Status: core.StatusError, Reason: "boom"}}); err != nil {
		t.Fatal(err)
	}
	f, err := s.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	f.Close()

	if s.FileName() != "failures.xlsx" {
		t.Errorf("FileName() = %q", s.FileName())
	}
}
