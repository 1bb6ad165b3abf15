// Package report stores the failure report: an .xlsx workbook of the rows
// from the last batch that Failed or Errored.
//
// There is one report at a fixed path. Every batch that gets past header
// validation removes it, and writes a new one only if it has failures, so
// the file on disk always belongs to the most recent batch.
package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/IncidentUpload/internal/core"
	"github.com/xuri/excelize/v2"
)

// ErrNotFound is returned by Open when no report exists.
var ErrNotFound = errors.New("report not found")

// sheetName is the single worksheet of the report.
const sheetName = "Sheet1"

// Store manages the report file. It implements core.ReportStore.
type Store struct {
	path string
}

// New creates a Store writing to path.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the report location.
func (s *Store) Path() string { return s.path }

// FileName returns the base name used for downloads.
func (s *Store) FileName() string { return filepath.Base(s.path) }

// Remove deletes the report. A missing report is not an error.
func (s *Store) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove report: %w", err)
	}
	return nil
}

// Write replaces the report with rows under a header of columns, led by a
// _row column holding each row's sheet row number. Null values are written
// as empty cells. The file is written next to its final
// location and renamed into place so readers never see a partial workbook.
func (s *Store) Write(columns []string, rows []core.RowResult) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, 0, len(columns)+1)
	header = append(header, core.FieldRow)
	for _, c := range columns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(sheetName, "A1", last, style)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := append([]any{r.Row}, cellValues(r.Fields())...)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write report row %d: %w", r.Row, err)
		}
	}

	return s.save(f)
}

func (s *Store) save(f *excelize.File) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.xlsx")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}

// Open returns the report for reading, or ErrNotFound.
func (s *Store) Open() (*os.File, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	return f, nil
}

// Exists reports whether a report is on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

func cellValues(fields []core.Field) []any {
	values := make([]any, len(fields))
	for i, f := range fields {
		if f.Value.Valid {
			values[i] = f.Value.String
		}
	}
	return values
}
