package core

// value.go normalizes spreadsheet cells into the values sent to the flow and
// echoed back in the summary.
//
// A cell read from the workbook is one of a closed set of kinds (blank, text,
// number, boolean, date). Normalization collapses that to null-or-text:
//   - blank cells become null; text such as "N/A" or "NULL" is not blank
//   - dates become a "Mon - YYYY" period string (e.g. "Jan - 2026")
//   - everything else becomes its text form with surrounding whitespace trimmed

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// PeriodLayout renders date cells as an audit period, e.g. "Jan - 2026".
const PeriodLayout = "Jan - 2006"

// NormalizedValue is either null (Valid == false) or text. It marshals to
// JSON null or a JSON string.
type NormalizedValue = pgtype.Text

// CellKind identifies the type of a raw cell.
type CellKind int

const (
	CellBlank CellKind = iota
	CellText
	CellNumber
	CellBool
	CellDate
)

// Cell is a raw spreadsheet cell. Text holds the display form for every
// non-blank kind; Time is set only for CellDate.
type Cell struct {
	Kind CellKind
	Text string
	Time time.Time
}

// BlankCell returns an empty cell.
func BlankCell() Cell { return Cell{Kind: CellBlank} }

// TextCell returns a text cell.
func TextCell(s string) Cell { return Cell{Kind: CellText, Text: s} }

// DateCell returns a date cell.
func DateCell(t time.Time) Cell {
	return Cell{Kind: CellDate, Text: t.Format(time.DateOnly), Time: t}
}

// Null returns the null value.
func Null() NormalizedValue { return NormalizedValue{} }

// Text returns a non-null value.
func Text(s string) NormalizedValue { return NormalizedValue{String: s, Valid: true} }

// Normalize converts a raw cell to its canonical value. It never fails.
func Normalize(c Cell) NormalizedValue {
	switch c.Kind {
	case CellBlank:
		return Null()
	case CellDate:
		return Text(c.Time.Format(PeriodLayout))
	default:
		return Text(strings.TrimSpace(c.Text))
	}
}
