package core

// spreadsheet.go reads an uploaded .xlsx workbook into a header plus rows of
// typed cells.
//
// Only the first worksheet is read. Row 1 is the header; every following row
// up to the last non-blank one is a data row. Interior blank rows are kept so
// that reported row numbers match what the user sees in Excel.
//
// Cell typing:
//   - empty cells and error values (#N/A, #REF!, ...) are blank
//   - numeric cells whose number format is a date format become dates
//   - booleans render as "True" / "False"
//   - whole numbers render without a fractional part ("12345", not "12345.0")
//   - everything else keeps its displayed text

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrInvalidSpreadsheet is returned when the upload cannot be read as a workbook.
var ErrInvalidSpreadsheet = errors.New("invalid spreadsheet")

// HeaderIndex maps a column name to its position in a row.
type HeaderIndex map[string]int

// Spreadsheet is a parsed worksheet.
type Spreadsheet struct {
	Columns []string
	Rows    []Row
}

// Row is one data row. Cells are aligned with the spreadsheet's Columns.
type Row struct {
	columns []string
	index   HeaderIndex
	cells   []Cell
}

// Columns returns the header shared by every row of the sheet.
func (r Row) Columns() []string { return r.columns }

// Cells returns the row's cells in column order.
func (r Row) Cells() []Cell { return r.cells }

// get returns the cell under col.
func (r Row) get(col string) (Cell, bool) {
	pos, ok := r.index[col]
	if !ok || pos >= len(r.cells) {
		return Cell{}, false
	}
	return r.cells[pos], true
}

// Field returns the cell under col; a missing column is an error.
func (r Row) Field(col string) (Cell, error) {
	c, ok := r.get(col)
	if !ok {
		return Cell{}, fmt.Errorf("column not found: %s", col)
	}
	return c, nil
}

// NewSpreadsheet assembles a Spreadsheet from a header and rows of cells.
// Short rows are padded with blank cells.
func NewSpreadsheet(columns []string, rows [][]Cell) *Spreadsheet {
	idx := make(HeaderIndex, len(columns))
	for i, c := range columns {
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}

	s := &Spreadsheet{Columns: columns, Rows: make([]Row, 0, len(rows))}
	for _, cells := range rows {
		padded := make([]Cell, len(columns))
		copy(padded, cells)
		s.Rows = append(s.Rows, Row{columns: columns, index: idx, cells: padded})
	}
	return s
}

// ParseSpreadsheet reads the first worksheet of an .xlsx workbook.
func ParseSpreadsheet(data []byte) (*Spreadsheet, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidSpreadsheet)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no worksheets", ErrInvalidSpreadsheet)
	}
	sheet := sheets[0]

	formatted, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrInvalidSpreadsheet, sheet, err)
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrInvalidSpreadsheet, sheet, err)
	}

	formatted = trimTrailingBlankRows(formatted)
	if len(formatted) == 0 {
		return NewSpreadsheet(nil, nil), nil
	}

	width := 0
	for _, row := range formatted {
		width = max(width, len(row))
	}

	r := &cellReader{f: f, sheet: sheet}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}

	rows := make([][]Cell, 0, len(formatted)-1)
	for i := 1; i < len(formatted); i++ {
		cells := make([]Cell, width)
		for j := range cells {
			cells[j] = r.read(j+1, i+1, at(formatted[i], j), at(rowAt(raw, i), j))
		}
		rows = append(rows, cells)
	}

	return NewSpreadsheet(headerNames(formatted[0], width), rows), nil
}

// headerNames keeps header text as written, names empty cells "Unnamed: N"
// and suffixes repeats with ".1", ".2", ... so every column name is unique.
// " ListName" is not ListName.
func headerNames(header []string, width int) []string {
	names := make([]string, width)
	seen := make(map[string]bool, width)
	counts := make(map[string]int)
	for i := range names {
		name := at(header, i)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if seen[name] {
			base := name
			for seen[name] {
				counts[base]++
				name = base + "." + strconv.Itoa(counts[base])
			}
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

func trimTrailingBlankRows(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && isBlankRow(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

func at(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func rowAt(rows [][]string, i int) []string {
	if i < len(rows) {
		return rows[i]
	}
	return nil
}

// cellReader types individual cells using the workbook's cell and style
// metadata.
type cellReader struct {
	f        *excelize.File
	sheet    string
	date1904 bool
}

func (r *cellReader) read(col, row int, formatted, raw string) Cell {
	if formatted == "" && raw == "" {
		return BlankCell()
	}

	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return TextCell(formatted)
	}
	typ, err := r.f.GetCellType(r.sheet, name)
	if err != nil {
		return TextCell(formatted)
	}

	switch typ {
	case excelize.CellTypeError:
		return BlankCell()

	case excelize.CellTypeBool:
		if raw == "1" || strings.EqualFold(raw, "true") {
			return Cell{Kind: CellBool, Text: "True"}
		}
		return Cell{Kind: CellBool, Text: "False"}

	case excelize.CellTypeDate:
		if t, ok := parseISODate(raw); ok {
			return DateCell(t)
		}
		return TextCell(formatted)

	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return TextCell(formatted)
		}
		// Serials below 1 are time-of-day only and have no month to report.
		if v >= 1 && r.isDateFormatted(name) {
			if t, err := excelize.ExcelDateToTime(v, r.date1904); err == nil {
				return DateCell(t)
			}
		}
		return Cell{Kind: CellNumber, Text: formatNumber(v)}

	default:
		return TextCell(formatted)
	}
}

func (r *cellReader) isDateFormatted(cell string) bool {
	styleID, err := r.f.GetCellStyle(r.sheet, cell)
	if err != nil || styleID == 0 {
		return false
	}
	style, err := r.f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateLayout(*style.CustomNumFmt)
	}
	return isBuiltinDateFormat(style.NumFmt)
}

// isBuiltinDateFormat reports whether a built-in number format id renders
// dates or times (ECMA-376 18.8.30 plus the CJK locale ids).
func isBuiltinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateLayout reports whether a custom number format contains date or time
// tokens outside quoted literals and bracketed sections.
func isDateLayout(code string) bool {
	var b strings.Builder
	inQuote := false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '\\' || c == '_' || c == '*':
			i++
		case c == '[':
			if j := strings.IndexByte(code[i:], ']'); j >= 0 {
				i += j
			}
		default:
			b.WriteByte(c)
		}
	}
	return strings.ContainsAny(strings.ToLower(b.String()), "ymdhs")
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.DateOnly,
}

func parseISODate(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
