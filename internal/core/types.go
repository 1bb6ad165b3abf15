package core

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
)

// Row statuses. The flow may report other statuses for accepted rows; those
// are passed through unchanged.
const (
	StatusCreated = "Created"
	StatusFailed  = "Failed"
	StatusError   = "Error"
)

// Row reasons set locally.
const (
	ReasonInvalidProduct = "Invalid Product Name"
	ReasonUnknownError   = "Unknown error"
)

// Names appended to every result row. A sheet column with one of these names
// is shadowed by the appended value.
const (
	FieldRow    = "_row"
	FieldStatus = "Status"
	FieldReason = "Reason"
)

// ProductResolver maps a free-text product name to its flow identifier.
// Implementations canonicalize the name themselves.
type ProductResolver interface {
	Resolve(name string) (json.RawMessage, bool)
}

// Submitter sends one incident to the remote flow.
//
// An error means no response was obtained (transport failure, timeout).
// Any HTTP response, whatever its status, is an Outcome.
type Submitter interface {
	Submit(ctx context.Context, p Payload) (Outcome, error)
}

// ReportStore persists the failure report for later download.
type ReportStore interface {
	Remove() error
	Write(columns []string, rows []RowResult) error
}

// Payload is the JSON document posted to the flow for one row. Field order
// is the wire order.
type Payload struct {
	ListName      NormalizedValue `json:"ListName"`
	IncidentID    NormalizedValue `json:"IncidentID"`
	ProductID     json.RawMessage `json:"ProductId"`
	AuditPeriod   NormalizedValue `json:"AuditPeriod"`
	AssigneeName  NormalizedValue `json:"AssigneeName"`
	AuditedByName NormalizedValue `json:"AuditedByName"`
}

// Outcome is the flow's answer to a submission. Body is empty when the
// response was not a JSON object.
type Outcome struct {
	StatusCode int
	Body       map[string]any
}

// RowResult is the processed form of one data row: every original column,
// normalized, plus the appended Status and Reason.
type RowResult struct {
	Row     int               // spreadsheet row number; the header is row 1
	Columns []string          // shared with every result of the batch
	Values  []NormalizedValue // aligned with Columns
	Status  string
	Reason  string
}

// Field is a named value of a result row.
type Field struct {
	Name  string
	Value NormalizedValue
}

// Failed reports whether the row belongs in the failure report.
func (r RowResult) Failed() bool {
	return r.Status == StatusFailed || r.Status == StatusError
}

// Value returns the normalized value under col.
func (r RowResult) Value(col string) (NormalizedValue, bool) {
	for i, c := range r.Columns {
		if c == col {
			return r.valueAt(i), true
		}
	}
	return Null(), false
}

func (r RowResult) valueAt(i int) NormalizedValue {
	if i < len(r.Values) {
		return r.Values[i]
	}
	return Null()
}

// Fields returns the row in output order: original columns, then Status and
// Reason.
func (r RowResult) Fields() []Field {
	fields := make([]Field, 0, len(r.Columns)+2)
	for i, col := range r.Columns {
		if isAppended(col) {
			continue
		}
		fields = append(fields, Field{Name: col, Value: r.valueAt(i)})
	}
	return append(fields,
		Field{Name: FieldStatus, Value: Text(r.Status)},
		Field{Name: FieldReason, Value: Text(r.Reason)},
	)
}

// MarshalJSON writes the row as an object keyed by column name, preceded by
// its row number under "_row".
func (r RowResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"` + FieldRow + `":`)
	buf.WriteString(strconv.Itoa(r.Row))
	for _, f := range r.Fields() {
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ResultColumns returns the header of result rows built from columns.
func ResultColumns(columns []string) []string {
	out := make([]string, 0, len(columns)+2)
	for _, col := range columns {
		if !isAppended(col) {
			out = append(out, col)
		}
	}
	return append(out, FieldStatus, FieldReason)
}

func isAppended(col string) bool {
	return col == FieldRow || col == FieldStatus || col == FieldReason
}

// Failures returns the rows whose status is Failed or Error, in input order.
func Failures(results []RowResult) []RowResult {
	var out []RowResult
	for _, r := range results {
		if r.Failed() {
			out = append(out, r)
		}
	}
	return out
}

// BatchResponse is the outcome of one upload. Exactly one of Summary or
// Error is meaningful: Error is set when the sheet was rejected before any
// row was processed.
type BatchResponse struct {
	BatchID string
	Summary []RowResult
	Error   string
	Missing []string
}

// MarshalJSON writes {"error": ...} for rejected sheets and
// {"summary": [...]} otherwise. An empty sheet yields an empty summary.
func (b *BatchResponse) MarshalJSON() ([]byte, error) {
	if b.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{b.Error})
	}
	summary := b.Summary
	if summary == nil {
		summary = []RowResult{}
	}
	return json.Marshal(struct {
		Summary []RowResult `json:"summary"`
	}{summary})
}
