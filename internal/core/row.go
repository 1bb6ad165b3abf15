package core

// row.go turns one data row into a RowResult.
//
// The steps for a row are:
//  1. Normalize every cell (the result always carries the full row).
//  2. Resolve ProductName against the product map. Unknown products are
//     Failed locally and never reach the flow.
//  3. Build the payload and submit it.
//  4. Classify the response: HTTP 200 takes its status from the body
//     (default Created); anything else is Failed with the body's error
//     (default "Unknown error").
//
// Anything that goes wrong along the way, including a panic, ends that row
// only: the row is marked Error with the error text as its reason and the
// batch moves on.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Processor processes rows one at a time. It holds no per-batch state and is
// safe for concurrent use if its resolver and submitter are.
type Processor struct {
	products ProductResolver
	flow     Submitter
}

// NewProcessor creates a Processor.
func NewProcessor(products ProductResolver, flow Submitter) *Processor {
	return &Processor{products: products, flow: flow}
}

// Process handles the data row at zero-based index. The reported row number
// is index+2 so it matches the sheet (header on row 1).
func (p *Processor) Process(ctx context.Context, index int, row Row) (result RowResult) {
	result = RowResult{Row: index + 2, Columns: row.Columns()}

	defer func() {
		if r := recover(); r != nil {
			if result.Values == nil {
				result.Values = displayValues(row)
			}
			result.Status = StatusError
			result.Reason = fmt.Sprint(r)
		}
	}()

	result.Values = normalizeRow(row)

	status, reason, err := p.classify(ctx, row)
	if err != nil {
		result.Status = StatusError
		result.Reason = err.Error()
		return result
	}
	result.Status = status
	result.Reason = reason
	return result
}

func (p *Processor) classify(ctx context.Context, row Row) (status, reason string, err error) {
	product, err := row.Field(ColProductName)
	if err != nil {
		return "", "", err
	}

	productID, ok := p.products.Resolve(product.Text)
	if !ok {
		return StatusFailed, ReasonInvalidProduct, nil
	}

	payload, err := BuildPayload(row, productID)
	if err != nil {
		return "", "", err
	}

	outcome, err := p.flow.Submit(ctx, payload)
	if err != nil {
		return "", "", err
	}

	if outcome.StatusCode == http.StatusOK {
		return bodyString(outcome.Body, "status", StatusCreated), "", nil
	}
	return StatusFailed, bodyString(outcome.Body, "error", ReasonUnknownError), nil
}

// BuildPayload assembles the flow payload for row with an already resolved
// product id.
func BuildPayload(row Row, productID json.RawMessage) (Payload, error) {
	var (
		p    = Payload{ProductID: productID}
		errs []error
	)
	field := func(col string) NormalizedValue {
		c, err := row.Field(col)
		if err != nil {
			errs = append(errs, err)
			return Null()
		}
		return Normalize(c)
	}

	p.ListName = field(ColListName)
	p.IncidentID = field(ColIncidentID)
	p.AuditPeriod = field(ColAuditPeriod)
	p.AssigneeName = field(ColAssigneeName)
	p.AuditedByName = field(ColAuditedByName)

	if len(errs) > 0 {
		return Payload{}, errs[0]
	}
	return p, nil
}

// bodyString reads key from a response body. A missing or null key yields
// def; strings are used as-is; other JSON values are rendered as JSON.
func bodyString(body map[string]any, key, def string) string {
	v, ok := body[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func normalizeRow(row Row) []NormalizedValue {
	cells := row.Cells()
	values := make([]NormalizedValue, len(cells))
	for i, c := range cells {
		values[i] = Normalize(c)
	}
	return values
}

// displayValues keeps the cells' text untouched. Used only when
// normalization itself failed.
func displayValues(row Row) []NormalizedValue {
	cells := row.Cells()
	values := make([]NormalizedValue, len(cells))
	for i, c := range cells {
		if c.Kind != CellBlank {
			values[i] = Text(c.Text)
		}
	}
	return values
}
