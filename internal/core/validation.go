package core

// validation.go checks an uploaded sheet's header before any row is
// processed. A sheet missing any required column is rejected as a whole:
// no row is submitted and the failure report is left untouched.

import (
	"strings"
)

// Required column names. Matching is exact (case and spelling).
const (
	ColListName      = "ListName"
	ColIncidentID    = "IncidentID"
	ColProductName   = "ProductName"
	ColAuditPeriod   = "AuditPeriod"
	ColAssigneeName  = "AssigneeName"
	ColAuditedByName = "AuditedByName"
)

// RequiredColumns lists the columns every upload must carry, in the order
// they are reported when missing.
var RequiredColumns = []string{
	ColListName,
	ColIncidentID,
	ColProductName,
	ColAuditPeriod,
	ColAssigneeName,
	ColAuditedByName,
}

// MissingColumns returns the required columns absent from header, in
// RequiredColumns order. Extra columns are ignored.
func MissingColumns(header []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// MissingColumnsMessage renders the batch-level error for a rejected header,
// e.g. "Missing columns: ['ListName', 'IncidentID']".
func MissingColumnsMessage(missing []string) string {
	quoted := make([]string, len(missing))
	for i, m := range missing {
		quoted[i] = "'" + m + "'"
	}
	return "Missing columns: [" + strings.Join(quoted, ", ") + "]"
}
