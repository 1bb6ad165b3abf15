// Package core turns an uploaded incident workbook into flow submissions.
//
// The package knows nothing about HTTP or storage formats beyond the
// workbook itself: the product map, the remote flow and the failure report
// are reached through the [ProductResolver], [Submitter] and [ReportStore]
// interfaces, so the web server, the bulkctl CLI and the tests all drive the
// same [Pipeline].
//
// # Batch flow
//
//  1. [ParseSpreadsheet] reads the first worksheet into typed cells.
//  2. [MissingColumns] checks the header against [RequiredColumns]. A sheet
//     missing any of them is rejected with no side effects.
//  3. [Processor.Process] handles each row in order: normalize, resolve the
//     product, submit, classify.
//  4. The previous failure report is removed and the rows with status
//     Failed or Error are written as the new one.
//
// # Row statuses
//
//   - Created (or whatever status the flow returns with HTTP 200)
//   - Failed: unknown product, or the flow answered with a non-200 status
//   - Error: anything unexpected while handling the row
//
// # Value normalization
//
// [Normalize] maps blank cells to null, dates to "Mon - YYYY" and every other
// cell to its trimmed text. The same normalized values are sent to the flow,
// returned in the summary and written to the failure report.
//
// # Error Handling
//
// Errors returned to uploaders are mapped to coded messages with [MapError];
// see error_messages.go for the code reference.
package core
