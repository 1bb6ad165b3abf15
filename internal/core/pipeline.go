package core

// pipeline.go runs one uploaded workbook end to end:
//
//	parse -> check header -> process rows in order -> rewrite failure report
//
// A header missing required columns stops the batch before any row is
// submitted and before the failure report is touched. Otherwise every row is
// processed (one failing row never stops the others), the previous failure
// report is removed, and a new one is written if any row Failed or Errored.
//
// Rows are processed sequentially; the flow sees submissions in sheet order.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/IncidentUpload/internal/logging"
	"github.com/google/uuid"
)

// Pipeline processes uploaded workbooks.
type Pipeline struct {
	processor *Processor
	report    ReportStore
}

// NewPipeline creates a Pipeline.
func NewPipeline(products ProductResolver, flow Submitter, report ReportStore) *Pipeline {
	return &Pipeline{
		processor: NewProcessor(products, flow),
		report:    report,
	}
}

// Run processes one workbook. It returns an error only when the upload is
// not a readable spreadsheet; rejected headers and per-row failures are
// reported in the BatchResponse.
func (p *Pipeline) Run(ctx context.Context, data []byte) (*BatchResponse, error) {
	batchID := uuid.NewString()
	logger := logging.WithFields(ctx, "batch_id", batchID)
	start := time.Now()

	sheet, err := ParseSpreadsheet(data)
	if err != nil {
		logger.Warn("spreadsheet rejected", "error", err, "bytes", len(data))
		return nil, err
	}

	if missing := MissingColumns(sheet.Columns); len(missing) > 0 {
		logger.Info("batch rejected", "missing_columns", missing)
		return &BatchResponse{
			BatchID: batchID,
			Error:   MissingColumnsMessage(missing),
			Missing: missing,
		}, nil
	}

	logger.Info("batch started", "rows", len(sheet.Rows), "columns", len(sheet.Columns))

	results := p.processRows(ctx, logger, sheet)
	failures := Failures(results)
	p.writeReport(logger, sheet.Columns, failures)

	logger.Info("batch completed",
		"rows", len(results),
		"failed", len(failures),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &BatchResponse{BatchID: batchID, Summary: results}, nil
}

func (p *Pipeline) processRows(ctx context.Context, logger *slog.Logger, sheet *Spreadsheet) []RowResult {
	results := make([]RowResult, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		res := p.processor.Process(ctx, i, row)
		switch res.Status {
		case StatusError:
			logger.Warn("row errored", "row", res.Row, "reason", res.Reason)
		case StatusFailed:
			logger.Debug("row failed", "row", res.Row, "reason", res.Reason)
		default:
			logger.Debug("row submitted", "row", res.Row, "status", res.Status)
		}
		results = append(results, res)
	}
	return results
}

// writeReport replaces the stored failure report. Storage errors are logged;
// they do not fail the batch.
func (p *Pipeline) writeReport(logger *slog.Logger, columns []string, failures []RowResult) {
	if err := p.report.Remove(); err != nil {
		logger.Error("remove failure report", "error", err)
	}
	if len(failures) == 0 {
		return
	}
	if err := p.report.Write(ResultColumns(columns), failures); err != nil {
		logger.Error("write failure report", "error", fmt.Errorf("%d rows: %w", len(failures), err))
		return
	}
	logger.Info("failure report written", "rows", len(failures))
}
