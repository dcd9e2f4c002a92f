package ports

import (
	"context"

	"techdebt_export/internal/models"
)

// Journal keeps an audit trail of export runs outside the source database.
type Journal interface {
	StartRun(ctx context.Context, run models.RunSummary) error
	RecordItem(ctx context.Context, runID string, res models.PublishResult) error
	FinishRun(ctx context.Context, run models.RunSummary) error
}

type ReportSink interface {
	// Store persists the run report and returns the object key.
	Store(ctx context.Context, run models.RunSummary) (string, error)
}
