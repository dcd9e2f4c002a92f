package ports

import (
	"context"

	"techdebt_export/internal/models"
)

// RecordStore is the log-applet comments table.
type RecordStore interface {
	FetchEligible(ctx context.Context) ([]models.DebtRecord, error)
	// MarkExported flips the export flag of the given ids only and reports rows affected.
	MarkExported(ctx context.Context, ids []int64) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
