package runs

import (
	"context"
	"log"

	mg "techdebt_export/internal/config/connections/mongo"
	"techdebt_export/internal/models"
)

// Journal writes export runs and their per-record outcomes to Mongo.
type Journal struct {
	MG *mg.Mongo
}

func NewJournal(m *mg.Mongo) *Journal { return &Journal{MG: m} }

func (j *Journal) StartRun(ctx context.Context, run models.RunSummary) error {
	return InsertRun(ctx, j.MG, ToRecord(run))
}

func (j *Journal) RecordItem(ctx context.Context, runID string, res models.PublishResult) error {
	_, err := InsertItem(ctx, j.MG, ToItem(runID, res))
	if err != nil {
		log.Printf("[JOURNAL][MONGO][ERR] run=%s record=%d status=%s err=%v", runID, res.Record.ID, res.Status, err)
	}
	return err
}

func (j *Journal) FinishRun(ctx context.Context, run models.RunSummary) error {
	return FinishRun(ctx, j.MG, ToRecord(run))
}

func ToRecord(run models.RunSummary) Record {
	rec := Record{
		ID:        run.RunID,
		Table:     run.Table,
		Status:    string(run.Status),
		DryRun:    run.DryRun,
		Fetched:   run.Fetched,
		Published: run.Published,
		Failed:    run.Failed,
		Marked:    run.Marked,
		StartedAt: run.StartedAt.UTC(),
	}
	if run.Error != "" {
		e := run.Error
		rec.Errors = &e
	}
	if run.ReportKey != "" {
		k := run.ReportKey
		rec.ReportKey = &k
	}
	if !run.FinishedAt.IsZero() {
		f := run.FinishedAt.UTC()
		rec.FinishedAt = &f
	}
	return rec
}

func ToItem(runID string, res models.PublishResult) Item {
	item := Item{
		RunID:      runID,
		RecordID:   res.Record.ID,
		User:       res.Record.User,
		Servers:    res.Record.Servers,
		Status:     string(res.Status),
		PageID:     res.Page.ID,
		PageURL:    res.Page.URL,
		DurationMS: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		item.Errors = res.Err.Error()
	}
	return item
}
