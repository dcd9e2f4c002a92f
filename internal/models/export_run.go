package models

import "time"

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusDone    RunStatus = "done"
	RunStatusPartial RunStatus = "partial"
	RunStatusFailed  RunStatus = "failed"
	RunStatusDryRun  RunStatus = "dry_run"
)

type ItemStatus string

const (
	ItemStatusPublished ItemStatus = "published"
	ItemStatusFailed    ItemStatus = "failed"
	ItemStatusSkipped   ItemStatus = "skipped"
)

// PublishResult is the outcome of publishing one record.
type PublishResult struct {
	Record   DebtRecord
	Page     PageRef
	Status   ItemStatus
	Err      error
	Duration time.Duration
}

func (r PublishResult) OK() bool { return r.Status == ItemStatusPublished }

type RunSummary struct {
	RunID      string
	Table      string
	DryRun     bool
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt time.Time
	Fetched    int
	Published  int
	Failed     int
	Marked     int64
	Error      string
	ReportKey  string
	Results    []PublishResult
}

// PublishedIDs returns the ids of records that reached the document system.
func (s RunSummary) PublishedIDs() []int64 {
	ids := make([]int64, 0, len(s.Results))
	for _, r := range s.Results {
		if r.OK() {
			ids = append(ids, r.Record.ID)
		}
	}
	return ids
}
