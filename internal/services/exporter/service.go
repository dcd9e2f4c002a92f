package exporter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"techdebt_export/internal/logging"
	"techdebt_export/internal/metrics"
	"techdebt_export/internal/models"
	"techdebt_export/internal/ports"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrRunInProgress = errors.New("an export run is already in progress")

const markTimeout = 30 * time.Second

type Options struct {
	DryRun bool
}

// Service moves eligible log applet records into the Notion board, one run at a time.
type Service struct {
	Store     ports.RecordStore
	Publisher ports.Publisher

	// optional sinks
	Journal ports.Journal
	Reports ports.ReportSink
	Metrics *metrics.Metrics

	Table string
	Now   func() time.Time
	NewID func() string

	mu sync.Mutex
}

func NewService(store ports.RecordStore, pub ports.Publisher, table string) *Service {
	return &Service{
		Store:     store,
		Publisher: pub,
		Table:     table,
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

// Run fetches eligible records, publishes them one by one and flags only the
// published ones as exported. A failed publish leaves its row eligible and makes
// Run return ErrPartialFailure after the rest of the batch is done.
func (s *Service) Run(ctx context.Context, opts Options) (models.RunSummary, error) {
	if !s.mu.TryLock() {
		return models.RunSummary{}, ErrRunInProgress
	}
	defer s.mu.Unlock()

	ctx, span := otel.Tracer("techdebt-export").Start(ctx, "export.run")
	defer span.End()

	run := models.RunSummary{
		RunID:     s.NewID(),
		Table:     s.Table,
		DryRun:    opts.DryRun,
		Status:    models.RunStatusRunning,
		StartedAt: s.Now(),
	}
	span.SetAttributes(attribute.String("run.id", run.RunID), attribute.Bool("run.dry", opts.DryRun))
	logging.WithTrace(ctx, "[EXP][START] run=%s table=%s dry_run=%t", run.RunID, run.Table, opts.DryRun)

	if s.Journal != nil {
		if err := s.Journal.StartRun(ctx, run); err != nil {
			log.Printf("[EXP][JOURNAL][WARN] start run=%s: %v", run.RunID, err)
		}
	}

	recs, err := s.Store.FetchEligible(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch")
		logging.WithTrace(ctx, "[EXP][ERR] fetch: %v", err)
		return s.finish(ctx, run, models.RunStatusFailed, err)
	}
	run.Fetched = len(recs)
	if s.Metrics != nil && !opts.DryRun {
		s.Metrics.RecordsFetched.Add(float64(len(recs)))
	}
	logging.WithTrace(ctx, "[EXP] fetched=%d", len(recs))

	var loopErr error
	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			logging.WithTrace(ctx, "[EXP][WARN] cancelled after %d of %d records: %v", i, len(recs), err)
			loopErr = err
			break
		}

		var res models.PublishResult
		if opts.DryRun {
			res = s.render(rec)
		} else {
			res = s.publish(ctx, rec)
		}
		run.Results = append(run.Results, res)

		switch res.Status {
		case models.ItemStatusPublished:
			run.Published++
		case models.ItemStatusFailed:
			run.Failed++
		}

		if s.Journal != nil && !opts.DryRun {
			if err := s.Journal.RecordItem(ctx, run.RunID, res); err != nil {
				log.Printf("[EXP][JOURNAL][WARN] item run=%s id=%d: %v", run.RunID, rec.ID, err)
			}
		}
	}

	if opts.DryRun {
		return s.finish(ctx, run, models.RunStatusDryRun, loopErr)
	}

	// pages already exist, so the flag update must not die with a cancelled run
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markTimeout)
	defer cancel()

	ids := run.PublishedIDs()
	marked, err := s.Store.MarkExported(markCtx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mark exported")
		logging.WithTrace(ctx, "[EXP][ERR] mark exported ids=%v: %v (pages were created and will be published again next run)", ids, err)
		return s.finish(ctx, run, models.RunStatusFailed, err)
	}
	run.Marked = marked
	if s.Metrics != nil {
		s.Metrics.RecordsMarked.Add(float64(marked))
	}
	if marked != int64(len(ids)) {
		logging.WithTrace(ctx, "[EXP][WARN] marked=%d published=%d: some rows changed under the run", marked, len(ids))
	}

	switch {
	case loopErr != nil:
		return s.finish(ctx, run, models.RunStatusFailed, loopErr)
	case run.Failed > 0:
		span.SetStatus(codes.Error, "partial")
		return s.finish(ctx, run, models.RunStatusPartial,
			fmt.Errorf("%w: %d of %d", ports.ErrPartialFailure, run.Failed, run.Fetched))
	default:
		return s.finish(ctx, run, models.RunStatusDone, nil)
	}
}

func (s *Service) publish(ctx context.Context, rec models.DebtRecord) models.PublishResult {
	start := s.Now()
	page, err := s.Publisher.Publish(ctx, rec)
	dur := s.Now().Sub(start)

	res := models.PublishResult{Record: rec, Page: page, Duration: dur}
	if err != nil {
		res.Status = models.ItemStatusFailed
		res.Err = err
		logging.WithTrace(ctx, "[EXP][ERR] publish id=%d user=%q: %v", rec.ID, rec.User, err)
	} else {
		res.Status = models.ItemStatusPublished
		logging.WithTrace(ctx, "[EXP][OK] publish id=%d page=%s took=%s", rec.ID, page.ID, dur)
	}

	if s.Metrics != nil {
		s.Metrics.ObservePublish(dur, err, failureReason(err))
	}
	return res
}

func (s *Service) render(rec models.DebtRecord) models.PublishResult {
	body, err := s.Publisher.Render(rec)
	if err != nil {
		log.Printf("[EXP][DRY][ERR] render id=%d: %v", rec.ID, err)
		return models.PublishResult{Record: rec, Status: models.ItemStatusFailed, Err: err}
	}
	log.Printf("[EXP][DRY] id=%d payload=%s", rec.ID, body)
	return models.PublishResult{Record: rec, Status: models.ItemStatusSkipped}
}

func (s *Service) finish(ctx context.Context, run models.RunSummary, status models.RunStatus, runErr error) (models.RunSummary, error) {
	run.Status = status
	run.FinishedAt = s.Now()
	if runErr != nil {
		run.Error = runErr.Error()
	}

	// reporting must outlive a cancelled run context as well
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markTimeout)
	defer cancel()

	if s.Reports != nil && run.Fetched > 0 {
		if key, err := s.Reports.Store(sinkCtx, run); err != nil {
			log.Printf("[EXP][REPORT][WARN] run=%s: %v", run.RunID, err)
		} else {
			run.ReportKey = key
		}
	}
	if s.Journal != nil {
		if err := s.Journal.FinishRun(sinkCtx, run); err != nil {
			log.Printf("[EXP][JOURNAL][WARN] finish run=%s: %v", run.RunID, err)
		}
	}
	if s.Metrics != nil && !run.DryRun {
		s.Metrics.ObserveRun(string(status), run.FinishedAt)
	}

	logging.WithTrace(ctx, "[EXP][DONE] run=%s status=%s fetched=%d published=%d failed=%d marked=%d duration=%s",
		run.RunID, run.Status, run.Fetched, run.Published, run.Failed, run.Marked, run.FinishedAt.Sub(run.StartedAt))
	return run, runErr
}

func failureReason(err error) string {
	if err == nil {
		return ""
	}
	var herr *ports.HTTPError
	if errors.As(err, &herr) {
		if herr.StatusCode == 0 {
			return "transport"
		}
		return "http_" + strconv.Itoa(herr.StatusCode)
	}
	return "other"
}
