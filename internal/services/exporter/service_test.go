package exporter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"techdebt_export/internal/metrics"
	"techdebt_export/internal/models"
	"techdebt_export/internal/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeStore struct {
	recs     []models.DebtRecord
	fetchErr error
	markErr  error

	markCalls int
	marked    []int64
}

func (f *fakeStore) FetchEligible(ctx context.Context) ([]models.DebtRecord, error) {
	return f.recs, f.fetchErr
}

func (f *fakeStore) MarkExported(ctx context.Context, ids []int64) (int64, error) {
	f.markCalls++
	if f.markErr != nil {
		return 0, f.markErr
	}
	f.marked = append(f.marked, ids...)
	return int64(len(ids)), nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

type fakePublisher struct {
	fail     map[int64]error
	entered  chan struct{}
	block    chan struct{}
	calls    []int64
	rendered []int64
}

func (f *fakePublisher) Render(rec models.DebtRecord) ([]byte, error) {
	f.rendered = append(f.rendered, rec.ID)
	return []byte(`{}`), nil
}

func (f *fakePublisher) Publish(ctx context.Context, rec models.DebtRecord) (models.PageRef, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.calls = append(f.calls, rec.ID)
	if err := f.fail[rec.ID]; err != nil {
		return models.PageRef{}, err
	}
	return models.PageRef{ID: fmt.Sprintf("page-%d", rec.ID)}, nil
}

type fakeJournal struct {
	itemErr error

	started  int
	items    []models.PublishResult
	finished []models.RunSummary
}

func (f *fakeJournal) StartRun(ctx context.Context, run models.RunSummary) error {
	f.started++
	return nil
}

func (f *fakeJournal) RecordItem(ctx context.Context, runID string, res models.PublishResult) error {
	f.items = append(f.items, res)
	return f.itemErr
}

func (f *fakeJournal) FinishRun(ctx context.Context, run models.RunSummary) error {
	f.finished = append(f.finished, run)
	return nil
}

type fakeReports struct{ stored []models.RunSummary }

func (f *fakeReports) Store(ctx context.Context, run models.RunSummary) (string, error) {
	f.stored = append(f.stored, run)
	return "reports/" + run.RunID + ".xlsx", nil
}

func records(ids ...int64) []models.DebtRecord {
	out := make([]models.DebtRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.DebtRecord{ID: id, User: "alice", Servers: "srv1"})
	}
	return out
}

func newService(store *fakeStore, pub *fakePublisher) *Service {
	s := NewService(store, pub, "tblgbcomments")
	s.NewID = func() string { return "run-1" }
	return s
}

func TestRunNoEligibleRecords(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}

	run, err := newService(store, pub).Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(pub.calls) != 0 {
		t.Fatalf("expected no publish, got %v", pub.calls)
	}
	if run.Marked != 0 || len(store.marked) != 0 {
		t.Fatalf("expected nothing marked, got %d %v", run.Marked, store.marked)
	}
	if run.Status != models.RunStatusDone {
		t.Fatalf("status = %s", run.Status)
	}
}

func TestRunPublishesEveryFetchedRecord(t *testing.T) {
	store := &fakeStore{recs: records(1, 2, 3, 4)}
	pub := &fakePublisher{}

	run, err := newService(store, pub).Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(pub.calls) != len(store.recs) {
		t.Fatalf("publish attempts = %d, fetched = %d", len(pub.calls), len(store.recs))
	}
	if run.Published != 4 || run.Marked != 4 {
		t.Fatalf("unexpected summary: %+v", run)
	}
	if store.markCalls != 1 {
		t.Fatalf("expected one bulk update, got %d", store.markCalls)
	}
}

func TestRunMarksOnlyPublishedRecords(t *testing.T) {
	store := &fakeStore{recs: records(10, 11, 12)}
	pub := &fakePublisher{fail: map[int64]error{
		11: &ports.HTTPError{StatusCode: 502},
	}}
	m := metrics.New(prometheus.NewRegistry())
	svc := newService(store, pub)
	svc.Metrics = m

	run, err := svc.Run(context.Background(), Options{})
	if !errors.Is(err, ports.ErrPartialFailure) {
		t.Fatalf("expected ErrPartialFailure, got %v", err)
	}
	if len(pub.calls) != 3 {
		t.Fatalf("a failure must not stop the batch, calls=%v", pub.calls)
	}
	if len(store.marked) != 2 || store.marked[0] != 10 || store.marked[1] != 12 {
		t.Fatalf("marked = %v, want [10 12]", store.marked)
	}
	if run.Status != models.RunStatusPartial || run.Failed != 1 || run.Published != 2 {
		t.Fatalf("unexpected summary: %+v", run)
	}
	if got := testutil.ToFloat64(m.PublishErrors.WithLabelValues("http_502")); got != 1 {
		t.Fatalf("publish errors = %v", got)
	}
	if got := testutil.ToFloat64(m.RecordsMarked); got != 2 {
		t.Fatalf("records marked = %v", got)
	}
}

func TestRunFetchFailurePublishesNothing(t *testing.T) {
	connErr := &ports.ConnectionError{Target: "mysql", Err: errors.New("dial tcp: connection refused")}
	store := &fakeStore{fetchErr: connErr}
	pub := &fakePublisher{}
	j := &fakeJournal{}
	svc := newService(store, pub)
	svc.Journal = j

	run, err := svc.Run(context.Background(), Options{})
	var ce *ports.ConnectionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConnectionError, got %T: %v", err, err)
	}
	if len(pub.calls) != 0 || store.markCalls != 0 {
		t.Fatalf("expected no publish and no update, calls=%v marks=%d", pub.calls, store.markCalls)
	}
	if run.Status != models.RunStatusFailed {
		t.Fatalf("status = %s", run.Status)
	}
	if len(j.finished) != 1 || j.finished[0].Status != models.RunStatusFailed {
		t.Fatalf("journal not finished as failed: %+v", j.finished)
	}
}

func TestRunMarkFailureIsReported(t *testing.T) {
	store := &fakeStore{recs: records(1), markErr: &ports.QueryError{Op: "update", Err: errors.New("lock wait timeout")}}
	run, err := newService(store, &fakePublisher{}).Run(context.Background(), Options{})

	var qe *ports.QueryError
	if !errors.As(err, &qe) {
		t.Fatalf("expected QueryError, got %v", err)
	}
	if run.Status != models.RunStatusFailed || run.Published != 1 {
		t.Fatalf("unexpected summary: %+v", run)
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	store := &fakeStore{recs: records(1, 2)}
	pub := &fakePublisher{}
	j := &fakeJournal{}
	m := metrics.New(prometheus.NewRegistry())
	svc := newService(store, pub)
	svc.Journal = j
	svc.Metrics = m

	run, err := svc.Run(context.Background(), Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(pub.calls) != 0 || store.markCalls != 0 {
		t.Fatalf("dry run published or marked: calls=%v marks=%d", pub.calls, store.markCalls)
	}
	if len(pub.rendered) != 2 {
		t.Fatalf("expected both records rendered, got %v", pub.rendered)
	}
	if run.Status != models.RunStatusDryRun || len(j.items) != 0 {
		t.Fatalf("unexpected dry run result: %+v items=%d", run, len(j.items))
	}
	if got := testutil.ToFloat64(m.RecordsFetched); got != 0 {
		t.Fatalf("dry run counted fetched records: %v", got)
	}
	if got := testutil.CollectAndCount(m.Runs); got != 0 {
		t.Fatalf("dry run counted as a run: %d series", got)
	}
}

func TestRunJournalItemFailureDoesNotStopBatch(t *testing.T) {
	store := &fakeStore{recs: records(1, 2)}
	pub := &fakePublisher{}
	j := &fakeJournal{itemErr: errors.New("mongo: write timeout")}
	svc := newService(store, pub)
	svc.Journal = j

	run, err := svc.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(j.items) != 2 || len(store.marked) != 2 {
		t.Fatalf("items=%d marked=%v", len(j.items), store.marked)
	}
	if run.Status != models.RunStatusDone {
		t.Fatalf("status = %s", run.Status)
	}
}

func TestRunWritesJournalAndReport(t *testing.T) {
	store := &fakeStore{recs: records(1, 2)}
	pub := &fakePublisher{fail: map[int64]error{2: errors.New("boom")}}
	j := &fakeJournal{}
	rep := &fakeReports{}
	svc := newService(store, pub)
	svc.Journal = j
	svc.Reports = rep

	run, _ := svc.Run(context.Background(), Options{})

	if j.started != 1 || len(j.items) != 2 || len(j.finished) != 1 {
		t.Fatalf("journal calls: started=%d items=%d finished=%d", j.started, len(j.items), len(j.finished))
	}
	if len(rep.stored) != 1 || run.ReportKey != "reports/run-1.xlsx" {
		t.Fatalf("report not stored: %+v key=%q", rep.stored, run.ReportKey)
	}
	if j.finished[0].ReportKey != run.ReportKey {
		t.Fatalf("journal missing report key")
	}
}

func TestRunCancelledStillMarksPublished(t *testing.T) {
	store := &fakeStore{recs: records(1, 2, 3)}
	ctx, cancel := context.WithCancel(context.Background())
	pub := &cancellingPublisher{cancel: cancel, after: 1}

	svc := newService(store, &fakePublisher{})
	svc.Publisher = pub

	run, err := svc.Run(ctx, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(store.marked) != 1 || store.marked[0] != 1 {
		t.Fatalf("published record must still be marked, got %v", store.marked)
	}
	if run.Status != models.RunStatusFailed {
		t.Fatalf("status = %s", run.Status)
	}
}

func TestRunRejectsOverlap(t *testing.T) {
	store := &fakeStore{recs: records(1)}
	pub := &fakePublisher{entered: make(chan struct{}, 1), block: make(chan struct{})}
	svc := newService(store, pub)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = svc.Run(context.Background(), Options{})
	}()

	select {
	case <-pub.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first run never started")
	}

	if _, err := svc.Run(context.Background(), Options{}); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
	close(pub.block)
	wg.Wait()
}

type cancellingPublisher struct {
	cancel context.CancelFunc
	after  int
	n      int
}

func (c *cancellingPublisher) Render(rec models.DebtRecord) ([]byte, error) { return nil, nil }

func (c *cancellingPublisher) Publish(ctx context.Context, rec models.DebtRecord) (models.PageRef, error) {
	c.n++
	if c.n >= c.after {
		c.cancel()
	}
	return models.PageRef{ID: "p"}, nil
}
