package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"techdebt_export/internal/models"
	"techdebt_export/internal/services/exporter"
)

type chanRunner struct {
	got chan exporter.Options
	err error
}

func (c *chanRunner) Run(ctx context.Context, opts exporter.Options) (models.RunSummary, error) {
	c.got <- opts
	return models.RunSummary{RunID: "r1", Status: models.RunStatusDone}, c.err
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		check    func(context.Context) error
		wantCode int
		wantErrs int
	}{
		{name: "ok", check: func(context.Context) error { return nil }, wantCode: http.StatusOK},
		{
			name: "two pings fail",
			check: func(context.Context) error {
				return errors.Join(errors.New("database ping failed"), errors.New("mongo ping failed"))
			},
			wantCode: http.StatusInternalServerError,
			wantErrs: 2,
		},
		{name: "not wired", check: nil, wantCode: http.StatusInternalServerError, wantErrs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(context.Background(), nil, tt.check, nil)
			rr := httptest.NewRecorder()
			h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rr.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", rr.Code, tt.wantCode)
			}
			if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
				t.Fatalf("content type = %q", ct)
			}
			var resp healthResp
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.OK != (tt.wantCode == http.StatusOK) || len(resp.Errors) != tt.wantErrs {
				t.Fatalf("resp = %+v", resp)
			}
		})
	}
}

func TestRunStartsInBackground(t *testing.T) {
	r := &chanRunner{got: make(chan exporter.Options, 1)}
	h := New(context.Background(), r, nil, nil)

	rr := httptest.NewRecorder()
	h.Run(rr, httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{"dry_run":true}`)))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("code = %d, want 202", rr.Code)
	}
	select {
	case opts := <-r.got:
		if !opts.DryRun {
			t.Fatal("dry_run not passed through")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner was not called")
	}
}

func TestRunEmptyBody(t *testing.T) {
	r := &chanRunner{got: make(chan exporter.Options, 1), err: exporter.ErrRunInProgress}
	h := New(context.Background(), r, nil, nil)

	rr := httptest.NewRecorder()
	h.Run(rr, httptest.NewRequest(http.MethodPost, "/run", nil))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("code = %d, want 202", rr.Code)
	}
	select {
	case opts := <-r.got:
		if opts.DryRun {
			t.Fatal("dry run should default to false")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runner was not called")
	}
}

type blockingRunner struct {
	started chan struct{}
	stopped chan error
}

func (b *blockingRunner) Run(ctx context.Context, opts exporter.Options) (models.RunSummary, error) {
	close(b.started)
	<-ctx.Done()
	b.stopped <- ctx.Err()
	return models.RunSummary{RunID: "r2", Status: models.RunStatusFailed}, ctx.Err()
}

func TestRunStopsWithProcessContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &blockingRunner{started: make(chan struct{}), stopped: make(chan error, 1)}
	h := New(ctx, r, nil, nil)

	rr := httptest.NewRecorder()
	h.Run(rr, httptest.NewRequest(http.MethodPost, "/run", nil))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("code = %d, want 202", rr.Code)
	}

	select {
	case <-r.started:
	case <-time.After(2 * time.Second):
		t.Fatal("runner was not called")
	}

	cancel()

	select {
	case err := <-r.stopped:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("run ctx err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run context not cancelled with the process context")
	}

	done := make(chan struct{})
	go func() {
		h.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after the run finished")
	}
}

func TestRunRejects(t *testing.T) {
	h := New(context.Background(), &chanRunner{got: make(chan exporter.Options, 1)}, nil, nil)

	rr := httptest.NewRecorder()
	h.Run(rr, httptest.NewRequest(http.MethodGet, "/run", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET code = %d, want 405", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Run(rr, httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{"dry_run":`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad JSON code = %d, want 400", rr.Code)
	}
}

func TestRunsWithoutJournal(t *testing.T) {
	h := New(context.Background(), nil, nil, nil)

	rr := httptest.NewRecorder()
	h.Runs(rr, httptest.NewRequest(http.MethodGet, "/runs", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d, want 503", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.RunItems(rr, httptest.NewRequest(http.MethodGet, "/runs/x/items", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d, want 503", rr.Code)
	}
}

func TestParseInt64(t *testing.T) {
	tests := []struct {
		in   string
		def  int64
		want int64
	}{
		{"", 20, 20},
		{"5", 20, 5},
		{"-1", 20, 20},
		{"abc", 0, 0},
	}
	for _, tt := range tests {
		if got := parseInt64(tt.in, tt.def); got != tt.want {
			t.Errorf("parseInt64(%q, %d) = %d, want %d", tt.in, tt.def, got, tt.want)
		}
	}
}
