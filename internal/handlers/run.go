package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"techdebt_export/internal/services/exporter"
)

type runRequest struct {
	DryRun     bool `json:"dry_run"`
	TimeoutMin int  `json:"timeout_minutes,omitempty"`
}

// Run starts an export in the background and answers 202 straight away. A body
// is optional.
func (h *Handlers) Run(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.JSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "use POST"})
		return
	}

	var req runRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.Logger.Printf("[RUN][REQ][ERR] bad JSON: %v", err)
		h.JSON(w, http.StatusBadRequest, map[string]string{"error": "bad JSON: " + err.Error()})
		return
	}

	reqCopy := req

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		start := time.Now()

		timeout := 15 * time.Minute
		if reqCopy.TimeoutMin > 0 {
			timeout = time.Duration(reqCopy.TimeoutMin) * time.Minute
		}
		ctx, cancel := context.WithTimeout(h.baseCtx, timeout)
		defer cancel()

		run, err := h.Runner.Run(ctx, exporter.Options{DryRun: reqCopy.DryRun})
		switch {
		case errors.Is(err, exporter.ErrRunInProgress):
			h.Logger.Printf("[RUN][SKIP][BG] another run is in progress")
		case err != nil:
			h.Logger.Printf("[RUN][ERR][BG] run=%s status=%s err=%v took=%s",
				run.RunID, run.Status, err, time.Since(start))
		default:
			h.Logger.Printf("[RUN][OK][BG] run=%s fetched=%d published=%d marked=%d took=%s",
				run.RunID, run.Fetched, run.Published, run.Marked, time.Since(start))
		}
	}()

	h.JSON(w, http.StatusAccepted, map[string]any{
		"status":  "started",
		"dry_run": req.DryRun,
	})
}
