package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"techdebt_export/internal/config/connections/mongo"
	"techdebt_export/internal/models"
	"techdebt_export/internal/services/exporter"
)

type Runner interface {
	Run(ctx context.Context, opts exporter.Options) (models.RunSummary, error)
}

type Handlers struct {
	// background runs derive from baseCtx and are tracked by wg
	baseCtx context.Context
	wg      sync.WaitGroup

	Runner Runner
	Check  func(ctx context.Context) error

	// nil when the run journal is switched off
	Mongo *mongo.Mongo

	Logger *log.Logger
}

func New(ctx context.Context, runner Runner, check func(ctx context.Context) error, mg *mongo.Mongo) *Handlers {
	return &Handlers{
		baseCtx: ctx,
		Runner:  runner,
		Check:   check,
		Mongo:   mg,
		Logger:  log.Default(),
	}
}

func (h *Handlers) JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Wait blocks until every run started through the API has returned.
func (h *Handlers) Wait() {
	h.wg.Wait()
}
