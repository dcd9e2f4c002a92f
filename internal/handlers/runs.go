package handlers

import (
	"net/http"
	"strconv"

	"techdebt_export/internal/repository/runs"

	"go.mongodb.org/mongo-driver/bson"
)

// Runs lists journaled export runs, newest first. Filters: status, limit, skip.
func (h *Handlers) Runs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.JSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "use GET"})
		return
	}
	if h.Mongo == nil {
		h.JSON(w, http.StatusServiceUnavailable, map[string]string{"error": "run journal is disabled"})
		return
	}

	q := r.URL.Query()
	limit := parseInt64(q.Get("limit"), 20)
	skip := parseInt64(q.Get("skip"), 0)
	filter := bson.M{}
	if st := q.Get("status"); st != "" {
		filter["status"] = st
	}

	recs, total, err := runs.ListRuns(r.Context(), h.Mongo, filter, limit, skip)
	if err != nil {
		h.Logger.Printf("[RUNS][ERR] list: %v", err)
		h.JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.JSON(w, http.StatusOK, map[string]any{"items": recs, "total": total})
}

// RunItems returns the per-record outcomes of one run.
func (h *Handlers) RunItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.JSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "use GET"})
		return
	}
	if h.Mongo == nil {
		h.JSON(w, http.StatusServiceUnavailable, map[string]string{"error": "run journal is disabled"})
		return
	}

	id := r.PathValue("id")
	items, err := runs.ListItems(r.Context(), h.Mongo, id)
	if err != nil {
		h.Logger.Printf("[RUNS][ERR] items run=%s: %v", id, err)
		h.JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.JSON(w, http.StatusOK, map[string]any{"run_id": id, "items": items})
}

func parseInt64(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return def
	}
	return n
}
