package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"
)

type healthResp struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors,omitempty"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var errs []string
	if h.Check == nil {
		errs = append(errs, "connections not initialized")
	} else if err := h.Check(ctx); err != nil {
		errs = append(errs, splitJoined(err)...)
	}

	resp := healthResp{OK: len(errs) == 0}
	if len(errs) > 0 {
		resp.Errors = errs
		h.JSON(w, http.StatusInternalServerError, resp)
		return
	}
	h.JSON(w, http.StatusOK, resp)
}

func splitJoined(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		out := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
