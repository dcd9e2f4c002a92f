package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"techdebt_export/internal/handlers"
	"techdebt_export/internal/transport/auth"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	httpServer *http.Server
}

// NewServer wires the side server of schedule mode. gatherer may be nil, which
// leaves /metrics out.
func NewServer(port, apiToken string, h *handlers.Handlers, gatherer prometheus.Gatherer) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%s", port),
			Handler:      NewMux(apiToken, h, gatherer),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func NewMux(apiToken string, h *handlers.Handlers, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	guard := auth.BearerTokenMiddleware(apiToken)

	if h != nil {
		mux.HandleFunc("/health", h.Health)
		mux.Handle("/run", guard(http.HandlerFunc(h.Run)))
		mux.Handle("/runs", guard(http.HandlerFunc(h.Runs)))
		mux.Handle("/runs/{id}/items", guard(http.HandlerFunc(h.RunItems)))
	}
	if gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shCtx)
	case err := <-errCh:
		return err
	}
}
