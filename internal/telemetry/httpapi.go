// internal/telemetry/httpapi.go
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Server exposes the status and health documents over plain HTTP for
// local inspection. Read-only, no auth; bind it to a trusted interface.
type Server struct {
	col *Collector
	srv *http.Server
	log zerolog.Logger
}

func NewServer(listen string, col *Collector, log zerolog.Logger) *Server {
	s := &Server{
		col: col,
		log: log.With().Str("task", "http").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/health", s.handleHealth)

	s.srv = &http.Server{
		Addr:         listen,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return s
}

// Run serves until the context is cancelled, then shuts down cleanly.
func (s *Server) Run(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		err := s.srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		done <- err
	}()

	s.log.Info().Str("listen", s.srv.Addr).Msg("serving")

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shCtx)
		return <-done
	case err := <-done:
		return err
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.col.Status())
}

// handleHealth answers probes: 200 while meter data is flowing, 503
// once it has gone invalid or stale.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h := s.col.Health()
	code := http.StatusOK
	if !h.StoreValid {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, h)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
