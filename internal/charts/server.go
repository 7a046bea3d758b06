package charts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/banshee-data/schoolstats/internal/httputil"
	"github.com/banshee-data/schoolstats/internal/monitoring"
	"github.com/banshee-data/schoolstats/internal/schools"
	"github.com/banshee-data/schoolstats/internal/timeutil"
)

// Server serves the rendered charts and the aggregate behind them.
//
//	GET /           Bar3D page
//	GET /chart.png  two-panel PNG
//	GET /api/stats  aggregate as JSON
//	GET /health     liveness
type Server struct {
	address string
	options Options
	clock   timeutil.Clock
	server  *http.Server

	mu   sync.RWMutex
	agg  *schools.Aggregate
	html []byte
	png  []byte
}

// ServerConfig contains configuration options for the chart server.
type ServerConfig struct {
	Address   string
	Aggregate *schools.Aggregate
	Options   Options
	Clock     timeutil.Clock // health timestamps; nil means RealClock
}

// NewServer renders cfg.Aggregate once and returns a server ready to Start.
func NewServer(cfg ServerConfig) (*Server, error) {
	s := &Server{
		address: cfg.Address,
		options: cfg.Options,
		clock:   cfg.Clock,
	}
	if s.clock == nil {
		s.clock = timeutil.RealClock{}
	}
	if err := s.SetAggregate(cfg.Aggregate); err != nil {
		return nil, err
	}
	s.server = &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// SetAggregate re-renders both charts for agg and swaps them in.
func (s *Server) SetAggregate(agg *schools.Aggregate) error {
	if agg == nil {
		agg = &schools.Aggregate{}
	}
	var html, png bytes.Buffer
	if err := RenderHTML(&html, agg, s.options); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if err := RenderPNG(&png, agg); err != nil {
		return err
	}

	s.mu.Lock()
	s.agg, s.html, s.png = agg, html.Bytes(), png.Bytes()
	s.mu.Unlock()
	return nil
}

// Start serves until ctx is cancelled, then shuts down gracefully. A listen
// failure is returned immediately.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("Starting HTTP server on %s", s.address)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := s.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}

	monitoring.Logf("HTTP server routine stopped")
	return nil
}

// Handler returns the route table. Exposed for httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/chart.png", s.handlePNG)
	mux.HandleFunc("/", s.handleIndex)
	return mux
}

func allowRead(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		httputil.MethodNotAllowed(w)
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"service":   "schoolstats",
		"timestamp": s.clock.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		httputil.WriteJSONError(w, http.StatusNotFound, "not found")
		return
	}
	if !allowRead(w, r) {
		return
	}
	s.mu.RLock()
	body := s.html
	s.mu.RUnlock()
	httputil.WriteBody(w, "text/html; charset=utf-8", body)
}

func (s *Server) handlePNG(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	s.mu.RLock()
	body := s.png
	s.mu.RUnlock()
	httputil.WriteBody(w, "image/png", body)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	s.mu.RLock()
	agg := s.agg
	s.mu.RUnlock()
	httputil.WriteJSON(w, http.StatusOK, struct {
		States  int                   `json:"states"`
		Schools int                   `json:"schools"`
		Rows    []schools.RegionStats `json:"rows"`
	}{
		States:  agg.Len(),
		Schools: agg.TotalSchools(),
		Rows:    nonNilRows(agg.Rows),
	})
}

func nonNilRows(rows []schools.RegionStats) []schools.RegionStats {
	if rows == nil {
		return []schools.RegionStats{}
	}
	return rows
}
