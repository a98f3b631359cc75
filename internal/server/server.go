// Package server runs the pipeline on a schedule and exposes health,
// metrics, status and the latest report over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"free-shipping-lab/internal/logging"
	"free-shipping-lab/internal/observability"
	"free-shipping-lab/internal/pipeline"
	"free-shipping-lab/internal/reporting"
	"free-shipping-lab/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrRunInProgress is returned when a run is requested while one is active.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// ErrNotServing is returned when a run is requested outside Serve.
var ErrNotServing = errors.New("server is not serving")

const shutdownTimeout = 5 * time.Second

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Output, error)
	Metrics() *observability.Metrics
}

// Server schedules pipeline runs and serves their state.
type Server struct {
	runner     Runner
	runs       storage.RunStore
	resultsDir string
	interval   time.Duration // 0 runs once at startup
	logger     *zap.Logger
	clock      func() time.Time

	wg sync.WaitGroup // scheduled and POST /run runs, awaited by Serve

	mu        sync.Mutex
	runCtx    context.Context // cancelled on shutdown, nil outside Serve
	started   time.Time
	lastRun   time.Time
	lastRunID string
	lastErr   string
	runCount  int
	failures  int
	running   bool
}

// New creates a server.
func New(runner Runner, runs storage.RunStore, resultsDir string, interval time.Duration, logger *zap.Logger) *Server {
	return &Server{
		runner:     runner,
		runs:       runs,
		resultsDir: resultsDir,
		interval:   interval,
		logger:     logging.OrNop(logger),
		clock:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (s *Server) WithClock(clock func() time.Time) *Server {
	s.clock = clock
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", s.runner.Metrics().Handler())
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /runs/latest", s.handleLatestRun)
	mux.HandleFunc("GET /report", s.handleReport)
	mux.HandleFunc("POST /run", s.handleTrigger)
	return mux
}

// Serve listens on addr and runs the pipeline immediately and then every
// interval until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	runCtx, cancelRuns := context.WithCancel(ctx)
	defer cancelRuns()

	s.mu.Lock()
	s.started = s.clock()
	s.runCtx = runCtx
	s.mu.Unlock()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.schedule(runCtx)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown", zap.Error(err))
	}

	s.mu.Lock()
	s.runCtx = nil
	s.mu.Unlock()
	cancelRuns()
	s.wg.Wait()
	return serveErr
}

func (s *Server) schedule(ctx context.Context) {
	s.runLogged(ctx)
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *Server) runLogged(ctx context.Context) {
	if err := s.TriggerRun(ctx); err != nil && !errors.Is(err, ErrRunInProgress) && ctx.Err() == nil {
		s.logger.Error("scheduled run failed", zap.Error(err))
	}
}

// TriggerRun executes one pipeline run unless another is active.
func (s *Server) TriggerRun(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	out, err := s.runner.Run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.runCount++
	s.lastRun = s.clock()
	if err != nil {
		s.failures++
		s.lastErr = err.Error()
		return err
	}
	s.lastErr = ""
	s.lastRunID = out.Run.RunID
	return nil
}

// StatusResponse is the JSON body of /status.
type StatusResponse struct {
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	Started   time.Time `json:"started"`
	LastRun   time.Time `json:"last_run,omitempty"`
	LastRunID string    `json:"last_run_id,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	Runs      int       `json:"runs"`
	Failures  int       `json:"failures"`
	Running   bool      `json:"running"`
}

func (s *Server) status() StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatusResponse{
		Status:    "running",
		Uptime:    s.clock().Sub(s.started).Truncate(time.Second).String(),
		Started:   s.started,
		LastRun:   s.lastRun,
		LastRunID: s.lastRunID,
		LastError: s.lastErr,
		Runs:      s.runCount,
		Failures:  s.failures,
		Running:   s.running,
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

// RunResponse is the JSON body of /runs/latest.
type RunResponse struct {
	RunID       string `json:"run_id"`
	DataVersion string `json:"data_version"`
	Seed        uint64 `json:"seed"`
	Orders      int    `json:"orders"`
	SampleSize  int    `json:"sample_size"`
	Decision    string `json:"decision"`
	Strategy    string `json:"strategy"`
	CreatedAt   int64  `json:"created_at"`
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.GetLatest(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no runs yet"})
		return
	}
	if err != nil {
		s.logger.Error("load latest run", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, RunResponse{
		RunID:       run.RunID,
		DataVersion: run.DataVersion,
		Seed:        run.Seed,
		Orders:      run.Orders,
		SampleSize:  run.SampleSize,
		Decision:    run.Decision,
		Strategy:    run.Strategy,
		CreatedAt:   run.CreatedAt,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	data, err := os.ReadFile(filepath.Join(s.resultsDir, reporting.ReportFile))
	if errors.Is(err, os.ErrNotExist) {
		http.Error(w, "report not generated yet", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write(data)
}

// handleTrigger starts a run in the background under Serve's context.
func (s *Server) handleTrigger(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	busy, ctx := s.running, s.runCtx
	if !busy && ctx != nil {
		s.wg.Add(1)
	}
	s.mu.Unlock()

	switch {
	case busy:
		writeJSON(w, http.StatusConflict, map[string]string{"error": ErrRunInProgress.Error()})
		return
	case ctx == nil:
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": ErrNotServing.Error()})
		return
	}
	go func() {
		defer s.wg.Done()
		s.runLogged(ctx)
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
