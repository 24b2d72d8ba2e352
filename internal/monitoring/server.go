// internal/monitoring/server.go
package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/valpere/FAQScrapexter/internal/utils"
)

// RunStatus describes the state of the current extraction run.
type RunStatus string

const (
	RunStatusStarting RunStatus = "starting"
	RunStatusRunning  RunStatus = "running"
	RunStatusDone     RunStatus = "done"
	RunStatusFailed   RunStatus = "failed"
)

// Health is the /healthz payload.
type Health struct {
	Status    RunStatus     `json:"status"`
	RunID     string        `json:"run_id"`
	Job       string        `json:"job"`
	StartedAt time.Time     `json:"started_at"`
	Uptime    time.Duration `json:"uptime"`
	Message   string        `json:"message,omitempty"`
}

// Server exposes metrics and run health over HTTP while a run is in progress.
type Server struct {
	metrics *Metrics
	logger  utils.Logger
	server  *http.Server

	mu     sync.RWMutex
	health Health
}

// NewServer creates a server for one run.
func NewServer(metrics *Metrics, runID, job string, logger utils.Logger) *Server {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Server{
		metrics: metrics,
		logger:  logger,
		health: Health{
			Status:    RunStatusStarting,
			RunID:     runID,
			Job:       job,
			StartedAt: time.Now(),
		},
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)
	return r
}

// SetStatus updates the reported run status.
func (s *Server) SetStatus(status RunStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health.Status = status
	s.health.Message = message
}

// Health returns the current health snapshot.
func (s *Server) Health() Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := s.health
	h.Uptime = time.Since(h.StartedAt).Round(time.Millisecond)
	return h
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	health := s.Health()

	w.Header().Set("Content-Type", "application/json")
	if health.Status == RunStatusFailed {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Warnf("failed to encode health: %v", err)
	}
}

// Start listens on address in the background and returns the bound address.
func (s *Server) Start(address string) (string, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return "", utils.NewError(utils.ErrCodeInvalidConfig, "failed to listen for metrics").
			WithCause(err).
			WithContext("address", address).
			Build()
	}

	s.server = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("metrics server stopped: %v", err)
		}
	}()

	s.logger.Infof("metrics available at http://%s/metrics", ln.Addr())
	return ln.Addr().String(), nil
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
