package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthStatus records the state of the process's dependencies.
type HealthStatus struct {
	Mu sync.RWMutex

	RedisConfigured bool
	RedisConnected  bool
	RedisLatencyMs  float64
	SQLiteOK        bool
	SQLiteLatencyMs float64

	DeallocPending   int
	CheckpointSource string
	LastCheckpoint   time.Time

	LastCheckAt time.Time
	StartedAt   time.Time
}

// NewHealthStatus returns a status with the start time set.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetDeallocPending(n int) {
	h.Mu.Lock()
	h.DeallocPending = n
	h.Mu.Unlock()
}

// SetCheckpointSource records where the stages were restored from.
func (h *HealthStatus) SetCheckpointSource(source string) {
	h.Mu.Lock()
	h.CheckpointSource = source
	h.Mu.Unlock()
}

func (h *HealthStatus) SetLastCheckpoint(t time.Time) {
	h.Mu.Lock()
	h.LastCheckpoint = t
	h.Mu.Unlock()
}

// CheckRedis pings Redis and records latency and connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.Mu.Lock()
	h.RedisConfigured = true
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.Mu.Unlock()
}

// CheckSQLite pings the database and records latency and health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.Mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.Mu.Unlock()
}

// RunLivenessChecker probes the given dependencies every interval until ctx
// is done. Either may be nil.
func (h *HealthStatus) RunLivenessChecker(ctx context.Context, rdb *goredis.Client, db *sql.DB, interval time.Duration) error {
	probe := func() {
		probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if rdb != nil {
			h.CheckRedis(probeCtx, rdb)
		}
		if db != nil {
			h.CheckSQLite(probeCtx, db)
		}
	}
	probe()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			probe()
		}
	}
}

// ServeHTTP handles /healthz. The process is degraded when a configured
// store is unreachable and unhealthy when no store is reachable.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.Mu.RLock()
	defer h.Mu.RUnlock()

	redisOK := !h.RedisConfigured || h.RedisConnected
	overall, code := "healthy", http.StatusOK
	if !redisOK || !h.SQLiteOK {
		overall, code = "degraded", http.StatusServiceUnavailable
	}
	if !h.RedisConnected && !h.SQLiteOK {
		overall = "unhealthy"
	}

	lastCheckpoint := ""
	if !h.LastCheckpoint.IsZero() {
		lastCheckpoint = h.LastCheckpoint.Format(time.RFC3339)
	}

	status := struct {
		Status           string  `json:"status"`
		Uptime           string  `json:"uptime"`
		RedisConnected   bool    `json:"redis_connected"`
		RedisLatencyMs   float64 `json:"redis_latency_ms"`
		SQLiteOK         bool    `json:"sqlite_ok"`
		SQLiteLatencyMs  float64 `json:"sqlite_latency_ms"`
		DeallocPending   int     `json:"dealloc_pending"`
		CheckpointSource string  `json:"checkpoint_source"`
		LastCheckpoint   string  `json:"last_checkpoint"`
		LastCheckAt      string  `json:"last_check_at"`
	}{
		Status:           overall,
		Uptime:           time.Since(h.StartedAt).Round(time.Second).String(),
		RedisConnected:   h.RedisConnected,
		RedisLatencyMs:   h.RedisLatencyMs,
		SQLiteOK:         h.SQLiteOK,
		SQLiteLatencyMs:  h.SQLiteLatencyMs,
		DeallocPending:   h.DeallocPending,
		CheckpointSource: h.CheckpointSource,
		LastCheckpoint:   lastCheckpoint,
		LastCheckAt:      h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(status)
}

// Server exposes /metrics, /healthz and any handlers mounted with Handle.
type Server struct {
	addr string
	mux  *http.ServeMux
	srv  *http.Server
	log  *slog.Logger
}

// NewServer serves the collectors gathered by g and the health status h.
func NewServer(addr string, g prometheus.Gatherer, h *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", h)
	return &Server{
		addr: addr,
		mux:  mux,
		srv:  &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		log:  slog.Default().With(slog.String("component", "metrics")),
	}
}

// Handle mounts h on pattern. Call before ListenAndServe.
func (s *Server) Handle(pattern string, h http.Handler) { s.mux.Handle(pattern, h) }

// Handler returns the server's mux.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe blocks until the server stops. A graceful Stop is not an
// error.
func (s *Server) ListenAndServe() error {
	s.log.Info("server listening", slog.String("addr", s.addr))
	if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
