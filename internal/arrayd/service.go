// Package arrayd is the long-running host: it restores the pipeline from
// the last checkpoint, feeds it from Redis, checkpoints it periodically and
// exposes metrics, health and stage state over HTTP.
package arrayd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/barbagrigia/FinanceSharp-sub001/config"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/checkpoint"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/dealloc"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/metrics"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/pipeline"
)

// shutdownTimeout bounds the final checkpoint, the server shutdown and the
// dealloc drain each.
const shutdownTimeout = 5 * time.Second

// Service wires all dependencies and manages their lifecycle.
type Service struct {
	cfg *config.Config
	log *slog.Logger

	reg    *prometheus.Registry
	prom   *metrics.Metrics
	health *metrics.HealthStatus
	queue  *dealloc.Queue

	rdb         *goredis.Client
	redisStore  *checkpoint.RedisStore
	sqliteStore *checkpoint.SQLiteStore

	pipe  *pipeline.Pipeline
	saver *checkpoint.Saver
}

// New connects to the stores and builds the pipeline. Either store may be
// unavailable; the service then runs with what it has.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	svc := &Service{
		cfg:    cfg,
		log:    slog.Default().With(slog.String("component", "arrayd")),
		reg:    prometheus.NewRegistry(),
		health: metrics.NewHealthStatus(),
	}
	svc.reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	svc.prom = metrics.New(svc.reg)

	svc.queue = dealloc.New(
		dealloc.WithLogger(slog.Default()),
		dealloc.WithBacklogWarn(cfg.DeallocBacklogWarn),
		dealloc.WithHooks(svc.prom.DeallocHooks()),
	)
	dealloc.SetDefault(svc.queue)

	rdb, err := checkpoint.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		svc.log.Warn("redis unavailable, checkpoints go to SQLite only", slog.Any("error", err))
	} else {
		svc.rdb = rdb
		svc.redisStore = checkpoint.NewRedisStore(rdb, checkpoint.RedisConfig{Key: cfg.CheckpointKey})
		svc.prom.ObserveBreaker("redis", svc.redisStore.Breaker())
	}

	if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			svc.log.Warn("cannot create SQLite directory", slog.String("dir", dir), slog.Any("error", err))
		}
	}
	svc.sqliteStore, err = checkpoint.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		svc.log.Warn("sqlite unavailable", slog.Any("error", err))
		svc.sqliteStore = nil
	}

	svc.pipe, err = pipeline.New(pipeline.Config{
		WindowSizes: cfg.ParseWindowSizes(),
		Properties:  cfg.InputProperties,
		Queue:       svc.queue,
		Metrics:     svc.prom,
	})
	if err != nil {
		svc.closeStores()
		_ = svc.queue.Close(ctx)
		return nil, fmt.Errorf("arrayd: %w", err)
	}

	svc.saver = checkpoint.NewSaver(svc.pipe.Registry(), svc.stores()...)
	return svc, nil
}

// stores lists the available stores in restore priority order.
func (svc *Service) stores() []checkpoint.Store {
	var out []checkpoint.Store
	if svc.redisStore != nil {
		out = append(out, svc.redisStore)
	}
	if svc.sqliteStore != nil {
		out = append(out, svc.sqliteStore)
	}
	return out
}

// Run restores the pipeline and serves until ctx is cancelled, then shuts
// down gracefully.
func (svc *Service) Run(ctx context.Context) error {
	source := "cold"
	var restoreErr error
	svc.pipe.Do(func() {
		source, restoreErr = checkpoint.NewRestorer(svc.stores()...).Restore(ctx, svc.pipe.Registry())
	})
	if restoreErr != nil {
		svc.log.Warn("partial restore", slog.Any("error", restoreErr))
	}
	svc.health.SetCheckpointSource(source)

	srv := metrics.NewServer(svc.cfg.MetricsAddr, svc.reg, svc.health)
	srv.Handle("/api/", svc.pipe.NewRouter())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(sctx)
	})
	g.Go(func() error {
		return svc.saver.Run(gctx, svc.cfg.CheckpointInterval, svc.pipe.Do)
	})
	g.Go(func() error {
		return svc.health.RunLivenessChecker(gctx, svc.rdb, svc.sqliteDB(), 10*time.Second)
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				svc.health.SetDeallocPending(svc.queue.Pending())
				svc.health.SetLastCheckpoint(svc.saver.LastSaved())
			}
		}
	})
	if svc.rdb != nil {
		g.Go(func() error {
			if err := svc.pipe.Subscribe(gctx, svc.rdb, svc.cfg.InputChannel, nil); err != nil {
				svc.log.Error("sample subscription ended", slog.Any("error", err))
			}
			return nil
		})
	}

	svc.log.Info("arrayd running",
		slog.String("restored_from", source),
		slog.Any("windows", svc.cfg.ParseWindowSizes()),
		slog.Duration("checkpoint_interval", svc.cfg.CheckpointInterval))

	err := g.Wait()
	svc.shutdown()
	return err
}

func (svc *Service) sqliteDB() *sql.DB {
	if svc.sqliteStore == nil {
		return nil
	}
	return svc.sqliteStore.DB()
}

// shutdown writes a final checkpoint, releases the pipeline and drains the
// deallocation queue.
func (svc *Service) shutdown() {
	svc.log.Info("shutting down, saving final checkpoint")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error
	svc.pipe.Do(func() { err = svc.saver.Save(ctx) })
	if err != nil {
		svc.log.Error("final checkpoint failed", slog.Any("error", err))
	}

	svc.pipe.Close()
	if err := svc.queue.Close(ctx); err != nil {
		svc.log.Warn("dealloc queue not drained", slog.Int("pending", svc.queue.Pending()), slog.Any("error", err))
	}
	svc.closeStores()
	svc.log.Info("shutdown complete")
}

func (svc *Service) closeStores() {
	if svc.sqliteStore != nil {
		svc.sqliteStore.Close()
	}
	if svc.rdb != nil {
		svc.rdb.Close()
	}
}
