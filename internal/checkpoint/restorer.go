package checkpoint

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// Store persists snapshots.
type Store interface {
	Name() string
	Save(ctx context.Context, snap *Snapshot) error
	// Load returns nil and no error when nothing is stored.
	Load(ctx context.Context) (*Snapshot, error)
}

// Restorer warms a Registry from the first store, in priority order, that
// holds a snapshot. If none does the stages cold start.
type Restorer struct {
	stores []Store
	log    *slog.Logger
}

// NewRestorer tries stores in the given order; nil stores are ignored.
func NewRestorer(stores ...Store) *Restorer {
	r := &Restorer{log: slog.Default().With(slog.String("component", "restorer"))}
	for _, s := range stores {
		if s != nil {
			r.stores = append(r.stores, s)
		}
	}
	return r
}

// Restore applies the first snapshot found and returns the name of the
// store it came from, or "cold". A store that fails to load is logged and
// skipped. Per-stage restore failures are returned alongside the source;
// the remaining stages are restored regardless.
func (r *Restorer) Restore(ctx context.Context, reg *Registry) (string, error) {
	for _, s := range r.stores {
		snap, err := s.Load(ctx)
		if err != nil {
			r.log.Warn("checkpoint load failed", slog.String("source", s.Name()), slog.Any("error", err))
			continue
		}
		if snap == nil {
			continue
		}
		res, err := reg.Apply(snap)
		r.log.Info("restored from checkpoint",
			slog.String("source", s.Name()),
			slog.Int("version", snap.Version),
			slog.Time("saved_at", snap.SavedAt),
			slog.Int("restored", res.Restored),
			slog.Int("cold", res.Cold),
			slog.Int("skipped", res.Skipped))
		if err != nil {
			r.log.Warn("some stages cold started", slog.Any("error", err))
		}
		return s.Name(), err
	}
	r.log.Info("no checkpoint found, cold starting", slog.Int("stages", len(reg.Names())))
	return "cold", nil
}

// Saver writes registry snapshots to every store.
type Saver struct {
	reg       *Registry
	stores    []Store
	log       *slog.Logger
	now       func() time.Time
	lastSaved atomic.Int64 // unix nanos of the last successful Save
}

// NewSaver saves reg to stores; nil stores are ignored.
func NewSaver(reg *Registry, stores ...Store) *Saver {
	s := &Saver{reg: reg, log: slog.Default().With(slog.String("component", "checkpoint")), now: time.Now}
	for _, st := range stores {
		if st != nil {
			s.stores = append(s.stores, st)
		}
	}
	return s
}

// Save captures one snapshot and writes it to every store. It fails only
// if every store failed.
func (s *Saver) Save(ctx context.Context) error {
	snap := s.reg.Capture(s.now())
	var errs []error
	for _, st := range s.stores {
		if err := st.Save(ctx, snap); err != nil {
			s.log.Warn("checkpoint save failed", slog.String("store", st.Name()), slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	if len(s.stores) > 0 && len(errs) == len(s.stores) {
		return errors.Join(errs...)
	}
	s.lastSaved.Store(snap.SavedAt.UnixNano())
	s.log.Debug("checkpoint saved", slog.Int("stages", len(snap.Stages)))
	return nil
}

// LastSaved returns when the last successful Save captured its snapshot,
// or the zero time.
func (s *Saver) LastSaved() time.Time {
	n := s.lastSaved.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Run saves every interval until ctx is done. capture wraps each Save so
// the caller can run it where the stages are driven; pass nil to call Save
// directly.
func (s *Saver) Run(ctx context.Context, interval time.Duration, capture func(save func())) error {
	if capture == nil {
		capture = func(save func()) { save() }
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}
			capture(func() { _ = s.Save(ctx) })
		}
	}
}
