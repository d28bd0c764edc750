package checkpoint

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry names the stages that take part in checkpoints.
//
// Capture and Apply read and write stage state, so they must run on the
// goroutine that drives the stages, or while the stages are idle.
type Registry struct {
	mu     sync.Mutex
	stages map[string]Snapshottable
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]Snapshottable)}
}

// Register adds s under name. Names are unique.
func (r *Registry) Register(name string, s Snapshottable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.stages[name]; dup {
		return fmt.Errorf("checkpoint: stage %q already registered", name)
	}
	r.stages[name] = s
	return nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.stages))
	for n := range r.stages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Capture snapshots every registered stage.
func (r *Registry) Capture(now time.Time) *Snapshot {
	names := r.Names()
	snap := &Snapshot{Version: Version, SavedAt: now.UTC(), Stages: make([]StageSnapshot, 0, len(names))}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range names {
		s := r.stages[n].Snapshot()
		s.Name = n
		snap.Stages = append(snap.Stages, s)
	}
	return snap
}

// ApplyResult counts how Apply treated the registered stages.
type ApplyResult struct {
	Restored int // stages restored from the snapshot
	Cold     int // stages absent from the snapshot or whose restore failed
	Skipped  int // saved stages with no registered counterpart
}

// Apply restores every registered stage found in snap, matched by name.
// A stage whose kind or shape no longer matches stays cold and its error is
// joined into the returned error; the other stages are still restored.
func (r *Registry) Apply(snap *Snapshot) (ApplyResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		res  ApplyResult
		errs []error
		seen = make(map[string]bool, len(snap.Stages))
	)
	for _, s := range snap.Stages {
		st, ok := r.stages[s.Name]
		if !ok {
			res.Skipped++
			continue
		}
		seen[s.Name] = true
		if st.Kind() != s.Kind {
			errs = append(errs, fmt.Errorf("%w: %q saved as %s, registered as %s", ErrKindMismatch, s.Name, s.Kind, st.Kind()))
			res.Cold++
			continue
		}
		if err := st.Restore(s); err != nil {
			errs = append(errs, fmt.Errorf("stage %q: %w", s.Name, err))
			res.Cold++
			continue
		}
		res.Restored++
	}
	for n := range r.stages {
		if !seen[n] {
			res.Cold++
		}
	}
	return res, errors.Join(errs...)
}
