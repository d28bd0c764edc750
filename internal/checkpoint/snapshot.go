// Package checkpoint saves and restores the state of long-running stages so
// a restarted process resumes warm instead of refilling every window.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// Version is the schema version written into every Snapshot.
const Version = 1

// Stage kinds.
const (
	KindArrayWindow = "array_window"
	KindExtremum    = "extremum"
)

// ErrKindMismatch is returned when a saved stage has the name of a
// registered stage but a different kind.
var ErrKindMismatch = errors.New("checkpoint: stage kind mismatch")

// Snapshot is the saved state of every registered stage.
type Snapshot struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	Stages  []StageSnapshot `json:"stages"`
}

// StageSnapshot is the saved state of one stage. Values holds the stage's
// current array row by row; Removed is only meaningful for windows.
type StageSnapshot struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Time       int64  `json:"time"`
	Samples    int    `json:"samples"`
	Count      int    `json:"count"`
	Properties int    `json:"properties"`
	Values     Floats `json:"values,omitempty"`
	Removed    Floats `json:"removed,omitempty"`
	HasRemoved bool   `json:"has_removed,omitempty"`
}

// Snapshottable is a stage that can be checkpointed.
type Snapshottable interface {
	Kind() string
	Snapshot() StageSnapshot
	Restore(StageSnapshot) error
}

// Floats is a float slice whose JSON form keeps NaN and infinities, which
// encoding/json rejects, as the strings "NaN", "+Inf" and "-Inf".
type Floats []float64

func (f Floats) MarshalJSON() ([]byte, error) {
	out := make([]any, len(f))
	for i, v := range f {
		switch {
		case math.IsNaN(v):
			out[i] = "NaN"
		case math.IsInf(v, 1):
			out[i] = "+Inf"
		case math.IsInf(v, -1):
			out[i] = "-Inf"
		default:
			out[i] = v
		}
	}
	return json.Marshal(out)
}

func (f *Floats) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*f = nil
		return nil
	}
	out := make(Floats, len(raw))
	for i, r := range raw {
		if len(r) > 0 && r[0] == '"' {
			var s string
			if err := json.Unmarshal(r, &s); err != nil {
				return err
			}
			switch s {
			case "NaN":
				out[i] = math.NaN()
			case "+Inf":
				out[i] = math.Inf(1)
			case "-Inf":
				out[i] = math.Inf(-1)
			default:
				return fmt.Errorf("checkpoint: bad float %q", s)
			}
			continue
		}
		if err := json.Unmarshal(r, &out[i]); err != nil {
			return err
		}
	}
	*f = out
	return nil
}

func encode(snap *Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
