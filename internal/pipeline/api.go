package pipeline

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/barbagrigia/FinanceSharp-sub001/internal/array"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/checkpoint"
)

// NewRouter serves the pipeline's state:
//
//	GET  /api/v1/stages  every stage as it would be checkpointed
//	GET  /api/v1/highs   recent new maxima, newest first
//	POST /api/v1/reset   clear every stage
func (p *Pipeline) NewRouter() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/stages", func(w http.ResponseWriter, r *http.Request) {
		var snap *checkpoint.Snapshot
		p.Do(func() { snap = p.reg.Capture(time.Now()) })
		writeJSON(w, snap)
	})
	mux.HandleFunc("/api/v1/highs", func(w http.ResponseWriter, r *http.Request) {
		highs := p.Highs()
		rows := make([]checkpoint.Floats, len(highs))
		for i, h := range highs {
			rows[i] = array.Values(h)
		}
		writeJSON(w, rows)
	})
	mux.HandleFunc("/api/v1/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		p.Reset()
		writeJSON(w, map[string]string{"status": "ok"})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
