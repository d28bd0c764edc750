package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barbagrigia/FinanceSharp-sub001/internal/array"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/checkpoint"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/dealloc"
	"github.com/barbagrigia/FinanceSharp-sub001/internal/metrics"
)

func newQueue(t *testing.T) *dealloc.Queue {
	t.Helper()
	q := dealloc.New()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, q.Close(ctx))
	})
	return q
}

func newPipeline(t *testing.T, m *metrics.Metrics) (*Pipeline, *dealloc.Queue) {
	t.Helper()
	q := newQueue(t)
	p, err := New(Config{WindowSizes: []int{2, 4}, Properties: 2, HighsKept: 3, Queue: q, Metrics: m})
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p, q
}

func TestPipeline_Feed(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	p, _ := newPipeline(t, m)

	for i, v := range []float64{5, 7, 6, 9, 1} {
		require.NoError(t, p.Feed(Sample{Time: int64(i + 1), Values: []float64{v, -v}}))
	}
	assert.Equal(t, int64(5), p.Fed())

	var snap *checkpoint.Snapshot
	p.Do(func() { snap = p.Registry().Capture(time.Now()) })
	byName := map[string]checkpoint.StageSnapshot{}
	for _, s := range snap.Stages {
		byName[s.Name] = s
	}
	assert.Equal(t, checkpoint.Floats{1, -1, 9, -9}, byName["window_2"].Values)
	assert.Equal(t, checkpoint.Floats{6, -6}, byName["window_2"].Removed)
	assert.Equal(t, checkpoint.Floats{1, -1, 9, -9, 6, -6, 7, -7}, byName["window_4"].Values)
	assert.Equal(t, checkpoint.Floats{9, -9}, byName["max"].Values)
	assert.Equal(t, int64(4), byName["max"].Time)
	assert.Equal(t, checkpoint.Floats{1, -1}, byName["min"].Values)

	highs := p.Highs()
	require.Len(t, highs, 3)
	assert.Equal(t, []float64{9, -9}, array.Values(highs[0]))
	assert.Equal(t, []float64{5, -5}, array.Values(highs[2]))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.WindowEvictions.WithLabelValues("window_2")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.StageUpdates.WithLabelValues("window_4")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.StageUpdates.WithLabelValues("max")))
}

func TestPipeline_RejectsBadSamples(t *testing.T) {
	p, _ := newPipeline(t, nil)
	assert.ErrorIs(t, p.Feed(Sample{Values: []float64{1}}), ErrBadSample)
	assert.Equal(t, int64(0), p.Fed())
}

func TestPipeline_CheckpointRoundTrip(t *testing.T) {
	src, _ := newPipeline(t, nil)
	for i := 1; i <= 6; i++ {
		require.NoError(t, src.Feed(Sample{Time: int64(i), Values: []float64{float64(i), 0}}))
	}
	var snap *checkpoint.Snapshot
	src.Do(func() { snap = src.Registry().Capture(time.Now()) })

	dst, _ := newPipeline(t, nil)
	var res checkpoint.ApplyResult
	var err error
	dst.Do(func() { res, err = dst.Registry().Apply(snap) })
	require.NoError(t, err)
	assert.Equal(t, 4, res.Restored)

	require.NoError(t, src.Feed(Sample{Time: 7, Values: []float64{0.5, 0}}))
	require.NoError(t, dst.Feed(Sample{Time: 7, Values: []float64{0.5, 0}}))
	var a, b *checkpoint.Snapshot
	src.Do(func() { a = src.Registry().Capture(time.Unix(0, 0)) })
	dst.Do(func() { b = dst.Registry().Capture(time.Unix(0, 0)) })
	assert.Equal(t, a, b, "restored pipeline continues identically")
}

func TestPipeline_ResetAndClose(t *testing.T) {
	q := newQueue(t)
	p, err := New(Config{WindowSizes: []int{3}, Properties: 1, Queue: q})
	require.NoError(t, err)
	require.NoError(t, p.Feed(Sample{Time: 1, Values: []float64{2}}))

	p.Reset()
	assert.Equal(t, int64(0), p.Fed())
	assert.Empty(t, p.Highs())

	p.Close()
	require.NoError(t, q.Drain(context.Background()))
	assert.Equal(t, uint64(1), q.Released(), "input buffer released on the queue")
	assert.Error(t, p.Feed(Sample{Time: 2, Values: []float64{3}}))
}

func TestNew_RequiresWindows(t *testing.T) {
	_, err := New(Config{Properties: 1})
	assert.Error(t, err)
}

func TestPipeline_Subscribe(t *testing.T) {
	p, _ := newPipeline(t, nil)
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- p.Subscribe(ctx, rdb, "samples", ready) }()

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("subscription not confirmed")
	}

	mr.Publish("samples", `{"time":1,"values":[3,4]}`)
	mr.Publish("samples", `not json`)
	mr.Publish("samples", `{"time":2,"values":[1]}`)
	mr.Publish("samples", `{"time":3,"values":[8,1]}`)

	deadline := time.After(5 * time.Second)
	for p.Fed() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected 2 samples fed, got %d", p.Fed())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not stop")
	}
	assert.Equal(t, []float64{8, 1}, array.Values(p.Highs()[0]))
}

func TestRouter(t *testing.T) {
	p, _ := newPipeline(t, nil)
	require.NoError(t, p.Feed(Sample{Time: 1, Values: []float64{4, 2}}))
	srv := httptest.NewServer(p.NewRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/stages")
	require.NoError(t, err)
	var snap checkpoint.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	resp.Body.Close()
	assert.Len(t, snap.Stages, 4)

	resp, err = http.Get(srv.URL + "/api/v1/highs")
	require.NoError(t, err)
	var highs [][]float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&highs))
	resp.Body.Close()
	assert.Equal(t, [][]float64{{4, 2}}, highs)

	resp, err = http.Get(srv.URL + "/api/v1/reset")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/v1/reset", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(0), p.Fed())
}
