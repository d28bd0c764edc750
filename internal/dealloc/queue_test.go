package dealloc

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closeQueue(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Close(ctx))
}

func TestQueue_RunsReleasesInFIFOOrder(t *testing.T) {
	q := New()
	defer closeQueue(t, q)

	var mu sync.Mutex
	var order []int
	for i := 0; i < 500; i++ {
		i := i
		q.Post(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Drain(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 500)
	for i, v := range order {
		if v != i {
			t.Fatalf("at index %d: expected %d, got %d", i, i, v)
		}
	}
	assert.Equal(t, uint64(500), q.Released())
	assert.Equal(t, 0, q.Pending())
}

func TestQueue_PostDoesNotWaitForRelease(t *testing.T) {
	q := New()
	defer closeQueue(t, q)

	gate := make(chan struct{})
	q.Post(func() { <-gate })

	start := time.Now()
	for i := 0; i < 1000; i++ {
		q.Post(func() {})
	}
	elapsed := time.Since(start)
	close(gate)

	if elapsed > time.Second {
		t.Fatalf("posting behind a blocked release took %v", elapsed)
	}
}

func TestQueue_DrainWaitsForInFlightRelease(t *testing.T) {
	q := New()
	defer closeQueue(t, q)

	var done atomic.Bool
	q.Post(func() {
		time.Sleep(20 * time.Millisecond)
		done.Store(true)
	})

	require.NoError(t, q.Drain(context.Background()))
	assert.True(t, done.Load())
}

func TestQueue_DrainHonoursContext(t *testing.T) {
	q := New()
	gate := make(chan struct{})
	q.Post(func() { <-gate })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Drain(ctx), context.DeadlineExceeded)

	close(gate)
	closeQueue(t, q)
}

func TestQueue_PanickingReleaseIsContained(t *testing.T) {
	q := New()
	defer closeQueue(t, q)

	var ran atomic.Bool
	q.Post(func() { panic("boom") })
	q.Post(func() { ran.Store(true) })

	require.NoError(t, q.Drain(context.Background()))
	assert.True(t, ran.Load())
	assert.Equal(t, uint64(1), q.Failed())
	assert.Equal(t, uint64(2), q.Released())
}

func TestQueue_CloseDrainsThenRunsLatePostsInline(t *testing.T) {
	q := New()
	var count atomic.Int64
	for i := 0; i < 100; i++ {
		q.Post(func() { count.Add(1) })
	}
	closeQueue(t, q)
	assert.Equal(t, int64(100), count.Load())

	q.Post(func() { count.Add(1) })
	assert.Equal(t, int64(101), count.Load())

	// second close is a no-op
	require.NoError(t, q.Close(context.Background()))
	require.NoError(t, q.Drain(context.Background()))
}

func TestQueue_Hooks(t *testing.T) {
	var enqueued, released atomic.Int64
	q := New(WithHooks(Hooks{
		OnEnqueue: func(int) { enqueued.Add(1) },
		OnRelease: func(time.Duration, int) { released.Add(1) },
	}), WithBacklogWarn(2))
	defer closeQueue(t, q)

	for i := 0; i < 10; i++ {
		q.Post(func() {})
	}
	q.Post(nil)
	require.NoError(t, q.Drain(context.Background()))

	assert.Equal(t, int64(10), enqueued.Load())
	assert.Equal(t, int64(10), released.Load())
	assert.Equal(t, uint64(10), q.Posted())
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := New()
	defer closeQueue(t, q)

	const producers, each = 8, 1000
	var count atomic.Int64
	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				q.Post(func() { count.Add(1) })
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("producers timed out")
	}

	require.NoError(t, q.Drain(context.Background()))
	assert.Equal(t, int64(producers*each), count.Load())
}

func TestDefault_IsSharedUntilReplaced(t *testing.T) {
	a := Default()
	assert.Same(t, a, Default())

	mine := New()
	prev := SetDefault(mine)
	assert.Same(t, a, prev)
	assert.Same(t, mine, Default())

	SetDefault(prev)
	closeQueue(t, mine)
}

func TestFIFO_GrowPreservesOrder(t *testing.T) {
	f := newFIFO(2)
	f.push(token{release: func() {}})
	f.pop()

	barriers := make([]chan struct{}, 9)
	for i := range barriers {
		barriers[i] = make(chan struct{})
		f.push(token{barrier: barriers[i]})
	}
	assert.Equal(t, 9, f.len())
	assert.Equal(t, 0, f.releases)
	for i := range barriers {
		tok, ok := f.pop()
		require.True(t, ok)
		if tok.barrier != barriers[i] {
			t.Fatalf("pop %d returned the wrong token", i)
		}
	}
	_, ok := f.pop()
	assert.False(t, ok)
}

func TestNextPow2(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {5, 8}, {64, 64}, {65, 128},
	}
	for _, tc := range cases {
		if got := nextPow2(tc.in); got != tc.want {
			t.Errorf("nextPow2(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
