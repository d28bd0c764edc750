package history

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestWindow_NewestFirst(t *testing.T) {
	w := NewWindow[int](3)
	assert.Equal(t, 3, w.Size())
	assert.False(t, w.IsReady())

	for _, v := range []int{10, 20, 30} {
		w.Add(v)
	}
	assert.True(t, w.IsReady())
	_, err := w.MostRecentlyRemoved()
	assert.ErrorIs(t, err, ErrNoEviction)

	w.Add(40)
	assert.Equal(t, 3, w.Count())
	assert.Equal(t, int64(4), w.Samples())

	newest, err := w.At(0)
	require.NoError(t, err)
	assert.Equal(t, 40, newest)
	oldest, err := w.At(2)
	require.NoError(t, err)
	assert.Equal(t, 20, oldest)

	removed, err := w.MostRecentlyRemoved()
	require.NoError(t, err)
	assert.Equal(t, 10, removed)

	assert.Equal(t, []int{40, 30, 20}, w.Snapshot())
}

func TestWindow_AtBeyondFillLevel(t *testing.T) {
	w := NewWindow[string](4)
	w.Add("a")
	_, err := w.At(1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = w.At(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestWindow_All(t *testing.T) {
	w := NewWindow[int](5)
	for i := 1; i <= 7; i++ {
		w.Add(i)
	}
	var got []int
	w.All()(func(i, v int) bool {
		got = append(got, v)
		return i < 2
	})
	assert.Equal(t, []int{7, 6, 5}, got)
}

func TestWindow_OnEvict(t *testing.T) {
	w := NewWindow[int](2)
	var evicted []int
	w.SetOnEvict(func(v int) { evicted = append(evicted, v) })
	for i := 1; i <= 5; i++ {
		w.Add(i)
	}
	assert.Equal(t, []int{1, 2, 3}, evicted)
}

func TestWindow_Reset(t *testing.T) {
	w := NewWindow[int](2)
	w.Add(1)
	w.Add(2)
	w.Add(3)
	w.Reset()

	assert.Equal(t, 0, w.Count())
	assert.Equal(t, int64(0), w.Samples())
	_, err := w.MostRecentlyRemoved()
	assert.ErrorIs(t, err, ErrNoEviction)

	w.Add(9)
	v, err := w.At(0)
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

func TestNewWindow_RejectsZeroSize(t *testing.T) {
	assert.Panics(t, func() { NewWindow[int](0) })
}

func TestWindow_ConcurrentReadersAndWriter(t *testing.T) {
	w := NewWindow[int](16)
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		for i := 0; i < 5000; i++ {
			w.Add(i)
		}
	}()
	for r := 0; r < 3; r++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				snap := w.Snapshot()
				for j := 1; j < len(snap); j++ {
					if snap[j-1] != snap[j]+1 {
						t.Errorf("snapshot not contiguous: %v", snap)
						return
					}
				}
				_, _ = w.At(0)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(5000), w.Samples())
}

func TestWindow_MatchesNaiveModel_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(1, 8).Draw(t, "size")
		values := rapid.SliceOf(rapid.Int()).Draw(t, "values")

		w := NewWindow[int](size)
		var all []int
		for _, v := range values {
			w.Add(v)
			all = append(all, v)
		}

		want := make([]int, 0, size)
		for i := len(all) - 1; i >= 0 && len(want) < size; i-- {
			want = append(want, all[i])
		}
		got := w.Snapshot()
		if len(got) != len(want) {
			t.Fatalf("count %d, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("at %d: %d, want %d", i, got[i], want[i])
			}
		}
		if len(all) > size {
			removed, err := w.MostRecentlyRemoved()
			if err != nil || removed != all[len(all)-size-1] {
				t.Fatalf("removed %d (%v), want %d", removed, err, all[len(all)-size-1])
			}
		}
	})
}
