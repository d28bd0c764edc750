package updatable

import (
	"math"
	"testing"

	"github.com/barbagrigia/FinanceSharp-sub001/internal/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtremum_MaxSuppressesUnchangedUpdates(t *testing.T) {
	hi, err := NewMax(1, 0)
	require.NoError(t, err)

	var seen []float64
	var times []int64
	hi.OnUpdated(func(time int64, v array.Array) {
		seen = append(seen, v.Value(0))
		times = append(times, time)
	})

	for i, v := range []float64{1, 2, 3, 2, 1} {
		ready := hi.Update(int64(i+1), array.NewScalar(v))
		assert.True(t, ready)
	}

	assert.Equal(t, []float64{1, 2, 3}, seen)
	assert.Equal(t, []int64{1, 2, 3}, times)
	assert.Equal(t, 5, hi.Samples())
	assert.Equal(t, int64(3), hi.CurrentTime())
	assert.Equal(t, 3.0, hi.Current().Value(0))
	assert.False(t, hi.Changed())
}

func TestExtremum_MinTakesFirstSample(t *testing.T) {
	lo, err := NewMin(1, 0)
	require.NoError(t, err)
	assert.Equal(t, Uninitialized, PhaseOf(lo))
	assert.False(t, lo.IsReady())
	assert.Nil(t, lo.Current())

	// a zero sentinel must not beat a positive first sample
	lo.Update(10, array.NewScalar(5))
	assert.True(t, lo.Changed())
	assert.Equal(t, 5.0, lo.Current().Value(0))
	assert.Equal(t, Ready, PhaseOf(lo))

	lo.Update(11, array.NewScalar(7))
	assert.False(t, lo.Changed())
	lo.Update(12, array.NewScalar(4))
	assert.True(t, lo.Changed())
	assert.Equal(t, int64(12), lo.CurrentPoint().Time)
}

func TestExtremum_TiesAndNaNKeepRetained(t *testing.T) {
	hi, err := NewMax(1, 0)
	require.NoError(t, err)

	hi.Update(1, array.NewScalar(3))
	hi.Update(2, array.NewScalar(3))
	assert.False(t, hi.Changed(), "a tie keeps the older point")
	hi.Update(3, array.NewScalar(math.NaN()))
	assert.False(t, hi.Changed())
	assert.Equal(t, int64(1), hi.CurrentTime())
}

func TestExtremum_LeadingNaNIsReplaced(t *testing.T) {
	hi, err := NewMax(1, 0)
	require.NoError(t, err)
	lo, err := NewMin(1, 0)
	require.NoError(t, err)

	for i, v := range []float64{math.NaN(), 1, 5, 9} {
		hi.Update(int64(i+1), array.NewScalar(v))
		lo.Update(int64(i+1), array.NewScalar(v))
	}
	assert.Equal(t, 9.0, hi.Current().Value(0))
	assert.Equal(t, int64(4), hi.CurrentTime())
	assert.Equal(t, 1.0, lo.Current().Value(0))
	assert.Equal(t, int64(2), lo.CurrentTime())
	assert.Equal(t, 4, hi.Samples())
}

func TestExtremum_SameTimestampStillCountsAsChange(t *testing.T) {
	hi, err := NewMax(1, 0)
	require.NoError(t, err)

	notified := 0
	hi.OnUpdated(func(int64, array.Array) { notified++ })

	hi.Update(5, array.NewScalar(1))
	hi.Update(5, array.NewScalar(0))
	hi.Update(5, array.NewScalar(2))
	assert.Equal(t, 2, notified, "change detection does not depend on timestamps")
}

func TestExtremum_RetainsPrivateCopy(t *testing.T) {
	hi, err := NewMax(2, 1)
	require.NoError(t, err)

	in := array.Vector(10, 20)
	hi.Update(1, in)
	in.SetValue(1, 0)
	assert.Equal(t, 20.0, hi.Current().Value(1))
	assert.Equal(t, 2, hi.Current().Properties())
}

func TestExtremum_ComparesChosenProperty(t *testing.T) {
	hi, err := NewMax(2, 1)
	require.NoError(t, err)
	hi.Update(1, array.Vector(100, 1))
	hi.Update(2, array.Vector(0, 2))
	assert.Equal(t, int64(2), hi.CurrentTime())
}

func TestExtremum_Reset(t *testing.T) {
	hi, err := NewMax(1, 0)
	require.NoError(t, err)

	var resetBy Updatable
	hi.OnResetted(func(u Updatable) { resetBy = u })

	hi.Update(1, array.NewScalar(9))
	hi.Reset()

	assert.Same(t, hi, resetBy)
	assert.Equal(t, 0, hi.Samples())
	assert.False(t, hi.IsReady())
	assert.Nil(t, hi.Current())
	assert.Equal(t, int64(0), hi.CurrentTime())
	assert.Equal(t, Point{}, hi.CurrentPoint())

	hi.Update(2, array.NewScalar(-1))
	assert.Equal(t, -1.0, hi.Current().Value(0), "after reset the next sample is taken")
}

func TestExtremum_Restore(t *testing.T) {
	hi, err := NewMax(1, 0)
	require.NoError(t, err)
	hi.Restore(Point{Time: 7, Value: array.NewScalar(4)}, 12)

	assert.Equal(t, 12, hi.Samples())
	assert.True(t, hi.IsReady())
	hi.Update(8, array.NewScalar(3))
	assert.Equal(t, int64(7), hi.CurrentTime())
	assert.Equal(t, 13, hi.Samples())
}

func TestExtremum_RejectsBadInput(t *testing.T) {
	_, err := NewExtremum(1, nil)
	assert.Error(t, err)
	_, err = NewMax(0, 0)
	assert.ErrorIs(t, err, array.ErrShapeMismatch)

	hi, err := NewMax(2, 0)
	require.NoError(t, err)
	assert.Panics(t, func() { hi.Update(1, array.NewScalar(1)) })
	assert.Panics(t, func() { hi.Update(1, nil) })
	assert.Equal(t, 0, hi.Samples())
}
