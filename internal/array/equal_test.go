package array

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEqual_NaNHandling(t *testing.T) {
	nan := math.NaN()

	a := Vector(1, nan, 3)
	b := Vector(1, nan, 3)
	assert.True(t, Equal(a, b), "NaN at the same position is equal")

	c := Vector(1, 2, 3)
	assert.False(t, Equal(a, c), "NaN against a number is unequal")
	assert.False(t, Equal(c, a))

	assert.True(t, Equal(NewScalar(nan), NewScalar(nan)))
	assert.False(t, Equal(NewScalar(nan), NewScalar(0)))
}

func TestEqual_ShapeMustMatch(t *testing.T) {
	a, err := FromValues(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	b, err := FromValues(1, 4, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.False(t, Equal(a, b))

	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(a, nil))
}

func TestEqual_CrossVariantFallsBackToValues(t *testing.T) {
	flat, err := FromValues(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	grid, err := GridFromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	recs, err := NewRecords(point{1, 2}, point{3, 4})
	require.NoError(t, err)
	slice := Column(0, 1, 2, 3, 4).Slice(1, 4)
	reshaped, err := slice.Reshape(2, 2, true)
	require.NoError(t, err)

	for _, other := range []Array{grid, recs, reshaped} {
		assert.True(t, Equal(flat, other), other.Kind().String())
		assert.True(t, Equal(other, flat), other.Kind().String())
	}

	_, known := equalStructural(flat, grid)
	assert.False(t, known, "different variants have no structural verdict")

	grid.Set(1, 1, 5)
	assert.False(t, Equal(flat, grid))
	assert.True(t, Equal(NewScalar(3), Vector(3)))
}

func TestEqual_NaN_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 32).Draw(t, "n")
		at := rapid.IntRange(0, n-1).Draw(t, "at")
		values := make([]float64, n)
		for i := range values {
			values[i] = float64(rapid.IntRange(-1000, 1000).Draw(t, "v"))
		}
		a := Vector(values...)
		b := Vector(values...)
		a.SetLinear(at, math.NaN())
		if Equal(a, b) {
			t.Fatalf("NaN at %d compared equal to %v", at, b.GetLinear(at))
		}
		b.SetLinear(at, math.NaN())
		if !Equal(a, b) {
			t.Fatalf("NaN at %d on both sides compared unequal", at)
		}
	})
}
