package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var labels = []int{1, 2, 3, 4}

func TestQuantile_DistinctSeries(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50, 60, 70, 80}

	scores := Quantile(values, labels, false)

	assert.Equal(t, []int{1, 1, 2, 2, 3, 3, 4, 4}, scores)
}

func TestQuantile_ExtremesGetExtremeLabels(t *testing.T) {
	values := []float64{5, 1, 9, 3, 7, 2, 8, 4, 6, 0}

	scores := Quantile(values, labels, false)

	for i, v := range values {
		if v == 0 {
			assert.Equal(t, 1, scores[i], "minimum value should get the lowest label")
		}
		if v == 9 {
			assert.Equal(t, 4, scores[i], "maximum value should get the highest label")
		}
	}
}

func TestQuantile_Reverse(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50, 60, 70, 80}

	forward := Quantile(values, labels, false)
	reversed := Quantile(values, labels, true)

	for i := range values {
		assert.Equal(t, 5-forward[i], reversed[i], "reverse should mirror the label range")
	}
}

func TestQuantile_ReverseTwiceRestoresLabels(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5}

	once := Quantile(values, labels, true)
	for i, label := range once {
		again := 1 + 4 - label
		assert.Equal(t, Quantile(values, labels, false)[i], again)
	}
}

func TestQuantile_ConstantSeries(t *testing.T) {
	values := []float64{7, 7, 7, 7, 7}

	t.Run("forward", func(t *testing.T) {
		scores := Quantile(values, labels, false)
		assert.Equal(t, []int{1, 1, 1, 1, 1}, scores)
	})

	t.Run("reversed matches forward", func(t *testing.T) {
		scores := Quantile(values, labels, true)
		assert.Equal(t, []int{1, 1, 1, 1, 1}, scores, "a constant series has no ordering to flip")
	})
}

func TestQuantile_TiedSeriesCollapsesBins(t *testing.T) {
	// Order frequency in practice: half the customers have one order, so
	// quartile edges collapse and only three bins survive. The surviving
	// ranks must still be stretched over the full label range.
	values := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6}

	scores := Quantile(values, labels, false)

	for i := 0; i < 10; i++ {
		assert.Equal(t, 1, scores[i], "the dominant tie should take the lowest label")
	}
	assert.Equal(t, 4, scores[18], "the largest values should still reach the highest label")
	assert.Equal(t, 4, scores[19])
}

func TestQuantile_AllTiedSeries(t *testing.T) {
	// With almost every value identical only one bin survives, which is the
	// constant-series case: everyone gets the lowest label.
	values := make([]float64, 100)
	for i := range values {
		values[i] = 1
	}
	values[99] = 8

	scores := Quantile(values, labels, false)

	for _, s := range scores {
		assert.Equal(t, 1, s)
	}
}

func TestQuantile_NaNGetsLowestLabel(t *testing.T) {
	values := []float64{10, math.NaN(), 30, 40, 50, 60, 70, 80}

	scores := Quantile(values, labels, false)

	assert.Equal(t, 1, scores[1])
}

func TestQuantile_SingleValue(t *testing.T) {
	scores := Quantile([]float64{42}, labels, false)

	assert.Equal(t, []int{1}, scores)
}

func TestQuantile_EmptySeries(t *testing.T) {
	scores := Quantile(nil, labels, false)

	assert.Empty(t, scores)
}

func TestQuantile_CustomLabels(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50, 60}
	scores := Quantile(values, []int{1, 2, 3, 4, 5}, false)

	assert.Equal(t, 1, scores[0])
	assert.Equal(t, 5, scores[5])
}
