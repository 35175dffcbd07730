package dataprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vizpipe/internal/shared/testutil"
	"vizpipe/pkg/contracts/domain"
)

func ptr(v float64) *float64 { return &v }

func TestNewQuantileScale(t *testing.T) {
	t.Run("rejects empty input", func(t *testing.T) {
		_, err := NewQuantileScale(nil, 5)
		assert.ErrorIs(t, err, ErrEmptyScale)

		_, err = NewQuantileScale([]float64{math.NaN(), math.Inf(1)}, 5)
		assert.ErrorIs(t, err, ErrEmptyScale)

		_, err = NewQuantileScale([]float64{1, 2}, 0)
		assert.ErrorIs(t, err, ErrEmptyScale)
	})

	t.Run("thresholds ascend within the data range", func(t *testing.T) {
		values := []float64{90, 10, 50, 30, 70, 20, 80, 40, 60, 100}
		scale, err := NewQuantileScale(values, 5)
		require.NoError(t, err)

		th := scale.Thresholds()
		require.Len(t, th, 4)
		assert.True(t, th[0] >= 10 && th[3] <= 100)
		for i := 1; i < len(th); i++ {
			assert.LessOrEqual(t, th[i-1], th[i])
		}
		assert.InDelta(t, 55, (th[1]+th[2])/2, 1e-9, "symmetric breaks around the median")
		assert.Equal(t, 5, scale.Classes())
	})

	t.Run("single class has no thresholds", func(t *testing.T) {
		scale, err := NewQuantileScale([]float64{3, 1}, 1)
		require.NoError(t, err)
		assert.Empty(t, scale.Thresholds())
		assert.Equal(t, 0, scale.Classify(ptr(1000)))
	})
}

func TestQuantileScale_Classify(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1)
	}
	scale, err := NewQuantileScale(values, 4)
	require.NoError(t, err)

	assert.Equal(t, NoDataClass, scale.Classify(nil))
	assert.Equal(t, NoDataClass, scale.Classify(ptr(math.NaN())))
	assert.Equal(t, 0, scale.Classify(ptr(-5)))
	assert.Equal(t, 0, scale.Classify(ptr(1)))
	assert.Equal(t, 3, scale.Classify(ptr(100)))
	assert.Equal(t, 3, scale.Classify(ptr(1e9)))

	// equal-population classes
	counts := make([]int, 4)
	for _, v := range values {
		counts[scale.Classify(ptr(v))]++
	}
	for class, n := range counts {
		assert.InDelta(t, 25, n, 1, "class %d", class)
	}

	// monotone
	prev := 0
	for _, v := range values {
		c := scale.Classify(ptr(v))
		assert.GreaterOrEqual(t, c, prev)
		prev = c
	}
}

func TestClassifyTargets(t *testing.T) {
	targets := []domain.JoinTarget{
		testutil.Region("CA").WithValue(500),
		testutil.Region("TX").WithValue(10),
		testutil.Region("WY"),
	}

	values := JoinedValues(targets)
	assert.ElementsMatch(t, []float64{500, 10}, values)

	scale, err := NewQuantileScale(values, 2)
	require.NoError(t, err)

	classified := scale.ClassifyTargets(targets)
	require.Len(t, classified, 3)
	assert.Equal(t, 1, classified[0].Class)
	assert.Equal(t, 0, classified[1].Class)
	assert.Equal(t, NoDataClass, classified[2].Class)
	assert.Equal(t, "WY", classified[2].Key)
}
