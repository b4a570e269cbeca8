package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineIdentical(t *testing.T) {
	sim, err := Cosine([]float64{1, 2, 3}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestCosineOrthogonal(t *testing.T) {
	sim, err := Cosine([]float64{1, 0}, []float64{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)
}

func TestCosineOpposite(t *testing.T) {
	sim, err := Cosine([]float64{1, 0}, []float64{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-9)
}

func TestCosineDimensionMismatch(t *testing.T) {
	_, err := Cosine([]float64{1, 2}, []float64{1, 2, 3})
	require.Error(t, err)
	assert.True(t, IsDimensionMismatch(err))
	var dimErr *DimensionMismatchError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 2, dimErr.Want)
	assert.Equal(t, 3, dimErr.Got)
}

func TestCosineZeroMagnitude(t *testing.T) {
	sim, err := Cosine([]float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func TestCentroidIsArithmeticMean(t *testing.T) {
	c := Centroid([][]float64{{0, 0}, {2, 4}})
	assert.Equal(t, []float64{1, 2}, c)
}

func TestCohesionSingleVectorIsOne(t *testing.T) {
	coh, err := Cohesion([][]float64{{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, coh)
}

func TestCohesionIdenticalVectorsIsOne(t *testing.T) {
	coh, err := Cohesion([][]float64{{1, 0}, {1, 0}, {1, 0}})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, coh, 1e-9)
}
