package moran

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrastat/lisa-cli/internal/contiguity"
	"github.com/terrastat/lisa-cli/internal/weights"
)

func TestGlobalCheckerboardRandomization(t *testing.T) {
	m, values := checkerboard(t)

	g, err := Global("rate", m, values, Config{Assumption: AssumptionRandomization})
	require.NoError(t, err)

	// Perfect alternation is the theoretical minimum for this lattice.
	assert.Equal(t, 4, g.N)
	assert.InDelta(t, -1, g.I, 1e-12)
	assert.InDelta(t, -1.0/3.0, g.Expected, 1e-12)
	assert.InDelta(t, 2.0/9.0, g.Variance, 1e-12)
	assert.InDelta(t, -1.4142135623730951, g.ZScore, 1e-12)
	assert.Equal(t, string(AssumptionRandomization), g.Assumption)
	assert.Greater(t, g.P, 0.0)
	assert.LessOrEqual(t, g.P, 1.0)
}

func TestGlobalCheckerboardNormality(t *testing.T) {
	m, values := checkerboard(t)

	g, err := Global("rate", m, values, Config{Assumption: AssumptionNormality})
	require.NoError(t, err)

	assert.InDelta(t, -1, g.I, 1e-12)
	assert.InDelta(t, 4.0/45.0, g.Variance, 1e-12)
	assert.InDelta(t, -2.23606797749979, g.ZScore, 1e-12)
	assert.Equal(t, string(AssumptionNormality), g.Assumption)
}

func TestGlobalDefaultsToRandomization(t *testing.T) {
	m, values := checkerboard(t)

	g, err := Global("rate", m, values, Config{})
	require.NoError(t, err)
	assert.Equal(t, string(AssumptionRandomization), g.Assumption)
}

func TestGlobalValidation(t *testing.T) {
	m, values := checkerboard(t)

	t.Run("unknown assumption", func(t *testing.T) {
		_, err := Global("rate", m, values, Config{Assumption: "bayesian"})
		assert.ErrorContains(t, err, "unknown variance assumption")
	})

	t.Run("too few units", func(t *testing.T) {
		g := contiguity.NewGraph([]string{"a", "b"})
		g.AddEdge("a", "b")
		small, err := weights.FromGraph(g, weights.StyleRow, weights.ZeroPolicyFail)
		require.NoError(t, err)

		_, err = Global("rate", small, map[string]float64{"a": 1, "b": 2}, Config{})
		assert.ErrorContains(t, err, "at least 3 units")
	})

	t.Run("randomization needs four units", func(t *testing.T) {
		g := contiguity.NewGraph([]string{"a", "b", "c"})
		g.AddEdge("a", "b")
		g.AddEdge("b", "c")
		small, err := weights.FromGraph(g, weights.StyleRow, weights.ZeroPolicyFail)
		require.NoError(t, err)

		_, err = Global("rate", small, map[string]float64{"a": 1, "b": 2, "c": 4}, Config{Assumption: AssumptionRandomization})
		assert.ErrorContains(t, err, "at least 4 units")
	})

	t.Run("empty matrix", func(t *testing.T) {
		g := contiguity.NewGraph([]string{"a", "b", "c", "d"})
		empty, err := weights.FromGraph(g, weights.StyleRow, weights.ZeroPolicyTolerate)
		require.NoError(t, err)

		_, err = Global("rate", empty, map[string]float64{"a": 1, "b": 2, "c": 3, "d": 4}, Config{})
		assert.ErrorContains(t, err, "empty")
	})

	t.Run("degenerate values", func(t *testing.T) {
		_, err := Global("rate", m, map[string]float64{"a": 5, "b": 5, "c": 5, "d": 5}, Config{})
		assert.ErrorIs(t, err, ErrDegenerate)
	})
}

func TestGlobalDeterministic(t *testing.T) {
	m, values := checkerboard(t)

	first, err := Global("rate", m, values, Config{})
	require.NoError(t, err)
	second, err := Global("rate", m, values, Config{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestStandardize(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	values := map[string]float64{"a": 10, "b": -10, "c": -10, "d": 10}

	z, err := Standardize(ids, values)
	require.NoError(t, err)

	// Sample standard deviation of ±10 around a zero mean.
	assert.InDelta(t, 0.8660254037844386, z["a"], 1e-12)
	assert.InDelta(t, -0.8660254037844386, z["b"], 1e-12)

	var sum float64
	for _, id := range ids {
		sum += z[id]
	}
	assert.InDelta(t, 0, sum, 1e-12)
}
