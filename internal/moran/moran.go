// Package moran computes local and global Moran's I spatial autocorrelation
// statistics over row-standardized spatial weights.
//
// The local engine uses the analytic expectation and variance under the
// randomization (conditional permutation) assumption throughout; the global
// engine supports both the randomization and normality variance assumptions,
// selected by configuration and held fixed across variables.
package moran

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Assumption selects the variance model used for significance testing.
type Assumption string

const (
	AssumptionRandomization Assumption = "randomization"
	AssumptionNormality     Assumption = "normality"
)

// Method selects how local significance is estimated.
type Method string

const (
	// MethodAnalytic derives Z and p from the analytic moments; deterministic.
	MethodAnalytic Method = "analytic"
	// MethodPermutation estimates a pseudo p-value by conditional permutation
	// with a fixed seed for reproducibility.
	MethodPermutation Method = "permutation"
)

// DefaultPermutations is the conditional permutation count when none is configured.
const DefaultPermutations = 999

// Config holds the inference settings shared by both engines.
type Config struct {
	Method       Method
	Assumption   Assumption
	Permutations int
	Seed         uint64
	Workers      int
}

// ErrDegenerate is returned when all unit values are identical, which leaves
// standardization undefined. Callers must treat this as a fatal input error
// instead of letting NaN propagate into cluster labels.
var ErrDegenerate = eris.New("moran: degenerate input: zero variance across units")

// Standardize converts the values in graph order to z-scores with zero mean
// and unit variance, using the sample (n-1 denominator) standard deviation.
func Standardize(ids []string, values map[string]float64) (map[string]float64, error) {
	xs := make([]float64, len(ids))
	for i, id := range ids {
		xs[i] = values[id]
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if std == 0 || math.IsNaN(std) {
		return nil, eris.Wrapf(ErrDegenerate, "standardizing %d values", len(ids))
	}
	z := make(map[string]float64, len(ids))
	for _, id := range ids {
		z[id] = (values[id] - mean) / std
	}
	return z, nil
}

// twoSidedP returns the two-sided standard normal p-value for a z-score.
func twoSidedP(z float64) float64 {
	p := 2 * distuv.UnitNormal.Survival(math.Abs(z))
	if p > 1 {
		p = 1
	}
	return p
}

// kurtosis returns b2 = n * Σz⁴ / (Σz²)² over the values in graph order.
func kurtosis(ids []string, z map[string]float64) float64 {
	var sum2, sum4 float64
	for _, id := range ids {
		v := z[id]
		sum2 += v * v
		sum4 += v * v * v * v
	}
	if sum2 == 0 {
		return 0
	}
	return float64(len(ids)) * sum4 / (sum2 * sum2)
}
