package moran

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"

	"github.com/terrastat/lisa-cli/internal/model"
	"github.com/terrastat/lisa-cli/internal/weights"
)

// Global computes the global Moran's I statistic for one variable:
//
//	I = (n / S0) * Σᵢ Σⱼ wᵢⱼ zᵢ zⱼ / Σᵢ zᵢ²
//
// with z the deviations from the mean. The expectation under the null is
// -1/(n-1); the variance follows the configured assumption. The computation
// is pure arithmetic over a fixed iteration order, so repeated runs on
// identical input are bit-identical.
func Global(variable string, m *weights.Matrix, values map[string]float64, cfg Config) (*model.GlobalStatistic, error) {
	n := len(m.IDs)
	if n < 3 {
		return nil, eris.Errorf("moran: global statistic needs at least 3 units, got %d", n)
	}
	if m.IsEmpty() {
		return nil, eris.New("moran: weights matrix is empty, no unit has any neighbor")
	}

	assumption := cfg.Assumption
	if assumption == "" {
		assumption = AssumptionRandomization
	}
	if assumption != AssumptionRandomization && assumption != AssumptionNormality {
		return nil, eris.Errorf("moran: unknown variance assumption %q", assumption)
	}
	if assumption == AssumptionRandomization && n < 4 {
		return nil, eris.Errorf("moran: randomization variance needs at least 4 units, got %d", n)
	}

	xs := make([]float64, n)
	for i, id := range m.IDs {
		xs[i] = values[id]
	}
	mean := stat.Mean(xs, nil)

	dev := make(map[string]float64, n)
	var sum2 float64
	for _, id := range m.IDs {
		d := values[id] - mean
		dev[id] = d
		sum2 += d * d
	}
	if sum2 == 0 {
		return nil, eris.Wrapf(ErrDegenerate, "global Moran's I for %q", variable)
	}

	s0 := m.S0()
	lag := m.Lag(dev)
	var cross float64
	for _, id := range m.IDs {
		cross += dev[id] * lag[id]
	}

	nf := float64(n)
	observed := (nf / s0) * cross / sum2
	expected := -1.0 / (nf - 1)

	s1, s2 := momentSums(m)
	var variance float64
	switch assumption {
	case AssumptionNormality:
		variance = (nf*nf*s1-nf*s2+3*s0*s0)/(s0*s0*(nf*nf-1)) - expected*expected
	case AssumptionRandomization:
		var sum4 float64
		for _, id := range m.IDs {
			d := dev[id]
			sum4 += d * d * d * d
		}
		b2 := nf * sum4 / (sum2 * sum2)
		num := nf*((nf*nf-3*nf+3)*s1-nf*s2+3*s0*s0) -
			b2*((nf*nf-nf)*s1-2*nf*s2+6*s0*s0)
		variance = num/((nf-1)*(nf-2)*(nf-3)*s0*s0) - expected*expected
	}
	if variance <= 0 {
		return nil, eris.Errorf("moran: non-positive variance %g for %q under %s assumption", variance, variable, assumption)
	}

	zScore := (observed - expected) / math.Sqrt(variance)
	return &model.GlobalStatistic{
		Variable:   variable,
		N:          n,
		I:          observed,
		Expected:   expected,
		Variance:   variance,
		ZScore:     zScore,
		P:          twoSidedP(zScore),
		Assumption: string(assumption),
	}, nil
}

// momentSums computes the S1 and S2 weight sums used by both variance models:
// S1 = ½ Σᵢⱼ (wᵢⱼ + wⱼᵢ)², S2 = Σᵢ (Σⱼ wᵢⱼ + Σⱼ wⱼᵢ)².
func momentSums(m *weights.Matrix) (s1, s2 float64) {
	colSums := make(map[string]float64, len(m.IDs))
	for _, id := range m.IDs {
		for _, nb := range m.NeighborIDs(id) {
			colSums[nb] += m.Rows[id][nb]
		}
	}
	for _, id := range m.IDs {
		for _, nb := range m.NeighborIDs(id) {
			pair := m.Rows[id][nb] + m.Rows[nb][id]
			s1 += pair * pair
		}
		rowPlusCol := m.RowSum(id) + colSums[id]
		s2 += rowPlusCol * rowPlusCol
	}
	s1 /= 2
	return s1, s2
}
