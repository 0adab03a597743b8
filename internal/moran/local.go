package moran

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/terrastat/lisa-cli/internal/model"
	"github.com/terrastat/lisa-cli/internal/weights"
)

// Local computes per-unit local Moran statistics for the given values.
// Values are standardized with the sample standard deviation, so the local
// statistic Ii = z(i) * lag(i) matches the conventional analytic formula.
// Results are returned in matrix (input) order.
func Local(ctx context.Context, m *weights.Matrix, values map[string]float64, cfg Config) ([]model.LocalStatistics, error) {
	n := len(m.IDs)
	if n < 3 {
		return nil, eris.Errorf("moran: local statistics need at least 3 units, got %d", n)
	}

	z, err := Standardize(m.IDs, values)
	if err != nil {
		return nil, err
	}
	lag := m.Lag(z)

	out := make([]model.LocalStatistics, n)
	for i, id := range m.IDs {
		out[i] = model.LocalStatistics{
			UnitID: id,
			ZValue: z[id],
			Lag:    lag[id],
			I:      z[id] * lag[id],
		}
	}

	switch cfg.Method {
	case MethodAnalytic, "":
		localAnalytic(m, z, out)
	case MethodPermutation:
		if err := localPermutation(ctx, m, z, cfg, out); err != nil {
			return nil, err
		}
	default:
		return nil, eris.Errorf("moran: unknown significance method %q", cfg.Method)
	}
	return out, nil
}

// localAnalytic fills Z and p from the analytic moments of Ii under the
// randomization assumption (Anselin 1995):
//
//	E[Ii]   = -wi / (n-1)
//	Var[Ii] = wi2 (n-b2)/(n-1) + (wi²-wi2)(2 b2 - n)/((n-1)(n-2)) - (wi/(n-1))²
//
// where wi is the row sum, wi2 the row sum of squared weights, and b2 the
// empirical kurtosis of the standardized values.
func localAnalytic(m *weights.Matrix, z map[string]float64, out []model.LocalStatistics) {
	n := float64(len(m.IDs))
	b2 := kurtosis(m.IDs, z)

	for i := range out {
		id := out[i].UnitID
		wi := m.RowSum(id)
		var wi2 float64
		for _, nb := range m.NeighborIDs(id) {
			w := m.Rows[id][nb]
			wi2 += w * w
		}

		expected := -wi / (n - 1)
		variance := wi2*(n-b2)/(n-1) +
			(wi*wi-wi2)*(2*b2-n)/((n-1)*(n-2)) -
			(wi/(n-1))*(wi/(n-1))

		if variance <= 0 {
			// Islands have wi = 0 and collapse to a point mass at zero.
			out[i].ZScore = 0
			out[i].P = 1
			continue
		}
		out[i].ZScore = (out[i].I - expected) / math.Sqrt(variance)
		out[i].P = twoSidedP(out[i].ZScore)
	}
}

// localPermutation fills Z and p by conditional permutation: unit i's value is
// held fixed while neighbor values are drawn without replacement from the
// remaining units. The pseudo p-value is the folded one-sided rank
// (extreme+1)/(permutations+1); Z is taken against the simulated distribution.
// Each unit draws from a PCG stream keyed by (seed, unit index) so results are
// reproducible for a fixed seed and independent across units.
func localPermutation(ctx context.Context, m *weights.Matrix, z map[string]float64, cfg Config, out []model.LocalStatistics) error {
	perms := cfg.Permutations
	if perms <= 0 {
		perms = DefaultPermutations
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	index := make(map[string]int, len(m.IDs))
	zs := make([]float64, len(m.IDs))
	for i, id := range m.IDs {
		index[id] = i
		zs[i] = z[id]
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range out {
		i := i
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			id := out[i].UnitID
			k := len(m.Rows[id])
			if k == 0 {
				out[i].ZScore = 0
				out[i].P = 1
				return nil
			}

			// Candidate pool: every standardized value except unit i's own.
			pool := make([]float64, 0, len(zs)-1)
			for j, v := range zs {
				if j != i {
					pool = append(pool, v)
				}
			}

			w := 1.0 / float64(k)
			rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i)))
			sims := make([]float64, perms)
			larger := 0
			for r := 0; r < perms; r++ {
				// Partial Fisher-Yates: the first k entries become the draw.
				for j := 0; j < k; j++ {
					swap := j + rng.IntN(len(pool)-j)
					pool[j], pool[swap] = pool[swap], pool[j]
				}
				var simLag float64
				for j := 0; j < k; j++ {
					simLag += w * pool[j]
				}
				sims[r] = zs[i] * simLag
				if sims[r] >= out[i].I {
					larger++
				}
			}
			if perms-larger < larger {
				larger = perms - larger
			}
			out[i].P = float64(larger+1) / float64(perms+1)

			mean, std := stat.PopMeanStdDev(sims, nil)
			if std == 0 {
				out[i].ZScore = 0
			} else {
				out[i].ZScore = (out[i].I - mean) / std
			}
			return nil
		})
	}
	return g.Wait()
}
