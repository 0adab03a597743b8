// Package weights derives spatial weight matrices from contiguity graphs.
package weights

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/terrastat/lisa-cli/internal/contiguity"
)

// Style selects the weight standardization scheme.
type Style string

// StyleRow is row-standardized weighting: each neighbor of a unit receives
// 1/(neighbor count), so non-island rows sum to 1.
const StyleRow Style = "W"

// ZeroPolicy decides how units with zero neighbors are handled.
type ZeroPolicy string

const (
	// ZeroPolicyFail aborts matrix construction when any island is present.
	ZeroPolicyFail ZeroPolicy = "fail-on-island"
	// ZeroPolicyTolerate gives islands an empty weight row; their lag is zero
	// and they neither influence nor receive influence from other units.
	ZeroPolicyTolerate ZeroPolicy = "tolerate-island"
)

// Matrix is a sparse row-standardized spatial weights matrix keyed by unit ID.
type Matrix struct {
	IDs  []string                      // units in graph order
	Rows map[string]map[string]float64 // unit -> neighbor -> weight
}

// FromGraph row-standardizes a contiguity graph into a weights matrix.
// Islands are either tolerated with empty rows or reported as a fatal
// configuration error naming the offending units, per the zero policy.
func FromGraph(g *contiguity.Graph, style Style, policy ZeroPolicy) (*Matrix, error) {
	if style != StyleRow {
		return nil, eris.Errorf("weights: unsupported style %q", style)
	}
	if policy != ZeroPolicyFail && policy != ZeroPolicyTolerate {
		return nil, eris.Errorf("weights: unknown zero policy %q", policy)
	}

	if islands := g.Islands(); len(islands) > 0 && policy == ZeroPolicyFail {
		return nil, eris.Errorf("weights: %d island unit(s) cannot be row-standardized: %s",
			len(islands), strings.Join(islands, ", "))
	}

	m := &Matrix{
		IDs:  make([]string, len(g.IDs)),
		Rows: make(map[string]map[string]float64, len(g.IDs)),
	}
	copy(m.IDs, g.IDs)
	for _, id := range g.IDs {
		ns := g.Neighbors[id]
		row := make(map[string]float64, len(ns))
		if len(ns) > 0 {
			w := 1.0 / float64(len(ns))
			for _, n := range ns {
				row[n] = w
			}
		}
		m.Rows[id] = row
	}
	return m, nil
}

// NeighborIDs returns the sorted neighbor IDs of a unit's row. Summations
// over rows iterate in this order so repeated runs are bit-identical.
func (m *Matrix) NeighborIDs(id string) []string {
	row := m.Rows[id]
	ns := make([]string, 0, len(row))
	for n := range row {
		ns = append(ns, n)
	}
	sort.Strings(ns)
	return ns
}

// RowSum returns the total weight of a unit's row (1 for non-islands, 0 for islands).
func (m *Matrix) RowSum(id string) float64 {
	var sum float64
	for _, n := range m.NeighborIDs(id) {
		sum += m.Rows[id][n]
	}
	return sum
}

// S0 is the sum of all weights in the matrix.
func (m *Matrix) S0() float64 {
	var sum float64
	for _, id := range m.IDs {
		sum += m.RowSum(id)
	}
	return sum
}

// IsEmpty reports whether no unit has any neighbor.
func (m *Matrix) IsEmpty() bool {
	for _, row := range m.Rows {
		if len(row) > 0 {
			return false
		}
	}
	return true
}

// Lag computes the spatial lag of the given values: for each unit, the
// weighted sum of its neighbors' values. Island lags are zero.
func (m *Matrix) Lag(values map[string]float64) map[string]float64 {
	lags := make(map[string]float64, len(m.IDs))
	for _, id := range m.IDs {
		var lag float64
		for _, n := range m.NeighborIDs(id) {
			lag += m.Rows[id][n] * values[n]
		}
		lags[id] = lag
	}
	return lags
}
