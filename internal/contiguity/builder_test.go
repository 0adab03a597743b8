package contiguity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/terrastat/lisa-cli/internal/model"
)

// square builds a unit whose geometry is an axis-aligned square with its
// lower-left corner at (x, y).
func square(id string, x, y, size float64) model.SpatialUnit {
	flat := []float64{
		x, y,
		x + size, y,
		x + size, y + size,
		x, y + size,
		x, y,
	}
	mp := geom.NewMultiPolygonFlat(geom.XY, flat, [][]int{{len(flat)}})
	return model.SpatialUnit{ID: id, Name: id, Geometry: mp}
}

// grid2x2 returns four unit squares arranged as
//
//	c d
//	a b
func grid2x2() []model.SpatialUnit {
	return []model.SpatialUnit{
		square("a", 0, 0, 1),
		square("b", 1, 0, 1),
		square("c", 0, 1, 1),
		square("d", 1, 1, 1),
	}
}

func TestBuildQueen(t *testing.T) {
	g, err := Build(context.Background(), grid2x2(), Options{Mode: ModeQueen, SnapTolerance: DefaultSnapTolerance})
	require.NoError(t, err)

	// Corner contact counts, so every pair is adjacent.
	assert.Equal(t, 6, g.EdgeCount())
	assert.Equal(t, []string{"b", "c", "d"}, g.Neighbors["a"])
	assert.Equal(t, []string{"a", "c", "d"}, g.Neighbors["b"])
	assert.True(t, g.IsSymmetric())
	assert.Empty(t, g.Islands())
}

func TestBuildRook(t *testing.T) {
	g, err := Build(context.Background(), grid2x2(), Options{Mode: ModeRook, SnapTolerance: DefaultSnapTolerance})
	require.NoError(t, err)

	// Corner-only contact is excluded, so the diagonals drop out.
	assert.Equal(t, 4, g.EdgeCount())
	assert.Equal(t, []string{"b", "c"}, g.Neighbors["a"])
	assert.Equal(t, []string{"a", "d"}, g.Neighbors["b"])
	assert.Equal(t, []string{"a", "d"}, g.Neighbors["c"])
	assert.Equal(t, []string{"b", "c"}, g.Neighbors["d"])
}

func TestBuildSnapTolerance(t *testing.T) {
	// Digitizing slack: a gap of 0.0005 between the two squares.
	units := []model.SpatialUnit{
		square("a", 0, 0, 1),
		square("b", 1.0005, 0, 1),
	}

	tests := []struct {
		name      string
		tolerance float64
		edges     int
	}{
		{name: "gap within tolerance", tolerance: 0.001, edges: 1},
		{name: "gap beyond tolerance", tolerance: 0.0001, edges: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Build(context.Background(), units, Options{Mode: ModeQueen, SnapTolerance: tt.tolerance})
			require.NoError(t, err)
			assert.Equal(t, tt.edges, g.EdgeCount())
		})
	}
}

func TestBuildIslands(t *testing.T) {
	units := append(grid2x2(), square("far", 100, 100, 1))

	g, err := Build(context.Background(), units, Options{Mode: ModeQueen, SnapTolerance: DefaultSnapTolerance})
	require.NoError(t, err)

	assert.Equal(t, []string{"far"}, g.Islands())
	assert.Empty(t, g.Neighbors["far"])
}

func TestBuildValidation(t *testing.T) {
	units := grid2x2()

	_, err := Build(context.Background(), units, Options{Mode: "bishop"})
	assert.ErrorContains(t, err, "unknown mode")

	_, err = Build(context.Background(), units, Options{Mode: ModeQueen, SnapTolerance: -1})
	assert.ErrorContains(t, err, "negative snap tolerance")

	_, err = Build(context.Background(), []model.SpatialUnit{{ID: "empty"}}, Options{Mode: ModeQueen})
	assert.ErrorContains(t, err, "no geometry")
}

func TestBuildDeterministic(t *testing.T) {
	units := append(grid2x2(), square("e", 2, 0, 1), square("f", 2, 1, 1))

	first, err := Build(context.Background(), units, Options{Mode: ModeQueen, SnapTolerance: DefaultSnapTolerance, Workers: 4})
	require.NoError(t, err)
	second, err := Build(context.Background(), units, Options{Mode: ModeQueen, SnapTolerance: DefaultSnapTolerance, Workers: 1})
	require.NoError(t, err)

	assert.Equal(t, first.Neighbors, second.Neighbors)
}
