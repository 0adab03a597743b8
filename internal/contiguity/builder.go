package contiguity

import (
	"context"
	"math"
	"runtime"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/terrastat/lisa-cli/internal/model"
)

// Mode selects the contiguity criterion.
type Mode string

const (
	// ModeQueen treats polygons sharing any boundary point, corners included,
	// as neighbors.
	ModeQueen Mode = "queen"
	// ModeRook requires a shared boundary segment of positive length.
	ModeRook Mode = "rook"
)

// DefaultSnapTolerance absorbs floating-point vertex mismatch between
// independently digitized administrative boundaries, in coordinate units.
const DefaultSnapTolerance = 0.001

// Options configures graph construction.
type Options struct {
	Mode          Mode
	SnapTolerance float64 // non-negative; 0 means exact coincidence only
	Workers       int     // parallel pairwise tests; default GOMAXPROCS
}

// boundary is the precomputed contact-test input for one unit: its boundary
// vertices, ring offsets for edge iteration, and a tolerance-expanded bbox.
type boundary struct {
	id                     string
	rings                  [][]float64 // flat XY coords per ring, closed
	minX, minY, maxX, maxY float64
}

// Build derives the contiguity graph for the given units. Geometry is
// read-only during the pairwise phase, so candidate pairs are tested in
// parallel and merged afterwards.
func Build(ctx context.Context, units []model.SpatialUnit, opts Options) (*Graph, error) {
	if opts.Mode != ModeQueen && opts.Mode != ModeRook {
		return nil, eris.Errorf("contiguity: unknown mode %q", opts.Mode)
	}
	if opts.SnapTolerance < 0 {
		return nil, eris.Errorf("contiguity: negative snap tolerance %g", opts.SnapTolerance)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	ids := make([]string, len(units))
	bounds := make([]boundary, len(units))
	for i, u := range units {
		ids[i] = u.ID
		b, err := extractBoundary(u)
		if err != nil {
			return nil, err
		}
		b.minX -= opts.SnapTolerance
		b.minY -= opts.SnapTolerance
		b.maxX += opts.SnapTolerance
		b.maxY += opts.SnapTolerance
		bounds[i] = b
	}

	// Bounding-box prefilter keeps the pairwise phase tractable.
	var pairs [][2]int
	for i := range bounds {
		for j := i + 1; j < len(bounds); j++ {
			if bboxOverlap(bounds[i], bounds[j]) {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}

	type edge struct{ a, b string }
	results := make([][]edge, workers)

	g, gctx := errgroup.WithContext(ctx)
	chunk := (len(pairs) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= len(pairs) {
			break
		}
		end := start + chunk
		if end > len(pairs) {
			end = len(pairs)
		}
		w := w
		slice := pairs[start:end]
		g.Go(func() error {
			for _, p := range slice {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if touches(bounds[p[0]], bounds[p[1]], opts.Mode, opts.SnapTolerance) {
					results[w] = append(results[w], edge{bounds[p[0]].id, bounds[p[1]].id})
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "contiguity: pairwise tests")
	}

	graph := NewGraph(ids)
	for _, es := range results {
		for _, e := range es {
			graph.AddEdge(e.a, e.b)
		}
	}
	graph.Sort()

	zap.L().Debug("contiguity: graph built",
		zap.Int("units", len(units)),
		zap.Int("candidate_pairs", len(pairs)),
		zap.Int("edges", graph.EdgeCount()),
		zap.Int("islands", len(graph.Islands())),
		zap.String("mode", string(opts.Mode)),
	)
	return graph, nil
}

// extractBoundary flattens all rings (exterior and holes) of a unit's
// multipolygon into closed coordinate sequences.
func extractBoundary(u model.SpatialUnit) (boundary, error) {
	b := boundary{
		id:   u.ID,
		minX: math.Inf(1), minY: math.Inf(1),
		maxX: math.Inf(-1), maxY: math.Inf(-1),
	}
	if u.Geometry == nil || u.Geometry.NumPolygons() == 0 {
		return b, eris.Errorf("contiguity: unit %s has no geometry", u.ID)
	}
	for pi := 0; pi < u.Geometry.NumPolygons(); pi++ {
		poly := u.Geometry.Polygon(pi)
		for ri := 0; ri < poly.NumLinearRings(); ri++ {
			flat := poly.LinearRing(ri).FlatCoords()
			if len(flat) < 8 { // a closed ring needs at least 4 points
				return b, eris.Errorf("contiguity: unit %s has a degenerate ring (%d points)", u.ID, len(flat)/2)
			}
			ring := make([]float64, len(flat))
			copy(ring, flat)
			b.rings = append(b.rings, ring)
			for k := 0; k < len(flat); k += 2 {
				b.minX = math.Min(b.minX, flat[k])
				b.maxX = math.Max(b.maxX, flat[k])
				b.minY = math.Min(b.minY, flat[k+1])
				b.maxY = math.Max(b.maxY, flat[k+1])
			}
		}
	}
	return b, nil
}

func bboxOverlap(a, b boundary) bool {
	return a.minX <= b.maxX && b.minX <= a.maxX && a.minY <= b.maxY && b.minY <= a.maxY
}

// touches tests geometric contact between two boundaries under the given mode.
// Queen contact is any vertex of one boundary lying within tolerance of the
// other boundary. Rook additionally requires two contact points further than
// the tolerance apart, i.e. a shared segment of positive length.
func touches(a, b boundary, mode Mode, tol float64) bool {
	if mode == ModeQueen {
		return anyContact(a, b, tol) || anyContact(b, a, tol)
	}
	contacts := contactPoints(a, b, tol)
	contacts = append(contacts, contactPoints(b, a, tol)...)
	for i := 0; i < len(contacts); i++ {
		for j := i + 1; j < len(contacts); j++ {
			dx := contacts[i][0] - contacts[j][0]
			dy := contacts[i][1] - contacts[j][1]
			if math.Hypot(dx, dy) > tol {
				return true
			}
		}
	}
	return false
}

// anyContact reports whether any vertex of a lies within tol of b's boundary.
func anyContact(a, b boundary, tol float64) bool {
	for _, ring := range a.rings {
		for k := 0; k < len(ring); k += 2 {
			if withinBoundary(ring[k], ring[k+1], b, tol) {
				return true
			}
		}
	}
	return false
}

// contactPoints collects the vertices of a lying within tol of b's boundary.
func contactPoints(a, b boundary, tol float64) [][2]float64 {
	var pts [][2]float64
	for _, ring := range a.rings {
		for k := 0; k < len(ring); k += 2 {
			if withinBoundary(ring[k], ring[k+1], b, tol) {
				pts = append(pts, [2]float64{ring[k], ring[k+1]})
			}
		}
	}
	return pts
}

// withinBoundary reports whether point (x, y) lies within tol of any edge of b.
func withinBoundary(x, y float64, b boundary, tol float64) bool {
	for _, ring := range b.rings {
		for k := 0; k+3 < len(ring); k += 2 {
			if pointSegmentDistance(x, y, ring[k], ring[k+1], ring[k+2], ring[k+3]) <= tol {
				return true
			}
		}
	}
	return false
}

// pointSegmentDistance returns the Euclidean distance from (px, py) to the
// segment (x1, y1)-(x2, y2).
func pointSegmentDistance(px, py, x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	if dx == 0 && dy == 0 {
		return math.Hypot(px-x1, py-y1)
	}
	t := ((px-x1)*dx + (py-y1)*dy) / (dx*dx + dy*dy)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(px-(x1+t*dx), py-(y1+t*dy))
}
