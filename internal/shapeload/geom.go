package shapeload

import (
	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
)

// toMultiPolygon converts a shapefile Polygon record to a geom.MultiPolygon.
// Rings with fewer than four points are malformed input, not repairable here.
func toMultiPolygon(p *shp.Polygon) (*geom.MultiPolygon, error) {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil, eris.New("shapeload: empty polygon record")
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		if end-start < 4 {
			return nil, eris.Errorf("shapeload: ring %d has %d points, need at least 4", i, end-start)
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			return nil, eris.Wrapf(err, "shapeload: malformed ring %d", i)
		}
		if err := mp.Push(poly); err != nil {
			return nil, eris.Wrapf(err, "shapeload: malformed polygon part %d", i)
		}
	}

	return mp, nil
}
