// Package shapeload reads polygon shapefiles into spatial units with named
// numeric attributes. It is the geometry-loading collaborator of the analysis
// pipeline; geometry is assumed valid and is not repaired here.
package shapeload

import (
	"fmt"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/terrastat/lisa-cli/internal/model"
)

// Options configures shapefile loading.
type Options struct {
	IDField   string   // attribute holding the stable unit identifier; record index when empty
	NameField string   // optional display name attribute
	Fields    []string // numeric attribute fields to extract; blank values become undefined
}

// Load reads all polygon records from a shapefile into spatial units in
// record order. Non-numeric values in a requested field are a data error;
// blank values mean the attribute is undefined for that unit.
func Load(path string, opts Options) ([]model.SpatialUnit, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "shapeload: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fieldIdx := make(map[string]int)
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	lookup := func(field string) (string, bool) {
		idx, ok := fieldIdx[strings.ToLower(field)]
		if !ok {
			return "", false
		}
		val := strings.TrimRight(reader.Attribute(idx), "\x00")
		return strings.TrimSpace(val), true
	}

	var units []model.SpatialUnit
	record := -1
	for reader.Next() {
		record++
		_, shape := reader.Shape()

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			return nil, eris.Errorf("shapeload: record %d is %T, expected polygon", record, shape)
		}
		mp, err := toMultiPolygon(poly)
		if err != nil {
			return nil, eris.Wrapf(err, "shapeload: record %d", record)
		}

		unit := model.SpatialUnit{
			ID:         fmt.Sprintf("%d", record),
			Geometry:   mp,
			Attributes: make(map[string]*float64, len(opts.Fields)),
		}
		if opts.IDField != "" {
			id, ok := lookup(opts.IDField)
			if !ok {
				return nil, eris.Errorf("shapeload: id field %q not present in %s", opts.IDField, path)
			}
			if id == "" {
				return nil, eris.Errorf("shapeload: record %d has a blank id", record)
			}
			unit.ID = id
		}
		if opts.NameField != "" {
			if name, ok := lookup(opts.NameField); ok {
				unit.Name = name
			}
		}

		for _, field := range opts.Fields {
			raw, ok := lookup(field)
			if !ok {
				return nil, eris.Errorf("shapeload: attribute field %q not present in %s", field, path)
			}
			if raw == "" {
				unit.Attributes[field] = nil
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, eris.Wrapf(err, "shapeload: record %d field %q value %q", record, field, raw)
			}
			unit.Attributes[field] = &v
		}

		units = append(units, unit)
	}

	if len(units) == 0 {
		return nil, eris.Errorf("shapeload: no polygon records in %s", path)
	}

	zap.L().Debug("shapeload: loaded shapefile",
		zap.String("path", path),
		zap.Int("units", len(units)),
		zap.Strings("fields", opts.Fields),
	)
	return units, nil
}
