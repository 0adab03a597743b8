package shapeload

import (
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeGrid writes a shapefile of unit squares with GEOID, NAME and RATE
// attributes. The last record gets a blank RATE so loaders see an undefined
// attribute, not a zero.
func writeGrid(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	fields := []shp.Field{
		shp.StringField("GEOID", 10),
		shp.StringField("NAME", 24),
		shp.FloatField("RATE", 16, 6),
	}
	w.SetFields(fields)

	type rec struct {
		geoid string
		name  string
		rate  *float64
	}
	rate := func(v float64) *float64 { return &v }
	records := []rec{
		{"06001", "Alameda", rate(10)},
		{"06002", "Butte", rate(-10)},
		{"06003", "Colusa", rate(-10)},
		{"06004", "Del Norte", nil},
	}

	for i, r := range records {
		x := float64(i % 2)
		y := float64(i / 2)
		ring := []shp.Point{
			{X: x, Y: y},
			{X: x + 1, Y: y},
			{X: x + 1, Y: y + 1},
			{X: x, Y: y + 1},
			{X: x, Y: y},
		}
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
		w.Write(&poly)

		require.NoError(t, w.WriteAttribute(i, 0, r.geoid))
		require.NoError(t, w.WriteAttribute(i, 1, r.name))
		if r.rate != nil {
			require.NoError(t, w.WriteAttribute(i, 2, *r.rate))
		}
	}
	w.Close()
	return path
}

func TestLoad(t *testing.T) {
	path := writeGrid(t)

	units, err := Load(path, Options{
		IDField:   "GEOID",
		NameField: "NAME",
		Fields:    []string{"RATE"},
	})
	require.NoError(t, err)
	require.Len(t, units, 4)

	first := units[0]
	assert.Equal(t, "06001", first.ID)
	assert.Equal(t, "Alameda", first.Name)
	require.NotNil(t, first.Geometry)
	assert.Equal(t, 1, first.Geometry.NumPolygons())

	v, ok := first.Attribute("RATE")
	assert.True(t, ok)
	assert.InDelta(t, 10, v, 1e-9)

	// Blank attribute values are undefined, not zero.
	_, ok = units[3].Attribute("RATE")
	assert.False(t, ok)
	assert.False(t, units[3].HasAttribute("RATE"))
}

func TestLoadFieldLookupIsCaseInsensitive(t *testing.T) {
	path := writeGrid(t)

	units, err := Load(path, Options{IDField: "geoid", Fields: []string{"rate"}})
	require.NoError(t, err)
	assert.Equal(t, "06001", units[0].ID)
}

func TestLoadRecordIndexFallback(t *testing.T) {
	path := writeGrid(t)

	units, err := Load(path, Options{Fields: []string{"RATE"}})
	require.NoError(t, err)
	assert.Equal(t, "0", units[0].ID)
	assert.Equal(t, "3", units[3].ID)
}

func TestLoadErrors(t *testing.T) {
	path := writeGrid(t)

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.shp"), Options{})
		assert.ErrorContains(t, err, "open shapefile")
	})

	t.Run("unknown id field", func(t *testing.T) {
		_, err := Load(path, Options{IDField: "FIPS"})
		assert.ErrorContains(t, err, `id field "FIPS" not present`)
	})

	t.Run("unknown attribute field", func(t *testing.T) {
		_, err := Load(path, Options{Fields: []string{"POP"}})
		assert.ErrorContains(t, err, `attribute field "POP" not present`)
	})

	t.Run("non-numeric attribute", func(t *testing.T) {
		_, err := Load(path, Options{Fields: []string{"NAME"}})
		assert.ErrorContains(t, err, `field "NAME"`)
	})
}
