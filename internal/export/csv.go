// Package export writes analysis results for downstream collaborators:
// per-unit attribute tables (CSV, XLSX), Moran scatter plots, and a textual
// global-statistic report.
package export

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/terrastat/lisa-cli/internal/model"
)

var unitHeader = []string{
	"unit_id", "name", "value", "z_value", "lag", "local_i", "z_score", "p_value", "label",
}

// WriteUnitsCSV writes the per-unit result table to path.
func WriteUnitsCSV(path string, units []model.UnitResult) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(unitHeader); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, u := range units {
		row := []string{
			u.UnitID,
			u.Name,
			formatFloat(u.Value),
			formatFloat(u.Local.ZValue),
			formatFloat(u.Local.Lag),
			formatFloat(u.Local.I),
			formatFloat(u.Local.ZScore),
			formatFloat(u.Local.P),
			string(u.Label),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrapf(err, "export: write csv row for %s", u.UnitID)
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "export: flush csv")
}

// WriteScatterCSV writes the (standardized value, standardized lag) pairs
// consumed by scatter-plot renderers.
func WriteScatterCSV(path string, units []model.UnitResult) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"unit_id", "z_value", "lag"}); err != nil {
		return eris.Wrap(err, "export: write scatter header")
	}
	for _, u := range units {
		row := []string{u.UnitID, formatFloat(u.Local.ZValue), formatFloat(u.Local.Lag)}
		if err := w.Write(row); err != nil {
			return eris.Wrapf(err, "export: write scatter row for %s", u.UnitID)
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "export: flush scatter csv")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
