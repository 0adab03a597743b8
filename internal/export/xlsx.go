package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/terrastat/lisa-cli/internal/model"
)

// WriteUnitsXLSX writes the per-unit result table to an XLSX workbook with
// one sheet named after the variable.
func WriteUnitsXLSX(path, variable string, units []model.UnitResult) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(variable)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %q", variable)
	}

	header := sheet.AddRow()
	for _, h := range unitHeader {
		header.AddCell().SetString(h)
	}

	for _, u := range units {
		row := sheet.AddRow()
		row.AddCell().SetString(u.UnitID)
		row.AddCell().SetString(u.Name)
		row.AddCell().SetFloat(u.Value)
		row.AddCell().SetFloat(u.Local.ZValue)
		row.AddCell().SetFloat(u.Local.Lag)
		row.AddCell().SetFloat(u.Local.I)
		row.AddCell().SetFloat(u.Local.ZScore)
		row.AddCell().SetFloat(u.Local.P)
		row.AddCell().SetString(string(u.Label))
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}
