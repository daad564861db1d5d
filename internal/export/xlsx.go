package export

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/gridsight/feedermatrix/internal/matrix"
)

// WriteXLSXFile writes the feature matrix as a single-sheet workbook.
func WriteXLSXFile(path string, table *matrix.Table, prefix string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("feeder_load_features")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range []string{"feeder_id", "zip_code", "month", "hour"} {
		header.AddCell().SetString(col)
	}
	for _, p := range table.Profiles {
		header.AddCell().SetString(matrix.ColumnName(prefix, p))
	}

	for _, row := range table.Rows {
		r := sheet.AddRow()
		r.AddCell().SetString(row.FeederID)
		r.AddCell().SetString(row.ZipCode)
		r.AddCell().SetString(strconv.Itoa(row.Month))
		r.AddCell().SetString(strconv.Itoa(row.Hour))
		for _, v := range row.Values {
			r.AddCell().SetFloat(v)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "export: mkdir %s", dir)
		}
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}

	zap.L().Info("wrote matrix xlsx",
		zap.String("path", path),
		zap.Int("rows", len(table.Rows)))
	return nil
}
