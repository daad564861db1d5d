// Package export writes pipeline outputs to CSV and XLSX files.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridsight/feedermatrix/internal/matrix"
)

// WriteCSV writes the feature matrix in wide form. Column order is
// feeder_id, zip_code, month, hour, then one prefixed column per profile.
func WriteCSV(w io.Writer, table *matrix.Table, prefix string) error {
	cw := csv.NewWriter(w)

	header := []string{"feeder_id", "zip_code", "month", "hour"}
	for _, p := range table.Profiles {
		header = append(header, matrix.ColumnName(prefix, p))
	}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write header")
	}

	record := make([]string, len(header))
	for _, row := range table.Rows {
		record[0] = row.FeederID
		record[1] = row.ZipCode
		record[2] = strconv.Itoa(row.Month)
		record[3] = strconv.Itoa(row.Hour)
		for i, v := range row.Values {
			record[4+i] = formatKWH(v)
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush")
}

// WriteCSVFile writes the feature matrix to a file, creating parent
// directories as needed.
func WriteCSVFile(path string, table *matrix.Table, prefix string) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteCSV(f, table, prefix); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "export: close %s", path)
	}

	zap.L().Info("wrote matrix csv",
		zap.String("path", path),
		zap.Int("rows", len(table.Rows)),
		zap.Int("profile_cols", len(table.Profiles)))
	return nil
}

// WriteZipLoadsCSV writes the long-form ZIP load table.
func WriteZipLoadsCSV(w io.Writer, rows []matrix.ZipLoadRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"zip_code", "profile_id", "month", "hour", "mean_kwh"}); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, r := range rows {
		record := []string{
			r.ZipCode,
			r.ProfileID,
			strconv.Itoa(r.Month),
			strconv.Itoa(r.Hour),
			formatKWH(r.KWH),
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush")
}

// WriteZipLoadsCSVFile writes the ZIP load table to a file.
func WriteZipLoadsCSVFile(path string, rows []matrix.ZipLoadRow) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteZipLoadsCSV(f, rows); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "export: close %s", path)
	}

	zap.L().Info("wrote zip loads csv", zap.String("path", path), zap.Int("rows", len(rows)))
	return nil
}

// formatKWH renders kWh values without exponent notation so re-runs
// produce byte-identical files.
func formatKWH(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "export: mkdir %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: create %s", path)
	}
	return f, nil
}
