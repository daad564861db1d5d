package source

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/gridsight/feedermatrix/internal/model"
)

// ProfileCharacteristicsXLSX reads profile characteristics from the first
// sheet of an XLSX workbook, the format the load-study characteristics are
// distributed in. The first row is the header and must carry gp and seg_cz.
func ProfileCharacteristicsXLSX(path string) ([]model.LoadProfile, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open characteristics workbook %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("source: %s: workbook has no sheets", path)
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("source: %s: sheet %s is empty", path, sheet.Name)
	}

	header := rowToStrings(sheet.Rows[0])
	colIdx := mapColumnsNormalized(header)
	if err := requireColumns(colIdx, path, "gp", "seg_cz"); err != nil {
		return nil, err
	}

	var profiles []model.LoadProfile
	var skipped int
	for _, row := range sheet.Rows[1:] {
		record := rowToStrings(row)
		id := getColN(record, colIdx, "gp")
		if id == "" {
			skipped++
			continue
		}
		profiles = append(profiles, model.LoadProfile{
			ProfileID:    id,
			SegmentGroup: getColN(record, colIdx, "seg_cz"),
		})
	}

	if skipped > 0 {
		zap.L().Debug("source: skipped characteristics rows",
			zap.String("file", path), zap.Int("skipped", skipped))
	}
	return profiles, nil
}

// rowToStrings converts an xlsx row to its cell values.
func rowToStrings(row *xlsx.Row) []string {
	out := make([]string, 0, len(row.Cells))
	for _, cell := range row.Cells {
		out = append(out, cell.String())
	}
	return out
}
