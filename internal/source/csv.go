package source

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridsight/feedermatrix/internal/model"
)

// ReadProfileCharacteristics parses a profile-characteristics CSV, requiring
// the gp and seg_cz columns. Customer type is tagged later by the catalog.
func ReadProfileCharacteristics(r io.Reader, name string) ([]model.LoadProfile, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "source: %s: read header", name)
	}
	colIdx := mapColumnsNormalized(header)
	if err := requireColumns(colIdx, name, "gp", "seg_cz"); err != nil {
		return nil, err
	}

	var profiles []model.LoadProfile
	var skipped int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "source: %s: read row", name)
		}

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
			zap.String("file", name), zap.Int("skipped", skipped))
	}
	return profiles, nil
}

// ProfileCharacteristics reads profile characteristics from a CSV file.
func ProfileCharacteristics(path string) ([]model.LoadProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open characteristics %s", path)
	}
	defer func() { _ = f.Close() }()
	return ReadProfileCharacteristics(f, path)
}

// ReadObservations parses a raw hourly load-shape CSV, requiring the gp,
// date, hour, and kwh columns. Rows with unparseable values are skipped and
// counted rather than failing the load.
func ReadObservations(r io.Reader, name string) ([]model.Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "source: %s: read header", name)
	}
	colIdx := mapColumnsNormalized(header)
	if err := requireColumns(colIdx, name, "gp", "date", "hour", "kwh"); err != nil {
		return nil, err
	}

	var obs []model.Observation
	var skipped int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "source: %s: read row", name)
		}

		id := getColN(record, colIdx, "gp")
		date, dateErr := parseDate(getColN(record, colIdx, "date"))
		hour, hourErr := parseHour(getColN(record, colIdx, "hour"))
		kwh, kwhErr := parseKWH(getColN(record, colIdx, "kwh"))
		if id == "" || dateErr != nil || hourErr != nil || kwhErr != nil {
			skipped++
			continue
		}

		obs = append(obs, model.Observation{ProfileID: id, Date: date, Hour: hour, KWH: kwh})
	}

	if skipped > 0 {
		zap.L().Debug("source: skipped load-shape rows",
			zap.String("file", name), zap.Int("skipped", skipped))
	}
	return obs, nil
}

// Observations reads raw hourly load shapes from a CSV file.
func Observations(path string) ([]model.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open load shapes %s", path)
	}
	defer func() { _ = f.Close() }()
	return ReadObservations(f, path)
}
