package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridsight/feedermatrix/internal/config"
	"github.com/gridsight/feedermatrix/internal/model"
	"github.com/gridsight/feedermatrix/internal/source"
)

// Inputs holds all source datasets for one build.
type Inputs struct {
	Zones          []model.ClimateZone
	Zips           []model.ZipArea
	Feeders        []model.FeederLine
	ResProfiles    []model.LoadProfile
	NonResProfiles []model.LoadProfile
	Observations   []model.Observation
}

// LoadInputs reads every configured dataset from disk.
func LoadInputs(ctx context.Context, cfg config.InputsConfig) (*Inputs, error) {
	start := time.Now()
	var in Inputs
	var err error

	if in.Zones, err = source.ClimateZones(cfg.ClimateZonesPath, cfg.ZoneCodeField, cfg.ZoneSRID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: load inputs")
	}
	if in.Zips, err = source.ZipAreas(cfg.ZipPolygonsPath, cfg.ZipCodeField, cfg.ZipSRID); err != nil {
		return nil, err
	}
	if in.Feeders, err = source.Feeders(cfg.FeedersPath, cfg.FeederIDField, cfg.FeederSRID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: load inputs")
	}

	readProfiles := source.ProfileCharacteristics
	if cfg.CharacteristicsFormat == "xlsx" {
		readProfiles = source.ProfileCharacteristicsXLSX
	}
	if in.ResProfiles, err = readProfiles(cfg.ResCharacteristicsPath); err != nil {
		return nil, err
	}
	if in.NonResProfiles, err = readProfiles(cfg.NonResCharacteristicsPath); err != nil {
		return nil, err
	}

	if in.Observations, err = source.Observations(cfg.LoadShapesPath); err != nil {
		return nil, err
	}

	zap.L().Info("inputs loaded",
		zap.Int("zones", len(in.Zones)),
		zap.Int("zips", len(in.Zips)),
		zap.Int("feeders", len(in.Feeders)),
		zap.Int("res_profiles", len(in.ResProfiles)),
		zap.Int("nonres_profiles", len(in.NonResProfiles)),
		zap.Int("observations", len(in.Observations)),
		zap.Duration("elapsed", time.Since(start)))
	return &in, nil
}
