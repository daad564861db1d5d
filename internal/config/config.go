// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Inputs InputsConfig `yaml:"inputs" mapstructure:"inputs"`
	Season SeasonConfig `yaml:"season" mapstructure:"season"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Build  BuildConfig  `yaml:"build" mapstructure:"build"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// InputsConfig locates the source datasets and names their key columns.
type InputsConfig struct {
	ClimateZonesPath string `yaml:"climate_zones_path" mapstructure:"climate_zones_path"`
	ZoneCodeField    string `yaml:"zone_code_field" mapstructure:"zone_code_field"`
	ZoneSRID         int    `yaml:"zone_srid" mapstructure:"zone_srid"`

	ZipPolygonsPath string `yaml:"zip_polygons_path" mapstructure:"zip_polygons_path"`
	ZipCodeField    string `yaml:"zip_code_field" mapstructure:"zip_code_field"`
	ZipSRID         int    `yaml:"zip_srid" mapstructure:"zip_srid"`

	FeedersPath   string `yaml:"feeders_path" mapstructure:"feeders_path"`
	FeederIDField string `yaml:"feeder_id_field" mapstructure:"feeder_id_field"`
	FeederSRID    int    `yaml:"feeder_srid" mapstructure:"feeder_srid"`

	ResCharacteristicsPath    string `yaml:"res_characteristics_path" mapstructure:"res_characteristics_path"`
	NonResCharacteristicsPath string `yaml:"nonres_characteristics_path" mapstructure:"nonres_characteristics_path"`
	CharacteristicsFormat     string `yaml:"characteristics_format" mapstructure:"characteristics_format"`

	LoadShapesPath string `yaml:"load_shapes_path" mapstructure:"load_shapes_path"`
}

// SeasonConfig is the inclusive month window for load aggregation.
type SeasonConfig struct {
	StartMonth int `yaml:"start_month" mapstructure:"start_month"`
	EndMonth   int `yaml:"end_month" mapstructure:"end_month"`
}

// OutputConfig configures where the feature matrix is written.
type OutputConfig struct {
	MatrixCSV    string `yaml:"matrix_csv" mapstructure:"matrix_csv"`
	MatrixXLSX   string `yaml:"matrix_xlsx" mapstructure:"matrix_xlsx"`
	ZipLoadsCSV  string `yaml:"zip_loads_csv" mapstructure:"zip_loads_csv"`
	ColumnPrefix string `yaml:"column_prefix" mapstructure:"column_prefix"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BuildConfig configures pipeline execution.
type BuildConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FEEDERMATRIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("inputs.zone_code_field", "BZONE")
	v.SetDefault("inputs.zone_srid", 4326)
	v.SetDefault("inputs.zip_code_field", "ZIP_CODE")
	v.SetDefault("inputs.zip_srid", 4326)
	v.SetDefault("inputs.feeder_id_field", "FEEDERID")
	v.SetDefault("inputs.feeder_srid", 4326)
	v.SetDefault("inputs.characteristics_format", "csv")
	v.SetDefault("season.start_month", 5)
	v.SetDefault("season.end_month", 10)
	v.SetDefault("output.matrix_csv", "out/feeder_load_features.csv")
	v.SetDefault("output.column_prefix", "kwh_")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "feedermatrix.db")
	v.SetDefault("build.workers", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if cfg.Season.StartMonth < 1 || cfg.Season.EndMonth > 12 || cfg.Season.StartMonth > cfg.Season.EndMonth {
		return nil, eris.Errorf("config: invalid season window %d..%d", cfg.Season.StartMonth, cfg.Season.EndMonth)
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
