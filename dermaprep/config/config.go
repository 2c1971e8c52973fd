package config

import (
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/mu-hashmi/dermaprep/dermaprep"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Dataset DatasetConfig `mapstructure:"dataset"`
	Census  CensusConfig  `mapstructure:"census"`
	Split   SplitConfig   `mapstructure:"split"`
}

// DatasetConfig stores the paths and metadata schema driving organization.
// All paths are explicit; there are no machine-specific defaults.
type DatasetConfig struct {
	SourceDirs   []string `mapstructure:"sourceDirs"`
	StagingDir   string   `mapstructure:"stagingDir"`
	ProcessedDir string   `mapstructure:"processedDir"`
	MetadataPath string   `mapstructure:"metadataPath"`
	ImageExt     string   `mapstructure:"imageExt"`
	IDColumn     string   `mapstructure:"idColumn"`
	LabelColumn  string   `mapstructure:"labelColumn"`
}

// CensusConfig stores per-class counting settings.
type CensusConfig struct {
	WorkerCount int  `mapstructure:"workerCount"`
	VerifyEXIF  bool `mapstructure:"verifyExif"`
}

// SplitConfig stores train/test split construction settings.
type SplitConfig struct {
	TrainRatio float64 `mapstructure:"trainRatio"`
	Seed       int64   `mapstructure:"seed"`
	OutputDir  string  `mapstructure:"outputDir"`
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Set default values
	viper.SetDefault("dataset.imageExt", internal.DefaultImageExt)
	viper.SetDefault("dataset.idColumn", internal.DefaultIDColumn)
	viper.SetDefault("dataset.labelColumn", internal.DefaultLabelColumn)
	viper.SetDefault("census.workerCount", 4)
	viper.SetDefault("census.verifyExif", false)
	viper.SetDefault("split.trainRatio", 0.7)
	viper.SetDefault("split.seed", 42)

	viper.AutomaticEnv()                                   // Read in environment variables that match
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // e.g. dataset.labelColumn becomes DATASET_LABELCOLUMN

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; defaults will be used. This is not an
			// error for the application to halt on.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &AppConfig, nil
}
