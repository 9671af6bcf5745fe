package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/ml-pipeline/internal/logger"
	"github.com/oshokin/ml-pipeline/internal/utils"
)

// Config holds all configuration settings.
type Config struct {
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level"`
	// ArtifactsRoot is the directory that holds every pipeline stage's output.
	ArtifactsRoot string `mapstructure:"artifacts_root"`
	// DownloadTimeout bounds a single dataset transfer (e.g., "10m"). Empty or "0" disables it.
	DownloadTimeout string `mapstructure:"download_timeout"`
	// DownloadSpeedLimit sets the maximum download speed per second (e.g., "1MB", "500KB").
	DownloadSpeedLimit string `mapstructure:"download_speed_limit"`
	// Ingestion holds the data ingestion stage settings.
	Ingestion IngestionSettings `mapstructure:"data_ingestion"`
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level
	// ParsedDownloadTimeout is the parsed transfer timeout, zero meaning none.
	ParsedDownloadTimeout time.Duration
	// ParsedDownloadSpeedLimit is the parsed download speed limit in bytes.
	ParsedDownloadSpeedLimit int64
}

// IngestionSettings is the data_ingestion section of the configuration file.
type IngestionSettings struct {
	// RootDir is the working directory of the ingestion stage.
	RootDir string `mapstructure:"root_dir"`
	// SourceURL is the remote location of the dataset archive.
	SourceURL string `mapstructure:"source_url"`
	// LocalDataFile is where the archive is stored locally.
	LocalDataFile string `mapstructure:"local_data_file"`
	// UnzipDir is where the archive is extracted.
	UnzipDir string `mapstructure:"unzip_dir"`
}

// DataIngestionConfig is the read-only view of the ingestion settings handed to the stage.
type DataIngestionConfig struct {
	rootDir       string
	sourceURL     string
	localDataFile string
	unzipDir      string
}

const (
	// DefaultConfigFilename is the default path of the configuration file.
	DefaultConfigFilename = "config/config.yaml"

	// DefaultEnvFilename is the optional dotenv file loaded before the configuration.
	DefaultEnvFilename = ".env"

	// EnvPrefix prefixes environment variables that override configuration keys,
	// e.g. ML_PIPELINE_DATA_INGESTION_SOURCE_URL.
	EnvPrefix = "ML_PIPELINE"

	// DefaultMaxLogLength is the default maximum size (in bytes) of a logged HTTP dump.
	DefaultMaxLogLength = 1 * 1024 * 1024 // 1 MB
)

// Static error definitions for better error handling.
var (
	// ErrEmptySourceURL indicates that the dataset URL is missing.
	ErrEmptySourceURL = errors.New("data_ingestion.source_url cannot be empty")
	// ErrInvalidSourceURL indicates that the dataset URL is not an absolute http(s) URL.
	ErrInvalidSourceURL = errors.New("invalid data_ingestion.source_url")
	// ErrEmptyLocalDataFile indicates that the local archive path is missing.
	ErrEmptyLocalDataFile = errors.New("data_ingestion.local_data_file cannot be empty")
	// ErrEmptyUnzipDir indicates that the extraction directory is missing.
	ErrEmptyUnzipDir = errors.New("data_ingestion.unzip_dir cannot be empty")
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrInvalidDownloadTimeout indicates that the download timeout is negative.
	ErrInvalidDownloadTimeout = errors.New("download_timeout cannot be negative")
)

// LoadConfig loads configuration settings from a YAML file.
// Values may be overridden by environment variables, optionally read from a .env file.
func LoadConfig(configFilename string) (*Config, error) {
	if configFilename == "" {
		configFilename = DefaultConfigFilename
	}

	if err := loadEnvFile(DefaultEnvFilename); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configFilename)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range []string{
		"log_level",
		"artifacts_root",
		"download_timeout",
		"download_speed_limit",
		"data_ingestion.root_dir",
		"data_ingestion.source_url",
		"data_ingestion.local_data_file",
		"data_ingestion.unzip_dir",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	v.SetDefault("log_level", "info")
	v.SetDefault("artifacts_root", "artifacts")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config from file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads a dotenv file if it exists. Variables already set in the environment win.
func loadEnvFile(filename string) error {
	isExist, err := utils.IsFileExist(filename)
	if err != nil {
		return fmt.Errorf("failed to check env file: %w", err)
	}

	if !isExist {
		return nil
	}

	if err = godotenv.Load(filename); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	return nil
}

// ValidateConfig checks the configuration for validity and sets derived fields.
func ValidateConfig(cfg *Config) error {
	var (
		downloadSpeedLimit       = strings.TrimSpace(cfg.DownloadSpeedLimit)
		downloadTimeout          = strings.TrimSpace(cfg.DownloadTimeout)
		parsedDownloadSpeedLimit uint64
		err                      error
	)

	sourceURL := strings.TrimSpace(cfg.Ingestion.SourceURL)
	if sourceURL == "" {
		return ErrEmptySourceURL
	}

	parsedURL, err := url.Parse(sourceURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSourceURL, err)
	}

	if (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") || parsedURL.Host == "" {
		return fmt.Errorf("%w: '%s' must be an absolute http(s) URL", ErrInvalidSourceURL, sourceURL)
	}

	cfg.Ingestion.SourceURL = sourceURL

	if strings.TrimSpace(cfg.Ingestion.LocalDataFile) == "" {
		return ErrEmptyLocalDataFile
	}

	if strings.TrimSpace(cfg.Ingestion.UnzipDir) == "" {
		return ErrEmptyUnzipDir
	}

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	cfg.ParsedDownloadTimeout = 0
	if downloadTimeout != "" && downloadTimeout != "0" {
		cfg.ParsedDownloadTimeout, err = time.ParseDuration(downloadTimeout)
		if err != nil {
			return fmt.Errorf("failed to parse download timeout: %w", err)
		}

		if cfg.ParsedDownloadTimeout < 0 {
			return ErrInvalidDownloadTimeout
		}
	}

	if downloadSpeedLimit != "" && downloadSpeedLimit != "0" {
		parsedDownloadSpeedLimit, err = humanize.ParseBytes(downloadSpeedLimit)
		if err != nil {
			return fmt.Errorf("failed to parse download speed limit: %w", err)
		}
	}

	// io.CopyN accepts only int64 so we transform it safely in order to use it later.
	cfg.ParsedDownloadSpeedLimit = utils.SafeUint64ToInt64(parsedDownloadSpeedLimit)

	return nil
}

// DataIngestion returns the read-only data ingestion record.
func (c *Config) DataIngestion() DataIngestionConfig {
	return NewDataIngestionConfig(
		c.Ingestion.RootDir,
		c.Ingestion.SourceURL,
		c.Ingestion.LocalDataFile,
		c.Ingestion.UnzipDir,
	)
}

// NewDataIngestionConfig builds a data ingestion record.
func NewDataIngestionConfig(rootDir, sourceURL, localDataFile, unzipDir string) DataIngestionConfig {
	return DataIngestionConfig{
		rootDir:       rootDir,
		sourceURL:     sourceURL,
		localDataFile: localDataFile,
		unzipDir:      unzipDir,
	}
}

// RootDir returns the working directory of the ingestion stage.
func (c DataIngestionConfig) RootDir() string {
	return c.rootDir
}

// SourceURL returns the remote location of the dataset archive.
func (c DataIngestionConfig) SourceURL() string {
	return c.sourceURL
}

// LocalDataFile returns where the archive is stored locally.
func (c DataIngestionConfig) LocalDataFile() string {
	return c.localDataFile
}

// UnzipDir returns where the archive is extracted.
func (c DataIngestionConfig) UnzipDir() string {
	return c.unzipDir
}
