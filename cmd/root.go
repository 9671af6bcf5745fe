package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/ml-pipeline/internal/config"
	"github.com/oshokin/ml-pipeline/internal/logger"
	"github.com/oshokin/ml-pipeline/internal/version"
)

var (
	//nolint:gochecknoglobals // It is required for configuration initialization before the application starts.
	configFilenameFromFlag string

	//nolint:gochecknoglobals,lll // It is initialized once during the application's startup and shared across the command execution logic.
	appConfig *config.Config

	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	rootCmd = &cobra.Command{
		Use:   "ml-pipeline",
		Short: "Run the data stages of the machine-learning pipeline.",
		Long: `ML Pipeline prepares training data for the model.

The data ingestion stage downloads the dataset archive from the configured URL
(skipping the transfer when the archive is already present) and extracts it into
the configured directory.`,
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

// Execute executes the root command.
func Execute() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)

	defer func() {
		_ = logger.Logger().Sync()
	}()

	defer stop()

	go func() {
		defer stop()

		err := rootCmd.ExecuteContext(ctx)
		cobra.CheckErr(err)
	}()

	<-ctx.Done()
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	rootCmdFlags := rootCmd.PersistentFlags()

	rootCmdFlags.StringVarP(
		&configFilenameFromFlag,
		"config",
		"c",
		"",
		fmt.Sprintf("path to the configuration file (default is '%s')",
			config.DefaultConfigFilename))

	rootCmdFlags.StringP(
		"url",
		"u",
		"",
		"dataset archive URL (overrides data_ingestion.source_url).")

	rootCmdFlags.StringP(
		"output",
		"o",
		"",
		"local path of the downloaded archive (overrides data_ingestion.local_data_file).")

	rootCmdFlags.StringP(
		"unzip-dir",
		"d",
		"",
		"directory to extract the archive into (overrides data_ingestion.unzip_dir).")

	rootCmdFlags.StringP(
		"speed-limit",
		"s",
		"",
		"set download speed limit, for example: 500 kB, 1 MB, 1.5 MB.")

	rootCmdFlags.StringP(
		"timeout",
		"t",
		"",
		"abort the transfer after this duration, for example: 30s, 10m (0 disables it).")

	rootCmdFlags.StringP(
		"log-level",
		"l",
		"",
		"log level: debug, info, warn or error.")
}

// initConfig loads the configuration, applies flag overrides and validates the result.
func initConfig(cmd *cobra.Command, _ []string) {
	var err error

	appConfig, err = config.LoadConfig(configFilenameFromFlag)
	if err != nil {
		logger.Fatalf(cmd.Context(), "Failed to load configuration: %v", err)
	}

	if err = bindFlagsToConfig(cmd.Flags(), appConfig); err != nil {
		logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
	}

	logger.SetLevel(appConfig.ParsedLogLevel)
}

// bindFlagsToConfig overrides configuration values with explicitly set flags and validates the result.
func bindFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	overrides := []struct {
		name   string
		target *string
	}{
		{name: "url", target: &cfg.Ingestion.SourceURL},
		{name: "output", target: &cfg.Ingestion.LocalDataFile},
		{name: "unzip-dir", target: &cfg.Ingestion.UnzipDir},
		{name: "speed-limit", target: &cfg.DownloadSpeedLimit},
		{name: "timeout", target: &cfg.DownloadTimeout},
		{name: "log-level", target: &cfg.LogLevel},
	}

	for _, override := range overrides {
		if flag := flags.Lookup(override.name); flag != nil && flag.Changed {
			*override.target = flag.Value.String()
		}
	}

	return config.ValidateConfig(cfg)
}
