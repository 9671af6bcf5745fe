package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/ml-pipeline/internal/app"
)

var (
	//nolint:gochecknoglobals // Cobra command requires a global definition.
	ingestCmd = &cobra.Command{
		Use:   "ingest",
		Short: "Download the dataset archive and extract it",
		Long: `Runs the whole data ingestion stage.

The archive is downloaded only when the local file does not exist yet;
an existing file is reused as is. The archive is then extracted into the
configured directory, overwriting files with the same names.`,
		Args:             cobra.NoArgs,
		PersistentPreRun: initConfig,
		Run: func(cmd *cobra.Command, _ []string) {
			app.ExecuteStageCommand(cmd.Context(), appConfig, app.StageIngest)
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	downloadCmd = &cobra.Command{
		Use:              "download",
		Short:            "Download the dataset archive unless it is already present",
		Args:             cobra.NoArgs,
		PersistentPreRun: initConfig,
		Run: func(cmd *cobra.Command, _ []string) {
			app.ExecuteStageCommand(cmd.Context(), appConfig, app.StageDownload)
		},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	extractCmd = &cobra.Command{
		Use:              "extract",
		Short:            "Extract the downloaded dataset archive",
		Args:             cobra.NoArgs,
		PersistentPreRun: initConfig,
		Run: func(cmd *cobra.Command, _ []string) {
			app.ExecuteStageCommand(cmd.Context(), appConfig, app.StageExtract)
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	rootCmd.AddCommand(ingestCmd, downloadCmd, extractCmd)
}
