package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/ml-pipeline/internal/client/fetch"
	"github.com/oshokin/ml-pipeline/internal/config"
	"github.com/oshokin/ml-pipeline/internal/logger"
	"github.com/oshokin/ml-pipeline/internal/service/ingestion"
	"github.com/oshokin/ml-pipeline/internal/utils"
)

// Stage selects which part of data ingestion a command runs.
type Stage string

const (
	// StageIngest downloads and extracts the dataset.
	StageIngest Stage = "ingest"
	// StageDownload only downloads the dataset archive.
	StageDownload Stage = "download"
	// StageExtract only extracts an already downloaded archive.
	StageExtract Stage = "extract"
)

// ErrUnknownStage indicates a stage name that no command maps to.
var ErrUnknownStage = errors.New("unknown stage")

// ExecuteStageCommand is the entry point of the stage commands.
// It prepares the artifacts directory, builds the ingestion service and runs the stage.
func ExecuteStageCommand(ctx context.Context, cfg *config.Config, stage Stage) {
	ctx = logger.WithKV(ctx, "stage", string(stage))

	if cfg.ArtifactsRoot != "" {
		if err := utils.CreateDirectories(ctx, []string{cfg.ArtifactsRoot}, true); err != nil {
			logger.Fatalf(ctx, "Failed to prepare artifacts directory: %v", err)
		}
	}

	if err := RunStage(ctx, NewIngestionService(cfg), stage); err != nil {
		logger.Fatalf(ctx, "Stage failed: %v", err)
	}
}

// NewIngestionService builds the ingestion service from a validated configuration.
func NewIngestionService(cfg *config.Config) ingestion.Service {
	client := fetch.NewClient(fetch.Options{
		Timeout: cfg.ParsedDownloadTimeout,
	})

	return ingestion.NewService(cfg.DataIngestion(), client, ingestion.Options{
		SpeedLimit:   cfg.ParsedDownloadSpeedLimit,
		ShowProgress: true,
	})
}

// RunStage runs stage on s.
func RunStage(ctx context.Context, s ingestion.Service, stage Stage) error {
	switch stage {
	case StageIngest:
		return s.Run(ctx)
	case StageDownload:
		result, err := s.Download(ctx)
		if err != nil {
			return err
		}

		if !result.Skipped {
			logger.Infof(ctx, "Downloaded %s to %s", result.Size, result.Path)
		}

		return nil
	case StageExtract:
		result, err := s.Extract(ctx)
		if err != nil {
			return err
		}

		logger.Infof(ctx, "Extracted %d files into %s", result.Files, result.Directory)

		return nil
	default:
		return fmt.Errorf("%w: '%s'", ErrUnknownStage, stage)
	}
}
