package ingestion

//go:generate $MOCKGEN -source=service.go -destination=mocks/service_mock.go

import (
	"context"
	"net/http"
	"time"

	"github.com/oshokin/ml-pipeline/internal/client/fetch"
	"github.com/oshokin/ml-pipeline/internal/config"
	"github.com/oshokin/ml-pipeline/internal/logger"
	"github.com/oshokin/ml-pipeline/internal/utils"
)

// Service runs the data ingestion stage.
type Service interface {
	// Download fetches the archive unless the local file already exists.
	Download(ctx context.Context) (*DownloadResult, error)
	// Extract unpacks the local archive into the extraction directory.
	Extract(ctx context.Context) (*ExtractResult, error)
	// Run creates the stage directory, then downloads and extracts the archive.
	Run(ctx context.Context) error
	// LastSummary returns the summary of the most recent successful Run, or nil.
	LastSummary() *Summary
}

// Options tunes how the archive is transferred.
type Options struct {
	// SpeedLimit caps the transfer at this many bytes per second. Zero means unlimited.
	SpeedLimit int64
	// ShowProgress renders a progress bar while downloading at info level or below.
	ShowProgress bool
}

// DownloadResult describes the outcome of Download.
type DownloadResult struct {
	// Path is the local archive path.
	Path string
	// Skipped is set when the archive already existed and no transfer happened.
	Skipped bool
	// BytesWritten is the number of bytes transferred.
	BytesWritten int64
	// ContentLength is the length advertised by the server, or -1 when unknown.
	ContentLength int64
	// Header holds the response headers of the transfer.
	Header http.Header
	// Size is the archive size as reported by utils.GetSize.
	Size string
}

// ExtractResult describes the outcome of Extract.
type ExtractResult struct {
	// Directory is where the archive was extracted.
	Directory string
	// Files is the number of regular files written.
	Files int
	// Directories is the number of directory entries created.
	Directories int
}

// ServiceImpl implements Service.
type ServiceImpl struct {
	cfg         config.DataIngestionConfig
	client      fetch.Client
	opts        Options
	lastSummary *Summary
}

// NewService creates a data ingestion service.
func NewService(cfg config.DataIngestionConfig, client fetch.Client, opts Options) Service {
	return &ServiceImpl{
		cfg:    cfg,
		client: client,
		opts:   opts,
	}
}

// Run executes the whole stage. Errors from any step are returned as is.
func (s *ServiceImpl) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "data_ingestion")

	logger.Info(ctx, "Stage started")

	summary := &Summary{StartTime: time.Now()}

	if rootDir := s.cfg.RootDir(); rootDir != "" {
		if err := utils.CreateDirectories(ctx, []string{rootDir}, true); err != nil {
			return err
		}
	}

	var err error

	if summary.Download, err = s.Download(ctx); err != nil {
		return err
	}

	if summary.Extract, err = s.Extract(ctx); err != nil {
		return err
	}

	summary.EndTime = time.Now()
	s.lastSummary = summary

	printSummary(ctx, summary)

	logger.Info(ctx, "Stage completed")

	return nil
}

// LastSummary returns the summary of the most recent successful Run.
func (s *ServiceImpl) LastSummary() *Summary {
	return s.lastSummary
}
