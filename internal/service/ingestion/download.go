package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/oshokin/ml-pipeline/internal/constants"
	"github.com/oshokin/ml-pipeline/internal/logger"
	"github.com/oshokin/ml-pipeline/internal/utils"
)

// File options for overwriting an existing file.
const overwriteFileOptions = os.O_CREATE | os.O_TRUNC | os.O_WRONLY

// Download fetches the archive to the local data file unless that file already exists.
// An existing file is trusted as is: its size is reported and no request is made.
func (s *ServiceImpl) Download(ctx context.Context) (*DownloadResult, error) {
	localDataFile := s.cfg.LocalDataFile()
	if localDataFile == "" {
		return nil, utils.ErrEmptyPath
	}

	isExist, err := utils.IsFileExist(localDataFile)
	if err != nil {
		return nil, err
	}

	if isExist {
		size, sizeErr := utils.GetSize(ctx, localDataFile)
		if sizeErr != nil {
			return nil, sizeErr
		}

		logger.Infof(ctx, "File already exists of size: %s", size)

		return &DownloadResult{
			Path:          localDataFile,
			Skipped:       true,
			ContentLength: -1,
			Size:          size,
		}, nil
	}

	sourceURL := s.cfg.SourceURL()
	if sourceURL == "" {
		return nil, ErrEmptySourceURL
	}

	if err = utils.CreateDirectories(ctx, []string{filepath.Dir(localDataFile)}, false); err != nil {
		return nil, err
	}

	fetchResult, err := s.client.Fetch(ctx, sourceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch '%s': %w", sourceURL, err)
	}

	defer fetchResult.Body.Close() //nolint:errcheck // Error on close is not critical here.

	// Download to a temporary .part file first so a finished archive appears atomically.
	tempFilePath := localDataFile + "." + uuid.NewString() + constants.ExtensionPart

	bytesWritten, err := s.writeTempFile(ctx, tempFilePath, fetchResult.Body, fetchResult.ContentLength)
	if err != nil {
		return nil, err
	}

	if err = os.Rename(tempFilePath, localDataFile); err != nil {
		_ = os.Remove(tempFilePath)

		return nil, fmt.Errorf("failed to move downloaded file into place: %w", err)
	}

	logger.Infof(ctx, "File: %s downloaded with info: \n%s", localDataFile, formatHeaders(fetchResult.Header))
	logger.DebugKV(ctx, "Transfer finished",
		"bytes", bytesWritten,
		"content_length", fetchResult.ContentLength,
		"size", humanize.IBytes(uint64(max(bytesWritten, 0))))

	return &DownloadResult{
		Path:          localDataFile,
		BytesWritten:  bytesWritten,
		ContentLength: fetchResult.ContentLength,
		Header:        fetchResult.Header,
		Size:          utils.FormatKilobytes(bytesWritten),
	}, nil
}

// writeTempFile streams body into path, removing the file again if anything fails.
func (s *ServiceImpl) writeTempFile(
	ctx context.Context,
	path string,
	body io.Reader,
	totalBytes int64,
) (bytesWritten int64, err error) {
	f, err := os.OpenFile(filepath.Clean(path), overwriteFileOptions, constants.DefaultFilePermissions)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	defer func() {
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close temporary file: %w", closeErr)
		}

		if err == nil {
			return
		}

		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			logger.Warnf(ctx, "Failed to clean up temporary file '%s': %v", path, removeErr)
		}
	}()

	var writer io.Writer = f

	if s.opts.ShowProgress && logger.Level() <= zap.InfoLevel {
		bar := progressbar.DefaultBytes(totalBytes, "Downloading")
		defer bar.Close() //nolint:errcheck // The bar only renders to the terminal.

		writer = io.MultiWriter(f, bar)
	}

	bytesWritten, err = copyWithLimit(ctx, writer, body, s.opts.SpeedLimit)
	if err != nil {
		return bytesWritten, fmt.Errorf("failed to write file: %w", err)
	}

	return bytesWritten, nil
}

// copyWithLimit copies src to dst, pausing after every limit bytes so that
// at most limit bytes are written per second. A zero limit copies without pauses.
func copyWithLimit(ctx context.Context, dst io.Writer, src io.Reader, limit int64) (int64, error) {
	if limit <= 0 {
		return io.Copy(dst, src)
	}

	var bytesWritten int64

	for {
		n, err := io.CopyN(dst, src, limit)
		bytesWritten += n

		if errors.Is(err, io.EOF) {
			return bytesWritten, nil
		}

		if err != nil {
			return bytesWritten, err
		}

		select {
		case <-ctx.Done():
			return bytesWritten, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

// formatHeaders renders response headers one per line in a stable order.
func formatHeaders(header http.Header) string {
	keys := make([]string, 0, len(header))
	for key := range header {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	var builder strings.Builder
	for _, key := range keys {
		builder.WriteString(key)
		builder.WriteString(": ")
		builder.WriteString(strings.Join(header[key], ", "))
		builder.WriteString("\n")
	}

	return builder.String()
}
