package ingestion

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/ml-pipeline/internal/constants"
	"github.com/oshokin/ml-pipeline/internal/logger"
	"github.com/oshokin/ml-pipeline/internal/utils"
)

// Extract unpacks every entry of the local archive into the extraction directory.
// Existing files with the same names are overwritten; other files in the directory are kept.
func (s *ServiceImpl) Extract(ctx context.Context) (*ExtractResult, error) {
	var (
		localDataFile = s.cfg.LocalDataFile()
		unzipDir      = s.cfg.UnzipDir()
	)

	if localDataFile == "" || unzipDir == "" {
		return nil, utils.ErrEmptyPath
	}

	if err := utils.CreateDirectories(ctx, []string{unzipDir}, false); err != nil {
		return nil, err
	}

	reader, err := zip.OpenReader(filepath.Clean(localDataFile))
	if errors.Is(err, zip.ErrInsecurePath) {
		reader.Close() //nolint:errcheck,gosec // The archive is rejected anyway.

		return nil, fmt.Errorf("%w: %w", ErrIllegalArchivePath, err)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open archive '%s': %w", localDataFile, err)
	}

	defer reader.Close() //nolint:errcheck // Error on close is not critical for reads.

	result := &ExtractResult{Directory: unzipDir}

	for _, file := range reader.File {
		target, joinErr := archiveEntryPath(unzipDir, file.Name)
		if joinErr != nil {
			return nil, joinErr
		}

		if file.FileInfo().IsDir() {
			if err = os.MkdirAll(target, constants.DefaultFolderPermissions); err != nil {
				return nil, err
			}

			result.Directories++

			continue
		}

		if err = extractFile(file, target); err != nil {
			return nil, fmt.Errorf("failed to extract '%s': %w", file.Name, err)
		}

		result.Files++
	}

	logger.Infof(ctx, "Archive %s extracted to %s (%d files, %d directories)",
		localDataFile, unzipDir, result.Files, result.Directories)

	return result, nil
}

// archiveEntryPath resolves an entry name inside root, rejecting names that escape it.
func archiveEntryPath(root, name string) (string, error) {
	localName := filepath.FromSlash(name)
	if filepath.IsAbs(localName) || filepath.VolumeName(localName) != "" {
		return "", fmt.Errorf("%w: %s", ErrIllegalArchivePath, name)
	}

	target := filepath.Join(root, localName)

	relative, err := filepath.Rel(filepath.Clean(root), target)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrIllegalArchivePath, name)
	}

	if relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrIllegalArchivePath, name)
	}

	return target, nil
}

// extractFile writes a single archive entry to target, truncating any existing file.
func extractFile(file *zip.File, target string) (err error) {
	if err = os.MkdirAll(filepath.Dir(target), constants.DefaultFolderPermissions); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return err
	}

	defer src.Close() //nolint:errcheck // Error on close is not critical for reads.

	dst, err := os.OpenFile(filepath.Clean(target), overwriteFileOptions, constants.DefaultFilePermissions)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	//nolint:gosec // Archives come from the configured dataset source; size limits are out of scope.
	_, err = io.Copy(dst, src)

	return err
}
