package utils

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/ml-pipeline/internal/constants"
	"github.com/oshokin/ml-pipeline/internal/logger"
)

const (
	// bytesInKilobyte is the divisor used by GetSize.
	bytesInKilobyte = 1024

	// sizePrecision is the number of decimals GetSize rounds to.
	sizePrecision = 2

	// kilobyteSuffix is appended to every size reported by GetSize.
	kilobyteSuffix = " KB"

	// File options for overwriting an existing file.
	overwriteFileOptions = os.O_CREATE | os.O_TRUNC | os.O_WRONLY
)

// Static error definitions for better error handling.
var (
	// ErrEmptyPath indicates that a required file or directory path is empty.
	ErrEmptyPath = errors.New("path cannot be empty")
	// ErrNilData indicates that a nil mapping was passed where data is required.
	ErrNilData = errors.New("data cannot be nil")
)

// SafeUint64ToInt64 converts a uint64 value to an int64 safely,
// ensuring that the value does not exceed the maximum limit of int64.
func SafeUint64ToInt64(val uint64) int64 {
	if val > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(val)
}

// IsFileExist checks if a file exists at the specified path.
// It returns true if the file exists and is not a directory, false if the file does not exist,
// and an error if there was an issue accessing the file.
func IsFileExist(path string) (bool, error) {
	stat, err := os.Stat(path)
	if err == nil {
		return !stat.IsDir(), nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// CreateDirectories creates every directory in paths, including missing parents.
// Directories that already exist are left untouched.
// When verbose is set, each created directory is logged.
func CreateDirectories(ctx context.Context, paths []string, verbose bool) error {
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			return ErrEmptyPath
		}

		if err := os.MkdirAll(filepath.Clean(path), constants.DefaultFolderPermissions); err != nil {
			return fmt.Errorf("failed to create directory '%s': %w", path, err)
		}

		if verbose {
			logger.Infof(ctx, "Directory created at: %s", path)
		}
	}

	return nil
}

// GetSize returns the size of a file in kilobytes, rounded to two decimals, e.g. "1.5 KB".
func GetSize(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}

	stat, err := os.Stat(filepath.Clean(path))
	if err != nil {
		return "", err
	}

	size := stat.Size()
	formatted := FormatKilobytes(size)

	logger.Infof(ctx, "file: %s has size: %s (%s)", path, formatted, humanize.IBytes(uint64(max(size, 0))))

	return formatted, nil
}

// FormatKilobytes renders a byte count the way GetSize reports it.
// Whole numbers keep one decimal, so 2048 bytes is "2.0 KB".
func FormatKilobytes(size int64) string {
	scale := math.Pow10(sizePrecision)
	kilobytes := math.Round(float64(size)/bytesInKilobyte*scale) / scale

	result := strconv.FormatFloat(kilobytes, 'f', -1, 64)
	if !strings.Contains(result, ".") {
		result += ".0"
	}

	return result + kilobyteSuffix
}
