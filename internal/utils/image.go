package utils

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/ml-pipeline/internal/constants"
	"github.com/oshokin/ml-pipeline/internal/logger"
)

// DecodeImage decodes standard base64 data and writes the bytes to filename.
// Nothing is written when the input is malformed.
func DecodeImage(ctx context.Context, encoded []byte, filename string) error {
	if filename == "" {
		return ErrEmptyPath
	}

	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))

	n, err := base64.StdEncoding.Decode(decoded, encoded)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(filename), decoded[:n], constants.DefaultFilePermissions); err != nil {
		return err
	}

	logger.Infof(ctx, "image file: %s decoded successfully", filename)

	return nil
}

// EncodeImage returns the standard base64 encoding of the file at path.
func EncodeImage(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(content)))
	base64.StdEncoding.Encode(encoded, content)

	logger.Infof(ctx, "image file: %s encoded successfully", path)

	return encoded, nil
}
