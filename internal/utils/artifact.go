package utils

import (
	"bufio"
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/ml-pipeline/internal/constants"
	"github.com/oshokin/ml-pipeline/internal/logger"
)

// ArtifactFormatVersion is the version byte written after the artifact magic.
const ArtifactFormatVersion byte = 1

// Static error definitions for binary artifacts.
var (
	// ErrInvalidArtifact indicates that a file does not start with the artifact magic.
	ErrInvalidArtifact = errors.New("not a binary artifact")
	// ErrUnsupportedArtifactVersion indicates an artifact written by an incompatible format version.
	ErrUnsupportedArtifactVersion = errors.New("unsupported binary artifact version")
)

//nolint:gochecknoglobals // Immutable file signature.
var artifactMagic = []byte("MLBIN")

// SaveBin serializes data to path with encoding/gob behind a versioned header.
// Values stored in interface-typed fields must be registered with gob.Register beforehand.
func SaveBin[T any](ctx context.Context, data T, path string) (err error) {
	if path == "" {
		return ErrEmptyPath
	}

	file, err := os.OpenFile(filepath.Clean(path), overwriteFileOptions, constants.DefaultFilePermissions)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	writer := bufio.NewWriter(file)

	if _, err = writer.Write(artifactMagic); err != nil {
		return err
	}

	if err = writer.WriteByte(ArtifactFormatVersion); err != nil {
		return err
	}

	if err = gob.NewEncoder(writer).Encode(data); err != nil {
		return fmt.Errorf("failed to encode binary file '%s': %w", path, err)
	}

	if err = writer.Flush(); err != nil {
		return err
	}

	logger.Infof(ctx, "binary file: %s saved successfully", path)

	return nil
}

// LoadBin restores a value written by SaveBin.
func LoadBin[T any](ctx context.Context, path string) (T, error) {
	var result T

	if path == "" {
		return result, ErrEmptyPath
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return result, err
	}

	defer file.Close() //nolint:errcheck // Error on close is not critical for reads.

	reader := bufio.NewReader(file)

	header := make([]byte, len(artifactMagic)+1)
	if _, err = io.ReadFull(reader, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return result, fmt.Errorf("%w: %s", ErrInvalidArtifact, path)
		}

		return result, err
	}

	if !bytes.Equal(header[:len(artifactMagic)], artifactMagic) {
		return result, fmt.Errorf("%w: %s", ErrInvalidArtifact, path)
	}

	if version := header[len(artifactMagic)]; version != ArtifactFormatVersion {
		return result, fmt.Errorf("%w: %d in %s", ErrUnsupportedArtifactVersion, version, path)
	}

	if err = gob.NewDecoder(reader).Decode(&result); err != nil {
		return result, fmt.Errorf("failed to decode binary file '%s': %w", path, err)
	}

	logger.Infof(ctx, "binary file: %s loaded successfully", path)

	return result, nil
}
