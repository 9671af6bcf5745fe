package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/ml-pipeline/internal/constants"
	"github.com/oshokin/ml-pipeline/internal/logger"
)

// jsonIndent is the indentation SaveJSON writes with.
const jsonIndent = "    "

// Static error definitions for structured documents.
var (
	// ErrEmptyDocument indicates that a YAML file holds no document: only whitespace, comments or null.
	ErrEmptyDocument = errors.New("the yaml file is empty")
	// ErrNotMapping indicates that a YAML document's root is not a mapping.
	ErrNotMapping = errors.New("document root is not a mapping")
)

// ReadYAML reads a YAML file and returns its root mapping.
// A file without a document yields ErrEmptyDocument; other parse errors are returned wrapped.
func ReadYAML(ctx context.Context, path string) (Document, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer file.Close() //nolint:errcheck // Error on close is not critical for reads.

	var content any

	err = yaml.NewDecoder(file).Decode(&content)
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse yaml file '%s': %w", path, err)
	}

	if content == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}

	document, ok := asDocument(content)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotMapping, path)
	}

	logger.Infof(ctx, "yaml file: %s loaded successfully", path)

	return document, nil
}

// SaveJSON writes data to path as JSON indented with four spaces.
func SaveJSON(ctx context.Context, path string, data map[string]any) (err error) {
	if path == "" {
		return ErrEmptyPath
	}

	if data == nil {
		return ErrNilData
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

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", jsonIndent)
	encoder.SetEscapeHTML(false)

	if err = encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode json file '%s': %w", path, err)
	}

	logger.Infof(ctx, "json file: %s saved successfully", path)

	return nil
}

// LoadJSON reads a JSON object from path.
// Numbers are decoded as float64, matching encoding/json defaults.
func LoadJSON(ctx context.Context, path string) (Document, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer file.Close() //nolint:errcheck // Error on close is not critical for reads.

	var content map[string]any
	if err = json.NewDecoder(file).Decode(&content); err != nil {
		return nil, fmt.Errorf("failed to parse json file '%s': %w", path, err)
	}

	logger.Infof(ctx, "json file: %s loaded successfully", path)

	return Document(content), nil
}
