//nolint:nolintlint,revive // utils is a common and acceptable package name for utility functions.
package utils

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/ml-pipeline/internal/constants"
	"github.com/oshokin/ml-pipeline/internal/logger"
)

// observedContext returns a context carrying a logger whose entries are recorded.
func observedContext(t *testing.T) (context.Context, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.InfoLevel)

	return logger.ToContext(context.Background(), zap.New(core).Sugar()), logs
}

// writeFile creates a file with the given content inside a temporary directory.
func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, constants.DefaultFilePermissions))

	return path
}

// TestSafeUint64ToInt64 tests the SafeUint64ToInt64 function.
func TestSafeUint64ToInt64(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    uint64
		expected int64
	}{
		{
			name:     "normal value",
			input:    100,
			expected: 100,
		},
		{
			name:     "zero value",
			input:    0,
			expected: 0,
		},
		{
			name:     "max int64 value",
			input:    9223372036854775807,
			expected: 9223372036854775807,
		},
		{
			name:     "value exceeding max int64",
			input:    9223372036854775808,
			expected: 9223372036854775807,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, SafeUint64ToInt64(tt.input))
		})
	}
}

// TestIsFileExist tests the IsFileExist function.
func TestIsFileExist(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "data.zip", []byte("archive"))

	isExist, err := IsFileExist(path)
	require.NoError(t, err)
	assert.True(t, isExist)

	isExist, err = IsFileExist(filepath.Dir(path))
	require.NoError(t, err)
	assert.False(t, isExist, "directories are not files")

	isExist, err = IsFileExist(filepath.Join(t.TempDir(), "missing.zip"))
	require.NoError(t, err)
	assert.False(t, isExist)
}

// TestCreateDirectories tests that creating the same directories twice succeeds.
func TestCreateDirectories(t *testing.T) {
	t.Parallel()

	ctx, logs := observedContext(t)
	root := t.TempDir()
	paths := []string{
		filepath.Join(root, "artifacts"),
		filepath.Join(root, "artifacts", "data_ingestion", "raw"),
	}

	require.NoError(t, CreateDirectories(ctx, paths, true))
	require.NoError(t, CreateDirectories(ctx, paths, false))

	for _, path := range paths {
		stat, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, stat.IsDir())
	}

	assert.Equal(t, 2, logs.FilterMessageSnippet("Directory created at").Len(), "only the verbose call logs")
}

// TestCreateDirectories_Errors tests the failure cases of CreateDirectories.
func TestCreateDirectories_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	require.ErrorIs(t, CreateDirectories(ctx, []string{""}, true), ErrEmptyPath)

	// A regular file blocks the directory path.
	blocker := writeFile(t, "blocker", []byte("x"))
	require.Error(t, CreateDirectories(ctx, []string{filepath.Join(blocker, "child")}, true))
}

// TestFormatKilobytes tests the size formatting.
func TestFormatKilobytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		size     int64
		expected string
	}{
		{name: "empty file", size: 0, expected: "0.0 KB"},
		{name: "whole kilobytes", size: 2048, expected: "2.0 KB"},
		{name: "half kilobyte", size: 1536, expected: "1.5 KB"},
		{name: "rounded to two decimals", size: 1263, expected: "1.23 KB"},
		{name: "rounds up", size: 1535, expected: "1.5 KB"},
		{name: "one byte", size: 1, expected: "0.0 KB"},
		{name: "megabyte", size: 1024 * 1024, expected: "1024.0 KB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, FormatKilobytes(tt.size))
		})
	}
}

// TestGetSize tests the GetSize function.
func TestGetSize(t *testing.T) {
	t.Parallel()

	ctx, logs := observedContext(t)

	size, err := GetSize(ctx, writeFile(t, "two.bin", make([]byte, 2048)))
	require.NoError(t, err)
	assert.Equal(t, "2.0 KB", size)

	size, err = GetSize(ctx, writeFile(t, "one-and-half.bin", make([]byte, 1536)))
	require.NoError(t, err)
	assert.Equal(t, "1.5 KB", size)

	assert.Equal(t, 2, logs.FilterMessageSnippet("has size").Len())

	_, err = GetSize(ctx, filepath.Join(t.TempDir(), "missing.bin"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = GetSize(ctx, "")
	require.ErrorIs(t, err, ErrEmptyPath)
}

// TestReadYAML tests the ReadYAML function.
func TestReadYAML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		content     string
		expectedErr error
		errorMsg    string
	}{
		{
			name: "valid mapping",
			content: `
artifacts_root: artifacts
data_ingestion:
  source_url: https://example.com/data.zip
  batch: 32
`,
		},
		{
			name:        "empty file",
			content:     "",
			expectedErr: ErrEmptyDocument,
		},
		{
			name:        "whitespace only",
			content:     "  \n\n\t\n",
			expectedErr: ErrEmptyDocument,
		},
		{
			name:        "comments only",
			content:     "# nothing configured yet\n# source_url: later\n",
			expectedErr: ErrEmptyDocument,
		},
		{
			name:        "explicit null",
			content:     "~\n",
			expectedErr: ErrEmptyDocument,
		},
		{
			name:        "sequence root",
			content:     "- a\n- b\n",
			expectedErr: ErrNotMapping,
		},
		{
			name:     "malformed yaml",
			content:  "invalid: yaml: content: [unclosed\n",
			errorMsg: "failed to parse yaml file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeFile(t, "config.yaml", []byte(tt.content))

			document, err := ReadYAML(context.Background(), path)

			switch {
			case tt.expectedErr != nil:
				require.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, document)
			case tt.errorMsg != "":
				require.Error(t, err)
				require.NotErrorIs(t, err, ErrEmptyDocument)
				assert.Contains(t, err.Error(), tt.errorMsg)
			default:
				require.NoError(t, err)

				sourceURL, ok := document.String("data_ingestion.source_url")
				require.True(t, ok)
				assert.Equal(t, "https://example.com/data.zip", sourceURL)

				batch, ok := document.Int("data_ingestion.batch")
				require.True(t, ok)
				assert.Equal(t, 32, batch)
			}
		})
	}
}

// TestReadYAML_MissingFile tests that filesystem errors propagate.
func TestReadYAML_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := ReadYAML(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = ReadYAML(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyPath)
}

// TestJSONRoundTrip tests that LoadJSON returns what SaveJSON wrote.
func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	ctx, logs := observedContext(t)
	path := filepath.Join(t.TempDir(), "scores.json")

	data := map[string]any{
		"accuracy": 0.9375,
		"epochs":   float64(12),
		"model":    "resnet<50>",
		"tags":     []any{"baseline", "augmented"},
		"best":     true,
		"missing":  nil,
		"params": map[string]any{
			"learning_rate": 0.001,
			"layers":        []any{float64(64), float64(32)},
		},
	}

	require.NoError(t, SaveJSON(ctx, path, data))

	loaded, err := LoadJSON(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Document(data), loaded)

	assert.Equal(t, 1, logs.FilterMessage("json file: "+path+" saved successfully").Len())
	assert.Equal(t, 1, logs.FilterMessage("json file: "+path+" loaded successfully").Len())
}

// TestSaveJSON_Indentation tests that output is indented with four spaces.
func TestSaveJSON_Indentation(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "scores.json")
	require.NoError(t, SaveJSON(context.Background(), path, map[string]any{"loss": 0.5}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"loss\": 0.5\n}\n", string(content))
}

// TestSaveJSON_Overwrites tests that saving twice keeps only the last document.
func TestSaveJSON_Overwrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scores.json")

	require.NoError(t, SaveJSON(ctx, path, map[string]any{"description": strings.Repeat("long ", 20)}))
	require.NoError(t, SaveJSON(ctx, path, map[string]any{"short": true}))

	loaded, err := LoadJSON(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, Document{"short": true}, loaded)
}

// TestJSON_Errors tests the failure cases of SaveJSON and LoadJSON.
func TestJSON_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	require.ErrorIs(t, SaveJSON(ctx, "", map[string]any{}), ErrEmptyPath)
	require.ErrorIs(t, SaveJSON(ctx, filepath.Join(dir, "nil.json"), nil), ErrNilData)
	require.ErrorIs(t, SaveJSON(ctx, filepath.Join(dir, "missing", "x.json"), map[string]any{}), os.ErrNotExist)

	_, err := LoadJSON(ctx, filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadJSON(ctx, writeFile(t, "broken.json", []byte("{\"a\": ")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse json file")

	_, err = LoadJSON(ctx, writeFile(t, "array.json", []byte("[1, 2]")))
	require.Error(t, err)
}

// trainedModel is a stand-in for a persisted artifact.
type trainedModel struct {
	Name     string
	Weights  []float64
	Classes  map[string]int
	Features [][]string
	Fitted   bool
}

// TestBinRoundTrip tests that LoadBin restores what SaveBin wrote.
func TestBinRoundTrip(t *testing.T) {
	t.Parallel()

	ctx, logs := observedContext(t)
	path := filepath.Join(t.TempDir(), "model"+constants.ExtensionBin)

	model := trainedModel{
		Name:     "logistic-regression",
		Weights:  []float64{0.25, -1.5, 3},
		Classes:  map[string]int{"cat": 0, "dog": 1},
		Features: [][]string{{"height", "weight"}, {"age"}},
		Fitted:   true,
	}

	require.NoError(t, SaveBin(ctx, model, path))

	loaded, err := LoadBin[trainedModel](ctx, path)
	require.NoError(t, err)
	assert.Equal(t, model, loaded)

	assert.Equal(t, 1, logs.FilterMessageSnippet("saved successfully").Len())
	assert.Equal(t, 1, logs.FilterMessageSnippet("loaded successfully").Len())
}

// TestBinRoundTrip_Scalars tests artifacts that are not structs.
func TestBinRoundTrip_Scalars(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "labels.bin")

	labels := []string{"negative", "neutral", "positive"}
	require.NoError(t, SaveBin(ctx, labels, path))

	loaded, err := LoadBin[[]string](ctx, path)
	require.NoError(t, err)
	assert.Equal(t, labels, loaded)
}

// TestLoadBin_Errors tests the failure cases of LoadBin.
func TestLoadBin_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := LoadBin[trainedModel](ctx, "")
	require.ErrorIs(t, err, ErrEmptyPath)

	_, err = LoadBin[trainedModel](ctx, filepath.Join(t.TempDir(), "missing.bin"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadBin[trainedModel](ctx, writeFile(t, "short.bin", []byte("ML")))
	require.ErrorIs(t, err, ErrInvalidArtifact)

	_, err = LoadBin[trainedModel](ctx, writeFile(t, "pickle.bin", []byte("\x80\x04\x95joblib-dump")))
	require.ErrorIs(t, err, ErrInvalidArtifact)

	_, err = LoadBin[trainedModel](ctx, writeFile(t, "future.bin", []byte("MLBIN\x07payload")))
	require.ErrorIs(t, err, ErrUnsupportedArtifactVersion)

	_, err = LoadBin[trainedModel](ctx, writeFile(t, "truncated.bin", []byte("MLBIN\x01")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode binary file")
}

// TestImageRoundTrip tests that decoding an encoded file restores its bytes.
func TestImageRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	original := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00, 0xff, 0x10, 0x80}
	source := writeFile(t, "input.png", original)

	encoded, err := EncodeImage(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, "iVBORw0KGgoA/xCA", string(encoded))

	destination := filepath.Join(t.TempDir(), "output.png")
	require.NoError(t, DecodeImage(ctx, encoded, destination))

	restored, err := os.ReadFile(destination)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

// TestDecodeImage_Malformed tests that malformed input is reported and nothing is written.
func TestDecodeImage_Malformed(t *testing.T) {
	t.Parallel()

	destination := filepath.Join(t.TempDir(), "output.png")

	err := DecodeImage(context.Background(), []byte("not*base64!"), destination)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode image")

	isExist, err := IsFileExist(destination)
	require.NoError(t, err)
	assert.False(t, isExist)
}

// TestImage_Errors tests path validation and missing files.
func TestImage_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := EncodeImage(ctx, filepath.Join(t.TempDir(), "missing.png"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = EncodeImage(ctx, "")
	require.ErrorIs(t, err, ErrEmptyPath)

	require.ErrorIs(t, DecodeImage(ctx, []byte("AAAA"), ""), ErrEmptyPath)
}
