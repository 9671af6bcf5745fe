package ingestion

import (
	"archive/zip"
	"bytes"
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/ml-pipeline/internal/constants"
	"github.com/oshokin/ml-pipeline/internal/logger"
)

// archiveEntry is a single entry of a test archive. Names ending in "/" are directories.
type archiveEntry struct {
	name    string
	content string
}

// buildArchive returns a ZIP archive holding entries in order.
func buildArchive(t *testing.T, entries ...archiveEntry) []byte {
	t.Helper()

	var buffer bytes.Buffer

	writer := zip.NewWriter(&buffer)

	for _, entry := range entries {
		w, err := writer.Create(entry.name)
		require.NoError(t, err)

		if entry.content != "" {
			_, err = w.Write([]byte(entry.content))
			require.NoError(t, err)
		}
	}

	require.NoError(t, writer.Close())

	return buffer.Bytes()
}

// datasetArchive is the archive served by test servers.
func datasetArchive(t *testing.T) []byte {
	t.Helper()

	return buildArchive(t,
		archiveEntry{name: "images/"},
		archiveEntry{name: "images/cat.jpg", content: "\xff\xd8cat"},
		archiveEntry{name: "images/dog.jpg", content: "\xff\xd8dog"},
		archiveEntry{name: "labels.csv", content: "file,label\ncat.jpg,0\ndog.jpg,1\n"},
	)
}

// newArchiveServer serves payload and counts the requests it receives.
func newArchiveServer(t *testing.T, payload []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)

	return server, &requests
}

// observedContext returns a context carrying a logger whose entries are recorded.
func observedContext(t *testing.T) (context.Context, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)

	return logger.ToContext(context.Background(), zap.New(core).Sugar()), logs
}

// writeTestFile writes content to path, creating parent directories.
func writeTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), constants.DefaultFolderPermissions))
	require.NoError(t, os.WriteFile(path, content, constants.DefaultFilePermissions))
}

// snapshotDir maps every file below root to its content; directories map to "/".
func snapshotDir(t *testing.T, root string) map[string]string {
	t.Helper()

	snapshot := make(map[string]string)

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relative, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if entry.IsDir() {
			snapshot[filepath.ToSlash(relative)] = "/"

			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		snapshot[filepath.ToSlash(relative)] = string(content)

		return nil
	})
	require.NoError(t, err)

	return snapshot
}
