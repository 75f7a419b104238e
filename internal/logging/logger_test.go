package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("development logger ready")
}

func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("production logger ready")
}

func TestNewWithFileWritesJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "showcase.log")
	logger, err := NewWithFile(false, path)
	require.NoError(t, err)
	logger.Info("project synced", zap.Int("project_id", 4), zap.String("outcome", "synced"))
	_ = logger.Sync()

	// #nosec G304 -- test reads from the controlled temp directory.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"project synced"`)
	assert.Contains(t, string(data), `"project_id":4`)
}

func TestNewWithFileEmptyPath(t *testing.T) {
	t.Parallel()

	logger, err := NewWithFile(false, "  ")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
