package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, ws string, debug bool) {
	t.Helper()
	dir := filepath.Join(ws, ".coord")
	require.NoError(t, os.MkdirAll(dir, 0755))
	content := `{"logging":{"debug_mode":true,"level":"debug"}}`
	if !debug {
		content = `{"logging":{"debug_mode":false}}`
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0644))
}

func TestInitializeCreatesLogsDirWhenDebug(t *testing.T) {
	ws := t.TempDir()
	writeTestConfig(t, ws, true)
	t.Cleanup(CloseAll)

	require.NoError(t, Initialize(ws))
	require.True(t, IsDebugMode())

	info, err := os.Stat(filepath.Join(ws, ".coord", "logs"))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestInitializeNoopWithoutDebug(t *testing.T) {
	ws := t.TempDir()
	writeTestConfig(t, ws, false)
	t.Cleanup(CloseAll)

	require.NoError(t, Initialize(ws))
	require.False(t, IsDebugMode())

	_, err := os.Stat(filepath.Join(ws, ".coord", "logs"))
	require.True(t, os.IsNotExist(err))
}

func TestGetReturnsNoopLoggerWhenDisabled(t *testing.T) {
	ws := t.TempDir()
	writeTestConfig(t, ws, false)
	t.Cleanup(CloseAll)
	require.NoError(t, Initialize(ws))

	l := Get(CategoryEscalation)
	require.NotNil(t, l)
	// Should not panic even though the underlying file logger is nil.
	l.Info("no-op")
	l.Debug("no-op")
}

func TestCategoryLoggerWritesFile(t *testing.T) {
	ws := t.TempDir()
	writeTestConfig(t, ws, true)
	t.Cleanup(CloseAll)
	require.NoError(t, Initialize(ws))

	Get(CategoryDebate).Info("round %d started", 1)

	entries, err := os.ReadDir(filepath.Join(ws, ".coord", "logs"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}

func TestStructuredReturnsUsableSink(t *testing.T) {
	s := Structured()
	require.NotNil(t, s)
	s.Infow("test", "k", "v")
}

func TestTimerStopWithThreshold(t *testing.T) {
	timer := StartTimer(CategoryPerf, "op")
	elapsed := timer.StopWithThreshold(0)
	require.GreaterOrEqual(t, elapsed.Nanoseconds(), int64(0))
}
