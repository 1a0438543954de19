package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigTokenBudgetValid(t *testing.T) {
	cfg := DefaultConfig()
	require.True(t, cfg.TokenBudget.Valid())
	require.Equal(t, cfg.TokenBudget.MaxTokens-cfg.TokenBudget.SystemReserve, cfg.TokenBudget.Available())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().TokenBudget, cfg.TokenBudget)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Debate.MaxRounds = 9

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9, loaded.Debate.MaxRounds)
}

func TestEnvOverrideMaxRounds(t *testing.T) {
	t.Setenv("COORD_MAX_ROUNDS", "7")
	path := filepath.Join(t.TempDir(), "missing.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Debate.MaxRounds)
}

func TestTierBudgetsConfigBudgetFor(t *testing.T) {
	tiers := DefaultConfig().Tiers
	require.Equal(t, tiers.Cloud, tiers.BudgetFor("cloud"))
	require.Equal(t, tiers.Implementer, tiers.BudgetFor("unknown-tier"))
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	require.NoError(t, cfg.Save(path))

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, cfg, func(c *Config) { reloaded <- c })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	cfg.Debate.MaxRounds = 11
	require.NoError(t, cfg.Save(path))

	select {
	case got := <-reloaded:
		require.Equal(t, 11, got.Debate.MaxRounds)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestSaveCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")
	require.NoError(t, DefaultConfig().Save(path))
	_, err := os.Stat(path)
	require.NoError(t, err)
}
