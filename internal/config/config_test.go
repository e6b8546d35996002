package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_BuiltInDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"OTT"}, cfg.Strategies)
	assert.Equal(t, 5, cfg.MinTrades)
	assert.Equal(t, 55.0, cfg.MinWinRate)
	assert.True(t, cfg.UseSL)
	assert.True(t, cfg.UseTP)
	assert.False(t, cfg.Pyramiding)
	assert.False(t, cfg.ExcludeSL)
	assert.Equal(t, "results", cfg.OutputDir)
	assert.Equal(t, []float64{0.5, 1.0, 1.5, 2.0, 2.5, 3.0}, cfg.SLGrid)
	assert.Equal(t, []float64{0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}, cfg.TPGrid)
}

func TestLoad_DefaultGridsCoverEveryFamily(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	families := []string{
		"OTT", "TOTT", "OTT_CHANNEL", "RISOTTO", "SOTT",
		"HOTT-LOTT", "ROTT", "FT", "RTR", "MOTT", "BOOTS",
	}
	for _, f := range families {
		grid, ok := cfg.Grids[f]
		require.True(t, ok, "missing grid for %s", f)
		assert.NotEmpty(t, grid, "empty grid for %s", f)
	}

	assert.Equal(t, 5, len(cfg.Grids["OTT"]["support_length"]))
	assert.Equal(t, 2, len(cfg.Grids["OTT_CHANNEL"]["channel_type"]))
}

func TestLoad_YAMLFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "optimizer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
min_trades: 3
min_winrate: 60.5
output_dir: out
strategies:
  - SOTT
  - RTR
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.MinTrades)
	assert.Equal(t, 60.5, cfg.MinWinRate)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, []string{"SOTT", "RTR"}, cfg.Strategies)
	// Unset keys keep their built-in defaults.
	assert.True(t, cfg.UseSL)
	assert.Equal(t, []float64{0.5, 1.0, 1.5, 2.0, 2.5, 3.0}, cfg.SLGrid)
}

func TestLoad_FileCanOverrideAFamilyGrid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "optimizer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
grids:
  OTT:
    support_length: [10, 20]
    ott_multiplier: [1.0]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Len(t, cfg.Grids["OTT"]["support_length"], 2)
	assert.Len(t, cfg.Grids["OTT"]["ott_multiplier"], 1)
	// Other families keep their defaults.
	assert.NotEmpty(t, cfg.Grids["RTR"]["atr_length"])
}

func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("GRIDOPT_OUTPUT_DIR", "env-results")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-results", cfg.OutputDir)
}

func TestLoad_BadYAMLErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "optimizer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{not yaml"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
