package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
	assert.Equal(t, 0, cfg.Extraction.Workers)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"DATA_DIR":  "/srv/pages",
		"TRAIN_DIR": "/srv/pages/train",
		"LOG_LEVEL": "debug",
		"LOG_DEV":   "true",
		"WORKERS":   "8",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/pages", cfg.Data.Dir)
	assert.Equal(t, "/srv/pages/train", cfg.Data.TrainDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 8, cfg.Extraction.Workers)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "data", cfg.Data.Dir)
}

func TestDefaultParams(t *testing.T) {
	params := DefaultParams()
	assert.Equal(t, 15, params.CutoffWords)
	assert.Equal(t, 10, params.CutoffWordLength)
	assert.Equal(t, 10, params.MaxFriends)
	assert.Equal(t, 5, params.MaxAncestorDistance)
	assert.Equal(t, 4, params.NNeighbors)
	assert.Equal(t, "rect", params.NeighborDistance)
	assert.True(t, params.PropagateLabels)
	assert.True(t, params.ClassifyOnlyTextNodes)
	assert.NotEmpty(t, params.Features)
}

func TestLoadParamsCreatesDefaultsOnFirstUse(t *testing.T) {
	dir := t.TempDir()
	params, err := LoadParams(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultParams(), params)

	// The effective parameters are now on disk.
	_, err = os.Stat(filepath.Join(dir, ParamsFileName))
	require.NoError(t, err)
}

func TestParamsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	params := DefaultParams()
	params.CutoffWords = 20
	params.Features = []string{"depth", "is_leaf"}
	params.LabelKeys = []string{"name", "price"}
	require.NoError(t, SaveParams(dir, params))

	loaded, err := LoadParams(dir)
	require.NoError(t, err)
	assert.Equal(t, params, loaded)
}

func TestLoadParamsRejectsMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ParamsFileName), []byte("{oops"), 0o644))

	_, err := LoadParams(dir)
	require.Error(t, err)
}
