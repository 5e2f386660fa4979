package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	d := Default()
	assert.Equal(t, 1000, d.DefaultBatchSize)
	assert.Equal(t, 32, d.FulltextMaxWords)
	assert.Equal(t, 100, d.GeoNearDefaultLimit)
}

func TestLoadYAMLAppliesDefaultsForZeroFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aqlcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("defaultBatchSize: 50\n"), 0o644))

	cfg, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.DefaultBatchSize)
	assert.Equal(t, 32, cfg.FulltextMaxWords)
	assert.Equal(t, 100, cfg.GeoNearDefaultLimit)
}

func TestLoadTOMLAppliesDefaultsForZeroFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aqlcore.toml")
	require.NoError(t, os.WriteFile(path, []byte("fulltextMaxWords = 8\n"), 0o644))

	cfg, err := LoadTOML(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.DefaultBatchSize)
	assert.Equal(t, 8, cfg.FulltextMaxWords)
	assert.Equal(t, 100, cfg.GeoNearDefaultLimit)
}

func TestLoadYAMLMissingFile(t *testing.T) {
	_, err := LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEffectiveBatchSize(t *testing.T) {
	cfg := Default()
	cfg.DefaultBatchSize = 1000
	cfg.MaxBatchBytes = 1000 // bytes

	assert.Equal(t, 10, cfg.EffectiveBatchSize(100))
	assert.Equal(t, 1000, cfg.EffectiveBatchSize(0))

	cfg.MaxBatchBytes = 1 << 30
	assert.Equal(t, 1000, cfg.EffectiveBatchSize(1))
}
