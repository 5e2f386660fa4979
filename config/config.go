// Package config loads the engine's process-wide tunables: the
// default batch size, the fulltext query word-count bound, and the geo
// NEAR default limit (spec §9 "Global state... represent
// as constants"). Loaded via yaml.v3, with pelletier/go-toml/v2 as the
// alternate on-disk format, matching the config-file pattern the rest of
// the corpus uses for node configuration.
package config

import (
	"fmt"
	"os"

	"github.com/c2h5oh/datasize"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds the fixed constants spec §9 calls out as the engine's
// only global state.
type Config struct {
	// DefaultBatchSize is the row count callers pass as a pull's atMost
	// (cmd/aqlrun's pipeline) or as Subquery's batch size. The block
	// package does not read Config itself: Limit's fullCount tail pulls
	// atMost rows, or 1000 when atMost is not positive (spec §4.1.6).
	DefaultBatchSize int `yaml:"defaultBatchSize" toml:"defaultBatchSize"`

	// FulltextMaxWords bounds the number of words a fulltext query may
	// parse into (spec §4.4 bullet 8).
	FulltextMaxWords int `yaml:"fulltextMaxWords" toml:"fulltextMaxWords"`

	// GeoNearDefaultLimit is substituted for a non-positive NEAR limit
	// (spec §4.4 bullet 7).
	GeoNearDefaultLimit int `yaml:"geoNearDefaultLimit" toml:"geoNearDefaultLimit"`

	// MaxBatchBytes is a soft memory budget per batch; callers that chunk
	// a drain (Subquery, Limit's skip fanout) may derive an effective
	// batch size from this alongside DefaultBatchSize (spec §9 "Global
	// state... represent as constants").
	MaxBatchBytes datasize.ByteSize `yaml:"maxBatchBytes" toml:"maxBatchBytes"`
}

// Default returns the engine's built-in defaults.
func Default() Config {
	return Config{
		DefaultBatchSize:    1000,
		FulltextMaxWords:    32,
		GeoNearDefaultLimit: 100,
		MaxBatchBytes:       4 * datasize.MB,
	}
}

// EffectiveBatchSize derives a batch size from MaxBatchBytes assuming
// rowBytes average bytes per row, capped by DefaultBatchSize — used by
// callers that chunk a drain around a memory budget rather than a raw
// row count (spec §9 "Global state").
func (c Config) EffectiveBatchSize(rowBytes int) int {
	if rowBytes <= 0 {
		return c.DefaultBatchSize
	}
	byBudget := int(uint64(c.MaxBatchBytes) / uint64(rowBytes))
	if byBudget <= 0 {
		return 1
	}
	if byBudget < c.DefaultBatchSize {
		return byBudget
	}
	return c.DefaultBatchSize
}

// LoadYAML reads a YAML config file, falling back to Default() for any
// zero-valued field.
func LoadYAML(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg.withDefaults(), nil
}

// LoadTOML reads a TOML config file, falling back to Default() for any
// zero-valued field.
func LoadTOML(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	d := Default()
	if c.DefaultBatchSize <= 0 {
		c.DefaultBatchSize = d.DefaultBatchSize
	}
	if c.FulltextMaxWords <= 0 {
		c.FulltextMaxWords = d.FulltextMaxWords
	}
	if c.GeoNearDefaultLimit <= 0 {
		c.GeoNearDefaultLimit = d.GeoNearDefaultLimit
	}
	if c.MaxBatchBytes <= 0 {
		c.MaxBatchBytes = d.MaxBatchBytes
	}
	return c
}
