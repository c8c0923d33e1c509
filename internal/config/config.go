// Package config loads the optional .loctree.toml project file for the CLI
// collaborator. The engine itself never reads configuration implicitly;
// everything funnels into an explicit types.AnalysisConfig.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/loctree/internal/types"
)

// DefaultFileName is the project config file looked up under the analyzed
// root when the CLI is not given an explicit path.
const DefaultFileName = ".loctree.toml"

// FileConfig mirrors the .loctree.toml schema. Pointer fields distinguish
// "absent" from zero values when merging with CLI flags.
type FileConfig struct {
	Exclude  []string `toml:"exclude"`
	UseCache *bool    `toml:"use_cache"`
}

// Load reads and parses a config file. A missing file is not an error: it
// returns an empty FileConfig so callers merge defaults uniformly.
func Load(path string) (*FileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var fc FileConfig
	if err := toml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &fc, nil
}

// Merge layers the file config over the engine defaults. File exclusions
// are appended to the defaults rather than replacing them; that matches
// how projects actually use the file (adding generated dirs), and explicit
// CLI flags still override the result downstream.
func (fc *FileConfig) Merge(base types.AnalysisConfig) types.AnalysisConfig {
	cfg := base
	if len(fc.Exclude) > 0 {
		cfg.ExcludePatterns = append(append([]string{}, cfg.ExcludePatterns...), fc.Exclude...)
	}
	if fc.UseCache != nil {
		cfg.UseCache = *fc.UseCache
	}
	return cfg
}
