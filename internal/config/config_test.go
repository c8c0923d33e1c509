package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/standardbeagle/loctree/internal/types"
)

func TestLoadMissingFile(t *testing.T) {
	fc, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(fc.Exclude) != 0 || fc.UseCache != nil {
		t.Errorf("missing file should load empty config, got %+v", fc)
	}
}

func TestLoadAndMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	content := "exclude = [\"generated/**\", \"*.pb.go\"]\nuse_cache = false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	fc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if fc.UseCache == nil || *fc.UseCache {
		t.Errorf("use_cache = %v, want false", fc.UseCache)
	}

	cfg := fc.Merge(types.DefaultConfig())
	if cfg.UseCache {
		t.Error("merged UseCache should be false")
	}
	want := len(types.DefaultExcludePatterns) + 2
	if len(cfg.ExcludePatterns) != want {
		t.Errorf("got %d exclude patterns, want %d (defaults plus file)", len(cfg.ExcludePatterns), want)
	}
	last := cfg.ExcludePatterns[len(cfg.ExcludePatterns)-1]
	if last != "*.pb.go" {
		t.Errorf("file patterns should append after defaults, last = %q", last)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte("exclude = [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestMergeEmptyFileKeepsDefaults(t *testing.T) {
	fc := &FileConfig{}
	base := types.DefaultConfig()
	cfg := fc.Merge(base)
	if !cfg.UseCache {
		t.Error("empty file config must not flip UseCache")
	}
	if len(cfg.ExcludePatterns) != len(base.ExcludePatterns) {
		t.Errorf("exclude patterns changed: %v", cfg.ExcludePatterns)
	}
}
