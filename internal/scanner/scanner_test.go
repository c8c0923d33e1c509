package scanner

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lcerrors "github.com/standardbeagle/loctree/internal/errors"
	"github.com/standardbeagle/loctree/internal/types"
)

// writeFile creates a file (and parent dirs) under root.
func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScan_SortedOutput(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"z.go", "a.go", "m/b.go", "m/a.go", "b/z.ts"} {
		writeFile(t, root, rel, "x\n")
	}

	result, err := Scan(root, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.go", "b/z.ts", "m/a.go", "m/b.go", "z.go"}, result.Files)
	for i := 1; i < len(result.Files); i++ {
		assert.Less(t, result.Files[i-1], result.Files[i], "sort invariant violated")
	}
}

func TestScan_ExtensionAllowList(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.go", "x\n")
	writeFile(t, root, "keep.py", "x\n")
	writeFile(t, root, "skip.exe", "x\n")
	writeFile(t, root, "skip.txt", "x\n")
	writeFile(t, root, "noext", "x\n")

	result, err := Scan(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.go", "keep.py"}, result.Files)
}

func TestScan_ExcludedSubtreeIsPruned(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "x\n")
	writeFile(t, root, "excluded/c.ts", "x\n")
	writeFile(t, root, "excluded/deep/d.ts", "x\n")

	result, err := Scan(root, []string{"excluded/**"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ts"}, result.Files)
	for _, f := range result.Files {
		assert.False(t, strings.HasPrefix(f, "excluded/"))
	}
}

func TestScan_FileLevelExclusion(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.js", "x\n")
	writeFile(t, root, "app.min.js", "x\n")

	result, err := Scan(root, []string{"*.min.js"})
	require.NoError(t, err)
	assert.Equal(t, []string{"app.js"}, result.Files)
}

func TestScan_HiddenDirectoriesSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "x\n")
	writeFile(t, root, ".git/objects/b.go", "x\n")
	writeFile(t, root, ".cache/c.go", "x\n")

	result, err := Scan(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go"}, result.Files)
}

func TestScan_OversizedFileWarns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.go", "x\n")
	big := strings.Repeat("a", types.MaxFileSize+1)
	writeFile(t, root, "big.go", big)

	result, err := Scan(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"small.go"}, result.Files)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "big.go", result.Warnings[0].Path)
	assert.Equal(t, types.WarnTooLarge, result.Warnings[0].Reason)
}

func TestScan_SymlinksNotFollowed(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()
	writeFile(t, outside, "real.go", "x\n")
	writeFile(t, root, "a.go", "x\n")
	require.NoError(t, os.Symlink(filepath.Join(outside, "real.go"), filepath.Join(root, "link.go")))

	result, err := Scan(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go"}, result.Files)
}

func TestScan_InvalidPatternFailsFast(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "x\n")

	_, err := Scan(root, []string{"[unclosed"})
	require.Error(t, err)
	var cfgErr *lcerrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestScan_MissingRootFails(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"), nil)
	require.Error(t, err)
	var cfgErr *lcerrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestScan_RootIsFileFails(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "x\n")
	_, err := Scan(filepath.Join(root, "a.go"), nil)
	require.Error(t, err)
}

func TestScan_EmptyRoot(t *testing.T) {
	result, err := Scan(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Files)
	assert.Empty(t, result.Warnings)
}

func TestScan_DefaultPatternsPruneDependencyDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.ts", "x\n")
	writeFile(t, root, "node_modules/pkg/index.js", "x\n")
	writeFile(t, root, "vendor/dep/dep.go", "x\n")

	result, err := Scan(root, types.DefaultExcludePatterns)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.ts"}, result.Files)
}
