package types

import "time"

// Engine-wide limits. These are deliberately constants, not configuration:
// they bound worst-case memory and latency for a single file regardless of
// what the caller asks for.
const (
	// MaxFileSize is the largest file the scanner will queue for parsing.
	MaxFileSize = 10 * 1024 * 1024

	// ParseTimeout bounds a single file's parse. Pathological inputs
	// (deeply nested generated code) are treated as parse failures.
	ParseTimeout = 5 * time.Second

	// TopFilesCount is the number of paths reported in Summary.LargestFiles.
	TopFilesCount = 10
)

// FileMetrics is one record per analyzed file. Immutable after construction;
// owned by the AnalysisResult that carries it.
type FileMetrics struct {
	Path          string    `json:"path"`
	Language      string    `json:"language"`
	LOC           int       `json:"loc"`
	SizeBytes     uint64    `json:"size_bytes"`
	FunctionCount int       `json:"function_count"`
	LastModified  time.Time `json:"last_modified"`
}

// Summary aggregates a full run. LargestFiles holds up to TopFilesCount
// paths ordered by descending LOC, ties broken by lexical path order.
type Summary struct {
	TotalFiles     int      `json:"total_files"`
	TotalLOC       int      `json:"total_loc"`
	TotalFunctions int      `json:"total_functions"`
	LargestFiles   []string `json:"largest_files"`
}

// AnalysisResult is the stable shape consumed by formatters, diff tooling
// and visualization. Files is sorted by path; the sort is a contract, not
// an implementation detail.
type AnalysisResult struct {
	Summary   Summary       `json:"summary"`
	Files     []FileMetrics `json:"files"`
	Timestamp time.Time     `json:"timestamp"`
	Warnings  []Warning     `json:"warnings,omitempty"`
}

// Warning records a file that was skipped without failing the run.
type Warning struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// Warning reasons. Callers building CI gating logic key off these.
const (
	WarnPermission  = "permission_denied"
	WarnTooLarge    = "file_too_large"
	WarnReadFailed  = "read_failed"
	WarnParseFailed = "parse_failed"
)

// AnalysisConfig is the caller-supplied configuration for one run. It is a
// plain value, constructed once per invocation and never mutated mid-run.
type AnalysisConfig struct {
	ExcludePatterns []string
	UseCache        bool
}

// DefaultExcludePatterns covers common dependency caches, build output and
// version-control metadata. Matching directories are pruned without descent.
var DefaultExcludePatterns = []string{
	"node_modules/**",
	"vendor/**",
	"target/**",
	"dist/**",
	"build/**",
	"out/**",
	".git/**",
	"__pycache__/**",
	"*.min.js",
}

// DefaultConfig returns the configuration used when the caller supplies
// nothing: default exclusions, caching enabled.
func DefaultConfig() AnalysisConfig {
	patterns := make([]string, len(DefaultExcludePatterns))
	copy(patterns, DefaultExcludePatterns)
	return AnalysisConfig{
		ExcludePatterns: patterns,
		UseCache:        true,
	}
}
