// Package metrics computes per-file size and complexity metrics from a
// parsed syntax tree. Beyond invoking the parser it is pure: no file I/O
// happens here, so the line accounting is unit-testable without a disk.
package metrics

import (
	"context"
	"time"

	"github.com/standardbeagle/loctree/internal/parser"
	"github.com/standardbeagle/loctree/internal/types"
)

// Calculate parses source with the given language capability and produces
// the FileMetrics record for path. modTime is the filesystem mtime
// snapshotted at read time by the caller; SizeBytes is the raw byte length
// of source. Function counting is delegated entirely to the parser's
// structural query.
//
// Returns an error only for fatal engine failures or a context deadline; a
// file full of syntax errors still produces metrics from its best-effort
// tree, and a comment-only file yields LOC 0, which is valid.
func Calculate(ctx context.Context, path string, source []byte, lp *parser.LanguageParser, modTime time.Time) (types.FileMetrics, error) {
	tree, err := lp.Parse(ctx, source)
	if err != nil {
		return types.FileMetrics{}, err
	}
	defer tree.Close()

	comments := lp.CommentRanges(tree, source)
	functions := lp.FunctionCount(tree, source)

	return types.FileMetrics{
		Path:          path,
		Language:      lp.Name(),
		LOC:           CountLOC(source, comments),
		SizeBytes:     uint64(len(source)),
		FunctionCount: functions,
		LastModified:  modTime,
	}, nil
}

// CountLOC counts physical lines that contain code. A line counts iff,
// after trimming whitespace, it is non-empty and holds at least one byte
// outside every comment span. Code occupancy wins over comment occupancy:
// a code line with a trailing comment is 1 LOC; blank lines and lines wholly
// inside a multi-line comment are 0.
func CountLOC(source []byte, comments []parser.LineRange) int {
	spans := mergeSpans(comments)

	loc := 0
	lineStart := 0
	spanIdx := 0
	n := len(source)

	for lineStart < n {
		lineEnd := lineStart
		for lineEnd < n && source[lineEnd] != '\n' {
			lineEnd++
		}

		// Drop spans that end before this line starts.
		for spanIdx < len(spans) && spans[spanIdx].end <= uint(lineStart) {
			spanIdx++
		}

		if lineHasCode(source, lineStart, lineEnd, spans, spanIdx) {
			loc++
		}

		lineStart = lineEnd + 1
	}
	return loc
}

// lineHasCode reports whether any non-whitespace byte in [start,end) falls
// outside the merged comment spans beginning at spans[spanIdx].
func lineHasCode(source []byte, start, end int, spans []byteSpan, spanIdx int) bool {
	i := start
	for i < end {
		b := source[i]
		if b == ' ' || b == '\t' || b == '\r' {
			i++
			continue
		}
		// Advance to the span that could cover byte i.
		for spanIdx < len(spans) && spans[spanIdx].end <= uint(i) {
			spanIdx++
		}
		if spanIdx < len(spans) && spans[spanIdx].start <= uint(i) {
			// Inside a comment; jump past it.
			i = int(spans[spanIdx].end)
			continue
		}
		return true
	}
	return false
}

type byteSpan struct {
	start uint
	end   uint
}

// mergeSpans collapses comment byte ranges into sorted non-overlapping
// spans. Ranges arrive in document order from the query cursor, but nested
// grammars can emit overlaps.
func mergeSpans(comments []parser.LineRange) []byteSpan {
	if len(comments) == 0 {
		return nil
	}
	spans := make([]byteSpan, 0, len(comments))
	for _, c := range comments {
		spans = append(spans, byteSpan{start: c.StartByte, end: c.EndByte})
	}
	// Capture order is close to sorted; insertion sort keeps this cheap.
	for i := 1; i < len(spans); i++ {
		j := i
		for j > 0 && spans[j].start < spans[j-1].start {
			spans[j], spans[j-1] = spans[j-1], spans[j]
			j--
		}
	}
	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.start <= last.end {
			if s.end > last.end {
				last.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
