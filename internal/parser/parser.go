package parser

import (
	"context"
	"fmt"
	"sort"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/loctree/internal/debug"
	lcerrors "github.com/standardbeagle/loctree/internal/errors"
)

// LineRange is an inclusive 1-based span of physical lines covered by a
// comment node, with the backing byte span for mixed-line classification.
type LineRange struct {
	StartLine int
	EndLine   int
	StartByte uint
	EndByte   uint
}

// LanguageParser is the per-language capability object: one compiled grammar
// plus pre-compiled structural queries, constructed once and reused across
// every file of that language. Grammars and queries are immutable after
// construction; the tree_sitter.Parser instances themselves are not
// reentrant, so each LanguageParser owns a pool of them.
type LanguageParser struct {
	name          string
	extensions    []string
	language      *tree_sitter.Language
	commentQuery  *tree_sitter.Query
	functionQuery *tree_sitter.Query
	pool          sync.Pool
}

// Name returns the language tag recorded in FileMetrics.
func (lp *LanguageParser) Name() string {
	return lp.name
}

// Parse produces a syntax tree for content. Syntactically invalid input is
// not an error: tree-sitter yields a best-effort tree with ERROR nodes that
// still supports comment/line classification. Parse fails only when the
// engine produces no tree, panics, or the context deadline expires first.
// The caller owns the returned tree and must Close it.
func (lp *LanguageParser) Parse(ctx context.Context, content []byte) (*tree_sitter.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, lcerrors.NewParseError("", lp.name, err)
	}

	// Tree-sitter mutates input buffers via CGO; copy to keep the caller's
	// content usable for line classification afterwards.
	buf := make([]byte, len(content))
	copy(buf, content)

	treeCh := make(chan *tree_sitter.Tree, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				debug.Logf("tree-sitter panic in %s parser: %v", lp.name, r)
				treeCh <- nil
			}
		}()
		p := lp.pool.Get().(*tree_sitter.Parser)
		tree := p.Parse(buf, nil)
		lp.pool.Put(p)
		treeCh <- tree
	}()

	select {
	case tree := <-treeCh:
		if tree == nil {
			return nil, lcerrors.NewParseError("", lp.name, fmt.Errorf("engine returned no tree"))
		}
		return tree, nil
	case <-ctx.Done():
		// The CGO parse cannot be aborted; reap the tree when it lands so
		// the abandoned work does not leak native memory.
		go func() {
			if tree := <-treeCh; tree != nil {
				tree.Close()
			}
		}()
		return nil, lcerrors.NewParseError("", lp.name, ctx.Err())
	}
}

// CommentRanges returns the line spans covered by comment nodes, in
// document order. Content must be the same bytes the tree was parsed from.
func (lp *LanguageParser) CommentRanges(tree *tree_sitter.Tree, content []byte) []LineRange {
	if lp.commentQuery == nil {
		return nil
	}
	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	var ranges []LineRange
	matches := qc.Matches(lp.commentQuery, tree.RootNode(), content)
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, c := range match.Captures {
			ranges = append(ranges, LineRange{
				StartLine: int(c.Node.StartPosition().Row) + 1,
				EndLine:   int(c.Node.EndPosition().Row) + 1,
				StartByte: c.Node.StartByte(),
				EndByte:   c.Node.EndByte(),
			})
		}
	}
	return ranges
}

// FunctionCount counts function, method and arrow-function-equivalent
// declarations via the pre-compiled structural query.
func (lp *LanguageParser) FunctionCount(tree *tree_sitter.Tree, content []byte) int {
	if lp.functionQuery == nil {
		return 0
	}
	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	count := 0
	matches := qc.Matches(lp.functionQuery, tree.RootNode(), content)
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		count += len(match.Captures)
	}
	return count
}

// Registry maps languages to their LanguageParser. Capability objects are
// built lazily on first use behind an RWMutex: query compilation cost is
// non-trivial relative to parsing a small file, so nothing is compiled for
// languages a run never touches.
type Registry struct {
	mu          sync.RWMutex
	languages   map[string]*LanguageParser
	initialized map[string]bool
}

// NewRegistry creates a registry covering every built-in language.
// Construction is cheap; grammars compile on first ForLanguage call.
func NewRegistry() *Registry {
	return &Registry{
		languages:   make(map[string]*LanguageParser),
		initialized: make(map[string]bool),
	}
}

// ForLanguage returns the shared capability object for a language name.
func (r *Registry) ForLanguage(name string) (*LanguageParser, error) {
	// Fast path: already initialized.
	r.mu.RLock()
	if r.initialized[name] {
		lp := r.languages[name]
		r.mu.RUnlock()
		if lp == nil {
			return nil, &lcerrors.UnsupportedLanguageError{Language: name}
		}
		return lp, nil
	}
	r.mu.RUnlock()

	setup, ok := languageSetups[name]
	if !ok {
		return nil, &lcerrors.UnsupportedLanguageError{Language: name}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Double-check after acquiring the write lock.
	if r.initialized[name] {
		if lp := r.languages[name]; lp != nil {
			return lp, nil
		}
		return nil, &lcerrors.UnsupportedLanguageError{Language: name}
	}

	lp, err := setup()
	r.initialized[name] = true
	if err != nil {
		debug.Logf("language setup failed for %s: %v", name, err)
		r.languages[name] = nil
		return nil, err
	}
	r.languages[name] = lp
	return lp, nil
}

// ForExtension resolves a file extension (".go") to its capability object.
func (r *Registry) ForExtension(ext string) (*LanguageParser, error) {
	name := LanguageForExtension(ext)
	if name == "" {
		return nil, &lcerrors.UnsupportedLanguageError{Language: ext}
	}
	return r.ForLanguage(name)
}

// LanguageForExtension returns the language tag for a file extension, or ""
// when the extension is not recognized.
func LanguageForExtension(ext string) string {
	return extLanguages[ext]
}

// SupportedExtensions returns the sorted extension allow-list the scanner
// filters by.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extLanguages))
	for ext := range extLanguages {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// newLanguageParser compiles the grammar queries and builds the parser pool
// for one language. Shared by every setup function in languages.go.
func newLanguageParser(name string, extensions []string, language *tree_sitter.Language, commentQuery, functionQuery string) (*LanguageParser, error) {
	cq, _ := tree_sitter.NewQuery(language, commentQuery)
	// The tree-sitter Go binding can return a typed nil error, so check the
	// query itself rather than the error value.
	if cq == nil {
		return nil, fmt.Errorf("failed to compile %s comment query", name)
	}
	fq, _ := tree_sitter.NewQuery(language, functionQuery)
	if fq == nil {
		return nil, fmt.Errorf("failed to compile %s function query", name)
	}

	lp := &LanguageParser{
		name:          name,
		extensions:    extensions,
		language:      language,
		commentQuery:  cq,
		functionQuery: fq,
	}
	lp.pool.New = func() any {
		p := tree_sitter.NewParser()
		if err := p.SetLanguage(language); err != nil {
			debug.Logf("SetLanguage failed for %s: %v", name, err)
		}
		return p
	}
	return lp, nil
}
