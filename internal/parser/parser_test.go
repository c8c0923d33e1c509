package parser

import (
	"context"
	"sync"
	"testing"

	lcerrors "github.com/standardbeagle/loctree/internal/errors"
)

func TestLanguageForExtension(t *testing.T) {
	cases := map[string]string{
		".go":      "go",
		".js":      "javascript",
		".jsx":     "javascript",
		".ts":      "typescript",
		".tsx":     "tsx",
		".py":      "python",
		".rs":      "rust",
		".java":    "java",
		".cpp":     "cpp",
		".h":       "cpp",
		".cs":      "csharp",
		".php":     "php",
		".zig":     "zig",
		".exe":     "",
		".unknown": "",
		"":         "",
	}
	for ext, want := range cases {
		if got := LanguageForExtension(ext); got != want {
			t.Errorf("LanguageForExtension(%q) = %q, want %q", ext, got, want)
		}
	}
}

func TestSupportedExtensionsSortedAndComplete(t *testing.T) {
	exts := SupportedExtensions()
	if len(exts) != len(extLanguages) {
		t.Fatalf("Expected %d extensions, got %d", len(extLanguages), len(exts))
	}
	for i := 1; i < len(exts); i++ {
		if exts[i-1] >= exts[i] {
			t.Errorf("Extensions not sorted: %q before %q", exts[i-1], exts[i])
		}
	}
}

func TestRegistry_UnsupportedLanguage(t *testing.T) {
	r := NewRegistry()
	_, err := r.ForLanguage("cobol")
	if err == nil {
		t.Fatal("Expected error for unsupported language")
	}
	if _, ok := err.(*lcerrors.UnsupportedLanguageError); !ok {
		t.Errorf("Expected UnsupportedLanguageError, got %T", err)
	}

	_, err = r.ForExtension(".cob")
	if err == nil {
		t.Fatal("Expected error for unsupported extension")
	}
}

func TestRegistry_SharedInstance(t *testing.T) {
	r := NewRegistry()
	first, err := r.ForLanguage("go")
	if err != nil {
		t.Fatalf("ForLanguage failed: %v", err)
	}
	second, err := r.ForLanguage("go")
	if err != nil {
		t.Fatalf("ForLanguage failed: %v", err)
	}
	if first != second {
		t.Error("Expected the same capability object across calls")
	}
}

func TestRegistry_ConcurrentInit(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	parsers := make([]*LanguageParser, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lp, err := r.ForLanguage("python")
			if err != nil {
				t.Errorf("ForLanguage failed: %v", err)
				return
			}
			parsers[i] = lp
		}(i)
	}
	wg.Wait()
	for i := 1; i < 16; i++ {
		if parsers[i] != parsers[0] {
			t.Fatal("Concurrent init produced distinct instances")
		}
	}
}

func TestParse_CommentRangesAndFunctions(t *testing.T) {
	r := NewRegistry()
	lp, err := r.ForLanguage("typescript")
	if err != nil {
		t.Fatalf("ForLanguage failed: %v", err)
	}

	src := []byte(`// header
function one(): number {
	return 1; /* inline */
}
const two = () => 2;
`)
	tree, err := lp.Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer tree.Close()

	ranges := lp.CommentRanges(tree, src)
	if len(ranges) != 2 {
		t.Fatalf("Expected 2 comment ranges, got %d", len(ranges))
	}
	if ranges[0].StartLine != 1 || ranges[0].EndLine != 1 {
		t.Errorf("Expected header comment on line 1, got %d-%d", ranges[0].StartLine, ranges[0].EndLine)
	}
	if ranges[1].StartLine != 3 {
		t.Errorf("Expected inline comment on line 3, got %d", ranges[1].StartLine)
	}

	// one declaration + one arrow function
	if got := lp.FunctionCount(tree, src); got != 2 {
		t.Errorf("Expected 2 functions, got %d", got)
	}
}

func TestParse_SyntaxErrorsStillYieldTree(t *testing.T) {
	r := NewRegistry()
	lp, err := r.ForLanguage("go")
	if err != nil {
		t.Fatalf("ForLanguage failed: %v", err)
	}

	src := []byte("package main\n\nfunc broken( {\n// comment survives\n")
	tree, err := lp.Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("Expected best-effort tree for invalid input, got error: %v", err)
	}
	defer tree.Close()

	ranges := lp.CommentRanges(tree, src)
	if len(ranges) != 1 {
		t.Errorf("Expected comment classification to survive syntax errors, got %d ranges", len(ranges))
	}
}

func TestParse_ContextCancelled(t *testing.T) {
	r := NewRegistry()
	lp, err := r.ForLanguage("go")
	if err != nil {
		t.Fatalf("ForLanguage failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := lp.Parse(ctx, []byte("package main\n")); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestParse_MultipleLanguages(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		language  string
		source    string
		functions int
		comments  int
	}{
		{"python", "# doc\ndef f():\n    pass\n", 1, 1},
		{"rust", "/// doc\nfn main() {}\n// tail\n", 1, 2},
		{"java", "class A {\n  // note\n  void m() {}\n}\n", 1, 1},
		{"cpp", "/* hdr */\nint main() { return 0; }\n", 1, 1},
		{"csharp", "class A {\n  // note\n  void M() {}\n}\n", 1, 1},
		{"javascript", "// hi\nfunction f() {}\nconst g = () => 1;\n", 2, 1},
	}
	for _, tc := range cases {
		lp, err := r.ForLanguage(tc.language)
		if err != nil {
			t.Errorf("%s: ForLanguage failed: %v", tc.language, err)
			continue
		}
		tree, err := lp.Parse(context.Background(), []byte(tc.source))
		if err != nil {
			t.Errorf("%s: Parse failed: %v", tc.language, err)
			continue
		}
		if got := lp.FunctionCount(tree, []byte(tc.source)); got != tc.functions {
			t.Errorf("%s: expected %d functions, got %d", tc.language, tc.functions, got)
		}
		if got := len(lp.CommentRanges(tree, []byte(tc.source))); got != tc.comments {
			t.Errorf("%s: expected %d comment ranges, got %d", tc.language, tc.comments, got)
		}
		tree.Close()
	}
}
