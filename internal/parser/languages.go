package parser

import (
	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// extLanguages maps recognized source extensions to language tags. This is
// the scanner's allow-list; extending the engine to a new language means
// adding rows here plus one setup function below.
var extLanguages = map[string]string{
	".go":    "go",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "tsx",
	".py":    "python",
	".rs":    "rust",
	".java":  "java",
	".cpp":   "cpp",
	".cc":    "cpp",
	".cxx":   "cpp",
	".c":     "cpp",
	".h":     "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".phtml": "php",
	".zig":   "zig",
}

// languageSetups holds one lazy constructor per language. Nothing here runs
// until the registry sees a file of that language.
var languageSetups = map[string]func() (*LanguageParser, error){
	"go":         setupGo,
	"javascript": setupJavaScript,
	"typescript": setupTypeScript,
	"tsx":        setupTSX,
	"python":     setupPython,
	"rust":       setupRust,
	"java":       setupJava,
	"cpp":        setupCpp,
	"csharp":     setupCSharp,
	"php":        setupPHP,
	"zig":        setupZig,
}

func setupGo() (*LanguageParser, error) {
	language := tree_sitter.NewLanguage(tree_sitter_go.Language())
	return newLanguageParser("go", []string{".go"}, language,
		`(comment) @comment`,
		`
        (function_declaration) @function
        (method_declaration) @function
        (func_literal) @function
    `)
}

func setupJavaScript() (*LanguageParser, error) {
	language := tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	return newLanguageParser("javascript", []string{".js", ".jsx", ".mjs"}, language,
		`(comment) @comment`,
		`
        (function_declaration) @function
        (generator_function_declaration) @function
        (function_expression) @function
        (generator_function) @function
        (arrow_function) @function
        (method_definition) @function
    `)
}

func setupTypeScript() (*LanguageParser, error) {
	language := tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	return newLanguageParser("typescript", []string{".ts"}, language, tsCommentQuery, tsFunctionQuery)
}

func setupTSX() (*LanguageParser, error) {
	language := tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	return newLanguageParser("tsx", []string{".tsx"}, language, tsCommentQuery, tsFunctionQuery)
}

// TypeScript and TSX are separate grammars with identical node names for
// the constructs measured here.
const (
	tsCommentQuery  = `(comment) @comment`
	tsFunctionQuery = `
        (function_declaration) @function
        (generator_function_declaration) @function
        (function_expression) @function
        (arrow_function) @function
        (method_definition) @function
    `
)

func setupPython() (*LanguageParser, error) {
	language := tree_sitter.NewLanguage(tree_sitter_python.Language())
	return newLanguageParser("python", []string{".py"}, language,
		`(comment) @comment`,
		`
        (function_definition) @function
        (lambda) @function
    `)
}

func setupRust() (*LanguageParser, error) {
	language := tree_sitter.NewLanguage(tree_sitter_rust.Language())
	return newLanguageParser("rust", []string{".rs"}, language,
		`
        (line_comment) @comment
        (block_comment) @comment
    `,
		`
        (function_item) @function
        (closure_expression) @function
    `)
}

func setupJava() (*LanguageParser, error) {
	language := tree_sitter.NewLanguage(tree_sitter_java.Language())
	return newLanguageParser("java", []string{".java"}, language,
		`
        (line_comment) @comment
        (block_comment) @comment
    `,
		`
        (method_declaration) @function
        (constructor_declaration) @function
        (lambda_expression) @function
    `)
}

func setupCpp() (*LanguageParser, error) {
	language := tree_sitter.NewLanguage(tree_sitter_cpp.Language())
	return newLanguageParser("cpp", []string{".cpp", ".cc", ".cxx", ".c", ".h", ".hpp"}, language,
		`(comment) @comment`,
		`
        (function_definition) @function
        (lambda_expression) @function
    `)
}

func setupCSharp() (*LanguageParser, error) {
	language := tree_sitter.NewLanguage(tree_sitter_csharp.Language())
	return newLanguageParser("csharp", []string{".cs"}, language,
		`(comment) @comment`,
		`
        (method_declaration) @function
        (constructor_declaration) @function
        (local_function_statement) @function
        (lambda_expression) @function
    `)
}

func setupPHP() (*LanguageParser, error) {
	language := tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP())
	return newLanguageParser("php", []string{".php", ".phtml"}, language,
		`(comment) @comment`,
		`
        (function_definition) @function
        (method_declaration) @function
    `)
}

func setupZig() (*LanguageParser, error) {
	language := tree_sitter.NewLanguage(tree_sitter_zig.Language())
	return newLanguageParser("zig", []string{".zig"}, language,
		`(comment) @comment`,
		`(function_declaration) @function`)
}
