package errors

import (
	"fmt"
	"time"
)

// ErrorType classifies engine errors.
type ErrorType string

const (
	ErrorTypeConfig ErrorType = "config"
	ErrorTypeScan   ErrorType = "scan"
	ErrorTypeParse  ErrorType = "parse"
	ErrorTypeCache  ErrorType = "cache"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypeFileTooLarge ErrorType = "file_too_large"
	ErrorTypePermission   ErrorType = "permission"
)

// ConfigError is the only error class that aborts a whole run: invalid
// exclude patterns, nonexistent root. Everything else degrades to a
// per-file warning.
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for %s (value %q): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// FileError represents a per-file filesystem failure (permission, missing,
// oversized). Recorded as a warning against the file, never fatal.
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error
func NewFileError(op, path string, err error) *FileError {
	return &FileError{
		Type:       ErrorTypeFileNotFound,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithType overrides the classified error type
func (e *FileError) WithType(t ErrorType) *FileError {
	e.Type = t
	return e
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ParseError represents a fatal engine failure for one file: the parser
// produced no usable tree, panicked, or exceeded the per-file timeout.
// A file that merely contains syntax errors does not produce a ParseError.
type ParseError struct {
	Type       ErrorType
	FilePath   string
	Language   string
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a new parse error
func NewParseError(path, language string, err error) *ParseError {
	return &ParseError{
		Type:       ErrorTypeParse,
		FilePath:   path,
		Language:   language,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failed for %s (%s): %v", e.FilePath, e.Language, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// CacheError represents a cache read/write/serialization failure. Reads
// degrade to a miss, writes degrade to "no caching for this file"; a
// CacheError never escalates to a run-level failure.
type CacheError struct {
	Type       ErrorType
	Key        string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewCacheError creates a new cache error
func NewCacheError(op, key string, err error) *CacheError {
	return &CacheError{
		Type:       ErrorTypeCache,
		Key:        key,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s failed for key %s: %v", e.Operation, e.Key, e.Underlying)
}

// Unwrap returns the underlying error
func (e *CacheError) Unwrap() error {
	return e.Underlying
}

// UnsupportedLanguageError is returned by the parser registry for a
// language or extension it has no grammar for.
type UnsupportedLanguageError struct {
	Language string
}

// Error implements the error interface
func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language: %s", e.Language)
}
