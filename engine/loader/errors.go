package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnreachable marks a source that could not be opened or fetched.
	ErrSourceUnreachable = errors.New("source unreachable")
	// ErrEmptySource marks a source with no header row.
	ErrEmptySource = errors.New("source has no header row")
	// ErrMissingColumn marks a header that lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrMalformedSource marks a source whose stream failed mid-read.
	ErrMalformedSource = errors.New("malformed source")
	// ErrLoaderClosed is returned by loads submitted after Close.
	ErrLoaderClosed = errors.New("loader closed")
)

// LoadError is a load-level failure: the whole source is unusable.
// It wraps one of the sentinel errors above and, when present, the underlying cause.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// RowParseError describes a single dropped row. It never fails a load.
type RowParseError struct {
	// Line is the 1-based line number in the source, header included.
	Line int
	// Column is the offending column name, empty when the row itself was unreadable.
	Column string
	// Value is the raw field text.
	Value string
	Err   error
}

func (e *RowParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: column %s: %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *RowParseError) Unwrap() error {
	return e.Err
}
