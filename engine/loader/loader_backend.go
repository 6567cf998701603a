package loader

import "io"

// LoaderBackendType identifies the table format backend to use.
type LoaderBackendType int

const (
	// BackendTypeCSV selects the delimited-text backend.
	BackendTypeCSV LoaderBackendType = iota
)

// loaderBackend decodes a raw table stream into point records.
// Concrete implementations (e.g., csvLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Parse reads every row from r.
	// Rows that cannot be decoded are dropped and reported through the returned parseStats.
	// A non-nil error means the stream as a whole is unusable and must be wrapped in a LoadError.
	//
	// Parameters:
	//   - r: the raw table stream
	//
	// Returns:
	//   - []PointRecord: accepted rows in input order
	//   - parseStats: dropped-row accounting
	//   - error: a load-level error, or nil
	Parse(r io.Reader) ([]PointRecord, parseStats, error)
}

// parseStats is the per-parse dropped row accounting.
type parseStats struct {
	dropped int
	samples []*RowParseError
}

func (s *parseStats) drop(err *RowParseError, limit int) {
	s.dropped++
	if len(s.samples) < limit {
		s.samples = append(s.samples, err)
	}
}
