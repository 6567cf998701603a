package loader

import "log/slog"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithLogger sets the logger used for load diagnostics.
//
// Parameters:
//   - l: the logger, nil keeps the process default
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(l *slog.Logger) LoaderBuilderOption {
	return func(ld *loader) {
		if l != nil {
			ld.log = l
		}
	}
}

// WithDelimiter sets the field delimiter of the table. Defaults to ','.
//
// Parameters:
//   - r: the delimiter rune
//
// Returns:
//   - LoaderBuilderOption: a function that applies the delimiter option to a loader
func WithDelimiter(r rune) LoaderBuilderOption {
	return func(l *loader) {
		l.delimiter = r
	}
}

// WithSampleLimit caps how many dropped-row errors are kept in Result.Samples. Defaults to 8.
func WithSampleLimit(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n >= 0 {
			l.sampleLimit = n
		}
	}
}

// WithWorkers sets the size of the worker pool running LoadAsync. Defaults to 1.
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}
