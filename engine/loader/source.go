package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/engine/logger"
	"github.com/Carmen-Shannon/oxy-quake/engine/metrics"
)

// Source is a readable reference to a point table.
type Source interface {
	// Name identifies the source in logs and errors. It never contains credentials.
	Name() string

	// Kind is a short label for metrics, e.g. "file" or "http".
	Kind() string

	// Open returns a stream over the raw table. The caller closes it.
	// Failures wrap ErrSourceUnreachable.
	//
	// Parameters:
	//   - ctx: bounds the open and, for remote sources, the transfer
	//
	// Returns:
	//   - io.ReadCloser: the raw table bytes
	//   - error: an error if the source cannot be reached
	Open(ctx context.Context) (io.ReadCloser, error)
}

type fileSource struct {
	path string
}

// NewFileSource returns a Source reading a local file.
func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Name() string { return s.path }

func (s *fileSource) Kind() string { return "file" }

func (s *fileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}
	return f, nil
}

// httpSource fetches a table over HTTP(S), optionally through a byte cache.
type httpSource struct {
	url         string
	accessToken string
	client      *http.Client
	timeout     time.Duration

	cache    Cache
	cacheTTL time.Duration

	log *slog.Logger
}

// HTTPSourceOption is a functional option for configuring a Source created by NewHTTPSource.
type HTTPSourceOption func(*httpSource)

// WithAccessToken attaches a service credential as the access_token query parameter.
// The token is injected per source and never appears in Name or in cache keys.
//
// Parameters:
//   - token: the credential, empty to disable
//
// Returns:
//   - HTTPSourceOption: option function to apply
func WithAccessToken(token string) HTTPSourceOption {
	return func(s *httpSource) {
		s.accessToken = token
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) HTTPSourceOption {
	return func(s *httpSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithTimeout bounds a single fetch. Zero disables the bound.
func WithTimeout(d time.Duration) HTTPSourceOption {
	return func(s *httpSource) {
		s.timeout = d
	}
}

// WithCache stores fetched bodies in c for ttl and serves later opens from it.
//
// Parameters:
//   - c: the byte cache, nil to disable
//   - ttl: how long a cached body stays valid
//
// Returns:
//   - HTTPSourceOption: option function to apply
func WithCache(c Cache, ttl time.Duration) HTTPSourceOption {
	return func(s *httpSource) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithSourceLogger sets the logger used for cache diagnostics.
func WithSourceLogger(l *slog.Logger) HTTPSourceOption {
	return func(s *httpSource) {
		if l != nil {
			s.log = l
		}
	}
}

// NewHTTPSource returns a Source fetching rawURL with a GET request.
//
// Parameters:
//   - rawURL: an http or https URL
//   - options: functional options (token, client, timeout, cache)
//
// Returns:
//   - Source: the configured source
func NewHTTPSource(rawURL string, options ...HTTPSourceOption) Source {
	s := &httpSource{
		url:     rawURL,
		client:  http.DefaultClient,
		timeout: 30 * time.Second,
		log:     logger.L(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *httpSource) Name() string { return s.url }

func (s *httpSource) Kind() string { return "http" }

func (s *httpSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.cache != nil {
		body, ok, err := s.cache.Get(ctx, s.url)
		switch {
		case err != nil:
			s.log.Warn("source cache read failed", "source", s.url, "error", err)
		case ok:
			metrics.SourceCacheHitsTotal.Inc()
			s.log.Debug("source cache hit", "source", s.url, "bytes", len(body))
			return io.NopCloser(bytes.NewReader(body)), nil
		default:
			metrics.SourceCacheMissesTotal.Inc()
		}
	}

	body, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache == nil {
		return body, nil
	}

	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrSourceUnreachable, err)
	}
	if err := s.cache.Set(ctx, s.url, data, s.cacheTTL); err != nil {
		s.log.Warn("source cache write failed", "source", s.url, "error", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *httpSource) fetch(ctx context.Context) (io.ReadCloser, error) {
	target, err := s.requestURL()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}

	var cancel context.CancelFunc = func() {}
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreachable, err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		cancel()
		// url.Error would echo the token back
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, fmt.Errorf("%w: GET %s: %v", ErrSourceUnreachable, s.url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: GET %s: status %s", ErrSourceUnreachable, s.url, resp.Status)
	}

	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

func (s *httpSource) requestURL() (string, error) {
	if s.accessToken == "" {
		return s.url, nil
	}
	u, err := url.Parse(s.url)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("access_token", s.accessToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// cancelOnClose releases the request timeout once the body is consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
