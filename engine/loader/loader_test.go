package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-quake/engine/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(t *testing.T, opts ...LoaderBuilderOption) Loader {
	t.Helper()
	l := NewLoader(BackendTypeCSV, append([]LoaderBuilderOption{WithLogger(logger.Discard())}, opts...)...)
	t.Cleanup(l.Close)
	return l
}

func writeTable(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "quakes.csv")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

// memCache is an in-memory Cache for tests.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  map[string]time.Duration
	fail error
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return nil, false, c.fail
	}
	b, ok := c.data[key]
	return b, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.data[key] = append([]byte(nil), value...)
	c.ttl[key] = ttl
	return nil
}

func TestLoadFile(t *testing.T) {
	l := newTestLoader(t)
	res, err := l.Load(context.Background(), NewFileSource(writeTable(t, sampleTable)))
	require.NoError(t, err)
	assert.Len(t, res.Records, 3)
	assert.Zero(t, res.Dropped)
	assert.Len(t, res.Points(), 3)
	assert.Equal(t, -118.543, res.Points()[0].Lon())
}

func TestLoadMissingFileIsLoadError(t *testing.T) {
	l := newTestLoader(t)
	_, err := l.Load(context.Background(), NewFileSource(filepath.Join(t.TempDir(), "nope.csv")))

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, ErrSourceUnreachable)
	assert.True(t, IsLoadError(err))
}

func TestLoadMissingColumnIsLoadError(t *testing.T) {
	l := newTestLoader(t)
	_, err := l.Load(context.Background(), NewFileSource(writeTable(t, "Longitude,Latitude\n1,2\n")))
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.True(t, IsLoadError(err))
}

func TestLoadHTTPWithTokenAndCache(t *testing.T) {
	var hits int
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		gotToken = r.URL.Query().Get("access_token")
		_, _ = w.Write([]byte(sampleTable))
	}))
	defer srv.Close()

	cache := newMemCache()
	src := NewHTTPSource(srv.URL+"/quakes.csv",
		WithAccessToken("pk.secret"),
		WithCache(cache, time.Minute),
		WithSourceLogger(logger.Discard()),
	)
	assert.NotContains(t, src.Name(), "pk.secret")

	l := newTestLoader(t)
	for range 2 {
		res, err := l.Load(context.Background(), src)
		require.NoError(t, err)
		assert.Len(t, res.Records, 3)
	}

	assert.Equal(t, 1, hits, "second load is served from cache")
	assert.Equal(t, "pk.secret", gotToken)
	assert.Equal(t, time.Minute, cache.ttl[srv.URL+"/quakes.csv"])
}

func TestLoadHTTPCacheFailureFallsBackToNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sampleTable))
	}))
	defer srv.Close()

	cache := newMemCache()
	cache.fail = errors.New("connection refused")

	l := newTestLoader(t)
	res, err := l.Load(context.Background(), NewHTTPSource(srv.URL, WithCache(cache, time.Minute), WithSourceLogger(logger.Discard())))
	require.NoError(t, err)
	assert.Len(t, res.Records, 3)
}

func TestLoadHTTPStatusIsLoadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	l := newTestLoader(t)
	_, err := l.Load(context.Background(), NewHTTPSource(srv.URL, WithAccessToken("pk.secret")))
	require.ErrorIs(t, err, ErrSourceUnreachable)
	assert.Contains(t, err.Error(), "404")
	assert.NotContains(t, err.Error(), "pk.secret")
}

func TestLoadHTTPUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	l := newTestLoader(t)
	_, err := l.Load(context.Background(), NewHTTPSource(url, WithAccessToken("pk.secret"), WithTimeout(time.Second)))
	require.ErrorIs(t, err, ErrSourceUnreachable)
	assert.NotContains(t, err.Error(), "pk.secret")
}

func TestLoadAsyncDeliversOneResult(t *testing.T) {
	l := newTestLoader(t, WithWorkers(2))
	ch := l.LoadAsync(context.Background(), NewFileSource(writeTable(t, sampleTable)))

	select {
	case res, ok := <-ch:
		require.True(t, ok)
		require.NoError(t, res.Err)
		assert.Len(t, res.Records, 3)
	case <-time.After(5 * time.Second):
		t.Fatal("load did not complete")
	}

	_, ok := <-ch
	assert.False(t, ok, "channel is closed after the single result")
}

func TestLoadAsyncCarriesLoadError(t *testing.T) {
	l := newTestLoader(t)
	res := <-l.LoadAsync(context.Background(), NewFileSource(filepath.Join(t.TempDir(), "missing.csv")))
	assert.True(t, IsLoadError(res.Err))
	assert.Empty(t, res.Records)
}

func TestLoadAsyncAfterClose(t *testing.T) {
	l := NewLoader(BackendTypeCSV, WithLogger(logger.Discard()))
	l.Close()
	l.Close()

	res := <-l.LoadAsync(context.Background(), NewFileSource("x.csv"))
	assert.ErrorIs(t, res.Err, ErrLoaderClosed)
}

func TestRedisCacheKeyPrefixAndUnreachable(t *testing.T) {
	c := OpenRedisCache("127.0.0.1:1", "", "quake:src:")
	defer c.Close()
	assert.Equal(t, "quake:src:http://x", c.key("http://x"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, ok, err := c.Get(ctx, "http://x")
	assert.False(t, ok)
	assert.Error(t, err)
}
