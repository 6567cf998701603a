package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func TestFromLookupDefaults(t *testing.T) {
	c, err := FromLookup(lookup(nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultDataSource, c.DataSource)
	assert.Equal(t, DefaultMapStyle, c.MapStyle)
	assert.Equal(t, DefaultRedisTTL, c.RedisTTL)
	assert.Equal(t, DefaultWindowWidth, c.WindowWidth)
	assert.Equal(t, DefaultWindowHeight, c.WindowHeight)
	assert.True(t, c.VSync)
	assert.False(t, c.Profile)
	assert.Empty(t, c.AccessToken)
	assert.False(t, c.IsRemoteSource())
}

func TestFromLookupOverrides(t *testing.T) {
	c, err := FromLookup(lookup(map[string]string{
		"QUAKE_DATA_SOURCE":   "https://example.org/quakes.csv",
		"MAPBOX_ACCESS_TOKEN": " pk.abcdef123456 ",
		"QUAKE_REDIS_ADDR":    "localhost:6379",
		"QUAKE_REDIS_TTL":     "15m",
		"QUAKE_WINDOW_WIDTH":  "800",
		"QUAKE_VSYNC":         "false",
		"QUAKE_PROFILE":       "1",
	}))
	require.NoError(t, err)

	assert.True(t, c.IsRemoteSource())
	assert.Equal(t, "pk.abcdef123456", c.AccessToken)
	assert.Equal(t, "***********3456", c.MaskedToken())
	assert.Equal(t, "localhost:6379", c.RedisAddr)
	assert.Equal(t, 15*time.Minute, c.RedisTTL)
	assert.Equal(t, 800, c.WindowWidth)
	assert.False(t, c.VSync)
	assert.True(t, c.Profile)
}

func TestFromLookupRejectsBadValues(t *testing.T) {
	for key, val := range map[string]string{
		"QUAKE_WINDOW_HEIGHT": "tall",
		"QUAKE_VSYNC":         "sometimes",
		"QUAKE_REDIS_TTL":     "forever",
		"QUAKE_WINDOW_WIDTH":  "-5",
	} {
		_, err := FromLookup(lookup(map[string]string{key: val}))
		assert.ErrorContains(t, err, key)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("QUAKE_DATA_SOURCE=from-dotenv.csv\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("QUAKE_DATA_SOURCE", "")
	require.NoError(t, os.Unsetenv("QUAKE_DATA_SOURCE"))

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.csv", c.DataSource)
}

func TestMaskedTokenShort(t *testing.T) {
	assert.Equal(t, "***", Config{AccessToken: "abc"}.MaskedToken())
	assert.Equal(t, "", Config{}.MaskedToken())
}
