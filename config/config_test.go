package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
sqlite:
  uri: file:app.db
  username: admin
  password: s3cret&
  pragmas:
    journal_mode: WAL
    busy_timeout: "5000"
  max_open_conns: 4
  max_idle_conns: 2
  conn_max_lifetime: 5m
  debug: true
`

func writeConfig(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "sqlite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, t.TempDir(), sample)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file:app.db", c.SQLite.URI)
	assert.Equal(t, "admin", c.SQLite.Username)
	assert.Equal(t, map[string]string{"journal_mode": "WAL", "busy_timeout": "5000"}, c.SQLite.Pragmas)
	assert.Equal(t, 4, c.SQLite.MaxOpenConns)
	assert.Equal(t, 2, c.SQLite.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, c.SQLite.ConnMaxLifetime)
	assert.True(t, c.SQLite.Debug)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := writeConfig(t, t.TempDir(), "sqlite: [")
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}

func TestLoadOrDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	c := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"), logger)
	require.NotNil(t, c)
	assert.Equal(t, Config{}, *c)
	assert.Contains(t, buf.String(), "using default configuration")

	path := writeConfig(t, t.TempDir(), sample)
	c = LoadOrDefault(path, nil)
	assert.Equal(t, "file:app.db", c.SQLite.URI)
}

func TestValue(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	tests := map[string]string{
		"uri":                  "file:app.db",
		"sqlite.username":      "admin",
		"SQLITE.URI":           "file:app.db",
		"pragmas.busy_timeout": "5000",
		"max_open_conns":       "4",
		"conn_max_lifetime":    "5m0s",
		"debug":                "true",
	}
	for key, want := range tests {
		v, ok := c.Value(key)
		assert.True(t, ok, key)
		assert.Equal(t, want, v, key)
	}
	_, ok := c.Value("pragmas.foreign_keys")
	assert.False(t, ok)
	_, ok = c.Value("nope")
	assert.False(t, ok)
}

func TestDSN(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t,
		"file:app.db?_pragma=busy_timeout%285000%29&_pragma=journal_mode%28WAL%29",
		c.DSNFor("purego"),
	)
	assert.Equal(t,
		"file:app.db?_busy_timeout=5000&_journal_mode=WAL&_auth&_auth_user=admin&_auth_pass=s3cret%26",
		c.DSNFor("cgo"),
	)

	c = &Config{SQLite: SQLite{URI: "file:app.db?mode=ro", Pragmas: map[string]string{"foreign_keys": "1"}}}
	assert.Equal(t, "file:app.db?mode=ro&_pragma=foreign_keys%281%29", c.DSNFor("purego"))

	c = &Config{SQLite: SQLite{URI: ":memory:"}}
	assert.Equal(t, ":memory:", c.DSN())
}

func TestMarshalRoundTrip(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	out, err := c.Marshal()
	require.NoError(t, err)
	back, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestOpen(t *testing.T) {
	_, err := (&Config{}).Open()
	require.Error(t, err)

	c := &Config{SQLite: SQLite{
		URI:          "file::memory:",
		Pragmas:      map[string]string{"foreign_keys": "1"},
		MaxOpenConns: 1,
	}}
	drv, err := c.Open()
	require.NoError(t, err)
	defer drv.Close()
	require.NoError(t, drv.DB().PingContext(context.Background()))
	assert.Equal(t, 1, drv.DB().Stats().MaxOpenConnections)

	c.SQLite.Debug = true
	d, err := c.OpenDriver(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(t, err)
	defer d.Close()
	assert.Equal(t, "sqlite", d.Dialect())
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, sample)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) {
			select {
			case reloaded <- c:
			default:
			}
		})
	}()

	// Keep rewriting until the watcher, which registers asynchronously, sees it.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case c := <-reloaded:
			if c.SQLite.URI == "file:other.db" {
				cancel()
				assert.ErrorIs(t, <-done, context.Canceled)
				return
			}
		case <-tick.C:
			writeConfig(t, dir, "sqlite:\n  uri: file:other.db\n")
		case <-deadline:
			t.Fatal("configuration was not reloaded")
		}
	}
}
