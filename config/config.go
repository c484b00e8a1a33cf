package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/syssam/litesql/dialect"
	"github.com/syssam/litesql/dialect/sql"
)

// DefaultPath is the configuration file read when no path is given.
const DefaultPath = "config/sqlite.yaml"

// Config is the store configuration.
type Config struct {
	SQLite SQLite `json:"sqlite" yaml:"sqlite"`
}

// SQLite configures the connection to the store.
type SQLite struct {
	URI             string            `json:"uri" yaml:"uri"`
	Username        string            `json:"username,omitempty" yaml:"username,omitempty"`
	Password        string            `json:"password,omitempty" yaml:"password,omitempty"`
	Pragmas         map[string]string `json:"pragmas,omitempty" yaml:"pragmas,omitempty"`
	MaxOpenConns    int               `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty"`
	MaxIdleConns    int               `json:"max_idle_conns,omitempty" yaml:"max_idle_conns,omitempty"`
	ConnMaxLifetime time.Duration     `json:"conn_max_lifetime,omitempty" yaml:"conn_max_lifetime,omitempty"`
	Debug           bool              `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(contents)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// LoadOrDefault is like Load but logs a failure and returns an empty
// configuration instead.
func LoadOrDefault(path string, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}
	c, err := Load(path)
	if err != nil {
		logger.Warn("config: using default configuration", slog.String("path", path), slog.Any("error", err))
		return &Config{}
	}
	return c
}

// Parse decodes a YAML configuration.
func Parse(contents []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(contents, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Value returns a setting by its flat key, e.g. "uri", "max_open_conns" or
// "pragmas.busy_timeout". Keys may carry the "sqlite." prefix.
func (c *Config) Value(key string) (string, bool) {
	s := c.SQLite
	key = strings.TrimPrefix(strings.ToLower(key), "sqlite.")
	if name, ok := strings.CutPrefix(key, "pragmas."); ok {
		v, ok := s.Pragmas[name]
		return v, ok
	}
	switch key {
	case "uri":
		return s.URI, true
	case "username":
		return s.Username, true
	case "password":
		return s.Password, true
	case "max_open_conns":
		return strconv.Itoa(s.MaxOpenConns), true
	case "max_idle_conns":
		return strconv.Itoa(s.MaxIdleConns), true
	case "conn_max_lifetime":
		return s.ConnMaxLifetime.String(), true
	case "debug":
		return strconv.FormatBool(s.Debug), true
	}
	return "", false
}

// DSN returns the data source name for the compiled-in engine.
func (c *Config) DSN() string {
	return c.DSNFor(sql.DriverType())
}

// DSNFor returns the data source name for the engine of the given type,
// "purego" (modernc.org/sqlite) or "cgo" (mattn/go-sqlite3). Pragmas are
// emitted in key order. Credentials are only understood by the cgo engine.
func (c *Config) DSNFor(driverType string) string {
	s := c.SQLite
	keys := make([]string, 0, len(s.Pragmas))
	for k := range s.Pragmas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var params []string
	for _, k := range keys {
		v := s.Pragmas[k]
		if driverType == "cgo" {
			params = append(params, "_"+k+"="+url.QueryEscape(v))
		} else {
			params = append(params, "_pragma="+url.QueryEscape(k+"("+v+")"))
		}
	}
	if driverType == "cgo" && s.Username != "" {
		params = append(params,
			"_auth",
			"_auth_user="+url.QueryEscape(s.Username),
			"_auth_pass="+url.QueryEscape(s.Password),
		)
	}
	if len(params) == 0 {
		return s.URI
	}
	sep := "?"
	if strings.Contains(s.URI, "?") {
		sep = "&"
	}
	return s.URI + sep + strings.Join(params, "&")
}

// Open opens the store with the compiled-in engine and applies the pool
// settings.
func (c *Config) Open() (*sql.Driver, error) {
	s := c.SQLite
	if s.URI == "" {
		return nil, errors.New("config: sqlite.uri is not set")
	}
	if s.Username != "" && !sql.IsCGO() {
		slog.Default().Warn("config: credentials are ignored by the pure Go engine", slog.String("driver", sql.DriverName()))
	}
	drv, err := sql.OpenEngine(c.DSN())
	if err != nil {
		return nil, err
	}
	db := drv.DB()
	if s.MaxOpenConns > 0 {
		db.SetMaxOpenConns(s.MaxOpenConns)
	}
	if s.MaxIdleConns > 0 {
		db.SetMaxIdleConns(s.MaxIdleConns)
	}
	if s.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(s.ConnMaxLifetime)
	}
	return drv, nil
}

// OpenDriver is like Open but logs every statement through logger when
// debug is enabled.
func (c *Config) OpenDriver(logger *slog.Logger) (dialect.Driver, error) {
	drv, err := c.Open()
	if err != nil {
		return nil, err
	}
	if !c.SQLite.Debug {
		return drv, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return sql.NewDebugDriver(drv, sql.DebugWithLogger(logger)), nil
}
