package pgmap

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"
)

const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvDebugSQL    = "DEBUG_SQL"

	DefaultDriver      = "pg"
	DefaultPoolMax     = 20
	DefaultIdleTimeout = 3 * time.Second
)

// OnDBNotification is a callback for PostgreSQL LISTEN/NOTIFY.
type OnDBNotification = pgconn.NotificationHandler

// Config describes the pool. Explicit fields override the matching parts of
// URL. It must not change once the pool is built.
type Config struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`

	PoolMax int `yaml:"pool_max"`
	PoolMin int `yaml:"pool_min"`
	// IdleTimeout is read from the pool_timeout key by LoadConfig, as
	// milliseconds or a duration string.
	IdleTimeout time.Duration `yaml:"-"`

	// SSL is on unless explicitly set to false. On means TLS is required:
	// plaintext fallbacks are dropped and sslmode=disable is overridden.
	SSL *bool `yaml:"ssl"`

	Debug     bool      `yaml:"debug"`
	Verbosity Verbosity `yaml:"verbose_debug"`

	// Driver names a registered provider, "pg" by default.
	Driver string `yaml:"driver"`

	OnNotification OnDBNotification `yaml:"-"`
}

type fileConfig struct {
	Config      `yaml:",inline"`
	PoolTimeout any `yaml:"pool_timeout"`
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	var fc fileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc.Config, fmt.Errorf("pgmap: read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc.Config, fmt.Errorf("pgmap: parse config %s: %w", path, err)
	}
	if fc.IdleTimeout, err = parseTimeout(fc.PoolTimeout); err != nil {
		return fc.Config, fmt.Errorf("pgmap: parse config %s: pool_timeout: %w", path, err)
	}
	return fc.Config, nil
}

// parseTimeout accepts integer milliseconds (3000) or a duration ("3s").
func parseTimeout(v any) (time.Duration, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int:
		return time.Duration(t) * time.Millisecond, nil
	case string:
		return time.ParseDuration(t)
	default:
		return 0, fmt.Errorf("want milliseconds or a duration, got %v", v)
	}
}

// Resolve applies environment fallbacks and defaults and validates the
// result.
func (c Config) Resolve() (Config, error) {
	if c.URL == "" {
		c.URL = os.Getenv(EnvDatabaseURL)
	}
	if c.Verbosity == VerbosityNone {
		c.Verbosity = Verbosity(os.Getenv(EnvDebugSQL))
	}
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if c.PoolMax == 0 {
		c.PoolMax = DefaultPoolMax
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}

	switch c.Verbosity {
	case VerbosityNone, VerbosityInput, VerbosityAll:
	default:
		return c, fmt.Errorf("pgmap: unknown debug verbosity %q", c.Verbosity)
	}
	if c.PoolMax < 0 || c.PoolMin < 0 {
		return c, errors.New("pgmap: pool bounds must not be negative")
	}
	if c.PoolMin > c.PoolMax {
		return c, fmt.Errorf("pgmap: pool_min %d exceeds pool_max %d", c.PoolMin, c.PoolMax)
	}
	if c.Port < 0 || c.Port > 65535 {
		return c, fmt.Errorf("pgmap: invalid port %d", c.Port)
	}
	return c, nil
}

func (c Config) SSLEnabled() bool {
	return c.SSL == nil || *c.SSL
}

// PoolConfig builds a pgx pool config. Connection-string parsing, including
// PG* environment defaults, is left to pgx.
func (c Config) PoolConfig() (*pgxpool.Config, error) {
	c, err := c.Resolve()
	if err != nil {
		return nil, err
	}
	pc, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("pgmap: parse connection string: %w", err)
	}

	cc := pc.ConnConfig
	if c.Host != "" {
		cc.Host = c.Host
		cc.TLSConfig = withServerName(cc.TLSConfig, c.Host)
		for _, fb := range cc.Fallbacks {
			fb.Host = c.Host
			fb.TLSConfig = withServerName(fb.TLSConfig, c.Host)
		}
	}
	if c.Port != 0 {
		cc.Port = uint16(c.Port)
		for _, fb := range cc.Fallbacks {
			fb.Port = uint16(c.Port)
		}
	}
	if c.User != "" {
		cc.User = c.User
	}
	if c.Password != "" {
		cc.Password = c.Password
	}
	if c.Database != "" {
		cc.Database = c.Database
	}
	if c.SSLEnabled() {
		requireTLS(&cc.Config)
	} else {
		disableTLS(&cc.Config)
	}
	if c.OnNotification != nil {
		cc.OnNotification = c.OnNotification
	}

	pc.MaxConns = int32(c.PoolMax)
	pc.MinConns = int32(c.PoolMin)
	pc.MaxConnIdleTime = c.IdleTimeout
	return pc, nil
}

// requireTLS keeps only TLS attempts. A connection string that disabled TLS
// gets the sslmode=require setup: encrypted, certificate not verified.
func requireTLS(cc *pgconn.Config) {
	if cc.TLSConfig == nil {
		cc.TLSConfig = &tls.Config{ServerName: cc.Host, InsecureSkipVerify: true}
	}
	secure := cc.Fallbacks[:0]
	for _, fb := range cc.Fallbacks {
		if fb.TLSConfig != nil {
			secure = append(secure, fb)
		}
	}
	cc.Fallbacks = secure
}

func disableTLS(cc *pgconn.Config) {
	cc.TLSConfig = nil
	plain := cc.Fallbacks[:0]
	for _, fb := range cc.Fallbacks {
		if fb.TLSConfig == nil {
			plain = append(plain, fb)
		}
	}
	cc.Fallbacks = plain
}

func withServerName(cfg *tls.Config, host string) *tls.Config {
	if cfg == nil || cfg.ServerName == "" {
		return cfg
	}
	cfg = cfg.Clone()
	cfg.ServerName = host
	return cfg
}
