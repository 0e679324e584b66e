// internal/config/model.go
//
// Typed configuration model for Peneus.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `conf/.env`                     – dotenv values,
//   • `conf/app.yaml`                          – primary static file,
//   • `PENEUS_`-prefixed environment overrides – highest precedence.
//
// Any string value of the form `vault:<mount/path>#<key>` is resolved
// through Vault *before* unmarshalling, so the model never stores Vault
// references, only plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import (
	"strings"
	"time"

	"github.com/yanizio/peneus/internal/mail"
)

// App names the application.  The name prefixes cookie names, so it is
// restricted to letters and digits.
type App struct {
	Name  string `koanf:"name"  validate:"required,alphanum"`
	Debug bool   `koanf:"debug"`
}

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr       string   `koanf:"listen_addr"       validate:"required,hostname_port"`
	ForceHTTPS       bool     `koanf:"force_https"`
	MetricsWhitelist []string `koanf:"metrics_whitelist"`
}

// Database holds the DSN template and its secret.
//
// The DSN stays in YAML so operators can tweak host, port, or flags without
// touching Vault.  `{password}` inside it is replaced by Password, which
// normally comes from Vault.
type Database struct {
	DSN             string        `koanf:"dsn"               validate:"required"`
	Password        string        `koanf:"password"`
	MaxOpenConns    int           `koanf:"max_open_conns"    validate:"gte=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"gte=0"`
}

// ResolvedDSN returns DSN with the password substituted.
func (d Database) ResolvedDSN() string {
	return strings.ReplaceAll(d.DSN, "{password}", d.Password)
}

// Security holds signing keys.  An empty CSRF secret means an ephemeral
// per-process key.
type Security struct {
	CsrfSecret      string `koanf:"csrf_secret"`
	SessionHashKey  string `koanf:"session_hash_key"  validate:"required,min=32"`
	SessionBlockKey string `koanf:"session_block_key" validate:"omitempty,len=32"`
}

// GeoIP points at an optional MaxMind database.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

// Log tunes the logger.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // PENEUS_ROOT or discovered parent
}

// Config is the aggregate returned by Load.
type Config struct {
	App      App         `koanf:"app"`
	HTTP     HTTP        `koanf:"http"`
	Database Database    `koanf:"database"`
	Security Security    `koanf:"security"`
	Mail     mail.Config `koanf:"mail"`
	GeoIP    GeoIP       `koanf:"geoip"`
	Log      Log         `koanf:"log"`
	Paths    Paths       `koanf:"-"`
}

// applyDefaults fills zero values that have a sensible default.
func applyDefaults(c *Config) {
	if c.App.Name == "" {
		c.App.Name = "peneus"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 15
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
