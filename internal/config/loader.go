// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one `Config` struct from three layers (highest precedence
last):

  1. Optional `<root>/conf/.env` file.
  2. `conf/app.yaml`.
  3. Environment variables prefixed `PENEUS_`, where `__` maps to “.”
     (e.g., `PENEUS_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, `vault:` references are resolved, the tree is unmarshalled
into strongly-typed structs, defaults are filled, and the result is
validated.  The Config is returned to the caller and injected from there;
there is no package-level copy.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read, secret resolution.
  • ERROR spans: YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span: final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.
*/
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	envPrefix = "PENEUS_"
	vaultRef  = "vault:"
)

// Secrets resolves `vault:<mount/path>#<key>` references.
// *vault.Client satisfies it.
type Secrets interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// RootDir resolves PENEUS_ROOT or climbs directories until conf/app.yaml
// is found.  Falls back to an executable heuristic for production layout.
func RootDir() string {
	if r := os.Getenv(envPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "app.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads configuration below RootDir().  secrets may be nil when no
// value references Vault.
func Load(ctx context.Context, secrets Secrets) (*Config, error) {
	return LoadFrom(ctx, RootDir(), secrets)
}

// LoadFrom reads configuration below root.
func LoadFrom(ctx context.Context, root string, secrets Secrets) (*Config, error) {
	log := zap.S()
	log.Debugw("config root resolved", "root", root)

	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "app.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		log.Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, errors.Wrapf(err, "load %s", yamlPath)
	}
	log.Debugw("config yaml loaded", "file", yamlPath)

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		log.Errorw("config env overlay failed", "err", err)
		return nil, errors.Wrap(err, "env overlay")
	}

	if err := resolveSecrets(ctx, k, secrets); err != nil {
		log.Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		log.Errorw("config unmarshal failed", "err", err)
		return nil, errors.Wrap(err, "unmarshal config")
	}

	cfg.Paths.Root = root
	applyDefaults(&cfg)
	if err := validateStruct(&cfg); err != nil {
		log.Errorw("config validation failed", "err", err)
		return nil, errors.Wrap(err, "validate config")
	}

	log.Infow("config loaded",
		"app", cfg.App.Name,
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// resolveSecrets replaces every `vault:` string in k with its secret.
func resolveSecrets(ctx context.Context, k *koanf.Koanf, secrets Secrets) error {
	for key, v := range k.All() {
		s, ok := v.(string)
		if !ok || !strings.HasPrefix(s, vaultRef) {
			continue
		}
		if secrets == nil {
			return errors.Errorf("%s references vault but no vault client is configured", key)
		}
		val, err := secrets.Resolve(ctx, s)
		if err != nil {
			return errors.Wrapf(err, "resolve %s", key)
		}
		if err := k.Set(key, val); err != nil {
			return errors.Wrapf(err, "set %s", key)
		}
		zap.S().Debugw("config secret resolved", "key", key)
	}
	return nil
}
