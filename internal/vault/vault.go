// internal/vault/vault.go
//
// Vault client wrapper for Peneus.
//
// Context
// -------
//   - Provides a concurrency-safe client around the HashiCorp Vault Go SDK.
//   - Adds KV-v2 helpers and per-key caching.
//   - Resolves the `vault:<mount/path>#<key>` references used in
//     configuration, so secrets never live in YAML or git history.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(log)                       // during boot.
//  2. pw,  err := cli.Resolve(ctx, "vault:secret/app#db_password")
//
// Build tags: none.
package vault

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RefPrefix marks a configuration value that lives in Vault.
const RefPrefix = "vault:"

// resolveTTL caches resolved references for the rest of startup.
const resolveTTL = 5 * time.Minute

//
// SECTION 1.  Public façade
//

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	api *vault.Client
	log *zap.SugaredLogger

	cacheMu sync.RWMutex
	cache   map[string]cached // canonical path#key → value + expiry.
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a Vault client.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – initial token (falls back to ~/.vault-token).
func New(log *zap.SugaredLogger) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, errors.Wrap(err, "vault env cfg")
	}
	return NewWithConfig(cfg, os.Getenv("VAULT_TOKEN"), log)
}

// NewWithConfig builds a client from an explicit SDK config.
func NewWithConfig(cfg *vault.Config, token string, log *zap.SugaredLogger) (*Client, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "vault api")
	}
	if token != "" {
		apiCli.SetToken(token)
	}
	return &Client{
		api:   apiCli,
		log:   log,
		cache: make(map[string]cached),
	}, nil
}

// Resolve returns the secret named by a `vault:<mount/path>#<key>` ref.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	path, key, ok := ParseRef(ref)
	if !ok {
		return "", errors.Errorf("malformed vault reference %q", ref)
	}
	return c.GetKV(ctx, path, key, resolveTTL)
}

// GetKV fetches a single key from a KV-v2 secret.  If ttl > 0 the result is
// cached for that duration.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("secret path and key must be non-empty")
	}

	canonical := secretPath + "#" + key

	if ttl > 0 {
		c.cacheMu.RLock()
		if cv, ok := c.cache[canonical]; ok && time.Now().Before(cv.exp) {
			c.cacheMu.RUnlock()
			return cv.val, nil
		}
		c.cacheMu.RUnlock()
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", errors.Wrapf(err, "vault get %s", secretPath)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", errors.Errorf("key %q not found in secret %q", key, secretPath)
	}

	sval, ok := raw.(string)
	if !ok {
		return "", errors.Errorf("value at %s#%s is not a string", secretPath, key)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: time.Now().Add(ttl)}
		c.cacheMu.Unlock()
	}
	c.log.Debugw("vault secret fetched", "path", secretPath, "key", key)

	return sval, nil
}

//
// SECTION 2.  Helpers
//

// ParseRef splits `vault:<mount/path>#<key>`.  The key follows the last '#'.
func ParseRef(ref string) (path, key string, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(ref), RefPrefix)
	if !found {
		return "", "", false
	}
	i := strings.LastIndexByte(rest, '#')
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	path, key = strings.Trim(rest[:i], "/"), rest[i+1:]
	if path == "" || !strings.Contains(path, "/") {
		return "", "", false
	}
	return path, key, true
}

func splitMount(p string) (mount, rel string) {
	if p == "" {
		return "", ""
	}
	parts := strings.SplitN(p, "/", 2)
	mount = parts[0]
	if len(parts) == 2 {
		rel = parts[1]
	}
	return
}
