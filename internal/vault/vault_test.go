package vault

import (
	"context"
	"testing"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	cases := []struct {
		ref, path, key string
		ok             bool
	}{
		{"vault:secret/peneus#db_password", "secret/peneus", "db_password", true},
		{" vault:secret/apps/peneus#key ", "secret/apps/peneus", "key", true},
		{"vault:secret/we#ird#key", "secret/we#ird", "key", true},
		{"vault:secret#key", "", "", false},
		{"vault:secret/peneus", "", "", false},
		{"vault:secret/peneus#", "", "", false},
		{"vault:#key", "", "", false},
		{"plain value", "", "", false},
	}
	for _, tc := range cases {
		path, key, ok := ParseRef(tc.ref)
		assert.Equal(t, tc.ok, ok, tc.ref)
		assert.Equal(t, tc.path, path, tc.ref)
		assert.Equal(t, tc.key, key, tc.ref)
	}
}

func TestSplitMount(t *testing.T) {
	m, r := splitMount("secret/apps/peneus")
	assert.Equal(t, "secret", m)
	assert.Equal(t, "apps/peneus", r)

	m, r = splitMount("secret")
	assert.Equal(t, "secret", m)
	assert.Empty(t, r)
}

func TestGetKV_ServesFromCache(t *testing.T) {
	cfg := vault.DefaultConfig()
	cfg.Address = "http://127.0.0.1:1" // never contacted
	c, err := NewWithConfig(cfg, "token", nil)
	require.NoError(t, err)

	c.cache["secret/peneus#db_password"] = cached{val: "s3cret", exp: time.Now().Add(time.Minute)}

	v, err := c.Resolve(context.Background(), "vault:secret/peneus#db_password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	_, err = c.Resolve(context.Background(), "not a ref")
	assert.Error(t, err)

	_, err = c.GetKV(context.Background(), "", "k", 0)
	assert.Error(t, err)
}
