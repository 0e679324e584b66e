package csrf

import (
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(now time.Time) *Service {
	s := New("peneus", []byte("0123456789abcdef0123456789abcdef"))
	s.now = func() time.Time { return now }
	return s
}

func TestCsrfCookieName(t *testing.T) {
	assert.Equal(t, "PENEUS_CSRF", New("peneus", []byte("k")).CsrfCookieName())
}

func TestIssueVerify(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newService(now)

	tok, cookie, err := s.Issue()
	require.NoError(t, err)
	assert.NotEqual(t, tok, cookie)
	assert.True(t, s.VerifyCsrfToken(tok, cookie))

	tok2, cookie2, err := s.Issue()
	require.NoError(t, err)
	assert.NotEqual(t, cookie, cookie2, "nonce must differ")
	assert.False(t, s.VerifyCsrfToken(tok, cookie2), "tokens are bound to their cookie")
	assert.False(t, s.VerifyCsrfToken(tok2, cookie))
}

func TestVerify_Expiry(t *testing.T) {
	issued := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newService(issued)
	tok, cookie, err := s.Issue()
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(MaxAge - time.Second) }
	assert.True(t, s.VerifyCsrfToken(tok, cookie))

	s.now = func() time.Time { return issued.Add(MaxAge + time.Second) }
	assert.False(t, s.VerifyCsrfToken(tok, cookie))

	// Issued too far in the future.
	s.now = func() time.Time { return issued.Add(-2 * time.Minute) }
	assert.False(t, s.VerifyCsrfToken(tok, cookie))
}

func TestVerify_WrongSecret(t *testing.T) {
	now := time.Now()
	a := newService(now)
	b := New("peneus", []byte("another secret entirely........."))
	b.now = a.now

	tok, cookie, err := a.Issue()
	require.NoError(t, err)
	assert.False(t, b.VerifyCsrfToken(tok, cookie))
}

func TestVerify_Malformed(t *testing.T) {
	s := newService(time.Now())
	tok, cookie, err := s.Issue()
	require.NoError(t, err)

	short := base64.RawURLEncoding.EncodeToString([]byte("short"))
	for _, tc := range []struct{ tok, cookie string }{
		{"", cookie},
		{tok, ""},
		{"!!!", cookie},
		{tok, "!!!"},
		{short, cookie},
		{tok, short},
	} {
		assert.False(t, s.VerifyCsrfToken(tc.tok, tc.cookie), "%q / %q", tc.tok, tc.cookie)
	}
}

func TestCookie(t *testing.T) {
	s := newService(time.Now())
	c := s.Cookie("v", true)
	assert.Equal(t, "PENEUS_CSRF", c.Name)
	assert.Equal(t, "v", c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, 7200, c.MaxAge)
}

func TestNew_EmptySecretStillWorks(t *testing.T) {
	s := New("peneus", nil)
	tok, cookie, err := s.Issue()
	require.NoError(t, err)
	assert.True(t, s.VerifyCsrfToken(tok, cookie))
}
