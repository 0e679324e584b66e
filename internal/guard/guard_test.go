package guard

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yanizio/peneus/internal/account"
	"github.com/yanizio/peneus/internal/role"
)

// pairVerifier accepts exactly one token/cookie pair.
type pairVerifier struct{ token, cookie string }

func (p pairVerifier) VerifyCsrfToken(token, cookie string) bool {
	return token == p.token && cookie == p.cookie
}
func (p pairVerifier) CsrfCookieName() string { return "PENEUS_CSRF" }

var csrfOK = pairVerifier{token: "tok", cookie: "ck"}

func TestHeaderTokenGuard(t *testing.T) {
	g := HeaderTokenGuard(csrfOK)

	r := httptest.NewRequest(http.MethodPost, "/api", nil)
	r.Header.Set(HeaderName, "tok")
	assert.False(t, g.Verify(r), "no cookie")

	r.AddCookie(&http.Cookie{Name: "PENEUS_CSRF", Value: "ck"})
	assert.True(t, g.Verify(r))

	r.Header.Set(HeaderName, "other")
	assert.False(t, g.Verify(r))
}

func TestFormTokenGuard(t *testing.T) {
	g := FormTokenGuard(csrfOK)

	form := url.Values{FormField: {"tok"}}
	r := httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(&http.Cookie{Name: "PENEUS_CSRF", Value: "ck"})
	assert.True(t, g.Verify(r))

	// The header does not count for the form guard.
	r = httptest.NewRequest(http.MethodPost, "/api", nil)
	r.Header.Set(HeaderName, "tok")
	r.AddCookie(&http.Cookie{Name: "PENEUS_CSRF", Value: "ck"})
	assert.False(t, g.Verify(r))
}

func TestTokenGuard_CustomSource(t *testing.T) {
	g := TokenGuard(func(r *http.Request) string { return r.URL.Query().Get("t") }, "custom", csrfOK)

	r := httptest.NewRequest(http.MethodGet, "/api?t=tok", nil)
	r.AddCookie(&http.Cookie{Name: "custom", Value: "ck"})
	assert.True(t, g.Verify(r))
}

type fixedSession struct{ view *account.View }

func (f fixedSession) LoggedInAccount(*http.Request) *account.View { return f.view }

func viewWith(r *int64) *account.View { return &account.View{Role: r} }

func TestSessionGuard(t *testing.T) {
	editor, admin, bogus := int64(10), int64(20), int64(15)
	r := httptest.NewRequest(http.MethodGet, "/api", nil)

	cases := []struct {
		name    string
		view    *account.View
		minimum role.Role
		want    bool
	}{
		{"anonymous", nil, role.None, false},
		{"no grant, login only", viewWith(nil), role.None, true},
		{"no grant, editor needed", viewWith(nil), role.Editor, false},
		{"editor, editor needed", viewWith(&editor), role.Editor, true},
		{"editor, admin needed", viewWith(&editor), role.Admin, false},
		{"admin, editor needed", viewWith(&admin), role.Editor, true},
		{"unknown role value", viewWith(&bogus), role.Editor, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SessionGuard(fixedSession{tc.view}, tc.minimum).Verify(r))
		})
	}
}

func TestWhitelistGuard(t *testing.T) {
	from := func(addr string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		r.RemoteAddr = addr
		return r
	}

	g := WhitelistGuard("127.0.0.1", "10.0.0.0/8", "::1", "2001:db8::/64")
	assert.True(t, g.Verify(from("127.0.0.1:5555")))
	assert.True(t, g.Verify(from("10.255.255.255:1")))
	assert.True(t, g.Verify(from("[::1]:80")))
	assert.False(t, g.Verify(from("11.0.0.0:1")))
	assert.False(t, g.Verify(from("[2001:db8::1]:80")), "IPv6 blocks never match")
	assert.False(t, g.Verify(from("")))

	// Forwarding headers are ignored.
	r := from("192.0.2.1:1")
	r.Header.Set("X-Forwarded-For", "127.0.0.1")
	assert.False(t, g.Verify(r))

	assert.False(t, WhitelistGuard().Verify(from("127.0.0.1:1")), "empty list")
}

func TestInRange(t *testing.T) {
	assert.True(t, InRange("10.255.255.255", "10.0.0.0/8"))
	assert.False(t, InRange("11.0.0.0", "10.0.0.0/8"))
	assert.True(t, InRange("203.0.113.9", "0.0.0.0/0"))
	assert.True(t, InRange("192.168.1.1", "192.168.1.1/32"))
	assert.False(t, InRange("192.168.1.2", "192.168.1.1/32"))
	assert.False(t, InRange("2001:db8::1", "2001:db8::/64"))
	assert.False(t, InRange("10.0.0.1", "10.0.0.0/33"))
	assert.False(t, InRange("10.0.0.1", "10.0.0.0"))
	assert.False(t, InRange("garbage", "10.0.0.0/8"))
	assert.False(t, InRange("10.0.0.1", "::ffff:10.0.0.0/104"))
}

func TestFunc(t *testing.T) {
	var g Guard = Func(func(*http.Request) bool { return true })
	assert.True(t, g.Verify(httptest.NewRequest(http.MethodGet, "/", nil)))
}
