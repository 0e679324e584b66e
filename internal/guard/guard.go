// internal/guard/guard.go
//
// Request guards.
//
// Context
// -------
// A Guard is a yes/no check on an incoming request.  Actions hold an ordered
// list of guards and refuse to run unless every one passes.  The middleware
// package adapts any Guard to a chi middleware as well.
//
//	TokenGuard        CSRF token from an arbitrary source + CSRF cookie
//	FormTokenGuard    token from the `csrfToken` form field
//	HeaderTokenGuard  token from the `X-CSRF-Token` header
//	SessionGuard      a logged-in account with at least a given role
//	WhitelistGuard    client address in a list of IPs / IPv4 CIDR blocks
package guard

import (
	"net/http"

	"github.com/yanizio/peneus/internal/account"
	"github.com/yanizio/peneus/internal/role"
)

const (
	// FormField carries the CSRF token in form submissions.
	FormField = "csrfToken"
	// HeaderName carries the CSRF token in script requests.
	HeaderName = "X-CSRF-Token"
)

// Guard approves or rejects a request.
type Guard interface {
	Verify(r *http.Request) bool
}

// Func adapts a plain function to Guard.
type Func func(r *http.Request) bool

func (f Func) Verify(r *http.Request) bool { return f(r) }

/*──────────────────────────── CSRF ────────────────────────────────────────*/

// Verifier checks CSRF token pairs.  *csrf.Service satisfies it.
type Verifier interface {
	VerifyCsrfToken(token, cookieValue string) bool
	CsrfCookieName() string
}

type tokenGuard struct {
	token      func(*http.Request) string
	cookieName string
	csrf       Verifier
}

// TokenGuard reads the token with source and the cookie half from
// cookieName, then asks csrf whether the pair is genuine.
func TokenGuard(source func(*http.Request) string, cookieName string, csrf Verifier) Guard {
	return tokenGuard{token: source, cookieName: cookieName, csrf: csrf}
}

func (g tokenGuard) Verify(r *http.Request) bool {
	c, err := r.Cookie(g.cookieName)
	if err != nil {
		return false
	}
	return g.csrf.VerifyCsrfToken(g.token(r), c.Value)
}

// FormTokenGuard takes the token from the posted form.
func FormTokenGuard(csrf Verifier) Guard {
	return TokenGuard(func(r *http.Request) string {
		return r.PostFormValue(FormField)
	}, csrf.CsrfCookieName(), csrf)
}

// HeaderTokenGuard takes the token from the X-CSRF-Token header.
func HeaderTokenGuard(csrf Verifier) Guard {
	return TokenGuard(func(r *http.Request) string {
		return r.Header.Get(HeaderName)
	}, csrf.CsrfCookieName(), csrf)
}

/*──────────────────────────── session ─────────────────────────────────────*/

// Sessions resolves the logged-in account.  *session.Service satisfies it.
type Sessions interface {
	LoggedInAccount(r *http.Request) *account.View
}

type sessionGuard struct {
	sessions Sessions
	minimum  role.Role
}

// SessionGuard passes when someone is logged in with at least minimum.
// Pass role.None to require a login only.
func SessionGuard(sessions Sessions, minimum role.Role) Guard {
	return sessionGuard{sessions: sessions, minimum: minimum}
}

func (g sessionGuard) Verify(r *http.Request) bool {
	v := g.sessions.LoggedInAccount(r)
	if v == nil {
		return false
	}
	return role.Parse(v.Role).AtLeast(g.minimum)
}
