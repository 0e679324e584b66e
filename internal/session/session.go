// internal/session/session.go
//
// Signed session cookie.
//
// Context
//   A login stores `{accountId, issuedAt}` in the `<APPNAME>_SESSION` cookie,
//   signed (and encrypted when a block key is configured) by
//   gorilla/securecookie.  LoggedInAccount decodes the cookie and loads the
//   account view fresh on every call, so role changes apply immediately and
//   a deleted account is logged out on its next request.
//
//------------------------------------------------------------------------------

package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"

	"github.com/yanizio/peneus/internal/account"
)

// MaxAge is the lifetime of a session cookie.
const MaxAge = 14 * 24 * time.Hour

// Accounts resolves a session's account id.  *account.Service satisfies it.
type Accounts interface {
	View(ctx context.Context, id int64) *account.View
}

type payload struct {
	AccountID int64 `json:"accountId"`
	IssuedAt  int64 `json:"issuedAt"`
}

// Service encodes and decodes session cookies.
type Service struct {
	name     string
	codec    *securecookie.SecureCookie
	accounts Accounts
	now      func() time.Time
}

// New returns a Service.  hashKey is required; blockKey may be nil, which
// leaves the payload signed but readable.
func New(appName string, hashKey, blockKey []byte, accounts Accounts) (*Service, error) {
	if len(hashKey) == 0 {
		return nil, errors.New("session hash key is empty")
	}
	codec := securecookie.New(hashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(MaxAge / time.Second))
	return &Service{
		name:     strings.ToUpper(appName) + "_SESSION",
		codec:    codec,
		accounts: accounts,
		now:      time.Now,
	}, nil
}

// CookieName returns the session cookie name.
func (s *Service) CookieName() string { return s.name }

// LoggedInAccount returns the view of the account that owns r's session,
// or nil when there is none or it cannot be trusted.
func (s *Service) LoggedInAccount(r *http.Request) *account.View {
	id, ok := s.AccountID(r)
	if !ok {
		return nil
	}
	return s.accounts.View(r.Context(), id)
}

// AccountID decodes r's session cookie without touching the database.
func (s *Service) AccountID(r *http.Request) (int64, bool) {
	c, err := r.Cookie(s.name)
	if err != nil || c.Value == "" {
		return 0, false
	}
	var p payload
	if err := s.codec.Decode(s.name, c.Value, &p); err != nil || p.AccountID <= 0 {
		return 0, false
	}
	return p.AccountID, true
}

// LoginCookie returns a session cookie for accountID.
func (s *Service) LoginCookie(accountID int64, secure bool) (*http.Cookie, error) {
	v, err := s.codec.Encode(s.name, payload{AccountID: accountID, IssuedAt: s.now().Unix()})
	if err != nil {
		return nil, errors.Wrap(err, "encode session")
	}
	return &http.Cookie{
		Name:     s.name,
		Value:    v,
		Path:     "/",
		MaxAge:   int(MaxAge / time.Second),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// LogoutCookie returns a cookie that clears the session.
func (s *Service) LogoutCookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
