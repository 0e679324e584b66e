// components/security/security.go
//
// `security` API handler.
//
// Actions
//   token  – issues a fresh CSRF pair: the cookie half is set on the
//            response, the token half is returned as {"token": "…"} for the
//            client to echo in a form field or the X-CSRF-Token header.
//
//------------------------------------------------------------------------------

package security

import (
	"net/http"

	"github.com/yanizio/peneus/internal/api"
	"github.com/yanizio/peneus/internal/apperr"
	"github.com/yanizio/peneus/internal/csrf"
)

// Name is the handler key used in ?handler=.
const Name = "security"

// Handler serves CSRF tokens.
type Handler struct {
	csrf   *csrf.Service
	secure bool
}

// Register adds the security handler to reg.  secure marks issued cookies
// HTTPS-only.
func Register(reg *api.Registry, tokens *csrf.Service, secure bool) error {
	return reg.Register(Name, func() api.Handler {
		return &Handler{csrf: tokens, secure: secure}
	})
}

func (h *Handler) CreateAction(name string) *api.Action {
	switch name {
	case "token":
		return api.NewAction(h.token)
	}
	return nil
}

func (h *Handler) token(*http.Request) (any, error) {
	token, cookie, err := h.csrf.Issue()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, http.StatusInternalServerError, "Could not issue token.")
	}
	res, err := api.JSONResponse(http.StatusOK, map[string]string{"token": token})
	if err != nil {
		return nil, err
	}
	return res.SetCookie(h.csrf.Cookie(cookie, h.secure)), nil
}
