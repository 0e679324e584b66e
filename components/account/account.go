// components/account/account.go
//
// `account` API handler: login, logout, registration and session status.
//
// Guards
//   login, register – FormTokenGuard (csrfToken form field + CSRF cookie)
//   logout          – SessionGuard(None) + HeaderTokenGuard
//   status          – none; 204 when anonymous
//
//------------------------------------------------------------------------------

package account

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/peneus/internal/account"
	"github.com/yanizio/peneus/internal/api"
	"github.com/yanizio/peneus/internal/csrf"
	"github.com/yanizio/peneus/internal/guard"
	"github.com/yanizio/peneus/internal/mail"
	"github.com/yanizio/peneus/internal/role"
	"github.com/yanizio/peneus/internal/session"
)

// Name is the handler key used in ?handler=.
const Name = "account"

// Accounts is the part of *account.Service the handler needs.
type Accounts interface {
	Register(ctx context.Context, email, password, displayName string) (*account.Account, error)
	Authenticate(ctx context.Context, email, password string) (*account.Account, error)
	View(ctx context.Context, id int64) *account.View
}

// Deps wires the handler.
type Deps struct {
	AppName  string
	Accounts Accounts
	Sessions *session.Service
	CSRF     *csrf.Service
	Mail     mail.Sender
	Secure   bool
	Log      *zap.SugaredLogger
}

// Handler serves the account actions.
type Handler struct{ Deps }

// Register adds the account handler to reg.
func Register(reg *api.Registry, d Deps) error {
	if d.Log == nil {
		d.Log = zap.NewNop().Sugar()
	}
	return reg.Register(Name, func() api.Handler { return &Handler{Deps: d} })
}

func (h *Handler) CreateAction(name string) *api.Action {
	switch name {
	case "login":
		return api.NewAction(h.login, guard.FormTokenGuard(h.CSRF))
	case "logout":
		return api.NewAction(h.logout,
			guard.SessionGuard(h.Sessions, role.None),
			guard.HeaderTokenGuard(h.CSRF))
	case "register":
		return api.NewAction(h.register, guard.FormTokenGuard(h.CSRF))
	case "status":
		return api.NewAction(h.status)
	}
	return nil
}

func (h *Handler) login(r *http.Request) (any, error) {
	a, err := h.Accounts.Authenticate(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		return nil, err
	}
	cookie, err := h.Sessions.LoginCookie(a.ID, h.Secure)
	if err != nil {
		return nil, err
	}
	h.Log.Infow("account logged in", "account", a.ID)

	res, err := api.JSONResponse(http.StatusOK, h.Accounts.View(r.Context(), a.ID))
	if err != nil {
		return nil, err
	}
	return res.SetCookie(cookie), nil
}

func (h *Handler) logout(*http.Request) (any, error) {
	return api.NewResponse().
		SetStatus(http.StatusNoContent).
		SetCookie(h.Sessions.LogoutCookie()), nil
}

func (h *Handler) register(r *http.Request) (any, error) {
	a, err := h.Accounts.Register(r.Context(),
		r.PostFormValue("email"), r.PostFormValue("password"), r.PostFormValue("displayName"))
	if err != nil {
		return nil, err
	}

	if err := h.Mail.Send(r.Context(), welcome(h.AppName, a)); err != nil {
		h.Log.Warnw("welcome mail not sent", "account", a.ID, "err", err)
	}
	return api.JSONResponse(http.StatusCreated, a)
}

func (h *Handler) status(r *http.Request) (any, error) {
	v := h.Sessions.LoggedInAccount(r)
	if v == nil {
		return nil, nil
	}
	return v, nil
}

func welcome(app string, a *account.Account) *mail.Message {
	return &mail.Message{
		To:      []string{a.Email},
		Subject: fmt.Sprintf("Welcome to %s", app),
		Text:    fmt.Sprintf("Hello %s,\n\nyour %s account is ready.\n", a.DisplayName, app),
	}
}
