// internal/api/action.go
//
// Actions and the Handler contract.
//
// Context
// -------
// An Action pairs a RunFunc with its guards.  Guards run in declaration
// order and the first refusal ends the request with 401 before the body
// is reached.  Handlers are looked up per request and asked for an action
// by its trimmed, lower-cased name.
//
//------------------------------------------------------------------------------

package api

import (
	"net/http"
	"strings"

	"github.com/yanizio/peneus/internal/apperr"
	"github.com/yanizio/peneus/internal/guard"
)

// RunFunc is the body of an action.  It returns nil (no content), a
// *Response, any JSON-encodable value, or an error.
type RunFunc func(r *http.Request) (any, error)

// Action is a RunFunc protected by an ordered list of guards.
type Action struct {
	guards []guard.Guard
	run    RunFunc
}

// NewAction binds run to guards.  Guards are checked in the given order.
func NewAction(run RunFunc, guards ...guard.Guard) *Action {
	return &Action{guards: guards, run: run}
}

// Execute runs the action once every guard has passed.  The first failing
// guard stops it with 401.
func (a *Action) Execute(r *http.Request) (any, error) {
	for _, g := range a.guards {
		if !g.Verify(r) {
			return nil, apperr.Unauthorized("Unauthorized.")
		}
	}
	return a.run(r)
}

// Handler groups related actions.  CreateAction returns nil for names it
// does not know.  Names arrive trimmed and lower-cased.
type Handler interface {
	CreateAction(name string) *Action
}

// HandleAction looks up and executes the named action of h.
func HandleAction(h Handler, name string, r *http.Request) (any, error) {
	a, _, err := resolveAction(h, name)
	if err != nil {
		return nil, err
	}
	return a.Execute(r)
}

// resolveAction returns the action for name and the key it was found under.
func resolveAction(h Handler, name string) (*Action, string, error) {
	key := normalise(name)
	a := h.CreateAction(key)
	if a == nil {
		return nil, "", apperr.NotFound("Unknown action: %s", strings.TrimSpace(name))
	}
	return a, key, nil
}
