// internal/api/dispatcher.go
//
// HTTP entry point for every handler/action pair.
//
// Context
// -------
// The Dispatcher is mounted at /api.  It reads `handler` and `action` from
// the query string, resolves a fresh handler, and turns whatever the action
// produced into exactly one HTTP response:
//
//	nil          → 204, empty body
//	*Response    → sent as-is
//	other value  → 200, JSON
//	error        → apperr status (400 when absent or invalid), {"message"}
//	panic        → 500, {"message"}; the detail is shown only in debug mode
//
// The response is sent from a deferred function, after panic recovery, so a
// request that blows up half way still receives a single, well-formed reply.
//
//------------------------------------------------------------------------------

package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/yanizio/peneus/internal/apperr"
	"github.com/yanizio/peneus/internal/metrics"
)

const genericFailure = "An unexpected error occurred."

// Dispatcher routes API requests to handlers.
type Dispatcher struct {
	handlers *Registry
	log      *zap.SugaredLogger
	debug    bool
}

// NewDispatcher returns a Dispatcher over handlers.  With debug set, panic
// details are returned to the client.
func NewDispatcher(handlers *Registry, log *zap.SugaredLogger, debug bool) *Dispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Dispatcher{handlers: handlers, log: log, debug: debug}
}

// unknownLabel replaces names that did not resolve, so client input never
// becomes a metric label.
const unknownLabel = "unknown"

// labels carries the metric label values of one dispatch.
type labels struct {
	handler, action string
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()
	handlerName := q.Get("handler")
	actionName := q.Get("action")
	l := labels{handler: unknownLabel, action: unknownLabel}

	var res *Response
	defer func() {
		if p := recover(); p != nil {
			metrics.DispatchPanicsTotal.Inc()
			d.log.Errorw("dispatch panic",
				"handler", handlerName, "action", actionName,
				"panic", p, "stack", string(debug.Stack()))
			res = d.fatal(fmt.Sprint(p))
		}
		if err := res.Send(w); err != nil {
			d.log.Debugw("write response", "err", err)
		}

		metrics.DispatchTotal.WithLabelValues(l.handler, l.action, strconv.Itoa(res.Status())).Inc()
		metrics.DispatchDuration.WithLabelValues(l.handler).Observe(time.Since(start).Seconds())
	}()

	res = d.dispatch(r, handlerName, actionName, &l)
}

// dispatch resolves and runs one action.  A parameter that is absent or
// empty is "not specified"; one that is present but blank is looked up
// like any other name and is not found.
func (d *Dispatcher) dispatch(r *http.Request, handlerName, actionName string, l *labels) *Response {
	if handlerName == "" {
		return d.failure(apperr.InvalidArgument("Handler not specified."))
	}
	if actionName == "" {
		return d.failure(apperr.InvalidArgument("Action not specified."))
	}

	h := d.handlers.Find(handlerName)
	if h == nil {
		return d.failure(apperr.NotFound("Handler not found: %s", strings.TrimSpace(handlerName)))
	}
	l.handler = normalise(handlerName)

	a, key, err := resolveAction(h, actionName)
	if err != nil {
		return d.failure(err)
	}
	l.action = key

	result, err := a.Execute(r)
	if err != nil {
		return d.failure(err)
	}

	switch v := result.(type) {
	case nil:
		return NewResponse().SetStatus(http.StatusNoContent)
	case *Response:
		if v == nil {
			return NewResponse().SetStatus(http.StatusNoContent)
		}
		return v
	}

	res, err := JSONResponse(http.StatusOK, result)
	if err != nil {
		d.log.Errorw("encode result", "handler", handlerName, "action", actionName, "err", err)
		return d.fatal(err.Error())
	}
	return res
}

// failure maps err onto a JSON error response.
func (d *Dispatcher) failure(err error) *Response {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		d.log.Errorw("action failed", "status", status, "err", err)
	} else {
		d.log.Debugw("action rejected", "status", status, "err", err)
	}
	return message(status, err.Error())
}

func (d *Dispatcher) fatal(detail string) *Response {
	if !d.debug {
		detail = genericFailure
	}
	return message(http.StatusInternalServerError, detail)
}

func message(status int, msg string) *Response {
	b, err := json.Marshal(map[string]string{"message": msg})
	if err != nil {
		b = []byte(`{"message":"` + genericFailure + `"}`)
	}
	return NewResponse().
		SetStatus(status).
		SetHeader("Content-Type", contentTypeJSON).
		SetBody(b)
}
