package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/peneus/internal/apperr"
	"github.com/yanizio/peneus/internal/guard"
	"github.com/yanizio/peneus/internal/metrics"
)

var (
	allow = guard.Func(func(*http.Request) bool { return true })
	deny  = guard.Func(func(*http.Request) bool { return false })
)

// echo is a handler whose actions cover every result shape.
type echo struct{}

func (echo) CreateAction(name string) *Action {
	switch name {
	case "nothing":
		return NewAction(func(*http.Request) (any, error) { return nil, nil })
	case "value":
		return NewAction(func(r *http.Request) (any, error) {
			return map[string]any{"hello": r.URL.Query().Get("who")}, nil
		}, allow)
	case "custom":
		return NewAction(func(*http.Request) (any, error) {
			return NewResponse().
				SetStatus(http.StatusCreated).
				SetHeader("X-Custom", "yes").
				SetCookie(&http.Cookie{Name: "c", Value: "1"}).
				SetBody([]byte("made")), nil
		})
	case "guarded":
		return NewAction(func(*http.Request) (any, error) {
			panic("guarded action must not run")
		}, allow, deny)
	case "toolarge":
		return NewAction(func(*http.Request) (any, error) {
			return nil, apperr.New(apperr.KindInvalidInput, http.StatusRequestEntityTooLarge, "Upload too large.")
		})
	case "badstatus":
		return NewAction(func(*http.Request) (any, error) {
			return nil, apperr.New(apperr.KindInternal, 999, "Odd status.")
		})
	case "plainerror":
		return NewAction(func(*http.Request) (any, error) {
			return nil, assert.AnError
		})
	case "boom":
		return NewAction(func(*http.Request) (any, error) { panic("kaboom") })
	case "zero":
		return NewAction(func(*http.Request) (any, error) { return &Response{}, nil })
	case "oddstatus":
		return NewAction(func(*http.Request) (any, error) {
			return NewResponse().SetStatus(42).SetBody([]byte("odd")), nil
		})
	case "unencodable":
		return NewAction(func(*http.Request) (any, error) { return make(chan int), nil })
	}
	return nil
}

func newDispatcher(t *testing.T, debug bool) *Dispatcher {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.Register("Echo", func() Handler { return echo{} }))
	return NewDispatcher(reg, nil, debug)
}

func call(d *Dispatcher, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func messageOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Message
}

func TestDispatch_MissingParameters(t *testing.T) {
	d := newDispatcher(t, false)

	w := call(d, "/api")
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Handler not specified.", messageOf(t, w))

	w = call(d, "/api?handler=echo")
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Action not specified.", messageOf(t, w))

	w = call(d, "/api?handler=&action=value")
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Handler not specified.", messageOf(t, w))

	w = call(d, "/api?handler=echo&action=")
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Action not specified.", messageOf(t, w))
}

func TestDispatch_BlankNamesAreNotFound(t *testing.T) {
	d := newDispatcher(t, false)

	w := call(d, "/api?handler=%20&action=value")
	assert.Equal(t, 404, w.Code)
	assert.Equal(t, "Handler not found: ", messageOf(t, w))

	w = call(d, "/api?handler=echo&action=%20%20")
	assert.Equal(t, 404, w.Code)
	assert.Equal(t, "Unknown action: ", messageOf(t, w))
}

func TestDispatch_MetricLabelsStayBounded(t *testing.T) {
	d := newDispatcher(t, false)

	// Prime the series that legitimate and unresolved calls produce.
	call(d, "/api?handler=echo&action=nothing")
	call(d, "/api?handler=nope-0&action=x")
	call(d, "/api?handler=echo&action=nope-0")
	before := testutil.CollectAndCount(metrics.DispatchTotal)
	durations := testutil.CollectAndCount(metrics.DispatchDuration)

	for i := 1; i <= 50; i++ {
		call(d, fmt.Sprintf("/api?handler=nope-%d&action=x%d", i, i))
		call(d, fmt.Sprintf("/api?handler=echo&action=nope-%d", i))
	}

	assert.Equal(t, before, testutil.CollectAndCount(metrics.DispatchTotal))
	assert.Equal(t, durations, testutil.CollectAndCount(metrics.DispatchDuration))
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.DispatchTotal.WithLabelValues("unknown", "unknown", "404")), 51.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.DispatchTotal.WithLabelValues("echo", "unknown", "404")), 51.0)
}

func TestDispatch_UnknownHandlerAndAction(t *testing.T) {
	d := newDispatcher(t, false)

	w := call(d, "/api?handler=nope&action=x")
	assert.Equal(t, 404, w.Code)
	assert.Equal(t, "Handler not found: nope", messageOf(t, w))

	w = call(d, "/api?handler=echo&action=missing")
	assert.Equal(t, 404, w.Code)
	assert.Equal(t, "Unknown action: missing", messageOf(t, w))
}

func TestDispatch_ResultShapes(t *testing.T) {
	d := newDispatcher(t, false)

	w := call(d, "/api?handler=echo&action=nothing")
	assert.Equal(t, 204, w.Code)
	assert.Empty(t, w.Body.String())

	w = call(d, "/api?handler=%20ECHO%20&action=%20Value%20&who=ann")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"hello":"ann"}`, w.Body.String())

	w = call(d, "/api?handler=echo&action=custom")
	assert.Equal(t, 201, w.Code)
	assert.Equal(t, "yes", w.Header().Get("X-Custom"))
	assert.Contains(t, w.Header().Get("Set-Cookie"), "c=1")
	assert.Equal(t, "made", w.Body.String())
}

func TestDispatch_Errors(t *testing.T) {
	d := newDispatcher(t, false)

	w := call(d, "/api?handler=echo&action=guarded")
	assert.Equal(t, 401, w.Code)
	assert.Equal(t, "Unauthorized.", messageOf(t, w))

	w = call(d, "/api?handler=echo&action=toolarge")
	assert.Equal(t, 413, w.Code)
	assert.Equal(t, "Upload too large.", messageOf(t, w))

	w = call(d, "/api?handler=echo&action=badstatus")
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Odd status.", messageOf(t, w))

	w = call(d, "/api?handler=echo&action=plainerror")
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, assert.AnError.Error(), messageOf(t, w))
}

func TestDispatch_PanicIsContained(t *testing.T) {
	w := call(newDispatcher(t, false), "/api?handler=echo&action=boom")
	assert.Equal(t, 500, w.Code)
	assert.Equal(t, "An unexpected error occurred.", messageOf(t, w))

	w = call(newDispatcher(t, true), "/api?handler=echo&action=boom")
	assert.Equal(t, 500, w.Code)
	assert.Equal(t, "kaboom", messageOf(t, w))
}

func TestDispatch_EncodingFailureIsFatal(t *testing.T) {
	w := call(newDispatcher(t, false), "/api?handler=echo&action=unencodable")
	assert.Equal(t, 500, w.Code)
	assert.Equal(t, "An unexpected error occurred.", messageOf(t, w))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	factory := func() Handler { return echo{} }

	require.NoError(t, reg.Register(" Account ", factory))
	assert.NotNil(t, reg.Find("account"))
	assert.NotNil(t, reg.Find("  ACCOUNT"))
	assert.Nil(t, reg.Find("other"))

	for _, name := range []string{"", "   "} {
		err := reg.Register(name, factory)
		assert.True(t, apperr.Is(err, apperr.KindInvalidArgument), "name %q", name)
	}
	assert.True(t, apperr.Is(reg.Register("account", factory), apperr.KindInvalidArgument), "duplicate")
	assert.True(t, apperr.Is(reg.Register("ACCOUNT", func() Handler { return nil }), apperr.KindInvalidArgument),
		"duplicate regardless of target")
	assert.True(t, apperr.Is(reg.Register("other", nil), apperr.KindInvalidArgument))

	assert.Equal(t, []string{"account"}, reg.Names())
}

func TestRegistry_FreshHandlerPerFind(t *testing.T) {
	reg := NewRegistry()
	n := 0
	require.NoError(t, reg.Register("counter", func() Handler { n++; return echo{} }))
	reg.Find("counter")
	reg.Find("counter")
	assert.Equal(t, 2, n)
}

func TestHandleAction_GuardsRunInOrder(t *testing.T) {
	var order []string
	g := func(name string, ok bool) guard.Guard {
		return guard.Func(func(*http.Request) bool { order = append(order, name); return ok })
	}
	a := NewAction(func(*http.Request) (any, error) { return "ran", nil }, g("a", true), g("b", false), g("c", true))

	_, err := a.Execute(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, 401, apperr.StatusOf(err))
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestHandleAction(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?who=bo", nil)

	got, err := HandleAction(echo{}, "  VALUE ", r)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"hello": "bo"}, got)

	_, err = HandleAction(echo{}, " Missing ", r)
	assert.Equal(t, 404, apperr.StatusOf(err))
	assert.EqualError(t, err, "Unknown action: Missing")

	_, err = HandleAction(echo{}, "toolarge", r)
	assert.Equal(t, 413, apperr.StatusOf(err))
}

func TestResponse_NoBodyOn204(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, NewResponse().SetStatus(204).SetBody([]byte("ignored")).Send(w))
	assert.Equal(t, 204, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestResponse_ZeroValue(t *testing.T) {
	var r Response
	assert.NotPanics(t, func() { r.SetHeader("X-A", "1") })
	assert.Equal(t, "1", r.Header().Get("X-A"))

	w := httptest.NewRecorder()
	require.NoError(t, (&Response{}).Send(w))
	assert.Equal(t, 200, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestDispatch_ZeroAndOddStatusResponses(t *testing.T) {
	d := newDispatcher(t, false)

	var w *httptest.ResponseRecorder
	require.NotPanics(t, func() { w = call(d, "/api?handler=echo&action=zero") })
	assert.Equal(t, 200, w.Code)
	assert.Empty(t, w.Body.String())

	require.NotPanics(t, func() { w = call(d, "/api?handler=echo&action=oddstatus") })
	assert.Equal(t, 500, w.Code)
	assert.Equal(t, "odd", w.Body.String())
}
