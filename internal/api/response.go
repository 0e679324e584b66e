// Package api implements the request dispatch pipeline: handler registry,
// actions with guard chains, and the Dispatcher that maps results and
// errors onto HTTP responses.
package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/yanizio/peneus/internal/apperr"
)

const contentTypeJSON = "application/json"

// Response is a fully described HTTP response.  An action may return one to
// take control of status, headers, and cookies; the Dispatcher sends it
// unchanged.  The zero value is a usable empty 200.
type Response struct {
	status  int
	header  http.Header
	body    []byte
	cookies []*http.Cookie
}

// NewResponse returns an empty 200 response.
func NewResponse() *Response {
	return &Response{status: http.StatusOK, header: http.Header{}}
}

// JSONResponse encodes v as the body of a response with the given status.
func JSONResponse(status int, v any) (*Response, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return NewResponse().
		SetStatus(status).
		SetHeader("Content-Type", contentTypeJSON).
		SetBody(b), nil
}

func (r *Response) SetStatus(code int) *Response { r.status = code; return r }

func (r *Response) SetHeader(key, value string) *Response {
	if r.header == nil {
		r.header = http.Header{}
	}
	r.header.Set(key, value)
	return r
}

func (r *Response) SetBody(b []byte) *Response { r.body = b; return r }

// SetCookie queues c; it is written as a Set-Cookie header by Send.
func (r *Response) SetCookie(c *http.Cookie) *Response {
	r.cookies = append(r.cookies, c)
	return r
}

// Status is the code Send writes: 200 when unset, 500 when outside 100-599.
func (r *Response) Status() int {
	switch {
	case r.status == 0:
		return http.StatusOK
	case !apperr.ValidStatus(r.status):
		return http.StatusInternalServerError
	}
	return r.status
}

func (r *Response) Header() http.Header { return r.header }
func (r *Response) Body() []byte        { return r.body }

// Send writes the response to w.  A 204 or 304 never carries a body.
func (r *Response) Send(w http.ResponseWriter) error {
	status := r.Status()
	h := w.Header()
	for k, vs := range r.header {
		h[k] = append([]string(nil), vs...)
	}
	for _, c := range r.cookies {
		http.SetCookie(w, c)
	}
	w.WriteHeader(status)

	if status == http.StatusNoContent || status == http.StatusNotModified || len(r.body) == 0 {
		return nil
	}
	_, err := w.Write(r.body)
	return err
}
