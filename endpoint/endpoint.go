// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package endpoint defines the structured handler surface for mock
// endpoints. A Handler receives an already parsed Request and returns
// a Response carrying status code, headers and body, instead of
// writing to an http.ResponseWriter directly.
package endpoint

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/quickserve/quickserve/internal/try"
	"github.com/quickserve/quickserve/pkg/noop"
	"github.com/quickserve/quickserve/pkg/slogfield"
)

// Request is the parsed form of an incoming HTTP request.
type Request struct {
	Method     string
	Path       string
	Proto      string
	Query      url.Values
	Header     http.Header
	Body       []byte
	RemoteAddr string

	// TLS reports whether the request arrived over an encrypted connection.
	TLS bool
}

// HeaderValue returns the value of the named request header or
// defaultVal if the header is absent. Lookup is case-insensitive.
func (req *Request) HeaderValue(key, defaultVal string) string {
	v := req.Header.Get(key)
	if v == "" {
		return defaultVal
	}
	return v
}

// QueryValue returns the first value of the named URL query parameter
// or defaultVal if the parameter is absent.
func (req *Request) QueryValue(key, defaultVal string) string {
	if !req.Query.Has(key) {
		return defaultVal
	}
	return req.Query.Get(key)
}

// Response carries the data an endpoint hands back to the server:
// status code, headers and body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewResponse returns a Response with the given status code
// and an empty header set.
func NewResponse(statusCode int) *Response {
	return &Response{
		StatusCode: statusCode,
		Header:     make(http.Header),
	}
}

// SetHeader sets a response header, replacing any existing values.
func (resp *Response) SetHeader(key, value string) *Response {
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	resp.Header.Set(key, value)
	return resp
}

// SetBody sets the response body.
func (resp *Response) SetBody(b []byte) *Response {
	resp.Body = b
	return resp
}

// SetBodyString sets the response body from a string.
func (resp *Response) SetBodyString(s string) *Response {
	return resp.SetBody([]byte(s))
}

// Handler handles a single request to a mock endpoint.
type Handler interface {
	Handle(context.Context, *Request) (*Response, error)
}

// HandlerFunc is a functional implementation of the Handler interface.
type HandlerFunc func(context.Context, *Request) (*Response, error)

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Error is an error carrying the HTTP status code it should be
// reported with. Handler errors that are not an Error are never
// leaked to the client.
type Error struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Code)
	}
	return e.Message
}

type handlerOptions struct {
	logHandler   slog.Handler
	maxBodyBytes int64
}

// HandlerOption is a configuration option for NewHandler.
type HandlerOption func(*handlerOptions)

// LogHandler configures where handler failures are logged.
func LogHandler(h slog.Handler) HandlerOption {
	return func(ho *handlerOptions) {
		ho.logHandler = h
	}
}

// MaxBodyBytes limits how large a request body the server will buffer
// before handing it to the Handler. The default is 4 MiB.
func MaxBodyBytes(n int64) HandlerOption {
	return func(ho *handlerOptions) {
		ho.maxBodyBytes = n
	}
}

type httpHandler struct {
	h            Handler
	log          *slog.Logger
	maxBodyBytes int64
}

// NewHandler adapts a Handler into an http.Handler.
//
// The adapter buffers the request body (transparently decompressing a
// gzip Content-Encoding), invokes the Handler and writes its Response
// back. A Handler panic or an error other than Error results in a
// generic "Server Error" response; the failure never takes down the
// server, only the request being served.
func NewHandler(h Handler, opts ...HandlerOption) http.Handler {
	ho := &handlerOptions{
		logHandler:   noop.LogHandler{},
		maxBodyBytes: 4 << 20,
	}
	for _, opt := range opts {
		opt(ho)
	}
	return &httpHandler{
		h:            h,
		log:          slog.New(ho.logHandler),
		maxBodyBytes: ho.maxBodyBytes,
	}
}

// ServeHTTP implements the http.Handler interface.
func (hh *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, hh.maxBodyBytes)
	if err != nil {
		hh.log.Error(
			"failed to read request body",
			slogfield.String("path", r.URL.Path),
			slogfield.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	req := &Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		Proto:      r.Proto,
		Query:      r.URL.Query(),
		Header:     r.Header,
		Body:       body,
		RemoteAddr: r.RemoteAddr,
		TLS:        r.TLS != nil,
	}

	resp, err := hh.safelyHandle(r.Context(), req)
	if err != nil {
		var eerr Error
		if errors.As(err, &eerr) {
			writeError(w, eerr.Code, eerr.Error())
			return
		}

		hh.log.Error(
			"handler failed",
			slogfield.String("method", r.Method),
			slogfield.String("path", r.URL.Path),
			slogfield.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}
	if resp == nil {
		hh.log.Error(
			"handler returned no response",
			slogfield.String("method", r.Method),
			slogfield.String("path", r.URL.Path),
		)
		writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}

	header := w.Header()
	for key, vals := range resp.Header {
		header[http.CanonicalHeaderKey(key)] = vals
	}
	if len(resp.Body) > 0 {
		header.Set("Content-Length", strconv.Itoa(len(resp.Body)))
	}

	statusCode := resp.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	w.WriteHeader(statusCode)

	if r.Method == http.MethodHead || len(resp.Body) == 0 {
		return
	}
	_, err = w.Write(resp.Body)
	if err != nil {
		hh.log.Error(
			"failed to write response body",
			slogfield.String("path", r.URL.Path),
			slogfield.Error(err),
		)
	}
}

func (hh *httpHandler) safelyHandle(ctx context.Context, req *Request) (resp *Response, err error) {
	defer try.Recover(&err)

	return hh.h.Handle(ctx, req)
}

func readBody(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	var body io.Reader = http.MaxBytesReader(w, r.Body, maxBytes)
	if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
		gr, err := gzip.NewReader(body)
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		body = gr
	}
	return io.ReadAll(body)
}

func writeError(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(statusCode)
	io.WriteString(w, body)
}
