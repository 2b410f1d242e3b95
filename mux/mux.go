// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package mux provides the endpoint table: a registry from HTTP method
// and path pattern to handler, with deterministic fallback behaviour
// for unknown paths and methods.
package mux

import (
	"fmt"
	"net/http"
	"path"
	"slices"
	"strings"
	"sync"
)

// Method defines an HTTP method an endpoint can be registered for.
type Method string

const (
	MethodGet     Method = http.MethodGet
	MethodHead    Method = http.MethodHead
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodPatch   Method = http.MethodPatch
	MethodDelete  Method = http.MethodDelete
	MethodOptions Method = http.MethodOptions
)

// Option defines a configuration option for Mux.
type Option func(*Mux)

// NotFoundHandler will register the given http.Handler to handle
// any HTTP requests that do not match any other method-pattern combinations.
func NotFoundHandler(h http.Handler) Option {
	return func(m *Mux) {
		m.notFound = h
	}
}

// MethodNotAllowedHandler will register the given http.Handler to handle
// any HTTP requests whose method does not match the methods registered to a pattern.
func MethodNotAllowedHandler(h http.Handler) Option {
	return func(m *Mux) {
		m.methodNotAllowed = h
	}
}

// DisableAutoOptions disables the automatic handling of OPTIONS
// requests for registered paths.
func DisableAutoOptions() Option {
	return func(m *Mux) {
		m.autoOptions = false
	}
}

// Mux wraps a http.ServeMux and layers on top of it the behaviour a
// mock server needs out of the box: a deterministic "404 Not Found" for
// unregistered paths, "405 Method Not Allowed" for known paths hit with
// the wrong method and automatic OPTIONS responses listing the allowed
// methods for a path.
type Mux struct {
	mux *http.ServeMux

	initFallbacksOnce sync.Once
	notFound          http.Handler
	methodNotAllowed  http.Handler
	autoOptions       bool

	pathMethods map[string][]Method
}

// New initializes a request multiplexer built on the standard http.ServeMux.
func New(opts ...Option) *Mux {
	m := &Mux{
		mux:              http.NewServeMux(),
		notFound:         http.NotFoundHandler(),
		methodNotAllowed: methodNotAllowedHandler{},
		autoOptions:      true,
		pathMethods:      make(map[string][]Method),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle registers the http.Handler for the given method and pattern
// with the underlying http.ServeMux. The method and pattern are formatted
// together as "method pattern" when calling http.ServeMux.Handle.
//
// Registering MethodGet also makes the handler serve HEAD requests,
// per http.ServeMux semantics, with the response body suppressed.
func (m *Mux) Handle(method Method, pattern string, h http.Handler) {
	m.pathMethods[pattern] = append(m.pathMethods[pattern], method)
	m.mux.Handle(fmt.Sprintf("%s %s", method, pattern), h)

	// {$} is a special case where we only want to exact match the path pattern.
	if strings.HasSuffix(pattern, "{$}") {
		return
	}

	if strings.HasSuffix(pattern, "/") {
		withoutTrailingSlash := pattern[:len(pattern)-1]
		if len(withoutTrailingSlash) == 0 {
			return
		}

		m.pathMethods[withoutTrailingSlash] = append(m.pathMethods[withoutTrailingSlash], method)
		m.mux.Handle(fmt.Sprintf("%s %s", method, withoutTrailingSlash), h)
		return
	}

	// if the end of the path contains the "..." wildcard segment
	// then we can't add a "/" to it since "..." should not be followed
	// by a "/", per the http.ServeMux docs.
	base := path.Base(pattern)
	if strings.Contains(base, "...") {
		return
	}

	withTrailingSlash := pattern + "/"
	m.pathMethods[withTrailingSlash] = append(m.pathMethods[withTrailingSlash], method)
	m.mux.Handle(fmt.Sprintf("%s %s", method, withTrailingSlash), h)
}

// HandleFunc registers the handler function for the given method and pattern.
func (m *Mux) HandleFunc(method Method, pattern string, f func(http.ResponseWriter, *http.Request)) {
	m.Handle(method, pattern, http.HandlerFunc(f))
}

// ServeHTTP implements the http.Handler interface.
func (m *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.initFallbacksOnce.Do(m.registerFallbackHandlers)

	m.mux.ServeHTTP(w, r)
}

func (m *Mux) registerFallbackHandlers() {
	if m.notFound != nil {
		m.mux.Handle("/{path...}", m.notFound)
	}
	m.registerAutoOptionsHandlers()
	m.registerMethodNotAllowedHandlers()
}

func (m *Mux) registerAutoOptionsHandlers() {
	if !m.autoOptions {
		return
	}
	for pattern, methods := range m.pathMethods {
		if slices.Contains(methods, MethodOptions) {
			continue
		}
		m.mux.Handle(
			fmt.Sprintf("%s %s", MethodOptions, pattern),
			allowHandler{allow: allowedMethods(methods)},
		)
	}
}

func (m *Mux) registerMethodNotAllowedHandlers() {
	if m.methodNotAllowed == nil {
		return
	}

	supportedMethods := []Method{
		MethodGet,
		MethodHead,
		MethodPost,
		MethodPut,
		MethodPatch,
		MethodDelete,
		MethodOptions,
	}

	for pattern, methods := range m.pathMethods {
		for _, method := range supportedMethods {
			if slices.Contains(methods, method) {
				continue
			}
			// http.ServeMux serves HEAD from GET registrations and the
			// automatic OPTIONS handler covers OPTIONS.
			if method == MethodHead && slices.Contains(methods, MethodGet) {
				continue
			}
			if method == MethodOptions && m.autoOptions {
				continue
			}
			m.mux.Handle(fmt.Sprintf("%s %s", method, pattern), m.methodNotAllowed)
		}
	}
}

// allowedMethods returns the Allow header value for a path with the
// given registered methods.
func allowedMethods(methods []Method) string {
	allow := make([]string, 0, len(methods)+2)
	for _, method := range methods {
		allow = append(allow, string(method))
	}
	if slices.Contains(methods, MethodGet) && !slices.Contains(methods, MethodHead) {
		allow = append(allow, string(MethodHead))
	}
	if !slices.Contains(methods, MethodOptions) {
		allow = append(allow, string(MethodOptions))
	}
	slices.Sort(allow)
	return strings.Join(slices.Compact(allow), ", ")
}

type allowHandler struct {
	allow string
}

// ServeHTTP implements the http.Handler interface.
func (h allowHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", h.allow)
	w.WriteHeader(http.StatusNoContent)
}

type methodNotAllowedHandler struct{}

// ServeHTTP implements the http.Handler interface.
func (methodNotAllowedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
