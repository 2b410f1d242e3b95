// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpvalidate provides composable request validators for
// wrapping http.Handlers.
package httpvalidate

import (
	"net/http"
)

// Validator represents an http.Request validator.
type Validator interface {
	Validate(http.ResponseWriter, *http.Request) bool
}

// ValidatorFunc implements Validator for funcs.
type ValidatorFunc func(http.ResponseWriter, *http.Request) bool

// Validate implements the Validator interface.
func (f ValidatorFunc) Validate(w http.ResponseWriter, r *http.Request) bool {
	return f(w, r)
}

// Handler is an http.Handler which applies request validators
// before passing the request to a wrapped http.Handler.
type Handler struct {
	validators []Validator
	base       http.Handler
}

// Request wraps the given http.Handler with request validators.
// The validators run in order; the first to fail ends the request.
func Request(h http.Handler, validators ...Validator) *Handler {
	return &Handler{
		validators: validators,
		base:       h,
	}
}

// ServeHTTP implements the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	for _, validator := range h.validators {
		valid := validator.Validate(w, req)
		if !valid {
			return
		}
	}
	h.base.ServeHTTP(w, req)
}

// ForMethods validates the incoming requests' method is one of the given.
func ForMethods(methods ...string) Validator {
	return ValidatorFunc(func(w http.ResponseWriter, r *http.Request) bool {
		for _, method := range methods {
			if method == r.Method {
				return true
			}
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	})
}

// RequiredParams validates that the incoming request has, at minimum,
// the query parameters given by names.
func RequiredParams(names ...string) Validator {
	return ValidatorFunc(func(w http.ResponseWriter, r *http.Request) bool {
		params := r.URL.Query()
		for _, name := range names {
			if !params.Has(name) {
				w.WriteHeader(http.StatusBadRequest)
				return false
			}
		}
		return true
	})
}

// RequiredHeaders validates that the incoming request carries all the
// headers given by names.
func RequiredHeaders(names ...string) Validator {
	return ValidatorFunc(func(w http.ResponseWriter, r *http.Request) bool {
		for _, name := range names {
			if r.Header.Get(name) == "" {
				w.WriteHeader(http.StatusBadRequest)
				return false
			}
		}
		return true
	})
}
