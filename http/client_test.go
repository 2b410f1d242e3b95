// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewClient(t *testing.T) {
	t.Run("will retry the request", func(t *testing.T) {
		t.Run("if the server responds with a 5xx status code", func(t *testing.T) {
			var hits int
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits += 1
				if hits == 1 {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			client := NewClient(RetryRequests(
				MaxAttempts(2),
				MinWaitDuration(time.Millisecond),
				MaxWaitDuration(time.Millisecond),
			))

			resp, err := client.Get(srv.URL)
			if !assert.Nil(t, err) {
				return
			}
			defer resp.Body.Close()
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, 2, hits) {
				return
			}
		})
	})
}

func TestCircuitBreaker(t *testing.T) {
	t.Run("will open the circuit", func(t *testing.T) {
		t.Run("if the server keeps responding with 5xx status codes", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer srv.Close()

			client := NewClient(WithTransport(RoundTripperWith(
				http.DefaultTransport,
				CircuitBreaker(
					CircuitName("test"),
					CircuitTripCount(2),
				),
			)))

			for i := 0; i < 3; i += 1 {
				resp, err := client.Get(srv.URL)
				if resp != nil {
					resp.Body.Close()
				}
				if !assert.Error(t, err) {
					return
				}
			}
		})
	})

	t.Run("will keep the circuit closed", func(t *testing.T) {
		t.Run("if the server responds with 200", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			client := NewClient(WithTransport(RoundTripperWith(
				http.DefaultTransport,
				CircuitBreaker(CircuitName("test")),
			)))

			for i := 0; i < 5; i += 1 {
				resp, err := client.Get(srv.URL)
				if !assert.Nil(t, err) {
					return
				}
				resp.Body.Close()
				if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
					return
				}
			}
		})
	})
}
