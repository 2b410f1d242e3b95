// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package health provides lightweight health reporting primitives
// along with an HTTP handler for exposing them.
package health

import (
	"context"
	"net/http"
	"sync"
)

// Metric represents anything that can report its health status.
type Metric interface {
	Healthy(context.Context) bool
}

// Binary represents a Metric that is either healthy or not.
// The zero value is healthy.
type Binary struct {
	mu        sync.Mutex
	unhealthy bool
}

// Set forces the state of the Binary.
func (m *Binary) Set(healthy bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unhealthy = !healthy
}

// Toggle flips the state of the Binary.
func (m *Binary) Toggle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unhealthy = !m.unhealthy
}

// Healthy implements the Metric interface.
func (m *Binary) Healthy(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.unhealthy
}

// AndMetric represents multiple Metrics and'd together.
type AndMetric struct {
	metrics []Metric
}

// And returns a Metric which is healthy only if all the
// underlying Metrics are healthy.
func And(metrics ...Metric) AndMetric {
	return AndMetric{
		metrics: metrics,
	}
}

// Healthy implements the Metric interface.
func (m AndMetric) Healthy(ctx context.Context) bool {
	for _, metric := range m.metrics {
		if !metric.Healthy(ctx) {
			return false
		}
	}
	return true
}

// OrMetric represents multiple Metrics or'd together.
type OrMetric struct {
	metrics []Metric
}

// Or returns a Metric which is healthy if any of the
// underlying Metrics is healthy.
func Or(metrics ...Metric) OrMetric {
	return OrMetric{
		metrics: metrics,
	}
}

// Healthy implements the Metric interface.
func (m OrMetric) Healthy(ctx context.Context) bool {
	for _, metric := range m.metrics {
		if metric.Healthy(ctx) {
			return true
		}
	}
	return false
}

// Handler exposes a Metric over HTTP. It responds with 200 OK
// while the Metric is healthy and 503 Service Unavailable otherwise.
type Handler struct {
	metric Metric
}

// NewHandler returns a Handler reporting the given Metric.
func NewHandler(m Metric) *Handler {
	return &Handler{
		metric: m,
	}
}

// ServeHTTP implements the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if !h.metric.Healthy(req.Context()) {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
