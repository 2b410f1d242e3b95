// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otelconfig provides tracer provider initializers for the
// supported trace exporters.
package otelconfig

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Initializer initializes a concrete trace.TracerProvider.
type Initializer interface {
	Init(context.Context) (trace.TracerProvider, error)
}

// Config holds the exporter independent settings.
type Config struct {
	ServiceName string

	// Out is where the local exporter writes its spans. Defaults to os.Stdout.
	Out io.Writer
}

// Option configures the exporter independent settings.
type Option func(*Config)

// ServiceName sets the service.name resource attribute.
func ServiceName(name string) Option {
	return func(c *Config) {
		c.ServiceName = name
	}
}

// Writer sets the output writer used by the Local initializer.
func Writer(w io.Writer) Option {
	return func(c *Config) {
		c.Out = w
	}
}

// Noop is an Initializer which leaves the globally registered
// trace.TracerProvider untouched.
var Noop = noopInitializer{}

type noopInitializer struct{}

// Init implements the Initializer interface.
func (noopInitializer) Init(ctx context.Context) (trace.TracerProvider, error) {
	return otel.GetTracerProvider(), nil
}

type localInitializer struct {
	cfg Config
}

// Local returns an Initializer which exports spans to a local io.Writer.
func Local(opts ...Option) Initializer {
	cfg := Config{
		Out: os.Stdout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return localInitializer{cfg: cfg}
}

// Init implements the Initializer interface.
func (li localInitializer) Init(ctx context.Context) (trace.TracerProvider, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(li.cfg.Out),
	)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, li.cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	return tp, nil
}

func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	return resource.New(
		ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
}
