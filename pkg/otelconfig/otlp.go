// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelconfig

import (
	"context"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type otlpInitializer struct {
	cfg    Config
	target string
}

// OTLP returns an Initializer which exports spans over gRPC to
// an OTLP collector listening at target.
func OTLP(target string, opts ...Option) Initializer {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return otlpInitializer{
		cfg:    cfg,
		target: target,
	}
}

// Init implements the Initializer interface.
func (oi otlpInitializer) Init(ctx context.Context) (trace.TracerProvider, error) {
	// Note the use of insecure transport here. TLS is recommended in production.
	exporter, err := otlptracegrpc.New(
		ctx,
		otlptracegrpc.WithEndpoint(oi.target),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, oi.cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	return tp, nil
}
