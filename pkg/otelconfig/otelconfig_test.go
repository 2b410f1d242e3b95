// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelconfig

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNoop(t *testing.T) {
	t.Run("will return the global tracer provider", func(t *testing.T) {
		t.Run("if initialized", func(t *testing.T) {
			tp, err := Noop.Init(context.Background())
			require.Nil(t, err)

			if !assert.Equal(t, otel.GetTracerProvider(), tp) {
				return
			}
		})
	})
}

func TestLocal(t *testing.T) {
	t.Run("will export spans to the configured writer", func(t *testing.T) {
		t.Run("if a span is recorded", func(t *testing.T) {
			var buf bytes.Buffer
			tp, err := Local(
				ServiceName("test"),
				Writer(&buf),
			).Init(context.Background())
			require.Nil(t, err)

			sdk, ok := tp.(*sdktrace.TracerProvider)
			if !assert.True(t, ok) {
				return
			}

			_, span := sdk.Tracer("test").Start(context.Background(), "op")
			span.End()

			err = sdk.Shutdown(context.Background())
			require.Nil(t, err)

			if !assert.Contains(t, buf.String(), "op") {
				return
			}
		})
	})
}
