// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package quickserve makes standing up an HTTP or HTTPS server on an
// arbitrary port a one liner.
//
// The package is built around two core abstractions:
//
//   - App: An interface representing a runnable application
//   - AppBuilder[T]: A generic interface for constructing an App from
//     an already unmarshalled config value
//
// # Basic Usage
//
// Define a config type and a builder for your server:
//
//	type Config struct {
//	    Port uint `config:"port"`
//	}
//
//	builder := quickserve.AppBuilderFunc[Config](func(ctx context.Context, cfg Config) (quickserve.App, error) {
//	    rt := http.NewRuntime(
//	        http.ListenOnPort(cfg.Port),
//	        http.HandleFunc("GET", "/hello", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
//	            fmt.Fprint(w, "hello, world")
//	        }),
//	    )
//	    return rt, nil
//	})
//
// Run it with config sourced from the environment:
//
//	err := quickserve.Run(
//	    context.Background(),
//	    builder,
//	    config.FromEnv("QUICKSERVE"),
//	)
//
// Serving HTTPS instead of HTTP only requires pointing the runtime at
// certificate and private key files with http.TLSWithFiles.
package quickserve
