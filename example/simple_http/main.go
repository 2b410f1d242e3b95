// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/quickserve/quickserve"
	"github.com/quickserve/quickserve/config"
	quickhttp "github.com/quickserve/quickserve/http"
)

type Config struct {
	Port uint `config:"port"`
}

func buildApp(ctx context.Context, cfg Config) (quickserve.App, error) {
	logHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{AddSource: true})

	rt := quickhttp.NewRuntime(
		quickhttp.ListenOnPort(cfg.Port),
		quickhttp.LogHandler(logHandler),
		quickhttp.HandleFunc("GET", "/hello", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "Hello, world!")
		}),
	)
	return rt, nil
}

func main() {
	err := quickserve.Run(
		context.Background(),
		quickserve.AppBuilderFunc[Config](buildApp),
		config.Map{"port": 8080},
		config.FromEnv("QUICKSERVE"),
	)
	if err != nil {
		slog.Default().Error("failed to run", slog.String("error", err.Error()))
	}
}
