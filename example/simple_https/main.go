// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/quickserve/quickserve"
	"github.com/quickserve/quickserve/config"
	"github.com/quickserve/quickserve/endpoint"
	quickhttp "github.com/quickserve/quickserve/http"
)

type Config struct {
	Port     uint   `config:"port"`
	CertFile string `config:"cert_file"`
	KeyFile  string `config:"key_file"`
}

func buildApp(ctx context.Context, cfg Config) (quickserve.App, error) {
	logHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{AddSource: true})

	rt := quickhttp.NewRuntime(
		quickhttp.ListenOnPort(cfg.Port),
		quickhttp.LogHandler(logHandler),
		quickhttp.TLSWithFiles(cfg.CertFile, cfg.KeyFile),
		quickhttp.RegisterEndpoint("GET", "/ping", endpoint.HandlerFunc(
			func(ctx context.Context, req *endpoint.Request) (*endpoint.Response, error) {
				return endpoint.NewResponse(http.StatusOK).SetBodyString("pong"), nil
			},
		)),
	)
	return rt, nil
}

//go:embed config.yaml
var configDir embed.FS

func main() {
	// cert.pem and key.pem can be generated with:
	//
	//	openssl req -x509 -newkey rsa:2048 -nodes -keyout key.pem -out cert.pem -days 365
	err := quickserve.Run(
		context.Background(),
		quickserve.AppBuilderFunc[Config](buildApp),
		config.FromYaml(
			config.NewFileReader(configDir, "config.yaml"),
		),
		config.FromEnv("QUICKSERVE"),
	)
	if err != nil {
		slog.Default().Error("failed to run", slog.String("error", err.Error()))
	}
}
