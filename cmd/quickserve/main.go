// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command quickserve stands up an HTTP/HTTPS server on an arbitrary
// port, serving the endpoints defined in endpoints.go.
//
//	quickserve <port> [certificate file] [private key file]
//
// With only a port the server speaks plain HTTP. With a certificate
// and private key file it speaks HTTPS instead.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/quickserve/quickserve"
	"github.com/quickserve/quickserve/app"
	"github.com/quickserve/quickserve/config"
	quickhttp "github.com/quickserve/quickserve/http"
	"github.com/quickserve/quickserve/pkg/otelconfig"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

const envPrefix = "QUICKSERVE"

type appConfig struct {
	Port     uint   `config:"port"`
	CertFile string `config:"cert_file"`
	KeyFile  string `config:"key_file"`

	Logging struct {
		Level slog.Level `config:"level"`
	} `config:"logging"`
}

func main() {
	cmd := rootCmd()
	cmd.AddCommand(probeCmd())

	err := cmd.ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfgFile string
	var trace string
	var otlpTarget string

	cmd := &cobra.Command{
		Use:          "quickserve <port> [certificate file] [private key file]",
		Short:        "Serve HTTP/HTTPS endpoints on an arbitrary port",
		Args:         cobra.RangeArgs(1, 3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs := []config.Source{
				config.FromEnv(envPrefix),
			}
			if cfgFile != "" {
				f, err := os.Open(cfgFile)
				if err != nil {
					return err
				}
				srcs = append(srcs, config.FromYaml(f))
			}
			srcs = append(srcs, config.FromArgs(args))

			initer, err := traceInitializer(trace, otlpTarget)
			if err != nil {
				return err
			}

			err = quickserve.Run(
				cmd.Context(),
				quickserve.AppBuilderFunc[appConfig](buildApp(initer)),
				srcs...,
			)
			if err != nil {
				slog.Default().Error("failed to run", slog.String("error", err.Error()))
			}
			return err
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "read extra config from a yaml file")
	cmd.Flags().StringVar(&trace, "trace", "off", "trace exporter to use (off, local or otlp)")
	cmd.Flags().StringVar(&otlpTarget, "otlp-target", "localhost:4317", "otlp collector endpoint for --trace=otlp")
	return cmd
}

func traceInitializer(trace, otlpTarget string) (otelconfig.Initializer, error) {
	switch trace {
	case "off":
		return otelconfig.Noop, nil
	case "local":
		return otelconfig.Local(
			otelconfig.ServiceName("quickserve"),
		), nil
	case "otlp":
		return otelconfig.OTLP(
			otlpTarget,
			otelconfig.ServiceName("quickserve"),
		), nil
	default:
		return nil, fmt.Errorf("unknown trace exporter: %q", trace)
	}
}

type shutdownable interface {
	Shutdown(context.Context) error
}

func buildApp(initer otelconfig.Initializer) func(context.Context, appConfig) (quickserve.App, error) {
	return func(ctx context.Context, cfg appConfig) (quickserve.App, error) {
		logHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			AddSource: true,
			Level:     cfg.Logging.Level,
		})

		tp, err := initer.Init(ctx)
		if err != nil {
			return nil, err
		}
		otel.SetTracerProvider(tp)

		opts := []quickhttp.RuntimeOption{
			quickhttp.ListenOnPort(cfg.Port),
			quickhttp.LogHandler(logHandler),
		}
		if cfg.CertFile != "" {
			opts = append(opts, quickhttp.TLSWithFiles(cfg.CertFile, cfg.KeyFile))
		}
		opts = append(opts, endpoints()...)

		var a quickserve.App = quickhttp.NewRuntime(opts...)
		a = app.WithLifecycleHooks(a, app.Lifecycle{
			PostRun: app.LifecycleHookFunc(func(ctx context.Context) error {
				s, ok := tp.(shutdownable)
				if !ok {
					return nil
				}
				return s.Shutdown(ctx)
			}),
		})
		a = app.Recover(a)
		a = app.WithSignalNotifications(a, os.Interrupt, os.Kill)
		return a, nil
	}
}
