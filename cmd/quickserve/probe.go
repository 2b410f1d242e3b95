// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	quickhttp "github.com/quickserve/quickserve/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// probeCmd polls the health endpoints of a running server. It exits
// non-zero if the server never reports healthy, which makes it usable
// as a container health check.
func probeCmd() *cobra.Command {
	var timeout time.Duration
	var attempts int
	var insecure bool

	cmd := &cobra.Command{
		Use:          "probe <base url>",
		Short:        "Check the health of a running server",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer logger.Sync()

			transport := http.DefaultTransport
			if insecure {
				transport = insecureTransport()
			}

			client := quickhttp.NewClient(
				quickhttp.ClientTimeout(timeout),
				quickhttp.WithTransport(quickhttp.RoundTripperWith(
					transport,
					quickhttp.CircuitBreaker(
						quickhttp.CircuitName("probe"),
						quickhttp.CircuitLogger(logger),
					),
				)),
				quickhttp.RetryRequests(
					quickhttp.MaxAttempts(attempts),
					quickhttp.RetryAttemptLogger(logger),
				),
			)

			url := fmt.Sprintf("%s/health/readiness", args[0])
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
			if err != nil {
				return err
			}

			resp, err := client.Do(req)
			if err != nil {
				logger.Error("failed to reach server", zap.String("url", url), zap.Error(err))
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				logger.Error("server is unhealthy", zap.String("url", url), zap.Int("http_status_code", resp.StatusCode))
				return fmt.Errorf("server is unhealthy: %s", resp.Status)
			}
			logger.Info("server is healthy", zap.String("url", url))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "total timeout per request")
	cmd.Flags().IntVar(&attempts, "attempts", 2, "maximum number of retry attempts")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "skip tls certificate verification")
	return cmd
}

func insecureTransport() http.RoundTripper {
	t, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return http.DefaultTransport
	}
	t = t.Clone()
	if t.TLSClientConfig == nil {
		t.TLSClientConfig = &tls.Config{}
	}
	t.TLSClientConfig.InsecureSkipVerify = true
	return t
}
