// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package quickserve

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/quickserve/quickserve/config"

	"github.com/stretchr/testify/assert"
)

type runFunc func(context.Context) error

func (f runFunc) Run(ctx context.Context) error {
	return f(ctx)
}

func TestRun(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if a config source fails to apply", func(t *testing.T) {
			builder := AppBuilderFunc[struct{}](func(ctx context.Context, cfg struct{}) (App, error) {
				return nil, errors.New("should not be called")
			})

			err := Run(
				context.Background(),
				builder,
				config.FromYaml(strings.NewReader("{[invalid")),
			)

			var cerr ConfigReadError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
		})

		t.Run("if the config does not unmarshal into the custom type", func(t *testing.T) {
			type appConfig struct {
				Port uint `config:"port"`
			}

			builder := AppBuilderFunc[appConfig](func(ctx context.Context, cfg appConfig) (App, error) {
				return nil, errors.New("should not be called")
			})

			err := Run(
				context.Background(),
				builder,
				config.Map{"port": "not a number"},
			)

			var cerr ConfigUnmarshalError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
		})

		t.Run("if the app builder fails", func(t *testing.T) {
			buildErr := errors.New("failed to build")
			builder := AppBuilderFunc[struct{}](func(ctx context.Context, cfg struct{}) (App, error) {
				return nil, buildErr
			})

			err := Run(context.Background(), builder)

			var berr AppBuildError
			if !assert.ErrorAs(t, err, &berr) {
				return
			}
			if !assert.Equal(t, buildErr, berr.Unwrap()) {
				return
			}
		})

		t.Run("if the app fails while running", func(t *testing.T) {
			runErr := errors.New("failed to run")
			builder := AppBuilderFunc[struct{}](func(ctx context.Context, cfg struct{}) (App, error) {
				return runFunc(func(ctx context.Context) error {
					return runErr
				}), nil
			})

			err := Run(context.Background(), builder)

			var rerr AppRunError
			if !assert.ErrorAs(t, err, &rerr) {
				return
			}
			if !assert.Equal(t, runErr, rerr.Unwrap()) {
				return
			}
		})
	})

	t.Run("will run the app", func(t *testing.T) {
		t.Run("if the config sources unmarshal into the custom type", func(t *testing.T) {
			type appConfig struct {
				Port uint `config:"port"`
			}

			var gotCfg appConfig
			ran := false
			builder := AppBuilderFunc[appConfig](func(ctx context.Context, cfg appConfig) (App, error) {
				gotCfg = cfg
				return runFunc(func(ctx context.Context) error {
					ran = true
					return nil
				}), nil
			})

			err := Run(
				context.Background(),
				builder,
				config.Map{"port": 8080},
			)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.True(t, ran) {
				return
			}
			if !assert.Equal(t, uint(8080), gotCfg.Port) {
				return
			}
		})

		t.Run("if later config sources override earlier ones", func(t *testing.T) {
			type appConfig struct {
				Port uint `config:"port"`
			}

			var gotCfg appConfig
			builder := AppBuilderFunc[appConfig](func(ctx context.Context, cfg appConfig) (App, error) {
				gotCfg = cfg
				return runFunc(func(ctx context.Context) error {
					return nil
				}), nil
			})

			err := Run(
				context.Background(),
				builder,
				config.Map{"port": 8080},
				config.Map{"port": 9090},
			)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, uint(9090), gotCfg.Port) {
				return
			}
		})
	})
}
