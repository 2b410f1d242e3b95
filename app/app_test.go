// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
	"testing"

	"github.com/quickserve/quickserve/internal/try"

	"github.com/stretchr/testify/assert"
)

func TestRecover(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the app panics with an error value", func(t *testing.T) {
			base := errors.New("run failed")
			app := Recover(runFunc(func(ctx context.Context) error {
				panic(base)
			}))

			err := app.Run(context.Background())
			if !assert.ErrorIs(t, err, base) {
				return
			}
		})

		t.Run("if the app panics with a non-error value", func(t *testing.T) {
			app := Recover(runFunc(func(ctx context.Context) error {
				panic("run failed")
			}))

			err := app.Run(context.Background())

			var perr try.PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			if !assert.Equal(t, "run failed", perr.Value) {
				return
			}
		})
	})

	t.Run("will not return an error", func(t *testing.T) {
		t.Run("if the app runs cleanly", func(t *testing.T) {
			app := Recover(runFunc(func(ctx context.Context) error {
				return nil
			}))

			err := app.Run(context.Background())
			if !assert.Nil(t, err) {
				return
			}
		})
	})
}

func TestWithSignalNotifications(t *testing.T) {
	t.Run("will pass a cancellable context to the app", func(t *testing.T) {
		t.Run("if signals are registered", func(t *testing.T) {
			var gotCtx context.Context
			app := WithSignalNotifications(runFunc(func(ctx context.Context) error {
				gotCtx = ctx
				return nil
			}))

			err := app.Run(context.Background())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.NotNil(t, gotCtx) {
				return
			}
			// the signal context is cancelled once Run returns
			if !assert.ErrorIs(t, gotCtx.Err(), context.Canceled) {
				return
			}
		})
	})
}

func TestWithLifecycleHooks(t *testing.T) {
	t.Run("will run the post run hook", func(t *testing.T) {
		t.Run("if the app runs cleanly", func(t *testing.T) {
			ran := false
			app := WithLifecycleHooks(
				runFunc(func(ctx context.Context) error {
					return nil
				}),
				Lifecycle{
					PostRun: LifecycleHookFunc(func(ctx context.Context) error {
						ran = true
						return nil
					}),
				},
			)

			err := app.Run(context.Background())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.True(t, ran) {
				return
			}
		})

		t.Run("if the app fails while running", func(t *testing.T) {
			runErr := errors.New("run failed")
			hookErr := errors.New("hook failed")
			app := WithLifecycleHooks(
				runFunc(func(ctx context.Context) error {
					return runErr
				}),
				Lifecycle{
					PostRun: LifecycleHookFunc(func(ctx context.Context) error {
						return hookErr
					}),
				},
			)

			err := app.Run(context.Background())
			if !assert.ErrorIs(t, err, runErr) {
				return
			}
			if !assert.ErrorIs(t, err, hookErr) {
				return
			}
		})
	})
}

func TestComposeLifecycleHooks(t *testing.T) {
	t.Run("will run every hook", func(t *testing.T) {
		t.Run("if an earlier hook fails", func(t *testing.T) {
			hookErr := errors.New("hook failed")
			ran := false
			hook := ComposeLifecycleHooks(
				LifecycleHookFunc(func(ctx context.Context) error {
					return hookErr
				}),
				LifecycleHookFunc(func(ctx context.Context) error {
					ran = true
					return nil
				}),
			)

			err := hook.Run(context.Background())
			if !assert.ErrorIs(t, err, hookErr) {
				return
			}
			if !assert.True(t, ran) {
				return
			}
		})
	})

	t.Run("will not return an error", func(t *testing.T) {
		t.Run("if no hooks are given", func(t *testing.T) {
			err := ComposeLifecycleHooks().Run(context.Background())
			if !assert.Nil(t, err) {
				return
			}
		})
	})
}
