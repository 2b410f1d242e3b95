// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package try

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecover(t *testing.T) {
	t.Run("will capture the panic value", func(t *testing.T) {
		t.Run("if the function panics with an error", func(t *testing.T) {
			cause := errors.New("boom")
			f := func() (err error) {
				defer Recover(&err)
				panic(cause)
			}

			err := f()

			var perr PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			if !assert.ErrorIs(t, err, cause) {
				return
			}
		})

		t.Run("if the function panics with a non-error value", func(t *testing.T) {
			f := func() (err error) {
				defer Recover(&err)
				panic("boom")
			}

			err := f()

			var perr PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			if !assert.Equal(t, "boom", perr.Value) {
				return
			}
			if !assert.Nil(t, perr.Unwrap()) {
				return
			}
		})

		t.Run("if the function already returned an error", func(t *testing.T) {
			cause := errors.New("original")
			f := func() (err error) {
				defer Recover(&err)
				err = cause
				panic("boom")
			}

			err := f()

			if !assert.ErrorIs(t, err, cause) {
				return
			}
			var perr PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
		})
	})

	t.Run("will do nothing", func(t *testing.T) {
		t.Run("if the function does not panic", func(t *testing.T) {
			f := func() (err error) {
				defer Recover(&err)
				return nil
			}

			err := f()
			if !assert.Nil(t, err) {
				return
			}
		})
	})
}

type closeFunc func() error

func (f closeFunc) Close() error {
	return f()
}

func TestClose(t *testing.T) {
	t.Run("will join the close error", func(t *testing.T) {
		t.Run("if the closer fails", func(t *testing.T) {
			closeErr := errors.New("failed to close")
			f := func() (err error) {
				defer Close(&err, closeFunc(func() error { return closeErr }))
				return nil
			}

			err := f()
			if !assert.ErrorIs(t, err, closeErr) {
				return
			}
		})
	})

	t.Run("will do nothing", func(t *testing.T) {
		t.Run("if the value is not a closer", func(t *testing.T) {
			f := func() (err error) {
				defer Close(&err, "not a closer")
				return nil
			}

			err := f()
			if !assert.Nil(t, err) {
				return
			}
		})
	})
}
