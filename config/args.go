// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrMissingPort occurs when no port argument was supplied.
var ErrMissingPort = errors.New("missing port argument")

// ErrIncompleteTLSPair occurs when only one of the certificate and
// private key file paths was supplied. TLS requires both, so supplying
// a single one is rejected instead of silently falling back to plaintext.
var ErrIncompleteTLSPair = errors.New("certificate and private key files must both be provided")

// InvalidPortError occurs when the port argument does not parse
// as an integer in [1, 65535].
type InvalidPortError struct {
	Value string
}

// Error implements the error interface.
func (e InvalidPortError) Error() string {
	return fmt.Sprintf("invalid port: %q", e.Value)
}

// Args represents a Source where its underlying values are the
// positional command line tokens: <port> [certificate file] [private key file].
type Args struct {
	args []string
}

// FromArgs returns a Source which applies the positional command
// line arguments under the keys "port", "cert_file" and "key_file".
func FromArgs(args []string) Args {
	return Args{args: args}
}

// Apply implements the Source interface.
func (src Args) Apply(store Store) error {
	if len(src.args) == 0 {
		return ErrMissingPort
	}

	port, err := parsePort(src.args[0])
	if err != nil {
		return err
	}
	err = store.Set("port", port)
	if err != nil {
		return err
	}

	switch len(src.args) {
	case 1:
		return nil
	case 2:
		return ErrIncompleteTLSPair
	}

	err = store.Set("cert_file", src.args[1])
	if err != nil {
		return err
	}
	return store.Set("key_file", src.args[2])
}

func parsePort(s string) (uint, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return 0, InvalidPortError{Value: s}
	}
	return uint(n), nil
}
