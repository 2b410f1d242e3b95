// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"os"
	"strings"
)

// Env represents a Source where its underlying values
// are extracted from environment variables.
type Env struct {
	prefix  string
	environ func() []string
}

// FromEnv returns a Source which applies config values from the
// environment variables of the current process. Only variables
// starting with prefix followed by an underscore are applied and
// the key is the lowercased remainder, e.g. with prefix "QUICKSERVE"
// the variable QUICKSERVE_CERT_FILE maps to the key "cert_file".
func FromEnv(prefix string) Env {
	return Env{
		prefix:  prefix,
		environ: os.Environ,
	}
}

// Apply implements the Source interface.
func (src Env) Apply(store Store) error {
	for _, pair := range src.environ() {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if src.prefix != "" {
			rest, ok := strings.CutPrefix(k, src.prefix+"_")
			if !ok {
				continue
			}
			k = rest
		}

		err := store.Set(strings.ToLower(k), v)
		if err != nil {
			return err
		}
	}
	return nil
}
