// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config provides easy to use and extensible configuration management capabilities.
package config

import (
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Store represents a general key value structure.
type Store interface {
	Set(key string, value any) error
}

// Source defines valid config sources as those who can
// serialize themselves into a key value like structure.
type Source interface {
	Apply(Store) error
}

// Manager unifies config values from multiple Sources and
// unmarshals them into user defined types.
type Manager struct {
	v *viper.Viper
}

// Read applies the given Sources, in order, into a single Manager.
// Subsequent sources override previous sources.
func Read(srcs ...Source) (*Manager, error) {
	v := viper.New()
	store := viperStore{v: v}
	for _, src := range srcs {
		err := src.Apply(store)
		if err != nil {
			return nil, err
		}
	}
	return &Manager{v: v}, nil
}

// Unmarshal decodes the read config values into v. Struct fields are
// matched to config keys via the "config" struct tag. String values are
// coerced into time.Durations, encoding.TextUnmarshaler implementations
// and basic types, since sources like environment variables only ever
// produce strings.
func (m *Manager) Unmarshal(v any) error {
	return m.v.Unmarshal(
		v,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		)),
		withTagName("config"),
		weaklyTypedInput,
	)
}

func withTagName(tag string) viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = tag
	}
}

func weaklyTypedInput(dc *mapstructure.DecoderConfig) {
	dc.WeaklyTypedInput = true
}

type viperStore struct {
	v *viper.Viper
}

// Set implements the Store interface.
func (s viperStore) Set(key string, value any) error {
	s.v.Set(key, value)
	return nil
}

// Map is an in-memory Source.
type Map map[string]any

// Apply implements the Source interface.
func (m Map) Apply(store Store) error {
	for k, v := range m {
		err := store.Set(k, v)
		if err != nil {
			return err
		}
	}
	return nil
}
