// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if a source fails to apply", func(t *testing.T) {
			_, err := Read(FromYaml(strings.NewReader("port: [")))

			var ierr InvalidYamlError
			if !assert.ErrorAs(t, err, &ierr) {
				return
			}
		})
	})

	t.Run("will merge sources", func(t *testing.T) {
		t.Run("if later sources set the same key", func(t *testing.T) {
			m, err := Read(
				Map{"port": 8080, "banner": "quickserve"},
				Map{"port": 9090},
			)
			require.Nil(t, err)

			var cfg struct {
				Port   uint   `config:"port"`
				Banner string `config:"banner"`
			}
			err = m.Unmarshal(&cfg)
			require.Nil(t, err)

			if !assert.Equal(t, uint(9090), cfg.Port) {
				return
			}
			if !assert.Equal(t, "quickserve", cfg.Banner) {
				return
			}
		})
	})
}

func TestManager_Unmarshal(t *testing.T) {
	t.Run("will coerce strings", func(t *testing.T) {
		t.Run("if the field is a time.Duration", func(t *testing.T) {
			m, err := Read(Map{"read_timeout": "5s"})
			require.Nil(t, err)

			var cfg struct {
				ReadTimeout time.Duration `config:"read_timeout"`
			}
			err = m.Unmarshal(&cfg)
			require.Nil(t, err)

			if !assert.Equal(t, 5*time.Second, cfg.ReadTimeout) {
				return
			}
		})
	})

	t.Run("will decode nested values", func(t *testing.T) {
		t.Run("if the source is yaml", func(t *testing.T) {
			src := FromYaml(strings.NewReader(`
port: 8443
tls:
  cert_file: cert.crt
  key_file: private.key
`))
			m, err := Read(src)
			require.Nil(t, err)

			var cfg struct {
				Port uint `config:"port"`
				TLS  struct {
					CertFile string `config:"cert_file"`
					KeyFile  string `config:"key_file"`
				} `config:"tls"`
			}
			err = m.Unmarshal(&cfg)
			require.Nil(t, err)

			if !assert.Equal(t, uint(8443), cfg.Port) {
				return
			}
			if !assert.Equal(t, "cert.crt", cfg.TLS.CertFile) {
				return
			}
			if !assert.Equal(t, "private.key", cfg.TLS.KeyFile) {
				return
			}
		})
	})
}

func TestEnv_Apply(t *testing.T) {
	t.Run("will apply variables", func(t *testing.T) {
		t.Run("if they carry the prefix", func(t *testing.T) {
			src := Env{
				prefix: "QUICKSERVE",
				environ: func() []string {
					return []string{
						"QUICKSERVE_PORT=8080",
						"QUICKSERVE_CERT_FILE=cert.crt",
						"PATH=/usr/bin",
					}
				},
			}

			m, err := Read(src)
			require.Nil(t, err)

			var cfg struct {
				Port     string `config:"port"`
				CertFile string `config:"cert_file"`
				Path     string `config:"path"`
			}
			err = m.Unmarshal(&cfg)
			require.Nil(t, err)

			if !assert.Equal(t, "8080", cfg.Port) {
				return
			}
			if !assert.Equal(t, "cert.crt", cfg.CertFile) {
				return
			}
			if !assert.Empty(t, cfg.Path) {
				return
			}
		})
	})
}

func TestJson_Apply(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the reader contains invalid json", func(t *testing.T) {
			_, err := Read(FromJson(strings.NewReader("{")))

			var ierr InvalidJsonError
			if !assert.ErrorAs(t, err, &ierr) {
				return
			}
		})
	})
}

func TestFromArgs(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if no arguments are given", func(t *testing.T) {
			_, err := Read(FromArgs(nil))
			if !assert.ErrorIs(t, err, ErrMissingPort) {
				return
			}
		})

		t.Run("if the port is not an integer", func(t *testing.T) {
			_, err := Read(FromArgs([]string{"abc"}))

			var perr InvalidPortError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			if !assert.Equal(t, "abc", perr.Value) {
				return
			}
		})

		t.Run("if the port is outside the valid range", func(t *testing.T) {
			for _, port := range []string{"0", "-1", "70000"} {
				_, err := Read(FromArgs([]string{port}))

				var perr InvalidPortError
				if !assert.ErrorAs(t, err, &perr) {
					return
				}
			}
		})

		t.Run("if only a certificate file is given", func(t *testing.T) {
			_, err := Read(FromArgs([]string{"8443", "cert.crt"}))
			if !assert.ErrorIs(t, err, ErrIncompleteTLSPair) {
				return
			}
		})
	})

	t.Run("will apply the arguments", func(t *testing.T) {
		t.Run("if only a port is given", func(t *testing.T) {
			m, err := Read(FromArgs([]string{"8080"}))
			require.Nil(t, err)

			var cfg struct {
				Port     uint   `config:"port"`
				CertFile string `config:"cert_file"`
				KeyFile  string `config:"key_file"`
			}
			err = m.Unmarshal(&cfg)
			require.Nil(t, err)

			if !assert.Equal(t, uint(8080), cfg.Port) {
				return
			}
			if !assert.Empty(t, cfg.CertFile) {
				return
			}
			if !assert.Empty(t, cfg.KeyFile) {
				return
			}
		})

		t.Run("if a port and both tls files are given", func(t *testing.T) {
			m, err := Read(FromArgs([]string{"8443", "cert.crt", "private.key"}))
			require.Nil(t, err)

			var cfg struct {
				Port     uint   `config:"port"`
				CertFile string `config:"cert_file"`
				KeyFile  string `config:"key_file"`
			}
			err = m.Unmarshal(&cfg)
			require.Nil(t, err)

			if !assert.Equal(t, uint(8443), cfg.Port) {
				return
			}
			if !assert.Equal(t, "cert.crt", cfg.CertFile) {
				return
			}
			if !assert.Equal(t, "private.key", cfg.KeyFile) {
				return
			}
		})
	})
}
