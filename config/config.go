package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	HTTP struct {
		// XHeaders makes the connection trust the X-Real-Ip, X-Forwarded-For and X-Scheme
		// headers. Enable it only behind a proxy setting them, as otherwise clients are
		// free to forge their own address.
		XHeaders bool `env:"XHEADERS"`
		// NoKeepAlive forces closing the connection after every response, regardless of
		// the protocol version and headers.
		NoKeepAlive bool `env:"NO_KEEP_ALIVE"`
	}

	Headers struct {
		// MaxBlockSize limits the request line and headers in total. Exceeding it is
		// fatal for the connection.
		MaxBlockSize int `env:"MAX_BLOCK_SIZE"`
	}

	Body struct {
		// MaxSize limits the declared Content-Length. Requests declaring more than that
		// make the connection be closed right away.
		MaxSize int `env:"MAX_SIZE"`
	}

	Log struct {
		// Level is one of debug, info, warn and error.
		Level string `env:"LEVEL"`
		// Format is either json or text.
		Format string `env:"FORMAT"`
	}

	NET struct {
		// Address is the address to listen at.
		Address string `env:"ADDRESS"`
		// MetricsAddress is the address Prometheus metrics are exposed at. Empty value
		// disables the endpoint.
		MetricsAddress string `env:"METRICS_ADDRESS"`
		// ReadBufferSize is a size of buffer in bytes which will be used to read from
		// socket.
		ReadBufferSize int `env:"READ_BUFFER_SIZE"`
		// ReadTimeout is how long the connection may stay idle before it's dropped. Zero
		// disables the timeout.
		ReadTimeout time.Duration `env:"READ_TIMEOUT"`
	}
)

// Config holds settings used across the connection layer.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because zero limits will reject every request.
type Config struct {
	HTTP    HTTP    `envPrefix:"HTTP_"`
	Headers Headers `envPrefix:"HEADERS_"`
	Body    Body    `envPrefix:"BODY_"`
	NET     NET     `envPrefix:"NET_"`
	Log     Log     `envPrefix:"LOG_"`
}

// Default returns default config.
func Default() *Config {
	return &Config{
		HTTP: HTTP{
			XHeaders:    false,
			NoKeepAlive: false,
		},
		Headers: Headers{
			MaxBlockSize: 16 * 1024,
		},
		Body: Body{
			MaxSize: 512 * 1024 * 1024, // 512 megabytes
		},
		NET: NET{
			Address:        ":8080",
			MetricsAddress: ":9090",
			ReadBufferSize: 4 * 1024,
			ReadTimeout:    90 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
	}
}

// FromEnv overlays environment variables with the given prefix on top of the defaults.
// E.g. with prefix "CYCLONE_", CYCLONE_HTTP_XHEADERS=true enables forwarding headers.
func FromEnv(prefix string) (*Config, error) {
	cfg := Default()
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: prefix}); err != nil {
		return nil, fmt.Errorf("parse config from env: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate rejects limits which would make every request fail.
func (c *Config) Validate() error {
	switch {
	case c.Headers.MaxBlockSize <= 0:
		return fmt.Errorf("headers max block size must be positive, got %d", c.Headers.MaxBlockSize)
	case c.Body.MaxSize < 0:
		return fmt.Errorf("body max size must not be negative, got %d", c.Body.MaxSize)
	case c.NET.ReadBufferSize <= 0:
		return fmt.Errorf("read buffer size must be positive, got %d", c.NET.ReadBufferSize)
	case c.NET.ReadTimeout < 0:
		return fmt.Errorf("read timeout must not be negative, got %s", c.NET.ReadTimeout)
	}

	return nil
}
