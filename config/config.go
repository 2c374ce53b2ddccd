// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config loads dohttp.Client settings from layered sources.
//
// Sources are applied in increasing order of priority: built-in
// defaults, an optional YAML file, environment variables prefixed with
// DOHTTP_, and finally explicit overrides (typically command line
// flags). Keys are lower case and dot separated. The environment
// variable DOHTTP_RETRY_MAXBACKOFF sets the key retry.maxbackoff, for
// example.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "DOHTTP_"

// Config holds everything needed to build a client and the default
// per-request settings.
type Config struct {
	// Endpoint is the base URL request paths are resolved against.
	Endpoint string `koanf:"endpoint" validate:"omitempty,url"`
	// Method is the default HTTP method.
	Method string `koanf:"method" validate:"omitempty,httpmethod"`
	// Proxy is the proxy URL. Empty means the environment's proxy.
	Proxy string `koanf:"proxy" validate:"omitempty,url"`
	// VerifyTLS enables certificate and host name verification.
	VerifyTLS bool `koanf:"verifytls"`
	// RaiseOnError turns 4xx and 5xx final responses into errors.
	RaiseOnError bool `koanf:"raise"`
	// Timeout is the per-attempt timeout.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	Redirects RedirectConfig `koanf:"redirects"`
	Retry     RetryConfig    `koanf:"retry"`
	Rate      RateConfig     `koanf:"rate"`
	Log       LogConfig      `koanf:"log"`
}

// RedirectConfig controls redirect handling.
type RedirectConfig struct {
	Follow bool `koanf:"follow"`
	Max    int  `koanf:"max" validate:"gte=0"`
}

// RetryConfig mirrors retry.Config.
type RetryConfig struct {
	Attempts   int           `koanf:"attempts" validate:"gte=1"`
	Statuses   []int         `koanf:"statuses" validate:"dive,gte=100,lte=599"`
	Methods    []string      `koanf:"methods" validate:"dive,httpmethod"`
	Backoff    time.Duration `koanf:"backoff" validate:"gte=0"`
	MaxBackoff time.Duration `koanf:"maxbackoff" validate:"gte=0"`
	Jitter     float64       `koanf:"jitter" validate:"gte=0,lte=1"`
	Transient  bool          `koanf:"transient"`
	RetryAfter bool          `koanf:"retryafter"`
}

// RateConfig configures client-side rate limiting. A zero Limit
// disables it.
type RateConfig struct {
	// Limit is the number of attempts allowed per second.
	Limit float64 `koanf:"limit" validate:"gte=0"`
	// Burst is the number of attempts allowed at once. Values below one
	// mean one.
	Burst int `koanf:"burst" validate:"gte=0"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty"`
	// BodyLimit is the size of body excerpts in log lines, such as
	// "4KB". Zero leaves bodies out.
	BodyLimit string `koanf:"bodylimit" validate:"bytesize"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"method":           "GET",
		"verifytls":        true,
		"raise":            true,
		"timeout":          "30s",
		"redirects.follow": true,
		"redirects.max":    10,
		"retry.attempts":   20,
		"retry.statuses":   []int{429, 500, 502, 503, 504},
		"retry.methods":    []string{"HEAD", "GET", "PUT", "DELETE", "OPTIONS", "TRACE", "PROPFIND"},
		"retry.backoff":    "10s",
		"retry.maxbackoff": "120s",
		"retry.jitter":     0.1,
		"rate.limit":       0,
		"rate.burst":       1,
		"log.level":        "info",
		"log.pretty":       false,
		"log.bodylimit":    "4KB",
	}
}

// listKeys are the keys whose environment values are comma separated
// lists, such as DOHTTP_RETRY_STATUSES=502,503.
var listKeys = map[string]bool{
	"retry.statuses": true,
	"retry.methods":  true,
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Load builds a Config from the defaults, the YAML file at path (if
// path is not empty), the environment, and overrides, in that order,
// then validates it.
func Load(path string, overrides map[string]interface{}) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("dohttp/config: failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("dohttp/config: failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, interface{}) {
			key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "_", ".")
			if listKeys[key] {
				return key, splitList(value)
			}
			return key, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("dohttp/config: failed to load environment variables: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("dohttp/config: failed to load overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("dohttp/config: failed to unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
