// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package logging builds the zerolog loggers used by the dohttp command.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing to w at the named level. When pretty is
// true the output is formatted for humans instead of as JSON lines.
// An empty level means info.
func New(level string, pretty bool, w io.Writer) (*zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if pretty {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}
	l := zerolog.New(w).With().Timestamp().Logger().Level(lvl)
	return &l, nil
}

// ParseLevel converts a level name such as "debug" or "warn" into a
// zerolog level.
func ParseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("dohttp/logging: %w", err)
	}
	return lvl, nil
}
