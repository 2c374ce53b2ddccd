// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"

	"github.com/gogama/dohttp"
	"github.com/gogama/dohttp/request"
	"github.com/gogama/dohttp/retry"
	"github.com/gogama/dohttp/timeout"
	"github.com/gogama/dohttp/transport"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RetryPolicy returns the retry configuration described by c.
func (c *Config) RetryPolicy() retry.Config {
	return retry.Config{
		MaxTotalAttempts:     c.Retry.Attempts,
		StatusCodes:          append([]int(nil), c.Retry.Statuses...),
		Methods:              append([]string(nil), c.Retry.Methods...),
		BackoffFactor:        c.Retry.Backoff,
		MaxBackoff:           c.Retry.MaxBackoff,
		Jitter:               c.Retry.Jitter,
		RetryTransientErrors: c.Retry.Transient,
		RespectRetryAfter:    c.Retry.RetryAfter,
	}
}

// LogBodyLimit returns the Client.LogBodyLimit value for the
// configured log.bodylimit.
func (c *Config) LogBodyLimit() (int, error) {
	n, err := parseByteSize(c.Log.BodyLimit)
	if err != nil {
		return 0, fmt.Errorf("dohttp/config: invalid log body limit: %w", err)
	}
	if n == 0 {
		return -1, nil
	}
	return int(n), nil
}

// Client returns a client configured from c which logs to logger. The
// logger may be nil.
func (c *Config) Client(logger *zerolog.Logger) (*dohttp.Client, error) {
	retryPolicy := c.RetryPolicy()
	if err := retryPolicy.Validate(); err != nil {
		return nil, err
	}
	limit, err := c.LogBodyLimit()
	if err != nil {
		return nil, err
	}
	cl := &dohttp.Client{
		Method:        c.Method,
		Endpoint:      c.Endpoint,
		Transport:     &transport.Standard{MaxRedirects: c.Redirects.Max},
		RetryPolicy:   retryPolicy,
		TimeoutPolicy: timeout.Fixed(c.Timeout),
		Logger:        logger,
		LogBodyLimit:  limit,
	}
	if c.Rate.Limit > 0 {
		burst := c.Rate.Burst
		if burst < 1 {
			burst = 1
		}
		cl.RateLimiter = rate.NewLimiter(rate.Limit(c.Rate.Limit), burst)
	}
	return cl, nil
}

// Options returns the per-request options described by c. They belong
// before any call specific options so the latter take precedence.
func (c *Config) Options() []request.Option {
	opts := []request.Option{
		request.VerifyTLS(c.VerifyTLS),
		request.AllowRedirects(c.Redirects.Follow),
		request.RaiseOnError(c.RaiseOnError),
	}
	if c.Proxy != "" {
		opts = append(opts, request.Proxy(c.Proxy))
	}
	return opts
}
