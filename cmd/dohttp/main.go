// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command dohttp executes one HTTP request with retries and prints the
// response body.
//
// Usage:
//
//	dohttp [flags] PATH
//
// PATH is resolved against --endpoint (or the configured endpoint). The
// body is written to standard output and a one line summary to standard
// error. The exit status is 0 on success, 1 if the request failed and 2
// for usage or configuration errors.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gogama/dohttp"
	"github.com/gogama/dohttp/config"
	"github.com/gogama/dohttp/internal/logging"
	"github.com/gogama/dohttp/request"
	"github.com/inhies/go-bytesize"
	"github.com/spf13/pflag"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type flags struct {
	method      string
	endpoint    string
	headers     []string
	params      []string
	data        string
	user        string
	userAgent   string
	proxy       string
	insecure    bool
	noRaise     bool
	timeout     time.Duration
	noRedirects bool
	configFile  string
	logLevel    string
	verbose     bool
}

func newFlagSet(f *flags, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("dohttp", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&f.method, "method", "X", "", "HTTP method")
	fs.StringVar(&f.endpoint, "endpoint", "", "base URL that PATH is resolved against")
	fs.StringArrayVarP(&f.headers, "header", "H", nil, "request header as 'Name: value' (repeatable)")
	fs.StringArrayVarP(&f.params, "param", "q", nil, "query parameter as key=value (repeatable)")
	fs.StringVarP(&f.data, "data", "d", "", "request body, or @file to read it from a file")
	fs.StringVarP(&f.user, "user", "u", "", "basic auth credentials as user:password")
	fs.StringVarP(&f.userAgent, "user-agent", "A", "", "User-Agent header")
	fs.StringVar(&f.proxy, "proxy", "", "proxy URL")
	fs.BoolVarP(&f.insecure, "insecure", "k", false, "skip TLS certificate verification")
	fs.BoolVar(&f.noRaise, "no-raise", false, "exit 0 even if the final status is 4xx or 5xx")
	fs.DurationVar(&f.timeout, "timeout", 0, "per-attempt timeout")
	fs.BoolVar(&f.noRedirects, "no-redirects", false, "do not follow redirects")
	fs.StringVar(&f.configFile, "config", "", "YAML configuration file")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log at debug level")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: dohttp [flags] PATH")
		fs.PrintDefaults()
	}
	return fs
}

// overrides maps the flags which were set explicitly onto config keys.
func (f *flags) overrides(fs *pflag.FlagSet) map[string]interface{} {
	o := make(map[string]interface{})
	if fs.Changed("method") {
		o["method"] = strings.ToUpper(f.method)
	}
	if fs.Changed("endpoint") {
		o["endpoint"] = f.endpoint
	}
	if fs.Changed("proxy") {
		o["proxy"] = f.proxy
	}
	if f.insecure {
		o["verifytls"] = false
	}
	if f.noRaise {
		o["raise"] = false
	}
	if fs.Changed("timeout") {
		o["timeout"] = f.timeout.String()
	}
	if f.noRedirects {
		o["redirects.follow"] = false
	}
	if f.verbose {
		o["log.level"] = "debug"
	}
	if fs.Changed("log-level") {
		o["log.level"] = f.logLevel
	}
	return o
}

// options returns the per-call request options given on the command
// line.
func (f *flags) options() ([]request.Option, error) {
	var opts []request.Option
	for _, h := range f.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header %q: want 'Name: value'", h)
		}
		opts = append(opts, request.Header(strings.TrimSpace(name), strings.TrimSpace(value)))
	}
	for _, q := range f.params {
		key, value, ok := strings.Cut(q, "=")
		if !ok {
			return nil, fmt.Errorf("invalid param %q: want key=value", q)
		}
		opts = append(opts, request.Param(key, value))
	}
	if f.data != "" {
		if strings.HasPrefix(f.data, "@") {
			b, err := os.ReadFile(f.data[1:])
			if err != nil {
				return nil, err
			}
			opts = append(opts, request.Body(b))
		} else {
			opts = append(opts, request.Body(f.data))
		}
	}
	if f.user != "" {
		user, pass, _ := strings.Cut(f.user, ":")
		opts = append(opts, request.BasicAuth(user, pass))
	}
	if f.userAgent != "" {
		opts = append(opts, request.UserAgent(f.userAgent))
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var f flags
	fs := newFlagSet(&f, stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.Load(f.configFile, f.overrides(fs))
	if err != nil {
		fmt.Fprintf(stderr, "dohttp: %v\n", err)
		return exitUsage
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Pretty, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "dohttp: %v\n", err)
		return exitUsage
	}
	client, err := cfg.Client(logger)
	if err != nil {
		fmt.Fprintf(stderr, "dohttp: %v\n", err)
		return exitUsage
	}
	opts, err := f.options()
	if err != nil {
		fmt.Fprintf(stderr, "dohttp: %v\n", err)
		return exitUsage
	}

	e, err := client.Request(ctx, fs.Arg(0), append(cfg.Options(), opts...)...)
	if e == nil {
		fmt.Fprintf(stderr, "dohttp: %v\n", err)
		return exitUsage
	}
	if len(e.Body) > 0 {
		_, _ = stdout.Write(e.Body)
	}
	fmt.Fprintln(stderr, summary(e))
	if err != nil {
		fmt.Fprintf(stderr, "dohttp: %s: %v\n", dohttp.Outcome(err), err)
		return exitFailure
	}
	return exitOK
}

// summary describes the final state of e in one line.
func summary(e *request.Execution) string {
	status := "no response"
	if s := e.StatusCode(); s != 0 {
		status = fmt.Sprintf("%d %s", s, http.StatusText(s))
	}
	attempts := "1 attempt"
	if n := e.Attempt + 1; n > 1 {
		attempts = fmt.Sprintf("%d attempts", n)
	}
	return fmt.Sprintf("%s, %s, %s, %s", status, sizeOf(len(e.Body)), attempts, e.Duration().Round(time.Millisecond))
}

// sizeOf formats n bytes for humans.
func sizeOf(n int) string {
	return bytesize.New(float64(n)).String()
}
