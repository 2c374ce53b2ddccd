// Copyright 2021 The dohttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/inhies/go-bytesize"
	"golang.org/x/net/http/httpguts"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("httpmethod", validateMethod); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("bytesize", validateByteSize); err != nil {
		panic(err)
	}
	return v
}

// Validate reports every invalid setting in c.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("dohttp/config: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("dohttp/config: invalid configuration: %s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "url":
		return fmt.Sprintf("%s must be a valid URL, got %q", field, fe.Value())
	case "httpmethod":
		return fmt.Sprintf("%s must be an HTTP method, got %q", field, fe.Value())
	case "bytesize":
		return fmt.Sprintf("%s must be a byte size such as 4KB, got %q", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "gt", "gte", "lte":
		return fmt.Sprintf("%s must be %s %s, got %v", field, comparison(fe.Tag()), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func comparison(tag string) string {
	switch tag {
	case "gt":
		return ">"
	case "gte":
		return ">="
	default:
		return "<="
	}
}

func validateMethod(fl validator.FieldLevel) bool {
	m := fl.Field().String()
	return m != "" && strings.IndexFunc(m, func(r rune) bool {
		return !httpguts.IsTokenRune(r)
	}) == -1
}

func validateByteSize(fl validator.FieldLevel) bool {
	_, err := parseByteSize(fl.Field().String())
	return err == nil
}

// parseByteSize parses s as a byte size. The empty string and "0" both
// mean zero.
func parseByteSize(s string) (bytesize.ByteSize, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	return bytesize.Parse(s)
}
