// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package errorsx

import (
	"github.com/pkg/errors"
)

// StackTracer is implemented by errors carrying a stack trace from github.com/pkg/errors.
type StackTracer interface {
	StackTrace() errors.StackTrace
}

// WithStack mirrors errors.WithStack but does not wrap an error which already
// carries a stack trace, preserving the original trace location.
func WithStack(err error) error {
	if _, ok := err.(StackTracer); ok {
		return err
	}

	return errors.WithStack(err)
}

// Cause traverses the error chain and returns the innermost cause.
func Cause(err error) error {
	return errors.Cause(err)
}
