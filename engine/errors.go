// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	// ErrInvalidParameter is returned for out-of-range configuration or
	// parameter values. State is left untouched.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrEngineClosed is returned by commands issued after Close.
	ErrEngineClosed = errors.New("engine closed")
)
