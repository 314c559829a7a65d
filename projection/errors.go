// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package projection

import (
	"errors"
	"fmt"
)

// ProjectionError reports a coordinate system that cannot be used or a
// coordinate it cannot represent.
type ProjectionError struct {
	Type    ErrorType
	Code    string
	Message string
	Err     error
}

// ErrorType classifies projection failures.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified failure.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeUnsupportedCode the code is malformed or not implemented.
	ErrorTypeUnsupportedCode
	// ErrorTypeOutOfDomain the coordinate is invalid or outside the projection area.
	ErrorTypeOutOfDomain
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeUnsupportedCode:
		return "unsupported code"
	case ErrorTypeOutOfDomain:
		return "out of domain"
	default:
		return "unknown"
	}
}

func (e *ProjectionError) Error() string {
	msg := fmt.Sprintf("projection %s: %s", e.Code, e.Message)
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *ProjectionError) Unwrap() error {
	return e.Err
}

// IsProjectionError reports whether err carries a ProjectionError.
func IsProjectionError(err error) bool {
	var projErr *ProjectionError

	return errors.As(err, &projErr)
}

// IsOutOfDomainError reports whether err is caused by a coordinate outside
// the projection's domain.
func IsOutOfDomainError(err error) bool {
	var projErr *ProjectionError
	if errors.As(err, &projErr) {
		return projErr.Type == ErrorTypeOutOfDomain
	}

	return false
}

// IsUnsupportedCodeError reports whether err is caused by an unknown code.
func IsUnsupportedCodeError(err error) bool {
	var projErr *ProjectionError
	if errors.As(err, &projErr) {
		return projErr.Type == ErrorTypeUnsupportedCode
	}

	return false
}

func outOfDomain(code, format string, args ...any) *ProjectionError {
	return &ProjectionError{
		Type:    ErrorTypeOutOfDomain,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
