// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errors defines the typed errors shared across companionctl.
package errors

import (
	"fmt"
	"time"
)

// UserVisibleError is implemented by errors that carry a hint the CLI
// prints beneath the error message.
type UserVisibleError interface {
	error

	// Suggestion returns actionable guidance, or "" when there is none.
	Suggestion() string
}

// ValidationError is a rejected configuration value.
type ValidationError struct {
	// Field is the YAML key that failed validation (e.g. "start_timeout")
	Field string

	// Message describes the constraint that was violated
	Message string

	// Hint tells the user how to fix the value
	Hint string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid value: %s", e.Message)
}

// Suggestion implements UserVisibleError.
func (e *ValidationError) Suggestion() string {
	return e.Hint
}

// ConfigError is a failure to load the controller configuration.
type ConfigError struct {
	// Key is the configuration key or stage involved (e.g. "config_file", "validation")
	Key string

	// Reason explains what went wrong
	Reason string

	// Cause is the underlying error (read failure, YAML syntax, validation)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := "config error"
	if e.Key != "" {
		msg = fmt.Sprintf("config error at %s", e.Key)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Suggestion implements UserVisibleError by surfacing the hint of a
// wrapped ValidationError.
func (e *ConfigError) Suggestion() string {
	return SuggestionFor(e.Cause)
}

// TimeoutError is a bounded wait that expired.
type TimeoutError struct {
	// Operation names what was being waited for (e.g. "start", "lock")
	Operation string

	// Duration is the bound that expired
	Duration time.Duration

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not complete within %v", e.Operation, e.Duration)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}
