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

package bootstrap

import (
	"errors"
	"fmt"
)

// ErrIsDirectory is returned when the user-facing config path is a directory.
var ErrIsDirectory = errors.New("bootstrap: path is a directory")

// Op identifies the bootstrap step that failed.
type Op string

const (
	OpMkdir   Op = "mkdir"
	OpUnlink  Op = "unlink"
	OpSymlink Op = "symlink"
	OpStat    Op = "stat"
	OpWrite   Op = "write"
)

// OpError represents an error from a bootstrap step.
type OpError struct {
	// Op is the step that failed
	Op Op
	// Path is the file path involved in the step
	Path string
	// Err is the underlying error
	Err error
}

// Error returns a formatted error message
func (e *OpError) Error() string {
	return fmt.Sprintf("bootstrap %s %q: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *OpError) Unwrap() error {
	return e.Err
}
