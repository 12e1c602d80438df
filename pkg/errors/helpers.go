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

package errors

import "fmt"

// Wrap annotates err with message. It returns nil when err is nil.
//
// Usage:
//
//	if err := b.Ensure(plan); err != nil {
//	    return errors.Wrap(err, "bootstrap")
//	}
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf annotates err with a formatted message. It returns nil when err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// SuggestionFor returns the first non-empty hint carried by a
// UserVisibleError in err's tree, or "".
func SuggestionFor(err error) string {
	if err == nil {
		return ""
	}
	if v, ok := err.(UserVisibleError); ok {
		if s := v.Suggestion(); s != "" {
			return s
		}
	}
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return SuggestionFor(u.Unwrap())
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if s := SuggestionFor(inner); s != "" {
				return s
			}
		}
	}
	return ""
}
