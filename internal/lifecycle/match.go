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

package lifecycle

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Matches reports whether a process with the given executable name and
// command-line arguments carries this identity.
//
// The identity matches when it equals the executable name, or when it matches
// an argument as a glob, either against the whole argument or its base name.
// "mobileraker.py" therefore matches "python3 /opt/app/mobileraker.py -c x".
func (id Identity) Matches(comm string, args []string) bool {
	pattern := string(id)
	if pattern == "" {
		return false
	}
	if comm == pattern {
		return true
	}

	for _, arg := range args {
		if arg == "" {
			continue
		}
		if globMatch(pattern, arg) || globMatch(pattern, filepath.Base(arg)) {
			return true
		}
	}
	return false
}

// globMatch treats a malformed pattern as a non-match.
func globMatch(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}
