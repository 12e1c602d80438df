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

// Package bootstrap prepares the companion's filesystem layout before launch.
//
// Three steps run on every start, each safe to repeat:
//
//   - EnsureDirectories creates the log and generated-config directories.
//   - EnsureConfigIndirection resets the user-facing config symlink so it
//     points at the generated config, replacing whatever was there.
//   - EnsureDefaultUserConfig writes a minimal user config only when none
//     exists, so user edits survive restarts.
package bootstrap
