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

/*
Package controller implements the companion lifecycle: status, start, stop,
debug and version.

# State

The companion is STARTED when at least one process matches the configured
identity and STOPPED otherwise. State is never cached; every operation takes
a fresh snapshot of the process table.

# Start

Start always stops first, so at most one instance runs afterwards and
orphans from earlier runs are cleaned up:

	lock → stop → bootstrap → spawn detached → wait until located

The wait is bounded by start_timeout. When it expires Start returns
ErrStartFailed; bootstrap changes are kept.

# Debug

Debug runs the same preparation as Start, then runs the companion attached
to the terminal with the caller's arguments appended verbatim, and returns
the child's exit code.

# Usage

	cfg, _ := config.Load(config.ResolvePath(""))
	c, err := controller.New(cfg, controller.Options{})
	if err != nil {
	    return err
	}
	status, err := c.Status(ctx)
*/
package controller
