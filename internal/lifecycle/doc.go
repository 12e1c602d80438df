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
Package lifecycle provides the OS-facing primitives used to supervise the
companion process: process lookup by identity, signal delivery, detached and
attached spawning, bounded polling, an exclusive start lock and an audit log of
lifecycle events.

# Process Lookup

Processes are found by identity rather than by PID file. An identity matches a
process when the executable name equals it, or when any command-line argument
matches it as a glob:

	table := lifecycle.NewProcTable()
	set, err := table.Locate(ctx, lifecycle.Identity("mobileraker.py"))
	if err != nil {
	    // process table unreadable
	}
	if set.Empty() {
	    // stopped
	}

The result is a point-in-time snapshot. A process may exit, or a new one may
appear, before the caller acts on it.

# Termination

Terminate signals every matching process with SIGTERM and returns without
waiting for exit:

	signaled, err := table.Terminate(ctx, identity)

# Process Spawning

Detached spawning runs the companion in its own session with output appended
to a log file. Attached spawning inherits the caller's terminal and returns the
child's exit code:

	spawner := lifecycle.NewSpawner()
	pid, err := spawner.SpawnDetached(ctx, cmd, logPath)
	code, err := spawner.RunAttached(ctx, cmd)

# Bounded Waits

WaitFor polls a condition with exponential backoff until it holds or the
timeout expires:

	err := lifecycle.NewPoller().WaitFor(ctx, 10*time.Second, func(ctx context.Context) (bool, error) {
	    set, err := table.Locate(ctx, identity)
	    return !set.Empty(), err
	})

# Lifecycle Logging

All lifecycle events are appended to a JSON-lines audit log:

	logger := lifecycle.NewLifecycleLogger("/path/to/lifecycle.log")
	logger.LogStart(args, configFile)
	logger.LogStop(signaled)
*/
package lifecycle
