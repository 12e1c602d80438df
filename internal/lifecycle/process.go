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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

var (
	// ErrProcessTable is returned when the OS process table cannot be read.
	ErrProcessTable = errors.New("process table unreadable")

	// ErrEmptyIdentity is returned when a lookup is requested for an empty identity.
	ErrEmptyIdentity = errors.New("process identity is empty")
)

// Identity is the logical name used to find a process in the OS process table.
// It is not unique: zero, one or many processes may match it.
type Identity string

// ProcessSet is a sorted, de-duplicated snapshot of PIDs matching an identity.
type ProcessSet []int

// Empty reports whether no process matched.
func (s ProcessSet) Empty() bool {
	return len(s) == 0
}

// Contains reports whether pid is in the set.
func (s ProcessSet) Contains(pid int) bool {
	_, found := slices.BinarySearch(s, pid)
	return found
}

// String renders the set as space-separated PIDs.
func (s ProcessSet) String() string {
	parts := make([]string, len(s))
	for i, pid := range s {
		parts[i] = strconv.Itoa(pid)
	}
	return strings.Join(parts, " ")
}

// NewProcessSet builds a ProcessSet from arbitrary PIDs.
func NewProcessSet(pids ...int) ProcessSet {
	set := slices.Clone(pids)
	slices.Sort(set)
	return slices.Compact(set)
}

// ProcessTable finds and signals processes by identity.
type ProcessTable interface {
	// Locate returns the processes currently matching id. No match is an
	// empty set, not an error.
	Locate(ctx context.Context, id Identity) (ProcessSet, error)

	// Terminate sends SIGTERM to every process matching id and returns the
	// set that was signaled. It does not wait for the processes to exit.
	Terminate(ctx context.Context, id Identity) (ProcessSet, error)
}

// processEntry is one row of the OS process table.
type processEntry struct {
	PID  int
	Comm string
	Args []string
}

// ProcTable is the ProcessTable backed by the running OS.
type ProcTable struct {
	self   int
	logger *slog.Logger
}

// NewProcTable creates a ProcessTable reading the live OS process table.
func NewProcTable() *ProcTable {
	return &ProcTable{
		self:   os.Getpid(),
		logger: slog.Default().With(slog.String("component", "lifecycle")),
	}
}

// WithLogger sets the logger used for debug output.
func (t *ProcTable) WithLogger(logger *slog.Logger) *ProcTable {
	t.logger = logger
	return t
}

// Locate returns the PIDs whose executable name or arguments match id.
func (t *ProcTable) Locate(ctx context.Context, id Identity) (ProcessSet, error) {
	if id == "" {
		return nil, ErrEmptyIdentity
	}

	entries, err := listProcesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessTable, err)
	}

	var pids []int
	for _, entry := range entries {
		if entry.PID == t.self {
			continue
		}
		if id.Matches(entry.Comm, entry.Args) {
			pids = append(pids, entry.PID)
		}
	}

	set := NewProcessSet(pids...)
	t.logger.Debug("located processes", "identity", string(id), "pids", set.String())
	return set, nil
}

// Terminate sends SIGTERM to every process matching id.
// A process that exits between lookup and signal is not an error.
func (t *ProcTable) Terminate(ctx context.Context, id Identity) (ProcessSet, error) {
	set, err := t.Locate(ctx, id)
	if err != nil {
		return nil, err
	}

	var signaled []int
	for _, pid := range set {
		if err := SendSignal(pid, unix.SIGTERM); err != nil {
			if errors.Is(err, unix.ESRCH) {
				t.logger.Debug("process exited before signal", "pid", pid)
				continue
			}
			return NewProcessSet(signaled...), err
		}
		signaled = append(signaled, pid)
	}

	return NewProcessSet(signaled...), nil
}

// IsProcessRunning checks if a process with the given PID exists.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	// Signal 0 performs the existence and permission checks only
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// SendSignal sends a signal to the given process.
func SendSignal(pid int, sig unix.Signal) error {
	if err := unix.Kill(pid, sig); err != nil {
		return fmt.Errorf("failed to send signal %v to process %d: %w", sig, pid, err)
	}
	return nil
}
