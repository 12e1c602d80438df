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

//go:build linux

package lifecycle

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// procRoot is the procfs mount point. Tests may point it elsewhere.
var procRoot = "/proc"

// listProcesses enumerates processes by reading /proc/[pid]/stat, comm and
// cmdline. Processes that exit during the scan and zombies are skipped.
func listProcesses(ctx context.Context) ([]processEntry, error) {
	dirs, err := os.ReadDir(procRoot)
	if err != nil {
		return nil, err
	}

	entries := make([]processEntry, 0, len(dirs))
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !dir.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(dir.Name())
		if err != nil || pid <= 0 {
			continue
		}

		entry, ok := readProcess(pid)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func readProcess(pid int) (processEntry, bool) {
	base := filepath.Join(procRoot, strconv.Itoa(pid))

	// a zombie keeps its comm until reaped but is no longer running
	stat, err := os.ReadFile(filepath.Join(base, "stat"))
	if err != nil {
		return processEntry{}, false
	}
	switch processState(stat) {
	case 'Z', 'X', 0:
		return processEntry{}, false
	}

	comm, err := os.ReadFile(filepath.Join(base, "comm"))
	if err != nil {
		return processEntry{}, false
	}

	// cmdline is empty for kernel threads and zombies
	cmdline, err := os.ReadFile(filepath.Join(base, "cmdline"))
	if err != nil {
		return processEntry{}, false
	}

	return processEntry{
		PID:  pid,
		Comm: strings.TrimSpace(string(comm)),
		Args: splitCmdline(cmdline),
	}, true
}

// splitCmdline converts a null-separated cmdline into its arguments.
func splitCmdline(cmdline []byte) []string {
	cmdline = bytes.TrimRight(cmdline, "\x00")
	if len(cmdline) == 0 {
		return nil
	}
	parts := bytes.Split(cmdline, []byte{0})
	args := make([]string, len(parts))
	for i, p := range parts {
		args[i] = string(p)
	}
	return args
}

// processState returns the state field of /proc/[pid]/stat, or 0 when it
// cannot be parsed. comm is parenthesized and may contain spaces or ')'.
func processState(stat []byte) byte {
	i := bytes.LastIndexByte(stat, ')')
	if i < 0 || i+2 >= len(stat) {
		return 0
	}
	return stat[i+2]
}
