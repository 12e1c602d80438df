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

//go:build darwin

package lifecycle

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// listProcesses enumerates processes using ps.
// Arguments are split on whitespace, so quoted arguments are not preserved.
// Zombies are skipped.
func listProcesses(ctx context.Context) ([]processEntry, error) {
	output, err := exec.CommandContext(ctx, "ps", "-axo", "pid=,stat=,args=").Output()
	if err != nil {
		return nil, fmt.Errorf("ps command failed: %w", err)
	}

	var entries []processEntry
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		if strings.HasPrefix(fields[1], "Z") {
			continue
		}
		args := fields[2:]
		entries = append(entries, processEntry{
			PID:  pid,
			Comm: filepath.Base(args[0]),
			Args: args,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
