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

// Package logtail prints and follows the companion's output log.
package logtail

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// maxLineSize bounds a single log line.
const maxLineSize = 1 << 20

// Last returns up to n trailing lines of the file at path and the offset
// just past the data read. n <= 0 returns no lines.
func Last(path string, n int) ([]string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	lines, err := lastLines(f, n)
	if err != nil {
		return nil, 0, fmt.Errorf("read log %s: %w", path, err)
	}

	offset, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("seek log: %w", err)
	}
	return lines, offset, nil
}

// lastLines keeps a ring of the most recent n lines.
func lastLines(r io.Reader, n int) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	if n <= 0 {
		for scanner.Scan() {
		}
		return nil, scanner.Err()
	}

	ring := make([]string, n)
	count := 0
	for scanner.Scan() {
		ring[count%n] = scanner.Text()
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if count <= n {
		return ring[:count], nil
	}
	start := count % n
	return append(ring[start:], ring[:start]...), nil
}
