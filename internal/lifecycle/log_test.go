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
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEvents(t *testing.T, path string) []LifecycleEvent {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []LifecycleEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var event LifecycleEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		events = append(events, event)
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestLifecycleLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "lifecycle.log")
	logger := NewLifecycleLogger(path)

	require.NoError(t, logger.LogStart([]string{"-c", "companion.conf"}, "companion.conf"))
	require.NoError(t, logger.LogStop(NewProcessSet(7)))
	require.NoError(t, logger.LogStartSuccess(NewProcessSet(42), 1500*time.Millisecond))
	require.NoError(t, logger.LogStartFailure(errors.New("never appeared")))
	require.NoError(t, logger.LogDebug([]string{"--verbose"}, "companion.conf"))
	require.NoError(t, logger.LogDebugExit(2))

	events := readEvents(t, path)
	require.Len(t, events, 6)

	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Event
		assert.Equal(t, logger.InvocationID(), e.InvocationID)
		assert.False(t, e.Timestamp.IsZero())
	}
	assert.Equal(t, []string{"start", "stop", "start_success", "start_failure", "debug", "debug_exit"}, names)

	assert.Equal(t, "companion.conf", events[0].ConfigFile)
	assert.Equal(t, []int{7}, events[1].PIDs)
	assert.Equal(t, []int{42}, events[2].PIDs)
	assert.Equal(t, "never appeared", events[3].Error)
	assert.False(t, events[3].Success)
	assert.Equal(t, 2, events[5].ExitCode)
	assert.False(t, events[5].Success)
}

func TestLifecycleLogger_StopWithoutProcesses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifecycle.log")
	logger := NewLifecycleLogger(path)

	require.NoError(t, logger.LogStop(nil))

	events := readEvents(t, path)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].PIDs)
	assert.Equal(t, "No running companion to stop", events[0].Message)
}

func TestLifecycleLogger_DistinctInvocations(t *testing.T) {
	a := NewLifecycleLogger("a.log")
	b := NewLifecycleLogger("b.log")
	assert.NotEqual(t, a.InvocationID(), b.InvocationID())
}

func TestLifecycleLogger_LockContention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifecycle.log")
	logger := NewLifecycleLogger(path)

	require.NoError(t, logger.LogLockContention(4242, ErrLocked))
	require.NoError(t, logger.LogLockContention(0, ErrLocked))

	events := readEvents(t, path)
	require.Len(t, events, 2)
	assert.Equal(t, "already_locked", events[0].Event)
	assert.False(t, events[0].Success)
	assert.Equal(t, []int{4242}, events[0].PIDs)
	assert.Equal(t, ErrLocked.Error(), events[0].Error)
	assert.Empty(t, events[1].PIDs)
}
