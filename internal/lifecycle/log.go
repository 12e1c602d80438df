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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// LifecycleEvent represents a lifecycle event (start, stop, etc.).
type LifecycleEvent struct {
	Timestamp    time.Time `json:"timestamp"`
	InvocationID string    `json:"invocation_id"`
	Event        string    `json:"event"` // "start", "stop", "start_failure", etc.
	PIDs         []int     `json:"pids,omitempty"`
	ExitCode     int       `json:"exit_code,omitempty"`
	Success      bool      `json:"success"`
	Message      string    `json:"message,omitempty"`
	Args         []string  `json:"args,omitempty"`
	ConfigFile   string    `json:"config_file,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// LifecycleLogger appends lifecycle events to a JSON-lines file. Every event
// written by one logger carries the same invocation ID.
type LifecycleLogger struct {
	logPath      string
	invocationID string
}

// NewLifecycleLogger creates a new lifecycle logger.
func NewLifecycleLogger(logPath string) *LifecycleLogger {
	return &LifecycleLogger{
		logPath:      logPath,
		invocationID: uuid.NewString(),
	}
}

// InvocationID returns the identifier shared by this logger's events.
func (l *LifecycleLogger) InvocationID() string {
	return l.invocationID
}

// LogStart logs a start event.
func (l *LifecycleLogger) LogStart(args []string, configFile string) error {
	return l.writeEvent(LifecycleEvent{
		Event:      "start",
		Success:    true,
		Message:    "Companion start initiated",
		Args:       args,
		ConfigFile: configFile,
	})
}

// LogStartSuccess logs a successful startup with the located PIDs.
func (l *LifecycleLogger) LogStartSuccess(pids ProcessSet, duration time.Duration) error {
	return l.writeEvent(LifecycleEvent{
		Event:   "start_success",
		PIDs:    pids,
		Success: true,
		Message: fmt.Sprintf("Companion started (duration: %v)", duration.Round(time.Millisecond)),
	})
}

// LogStartFailure logs a failed startup.
func (l *LifecycleLogger) LogStartFailure(err error) error {
	return l.writeEvent(LifecycleEvent{
		Event:   "start_failure",
		Success: false,
		Message: "Companion failed to start",
		Error:   err.Error(),
	})
}

// LogStop logs the processes signaled by a stop.
func (l *LifecycleLogger) LogStop(signaled ProcessSet) error {
	message := "No running companion to stop"
	if !signaled.Empty() {
		message = fmt.Sprintf("Sent SIGTERM to %d process(es)", len(signaled))
	}
	return l.writeEvent(LifecycleEvent{
		Event:   "stop",
		PIDs:    signaled,
		Success: true,
		Message: message,
	})
}

// LogDebug logs the start of an attached debug run.
func (l *LifecycleLogger) LogDebug(args []string, configFile string) error {
	return l.writeEvent(LifecycleEvent{
		Event:      "debug",
		Success:    true,
		Message:    "Companion debug run initiated",
		Args:       args,
		ConfigFile: configFile,
	})
}

// LogDebugExit logs the exit of an attached debug run.
func (l *LifecycleLogger) LogDebugExit(exitCode int) error {
	return l.writeEvent(LifecycleEvent{
		Event:    "debug_exit",
		ExitCode: exitCode,
		Success:  exitCode == 0,
		Message:  fmt.Sprintf("Companion exited with code %d", exitCode),
	})
}

// LogLockContention logs a start or debug that gave up waiting for the
// start lock. holder is 0 when the holder PID is unknown.
func (l *LifecycleLogger) LogLockContention(holder int, err error) error {
	event := LifecycleEvent{
		Event:   "already_locked",
		Success: false,
		Message: "Another invocation holds the start lock",
		Error:   err.Error(),
	}
	if holder > 0 {
		event.PIDs = []int{holder}
	}
	return l.writeEvent(event)
}

// writeEvent appends a lifecycle event to the log file.
func (l *LifecycleLogger) writeEvent(event LifecycleEvent) error {
	event.Timestamp = time.Now()
	event.InvocationID = l.invocationID

	if err := os.MkdirAll(filepath.Dir(l.logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(l.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open lifecycle log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}
