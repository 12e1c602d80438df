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
	"os"
	"os/exec"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestNewProcessSet(t *testing.T) {
	set := NewProcessSet(42, 7, 42, 13)

	want := []int{7, 13, 42}
	if len(set) != len(want) {
		t.Fatalf("NewProcessSet() = %v, want %v", set, want)
	}
	for i := range want {
		if set[i] != want[i] {
			t.Fatalf("NewProcessSet() = %v, want %v", set, want)
		}
	}

	if !set.Contains(13) {
		t.Error("Contains(13) = false, want true")
	}
	if set.Contains(8) {
		t.Error("Contains(8) = true, want false")
	}
	if got := set.String(); got != "7 13 42" {
		t.Errorf("String() = %q, want %q", got, "7 13 42")
	}
	if NewProcessSet().Empty() != true {
		t.Error("empty set should report Empty()")
	}
}

func TestIsProcessRunning(t *testing.T) {
	t.Run("returns true for current process", func(t *testing.T) {
		if !IsProcessRunning(os.Getpid()) {
			t.Error("IsProcessRunning(os.Getpid()) = false, want true")
		}
	})

	t.Run("returns false for non-existent PID", func(t *testing.T) {
		// Use a very high PID that's unlikely to exist
		if IsProcessRunning(999999) {
			t.Error("IsProcessRunning(999999) = true, want false")
		}
	})

	t.Run("returns false for invalid PID", func(t *testing.T) {
		if IsProcessRunning(0) || IsProcessRunning(-1) {
			t.Error("IsProcessRunning() accepted a non-positive PID")
		}
	})
}

func TestSendSignal(t *testing.T) {
	t.Run("sends signal to running process", func(t *testing.T) {
		cmd := exec.Command("sleep", "60")
		if err := cmd.Start(); err != nil {
			t.Skipf("cannot start sleep process: %v", err)
		}
		defer cmd.Process.Kill()

		// Send harmless signal (0 = existence check)
		if err := SendSignal(cmd.Process.Pid, unix.Signal(0)); err != nil {
			t.Errorf("SendSignal() error = %v", err)
		}
	})

	t.Run("returns error for non-existent process", func(t *testing.T) {
		err := SendSignal(999999, unix.SIGTERM)
		if err == nil {
			t.Error("SendSignal() to non-existent process succeeded, want error")
		}
	})
}

func TestProcTable_EmptyIdentity(t *testing.T) {
	table := NewProcTable()

	if _, err := table.Locate(context.Background(), ""); err != ErrEmptyIdentity {
		t.Errorf("Locate(\"\") error = %v, want ErrEmptyIdentity", err)
	}
	if _, err := table.Terminate(context.Background(), ""); err != ErrEmptyIdentity {
		t.Errorf("Terminate(\"\") error = %v, want ErrEmptyIdentity", err)
	}
}

func TestProcTable_LiveProcess(t *testing.T) {
	if os.Getenv("SKIP_SPAWN_TESTS") != "" {
		t.Skip("Skipping spawn tests (SKIP_SPAWN_TESTS is set)")
	}

	// A distinctive $0 makes the identity unique on the host; the compound
	// script keeps the shell from exec'ing sleep directly
	marker := "companionctl-locate-test-" + time.Now().Format("150405.000000")
	cmd := exec.Command("sh", "-c", "sleep 10; true", marker)
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start process: %v", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	table := NewProcTable()
	ctx := context.Background()
	id := Identity(marker)

	set, err := table.Locate(ctx, id)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if !set.Contains(cmd.Process.Pid) {
		t.Fatalf("Locate() = %v, want it to contain %d", set, cmd.Process.Pid)
	}

	signaled, err := table.Terminate(ctx, id)
	if err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}
	if !signaled.Contains(cmd.Process.Pid) {
		t.Errorf("Terminate() signaled %v, want it to contain %d", signaled, cmd.Process.Pid)
	}

	// Reap the child so it leaves the process table
	_ = cmd.Wait()

	set, err = table.Locate(ctx, id)
	if err != nil {
		t.Fatalf("Locate() after terminate error = %v", err)
	}
	if set.Contains(cmd.Process.Pid) {
		t.Errorf("Locate() after terminate still contains %d", cmd.Process.Pid)
	}
}

func TestProcTable_TerminateNoMatch(t *testing.T) {
	table := NewProcTable()

	signaled, err := table.Terminate(context.Background(), Identity("no-such-process-companionctl-*.py"))
	if err != nil {
		t.Fatalf("Terminate() error = %v, want nil for no match", err)
	}
	if !signaled.Empty() {
		t.Errorf("Terminate() signaled %v, want none", signaled)
	}
}
