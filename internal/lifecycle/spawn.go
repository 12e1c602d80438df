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
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/term"
)

// Command describes a process to launch.
type Command struct {
	// Path is the executable, resolved through PATH when it has no separator.
	Path string

	// Args are the arguments after the executable name.
	Args []string

	// Env holds extra KEY=VALUE entries layered over the spawner's environment.
	Env []string

	// Dir is the working directory. Empty means the caller's directory.
	Dir string
}

// Argv returns the full argument vector including the executable.
func (c Command) Argv() []string {
	return append([]string{c.Path}, c.Args...)
}

// Spawner launches the companion either detached in the background or
// attached to the caller's terminal.
type Spawner struct {
	// Env is the base environment passed to every child process.
	Env []string

	// Stdin, Stdout and Stderr are used by RunAttached.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewSpawner creates a new process spawner inheriting the current environment.
func NewSpawner() *Spawner {
	return &Spawner{
		Env:    os.Environ(),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// WithEnv sets the base environment for spawned processes.
func (s *Spawner) WithEnv(env []string) *Spawner {
	s.Env = env
	return s
}

// SpawnDetached spawns a detached background process.
// The process:
//   - Runs in its own session and process group (survives the caller)
//   - Has stdin closed, stdout and stderr appended to logPath
//
// Returns the PID of the spawned process.
func (s *Spawner) SpawnDetached(ctx context.Context, c Command, logPath string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	cmd := s.command(c)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start process: %w", err)
	}

	// Reap the child if it dies while we still run; an unreaped zombie
	// keeps matching its identity.
	go func() { _ = cmd.Wait() }()

	return cmd.Process.Pid, nil
}

// RunAttached runs the process in the foreground with the spawner's stdio and
// blocks until it exits. SIGTERM received meanwhile is forwarded to the
// child, and so is SIGINT unless stdin is a terminal: the terminal already
// delivers Ctrl-C to the child through the shared foreground process group.
// Once the child runs, cancelling ctx does not stop it; the child decides
// when to exit. The child's exit code is returned; a child killed by a
// signal reports 128 plus the signal number.
func (s *Spawner) RunAttached(ctx context.Context, c Command) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cmd := s.command(c)
	cmd.Stdin = s.Stdin
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr

	// Registered before Start so no signal slips past the child
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start process: %w", err)
	}

	fromTerminal := isTerminal(s.Stdin)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case sig := <-sigCh:
				if sig == syscall.SIGINT && fromTerminal {
					continue
				}
				_ = cmd.Process.Signal(sig)
			case <-done:
				return
			}
		}
	}()

	return exitCode(cmd.Wait())
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (s *Spawner) command(c Command) *exec.Cmd {
	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir
	// exec keeps the last value of duplicated keys, so extras win
	cmd.Env = append(append([]string(nil), s.Env...), c.Env...)
	return cmd
}

// exitCode converts the result of Wait into a process exit code.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, fmt.Errorf("failed waiting for process: %w", err)
	}

	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal()), nil
	}
	return exitErr.ExitCode(), nil
}
