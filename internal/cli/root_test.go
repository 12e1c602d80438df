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

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/companionctl/internal/commands/service"
	"github.com/tombee/companionctl/internal/commands/shared"
	"github.com/tombee/companionctl/internal/config"
	"github.com/tombee/companionctl/internal/controller"
	"github.com/tombee/companionctl/internal/lifecycle"
)

type fakeLifecycle struct {
	debugArgs []string
	calls     []string
}

func (f *fakeLifecycle) Status(ctx context.Context) (controller.Status, error) {
	f.calls = append(f.calls, "status")
	return controller.Status{State: controller.StateStopped}, nil
}

func (f *fakeLifecycle) Start(ctx context.Context) (controller.Status, error) {
	f.calls = append(f.calls, "start")
	return controller.Status{State: controller.StateStarted, PIDs: lifecycle.ProcessSet{7}}, nil
}

func (f *fakeLifecycle) Stop(ctx context.Context) (lifecycle.ProcessSet, error) {
	f.calls = append(f.calls, "stop")
	return nil, nil
}

func (f *fakeLifecycle) Debug(ctx context.Context, args []string) (int, error) {
	f.calls = append(f.calls, "debug")
	f.debugArgs = args
	return 0, nil
}

func (f *fakeLifecycle) Version(ctx context.Context) (string, error) {
	f.calls = append(f.calls, "version")
	return "1.2.3", nil
}

func (f *fakeLifecycle) Paths() config.Paths {
	return config.Paths{}
}

type run struct {
	fake      *fakeLifecycle
	factories int
	stdout    bytes.Buffer
	stderr    bytes.Buffer
}

func execute(t *testing.T, args ...string) (*run, error) {
	t.Helper()
	shared.ResetFlags()
	t.Cleanup(shared.ResetFlags)

	r := &run{fake: &fakeLifecycle{}}
	root := NewRootCommand(func(cmd *cobra.Command) (service.Lifecycle, error) {
		r.factories++
		return r.fake, nil
	})
	root.SetOut(&r.stdout)
	root.SetErr(&r.stderr)

	return r, Execute(context.Background(), root, args)
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand(nil)

	if cmd.Use != "companionctl" {
		t.Errorf("expected use 'companionctl', got %q", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("expected short description to be set")
	}

	if cmd.Long == "" {
		t.Error("expected long description to be set")
	}

	for _, name := range []string{"status", "start", "restart", "stop", "debug", "logs", "version"} {
		found, _, err := cmd.Find([]string{name})
		if err != nil || found == cmd {
			t.Errorf("expected subcommand %q to be registered", name)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand(nil)

	// Check that flags are registered
	if cmd.PersistentFlags().Lookup("verbose") == nil {
		t.Error("verbose flag not registered")
	}

	if cmd.PersistentFlags().Lookup("quiet") == nil {
		t.Error("quiet flag not registered")
	}

	if cmd.PersistentFlags().Lookup("json") == nil {
		t.Error("json flag not registered")
	}

	if cmd.PersistentFlags().Lookup("config") == nil {
		t.Error("config flag not registered")
	}
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2025-12-22")
	defer SetVersion("dev", "unknown", "unknown")

	info := shared.Build()
	if v := info.Version; v != "1.2.3" {
		t.Errorf("expected version '1.2.3', got %q", v)
	}
	if c := info.Commit; c != "abc123" {
		t.Errorf("expected commit 'abc123', got %q", c)
	}
	if b := info.BuildDate; b != "2025-12-22" {
		t.Errorf("expected build date '2025-12-22', got %q", b)
	}
}

func TestUnrecognizedInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "bare invocation", args: nil},
		{name: "unknown command", args: []string{"frobnicate"}},
		{name: "unknown command with arguments", args: []string{"frobnicate", "now"}},
		{name: "unknown flag", args: []string{"--bogus", "status"}},
		{name: "unknown subcommand flag", args: []string{"status", "--bogus"}},
		{name: "extra argument", args: []string{"stop", "now"}},
		{name: "completion disabled", args: []string{"completion", "bash"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, shared.ExitUsage, shared.ExitCode(err))
			assert.Zero(t, r.factories, "controller must not be built")
			assert.Empty(t, r.fake.calls)
			assert.Empty(t, r.stdout.String())

			var buf bytes.Buffer
			shared.PrintError(&buf, err)
			assert.Equal(t, 1, strings.Count(buf.String(), "\n"), "usage error is one line: %q", buf.String())
		})
	}
}

func TestUnknownCommandMentionsUsage(t *testing.T) {
	_, err := execute(t, "frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frobnicate")
	assert.Contains(t, err.Error(), Usage)
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		args  []string
		call  string
		wants string
	}{
		{args: []string{"status"}, call: "status", wants: "STOPPED\n"},
		{args: []string{"version"}, call: "version", wants: "1.2.3\n"},
		{args: []string{"-q", "start"}, call: "start"},
		{args: []string{"restart", "-q"}, call: "start"},
		{args: []string{"stop", "--quiet"}, call: "stop"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			r, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, 1, r.factories)
			assert.Equal(t, []string{tt.call}, r.fake.calls)
			assert.Equal(t, tt.wants, r.stdout.String())
		})
	}
}

func TestDebugPassthrough(t *testing.T) {
	t.Run("arguments after debug are verbatim", func(t *testing.T) {
		r, err := execute(t, "debug", "--help", "-v", "--json", "positional")
		require.NoError(t, err)
		assert.Equal(t, []string{"--help", "-v", "--json", "positional"}, r.fake.debugArgs)
		assert.False(t, shared.GetVerbose())
		assert.False(t, shared.GetJSON())
	})

	t.Run("global flags before debug apply to companionctl", func(t *testing.T) {
		r, err := execute(t, "--config", "/etc/companionctl.yaml", "-q", "debug", "--config", "x")
		require.NoError(t, err)
		assert.Equal(t, []string{"--config", "x"}, r.fake.debugArgs)
		assert.Equal(t, "/etc/companionctl.yaml", shared.GetConfigPath())
		assert.True(t, shared.GetQuiet())
	})
}

func TestHoistDebugFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "debug first", args: []string{"debug", "-x"}, want: []string{"debug", "-x"}},
		{name: "bool flag", args: []string{"-v", "debug", "a"}, want: []string{"debug", "a"}},
		{name: "flag with value", args: []string{"--config", "c.yaml", "debug"}, want: []string{"debug"}},
		{name: "debug as flag value", args: []string{"--config", "debug", "debug", "a"}, want: []string{"debug", "a"}},
		{name: "only a flag value", args: []string{"--config", "debug"}, want: []string{"--config", "debug"}},
		{name: "argument of another command", args: []string{"status", "debug"}, want: []string{"status", "debug"}},
		{name: "no debug", args: []string{"status"}, want: []string{"status"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shared.ResetFlags()
			t.Cleanup(shared.ResetFlags)

			root := NewRootCommand(nil)
			assert.Equal(t, tt.want, hoistDebugFlags(root, tt.args))
		})
	}
}

func TestDefaultFactory(t *testing.T) {
	for _, key := range []string{"COMPANIONCTL_CONFIG", "COMPANIONCTL_HOME", "COMPANIONCTL_IDENTITY", "COMPANIONCTL_START_TIMEOUT", "COMPANIONCTL_MOONRAKER_URI", "COMPANIONCTL_PYTHON"} {
		t.Setenv(key, "")
	}

	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, "app.json"), []byte(`{"version": "1.2.3"}`), 0o644))

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("home: "+home+"\nidentity: companion-under-test\n"), 0o644))

	shared.ResetFlags()
	t.Cleanup(shared.ResetFlags)
	root := NewRootCommand(DefaultFactory)
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})

	require.NoError(t, Execute(context.Background(), root, []string{"--config", cfgPath, "version"}))
	assert.Equal(t, "1.2.3\n", stdout.String())

	// version reads metadata only
	_, err := os.Stat(filepath.Join(home, "logs"))
	assert.True(t, os.IsNotExist(err))
}

func TestDefaultFactoryConfigError(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  format: xml\n"), 0o644))

	shared.ResetFlags()
	t.Cleanup(shared.ResetFlags)
	root := NewRootCommand(DefaultFactory)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := Execute(context.Background(), root, []string{"--config", cfgPath, "status"})
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Equal(t, shared.ExitFailure, shared.ExitCode(err))
}
