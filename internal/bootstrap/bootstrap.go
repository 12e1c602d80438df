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

package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// Plan lists everything the companion needs on disk before it starts.
type Plan struct {
	// Directories are created if missing.
	Directories []string

	// ConfigLink is the stable path the companion reads its config from.
	ConfigLink string

	// GeneratedConfig is the file written by the external config generator.
	// ConfigLink always resolves to it.
	GeneratedConfig string

	// UserConfig is the user-editable config file.
	UserConfig string

	// UserConfigContents is written to UserConfig on first run only.
	UserConfigContents []byte
}

// UserConfigTemplate is the minimal user config: one named section with one
// connection-endpoint key.
type UserConfigTemplate struct {
	Section string
	Key     string
	Value   string
}

// Render returns the config file contents in section/key form.
func (t UserConfigTemplate) Render() ([]byte, error) {
	if strings.TrimSpace(t.Section) == "" || strings.TrimSpace(t.Key) == "" {
		return nil, errors.New("bootstrap: user config section and key are required")
	}
	if strings.ContainsAny(t.Section, "[]\n") || strings.ContainsAny(t.Key, ":=\n") || strings.Contains(t.Value, "\n") {
		return nil, fmt.Errorf("bootstrap: invalid user config entry [%s] %s", t.Section, t.Key)
	}
	return []byte(fmt.Sprintf("[%s]\n%s: %s\n", t.Section, t.Key, t.Value)), nil
}

// Bootstrapper performs the idempotent filesystem preparation steps.
type Bootstrapper struct {
	dirMode  fs.FileMode
	fileMode fs.FileMode
	logger   *slog.Logger
}

// New creates a Bootstrapper with 0755 directories and 0644 files.
func New() *Bootstrapper {
	return &Bootstrapper{
		dirMode:  0o755,
		fileMode: 0o644,
		logger:   slog.Default().With(slog.String("component", "bootstrap")),
	}
}

// WithLogger sets the logger used for debug output.
func (b *Bootstrapper) WithLogger(logger *slog.Logger) *Bootstrapper {
	b.logger = logger
	return b
}

// Ensure runs every step of the plan in order: directories, config
// indirection, default user config.
func (b *Bootstrapper) Ensure(p Plan) error {
	if err := b.EnsureDirectories(p.Directories...); err != nil {
		return err
	}
	if err := b.EnsureConfigIndirection(p.ConfigLink, p.GeneratedConfig); err != nil {
		return err
	}
	if _, err := b.EnsureDefaultUserConfig(p.UserConfig, p.UserConfigContents); err != nil {
		return err
	}
	return nil
}

// EnsureDirectories creates each directory and its parents. Existing
// directories are left untouched.
func (b *Bootstrapper) EnsureDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, b.dirMode); err != nil {
			return &OpError{Op: OpMkdir, Path: dir, Err: err}
		}
	}
	return nil
}

// EnsureConfigIndirection removes whatever exists at userFacingPath and
// replaces it with a symlink to generatedPath. The reset is unconditional:
// a stale link from a previous run is never trusted.
func (b *Bootstrapper) EnsureConfigIndirection(userFacingPath, generatedPath string) error {
	info, err := os.Lstat(userFacingPath)
	switch {
	case err == nil:
		if info.IsDir() {
			return &OpError{Op: OpUnlink, Path: userFacingPath, Err: ErrIsDirectory}
		}
		if err := os.Remove(userFacingPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &OpError{Op: OpUnlink, Path: userFacingPath, Err: err}
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return &OpError{Op: OpStat, Path: userFacingPath, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(userFacingPath), b.dirMode); err != nil {
		return &OpError{Op: OpMkdir, Path: filepath.Dir(userFacingPath), Err: err}
	}

	if err := os.Symlink(generatedPath, userFacingPath); err != nil {
		return &OpError{Op: OpSymlink, Path: userFacingPath, Err: err}
	}

	b.logger.Debug("config link reset", "link", userFacingPath, "target", generatedPath)
	return nil
}

// EnsureDefaultUserConfig writes contents to path only if nothing exists
// there yet. It reports whether the file was created. An existing file,
// including a symlink, is never modified.
func (b *Bootstrapper) EnsureDefaultUserConfig(path string, contents []byte) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		b.logger.Debug("user config present", "path", path)
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, &OpError{Op: OpStat, Path: path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), b.dirMode); err != nil {
		return false, &OpError{Op: OpMkdir, Path: filepath.Dir(path), Err: err}
	}

	// Atomic so a crash never leaves a truncated first-run config behind
	if err := renameio.WriteFile(path, contents, b.fileMode); err != nil {
		return false, &OpError{Op: OpWrite, Path: path, Err: err}
	}

	b.logger.Info("default user config created", "path", path)
	return true, nil
}
