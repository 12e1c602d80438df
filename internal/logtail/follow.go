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

package logtail

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Follower copies data appended to a log file to a writer until its context
// is cancelled. It watches the parent directory so a log that is removed
// and recreated keeps being followed.
type Follower struct {
	path   string
	out    io.Writer
	offset int64
	logger *slog.Logger
}

// NewFollower creates a follower that starts copying at offset.
func NewFollower(path string, out io.Writer, offset int64) (*Follower, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	return &Follower{
		path:   absPath,
		out:    out,
		offset: offset,
		logger: slog.Default().With(slog.String("component", "logtail"), slog.String("path", absPath)),
	}, nil
}

// WithLogger sets the logger used for debug output.
func (f *Follower) WithLogger(logger *slog.Logger) *Follower {
	f.logger = logger.With(slog.String("path", f.path))
	return f
}

// Follow blocks, copying appended data, until ctx is done. A cancelled
// context is a normal return.
func (f *Follower) Follow(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(f.path), err)
	}

	// Catch anything written between the initial read and the watch
	if err := f.drain(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			switch {
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				f.logger.Debug("log file removed, waiting for recreation")
				f.offset = 0
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				if err := f.drain(); err != nil {
					return err
				}
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("log watcher error", "error", err)
		}
	}
}

// drain copies everything past the current offset. A file shorter than the
// offset was truncated and is read from the start.
func (f *Follower) drain() error {
	file, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat log: %w", err)
	}
	if info.Size() < f.offset {
		f.logger.Debug("log file truncated", "size", info.Size(), "offset", f.offset)
		f.offset = 0
	}

	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek log: %w", err)
	}
	n, err := io.Copy(f.out, file)
	f.offset += n
	if err != nil {
		return fmt.Errorf("copy log: %w", err)
	}
	return nil
}
