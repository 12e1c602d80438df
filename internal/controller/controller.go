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

package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/tombee/companionctl/internal/bootstrap"
	"github.com/tombee/companionctl/internal/config"
	"github.com/tombee/companionctl/internal/lifecycle"
	internallog "github.com/tombee/companionctl/internal/log"
	"github.com/tombee/companionctl/internal/metadata"
	ctlerrors "github.com/tombee/companionctl/pkg/errors"
)

// ErrStartFailed is returned when the companion does not appear in the
// process table within the start timeout.
var ErrStartFailed = errors.New("failed to start")

// Spawner launches the companion process.
type Spawner interface {
	SpawnDetached(ctx context.Context, cmd lifecycle.Command, logPath string) (int, error)
	RunAttached(ctx context.Context, cmd lifecycle.Command) (int, error)
}

// Bootstrapper prepares the filesystem before launch.
type Bootstrapper interface {
	Ensure(plan bootstrap.Plan) error
}

// VersionReader extracts the companion version.
type VersionReader interface {
	Version(ctx context.Context) (string, error)
}

// Locker serializes start and debug across invocations.
type Locker interface {
	Lock(ctx context.Context, timeout time.Duration) error
	Unlock() error
	Holder() (int, error)
}

// Options injects the controller's collaborators. Nil fields get the
// OS-backed implementation.
type Options struct {
	Processes    lifecycle.ProcessTable
	Spawner      Spawner
	Bootstrapper Bootstrapper
	Metadata     VersionReader
	Lock         Locker
	Events       *lifecycle.LifecycleLogger
	Poller       *lifecycle.Poller
	Logger       *slog.Logger
}

// Controller runs lifecycle operations against one companion installation.
type Controller struct {
	cfg      *config.Config
	paths    config.Paths
	identity lifecycle.Identity

	processes    lifecycle.ProcessTable
	spawner      Spawner
	bootstrapper Bootstrapper
	metadata     VersionReader
	lock         Locker
	events       *lifecycle.LifecycleLogger
	poller       *lifecycle.Poller
	logger       *slog.Logger
}

// New creates a controller. It touches neither the filesystem nor the
// process table.
func New(cfg *config.Config, opts Options) (*Controller, error) {
	if cfg == nil {
		return nil, errors.New("controller: config is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = internallog.WithComponent(logger, "controller")

	c := &Controller{
		cfg:          cfg,
		paths:        cfg.Paths(),
		identity:     lifecycle.Identity(cfg.Identity),
		processes:    opts.Processes,
		spawner:      opts.Spawner,
		bootstrapper: opts.Bootstrapper,
		metadata:     opts.Metadata,
		lock:         opts.Lock,
		events:       opts.Events,
		poller:       opts.Poller,
		logger:       logger,
	}

	if c.processes == nil {
		c.processes = lifecycle.NewProcTable().WithLogger(internallog.WithComponent(logger, "lifecycle"))
	}
	if c.spawner == nil {
		c.spawner = lifecycle.NewSpawner()
	}
	if c.bootstrapper == nil {
		c.bootstrapper = bootstrap.New().WithLogger(internallog.WithComponent(logger, "bootstrap"))
	}
	if c.metadata == nil {
		reader, err := metadata.NewReader(c.paths.MetadataFile, cfg.Metadata.VersionQuery)
		if err != nil {
			return nil, &ctlerrors.ConfigError{Key: "metadata.version_query", Reason: "invalid query", Cause: err}
		}
		c.metadata = reader
	}
	if c.lock == nil {
		c.lock = lifecycle.NewFileLock(c.paths.LockFile)
	}
	if c.events == nil {
		c.events = lifecycle.NewLifecycleLogger(c.paths.LifecycleLog)
	}
	if c.poller == nil {
		c.poller = lifecycle.NewPoller()
	}

	return c, nil
}

// Paths returns the resolved installation layout.
func (c *Controller) Paths() config.Paths {
	return c.paths
}

// Status classifies the companion as STARTED or STOPPED.
func (c *Controller) Status(ctx context.Context) (Status, error) {
	set, err := c.processes.Locate(ctx, c.identity)
	if err != nil {
		return Status{}, err
	}
	return statusOf(set), nil
}

// Stop sends SIGTERM to every matching process and returns the signaled
// set. Nothing running is not an error.
func (c *Controller) Stop(ctx context.Context) (lifecycle.ProcessSet, error) {
	signaled, err := c.processes.Terminate(ctx, c.identity)
	if err != nil {
		return signaled, err
	}
	c.record(c.events.LogStop(signaled))
	if !signaled.Empty() {
		c.logger.Info("stopped companion", "pids", signaled.String())
	}
	return signaled, nil
}

// Start stops any running instance, prepares the filesystem, launches the
// companion in the background and waits for it to appear.
func (c *Controller) Start(ctx context.Context) (Status, error) {
	began := time.Now()
	cmd := c.command(nil)
	c.record(c.events.LogStart(cmd.Argv(), c.paths.ConfigLink))

	unlock, err := c.acquire(ctx)
	if err != nil {
		return Status{}, err
	}
	defer unlock()

	stale, err := c.prepare(ctx)
	if err != nil {
		c.record(c.events.LogStartFailure(err))
		return Status{}, err
	}

	pid, err := c.spawner.SpawnDetached(ctx, cmd, c.paths.LogFile)
	if err != nil {
		err = ctlerrors.Wrapf(err, "spawn %s", cmd.Path)
		c.record(c.events.LogStartFailure(err))
		return Status{}, err
	}
	c.logger.Debug("spawned companion", internallog.PIDKey, pid)

	set, err := c.awaitStarted(ctx, stale)
	if err != nil {
		c.record(c.events.LogStartFailure(err))
		return Status{}, err
	}

	c.record(c.events.LogStartSuccess(set, time.Since(began)))
	return statusOf(set), nil
}

// Debug prepares the filesystem like Start, then runs the companion in the
// foreground with args appended after the config path. It returns the
// child's exit code.
func (c *Controller) Debug(ctx context.Context, args []string) (int, error) {
	cmd := c.command(args)
	c.record(c.events.LogDebug(cmd.Argv(), c.paths.ConfigLink))

	if err := c.prepareLocked(ctx); err != nil {
		return 0, err
	}

	code, err := c.spawner.RunAttached(ctx, cmd)
	if err != nil {
		return code, ctlerrors.Wrapf(err, "run %s", cmd.Path)
	}
	c.record(c.events.LogDebugExit(code))
	return code, nil
}

// Version returns the companion version from the metadata file.
func (c *Controller) Version(ctx context.Context) (string, error) {
	return c.metadata.Version(ctx)
}

// prepareLocked runs prepare under the start lock and releases it before
// returning.
func (c *Controller) prepareLocked(ctx context.Context) error {
	unlock, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	_, err = c.prepare(ctx)
	return err
}

// prepare stops running instances and bootstraps the filesystem. It returns
// the PIDs that were signaled.
func (c *Controller) prepare(ctx context.Context) (lifecycle.ProcessSet, error) {
	stale, err := c.Stop(ctx)
	if err != nil {
		return nil, err
	}
	plan, err := c.plan()
	if err != nil {
		return stale, err
	}
	if err := c.bootstrapper.Ensure(plan); err != nil {
		return stale, ctlerrors.Wrap(err, "bootstrap")
	}
	return stale, nil
}

// awaitStarted polls until a process other than the stale ones matches.
func (c *Controller) awaitStarted(ctx context.Context, stale lifecycle.ProcessSet) (lifecycle.ProcessSet, error) {
	var fresh lifecycle.ProcessSet
	cond := func(ctx context.Context) (bool, error) {
		set, err := c.processes.Locate(ctx, c.identity)
		if err != nil {
			return false, err
		}
		fresh = withoutPIDs(set, stale)
		return !fresh.Empty(), nil
	}

	err := c.poller.WaitForWithCallback(ctx, c.cfg.StartTimeout, cond, func(attempt int) {
		c.logger.Debug("waiting for companion", "attempt", attempt)
	})
	if errors.Is(err, lifecycle.ErrWaitTimeout) {
		return nil, fmt.Errorf("%w: %w", ErrStartFailed, &ctlerrors.TimeoutError{
			Operation: "start",
			Duration:  c.cfg.StartTimeout,
			Cause:     err,
		})
	}
	if err != nil {
		return nil, err
	}
	return fresh, nil
}

// acquire takes the start lock and returns its release func.
func (c *Controller) acquire(ctx context.Context) (func(), error) {
	if err := c.lock.Lock(ctx, c.cfg.LockTimeout); err != nil {
		if errors.Is(err, lifecycle.ErrLocked) {
			holder, _ := c.lock.Holder()
			c.record(c.events.LogLockContention(holder, err))
		}
		return nil, err
	}
	return func() {
		if err := c.lock.Unlock(); err != nil {
			c.logger.Warn("failed to release start lock", internallog.Error(err))
		}
	}, nil
}

// plan builds the bootstrap plan from the configuration.
func (c *Controller) plan() (bootstrap.Plan, error) {
	contents, err := bootstrap.UserConfigTemplate{
		Section: c.cfg.UserConfig.Section,
		Key:     c.cfg.UserConfig.Key,
		Value:   c.cfg.UserConfig.MoonrakerURI,
	}.Render()
	if err != nil {
		return bootstrap.Plan{}, err
	}
	return bootstrap.Plan{
		Directories:        c.paths.Directories(),
		ConfigLink:         c.paths.ConfigLink,
		GeneratedConfig:    c.paths.GeneratedConfig,
		UserConfig:         c.paths.UserConfig,
		UserConfigContents: contents,
	}, nil
}

// command builds the companion command line: entrypoint, config path, then
// any extra arguments in order.
func (c *Controller) command(extra []string) lifecycle.Command {
	args := []string{c.paths.Entrypoint}
	if c.cfg.Launch.ConfigFlag != "" {
		args = append(args, c.cfg.Launch.ConfigFlag)
	}
	args = append(args, c.paths.ConfigLink)
	args = append(args, extra...)

	env := []string{c.cfg.Launch.LibraryPathVar + "=" + c.paths.LibraryDir}
	for _, k := range slices.Sorted(maps.Keys(c.cfg.Launch.Env)) {
		env = append(env, k+"="+c.cfg.Launch.Env[k])
	}

	return lifecycle.Command{
		Path: c.cfg.Launch.Interpreter,
		Args: args,
		Env:  env,
		Dir:  c.paths.Home,
	}
}

// record logs a failure to write a lifecycle event. The audit log never
// changes an operation's outcome.
func (c *Controller) record(err error) {
	if err != nil {
		c.logger.Warn("failed to write lifecycle event", internallog.Error(err))
	}
}

func withoutPIDs(set, exclude lifecycle.ProcessSet) lifecycle.ProcessSet {
	if exclude.Empty() {
		return set
	}
	var kept []int
	for _, pid := range set {
		if !exclude.Contains(pid) {
			kept = append(kept, pid)
		}
	}
	return lifecycle.NewProcessSet(kept...)
}
