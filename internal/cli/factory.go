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
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/companionctl/internal/commands/service"
	"github.com/tombee/companionctl/internal/commands/shared"
	"github.com/tombee/companionctl/internal/config"
	"github.com/tombee/companionctl/internal/controller"
	"github.com/tombee/companionctl/internal/lifecycle"
	internallog "github.com/tombee/companionctl/internal/log"
)

// DefaultFactory loads the configuration and builds the OS-backed
// controller for cmd.
func DefaultFactory(cmd *cobra.Command) (service.Lifecycle, error) {
	cfg, err := config.Load(config.ResolvePath(shared.GetConfigPath()))
	if err != nil {
		return nil, err
	}

	paths := cfg.Paths()
	events := lifecycle.NewLifecycleLogger(paths.LifecycleLog)

	logger := newLogger(cfg, cmd.ErrOrStderr())
	slog.SetDefault(logger)
	logger = internallog.WithInvocation(logger, events.InvocationID(), cmd.Name())

	spawner := lifecycle.NewSpawner()
	spawner.Stdin = cmd.InOrStdin()
	spawner.Stdout = cmd.OutOrStdout()
	spawner.Stderr = cmd.ErrOrStderr()

	ctl, err := controller.New(cfg, controller.Options{
		Spawner: spawner,
		Events:  events,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("controller ready",
		slog.String("home", paths.Home),
		slog.String(internallog.IdentityKey, cfg.Identity))
	return ctl, nil
}

// newLogger layers the logging settings: the config file, then the
// environment, then --verbose.
func newLogger(cfg *config.Config, out io.Writer) *slog.Logger {
	logCfg := internallog.FromEnv()
	if !levelFromEnv() && cfg.Log.Level != "" {
		logCfg.Level = cfg.Log.Level
	}
	if os.Getenv("LOG_FORMAT") == "" && cfg.Log.Format != "" {
		logCfg.Format = internallog.Format(cfg.Log.Format)
	}
	if shared.GetVerbose() {
		logCfg.Level = "debug"
	}
	logCfg.Output = out
	return internallog.New(logCfg)
}

func levelFromEnv() bool {
	for _, key := range []string{"COMPANIONCTL_DEBUG", "COMPANIONCTL_LOG_LEVEL", "LOG_LEVEL"} {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}
