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

// Package service implements the companion lifecycle commands.
package service

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tombee/companionctl/internal/config"
	"github.com/tombee/companionctl/internal/controller"
	"github.com/tombee/companionctl/internal/lifecycle"
)

// Lifecycle is the controller surface the commands drive.
type Lifecycle interface {
	Status(ctx context.Context) (controller.Status, error)
	Start(ctx context.Context) (controller.Status, error)
	Stop(ctx context.Context) (lifecycle.ProcessSet, error)
	Debug(ctx context.Context, args []string) (int, error)
	Version(ctx context.Context) (string, error)
	Paths() config.Paths
}

// Factory builds the controller. Commands call it only after their
// arguments are accepted, so a rejected invocation has no side effects.
type Factory func(cmd *cobra.Command) (Lifecycle, error)

// NewCommands returns every lifecycle command.
func NewCommands(factory Factory) []*cobra.Command {
	return []*cobra.Command{
		NewStatusCommand(factory),
		NewStartCommand(factory),
		NewStopCommand(factory),
		NewDebugCommand(factory),
		NewLogsCommand(factory),
	}
}
