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
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tombee/companionctl/internal/commands/service"
	"github.com/tombee/companionctl/internal/commands/shared"
	versioncmd "github.com/tombee/companionctl/internal/commands/version"
)

// Usage is the one-line synopsis printed for unrecognized input.
const Usage = "usage: companionctl [flags] {status|start|stop|restart|debug|logs|version}"

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}

// NewRootCommand creates the root Cobra command for companionctl. factory is
// called by a subcommand only after its arguments were accepted.
func NewRootCommand(factory service.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "companionctl",
		Short: "companionctl - companion service lifecycle control",
		Long: `companionctl supervises the companion application installed on this
machine. It reports whether the companion is running, starts it in the
background, stops it, runs it attached for debugging, and reports its
installed version.

Run 'companionctl status' to check the companion.
Run 'companionctl debug --help' to pass --help to the companion itself.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return shared.NewUsageError(Usage)
			}
			return shared.NewUsageError(fmt.Sprintf("unknown command %q; %s", args[0], Usage))
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	shared.BindGlobalFlags(cmd.PersistentFlags())

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return shared.NewUsageError(err.Error())
	})

	cmd.AddCommand(service.NewCommands(factory)...)
	cmd.AddCommand(versioncmd.NewVersionCommand(func(c *cobra.Command) (versioncmd.Source, error) {
		ctl, err := factory(c)
		if err != nil {
			return nil, err
		}
		return ctl, nil
	}))

	return cmd
}

// Execute runs root with args.
func Execute(ctx context.Context, root *cobra.Command, args []string) error {
	if args == nil {
		// cobra falls back to os.Args for nil
		args = []string{}
	}
	root.SetArgs(hoistDebugFlags(root, args))
	return root.ExecuteContext(ctx)
}

// hoistDebugFlags parses global flags given before "debug" and drops them
// from args. debug disables flag parsing, so cobra would otherwise hand
// them to the companion.
func hoistDebugFlags(root *cobra.Command, args []string) []string {
	for i, arg := range args {
		if arg != "debug" {
			continue
		}
		if i == 0 {
			return args
		}

		flags := pflag.NewFlagSet(root.Name(), pflag.ContinueOnError)
		flags.SetOutput(io.Discard)
		flags.AddFlagSet(root.PersistentFlags())
		if err := flags.Parse(args[:i]); err != nil {
			// "debug" may be the value of a flag; keep looking
			continue
		}
		if flags.NArg() > 0 {
			return args
		}
		return append([]string{"debug"}, args[i+1:]...)
	}
	return args
}
