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

package service

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/companionctl/internal/commands/shared"
)

// NewDebugCommand creates the debug command. Flag parsing is disabled so
// every argument after "debug" reaches the companion unchanged.
func NewDebugCommand(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "debug [args...]",
		Short: "Run the companion in the foreground",
		Long: `Stop any running companion, prepare the config files, then run the
companion attached to this terminal. Every argument after "debug" is passed
to the companion verbatim, after its config path.

companionctl exits with the companion's exit code. Interrupt and terminate
signals are forwarded to the companion.

Global flags must come before "debug".`,
		Example: `  # Run attached
  companionctl debug

  # Pass flags through to the companion
  companionctl debug --log-level DEBUG`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := factory(cmd)
			if err != nil {
				return err
			}

			if !shared.GetQuiet() && shared.IsTerminal(cmd.ErrOrStderr()) {
				styler := shared.NewStyler(shared.ColorEnabled(cmd.ErrOrStderr()))
				fmt.Fprintln(cmd.ErrOrStderr(), styler.Warn("running companion in the foreground; Ctrl-C stops it"))
			}

			code, err := ctl.Debug(cmd.Context(), args)
			if err != nil {
				return err
			}
			if code != shared.ExitSuccess {
				return shared.NewChildExitError(code)
			}
			return nil
		},
	}
}
