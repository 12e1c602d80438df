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
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/companionctl/internal/commands/shared"
	"github.com/tombee/companionctl/internal/controller"
)

// NewStartCommand creates the start command. restart is an alias since
// start always stops a running instance first.
func NewStartCommand(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:     "start",
		Aliases: []string{"restart"},
		Short:   "Start the companion in the background",
		Long: `Stop any running companion, prepare the config files, then launch a new
instance in the background with output appended to the companion log.

Start waits up to start_timeout for the companion to appear in the process
table and fails otherwise. Files created before a failure are kept;
running start again is safe.`,
		Example: `  # Start or restart the companion
  companionctl start

  # Allow a slow device more time
  COMPANIONCTL_START_TIMEOUT=30s companionctl start`,
		Args: shared.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := factory(cmd)
			if err != nil {
				return err
			}

			spinner := shared.NewSpinner(cmd.ErrOrStderr())
			if !shared.GetQuiet() && !shared.GetJSON() {
				spinner.Start("Starting companion")
			}
			status, err := ctl.Start(cmd.Context())
			elapsed := spinner.Stop()
			if errors.Is(err, controller.ErrStartFailed) {
				return shared.NewFailureError("companion not running after start", err)
			}
			if err != nil {
				return err
			}

			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), StatusResponse{
					JSONResponse: shared.NewJSONResponse("start"),
					State:        status.State.String(),
					PIDs:         status.PIDs,
				})
			}
			if !shared.GetQuiet() {
				out := cmd.OutOrStdout()
				styler := shared.NewStyler(shared.ColorEnabled(out))
				fmt.Fprintln(out, styler.OK(fmt.Sprintf("companion started (pid %s) %s",
					status.PIDs, styler.Label("in "+elapsed.Round(100*time.Millisecond).String()))))
			}
			return nil
		},
	}
}
