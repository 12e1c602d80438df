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
	"github.com/tombee/companionctl/internal/controller"
)

// StatusResponse is the JSON output of status.
type StatusResponse struct {
	shared.JSONResponse
	State string `json:"state"`
	PIDs  []int  `json:"pids"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the companion is running",
		Long: `Report STARTED with the matching process IDs, or STOPPED when no process
matches the configured identity.

Status is read-only and exits 0 whenever the process table could be read.`,
		Example: `  # Check the companion
  companionctl status

  # Extract the PIDs
  companionctl status --json | jq -r '.pids[]'`,
		Args: shared.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := factory(cmd)
			if err != nil {
				return err
			}

			status, err := ctl.Status(cmd.Context())
			if err != nil {
				return err
			}

			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), StatusResponse{
					JSONResponse: shared.NewJSONResponse("status"),
					State:        status.State.String(),
					PIDs:         status.PIDs,
				})
			}

			out := cmd.OutOrStdout()
			styler := shared.NewStyler(shared.ColorEnabled(out))
			running := status.State == controller.StateStarted
			if running {
				fmt.Fprintf(out, "%s %s\n", styler.State(status.State.String(), true), status.PIDs)
				return nil
			}
			fmt.Fprintln(out, styler.State(status.State.String(), false))
			return nil
		},
	}
}
