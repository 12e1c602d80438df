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

// StopResponse is the JSON output of stop.
type StopResponse struct {
	shared.JSONResponse
	Signaled []int `json:"signaled"`
}

// NewStopCommand creates the stop command.
func NewStopCommand(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the companion",
		Long: `Send SIGTERM to every process matching the configured identity.

Stop does not wait for the processes to exit. Nothing running is not an error.`,
		Args: shared.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctl, err := factory(cmd)
			if err != nil {
				return err
			}

			signaled, err := ctl.Stop(cmd.Context())
			if err != nil {
				return err
			}

			if shared.GetJSON() {
				pids := []int(signaled)
				if pids == nil {
					pids = []int{}
				}
				return shared.EmitJSON(cmd.OutOrStdout(), StopResponse{
					JSONResponse: shared.NewJSONResponse("stop"),
					Signaled:     pids,
				})
			}
			if shared.GetQuiet() {
				return nil
			}

			out := cmd.OutOrStdout()
			styler := shared.NewStyler(shared.ColorEnabled(out))
			if signaled.Empty() {
				fmt.Fprintln(out, styler.Label("companion not running"))
				return nil
			}
			fmt.Fprintln(out, styler.OK(fmt.Sprintf("sent SIGTERM to %s", signaled)))
			return nil
		},
	}
}
