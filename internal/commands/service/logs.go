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
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tombee/companionctl/internal/commands/shared"
	internallog "github.com/tombee/companionctl/internal/log"
	"github.com/tombee/companionctl/internal/logtail"
)

// NewLogsCommand creates the logs command.
func NewLogsCommand(factory Factory) *cobra.Command {
	var (
		follow bool
		lines  int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the companion log",
		Long: `Print the last lines of the companion's output log. With --follow, keep
printing new output until interrupted.`,
		Example: `  # Last 50 lines
  companionctl logs -n 50

  # Follow new output
  companionctl logs -f`,
		Args: shared.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lines < 0 {
				return shared.NewUsageError("--lines must not be negative")
			}

			ctl, err := factory(cmd)
			if err != nil {
				return err
			}
			path := ctl.Paths().LogFile
			out := cmd.OutOrStdout()

			tail, offset, err := logtail.Last(path, lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}

			if !follow {
				return nil
			}
			follower, err := logtail.NewFollower(path, out, offset)
			if err != nil {
				return err
			}
			// the factory has installed the configured logger by now
			follower = follower.WithLogger(internallog.WithComponent(slog.Default(), "logtail"))
			return follower.Follow(cmd.Context())
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "Number of trailing lines to print")

	return cmd
}
