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

package version

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/companionctl/internal/commands/shared"
)

// Source reports the companion's installed version.
type Source interface {
	Version(ctx context.Context) (string, error)
}

// Factory builds the Source once the command's arguments are accepted.
type Factory func(cmd *cobra.Command) (Source, error)

// VersionInfo is the JSON output of version.
type VersionInfo struct {
	shared.JSONResponse
	Companion    string           `json:"companion"`
	CompanionCtl shared.BuildInfo `json:"companionctl"`
}

// NewVersionCommand creates the version command
func NewVersionCommand(factory Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the companion version",
		Long: `Print the version recorded in the companion's metadata file.

With --json the companionctl build information is included as well.`,
		Args: shared.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd, factory)
		},
	}

	return cmd
}

func runVersion(cmd *cobra.Command, factory Factory) error {
	source, err := factory(cmd)
	if err != nil {
		return err
	}

	companion, err := source.Version(cmd.Context())
	if err != nil {
		return err
	}

	if shared.GetJSON() {
		return shared.EmitJSON(cmd.OutOrStdout(), VersionInfo{
			JSONResponse: shared.NewJSONResponse("version"),
			Companion:    companion,
			CompanionCtl: shared.Build(),
		})
	}

	fmt.Fprintln(cmd.OutOrStdout(), companion)
	return nil
}
