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

package shared

import "github.com/spf13/pflag"

// DefaultConfigHint is shown in --config usage.
const DefaultConfigHint = "~/.config/companionctl/config.yaml"

// globalFlags holds the values of the persistent flags every command sees.
type globalFlags struct {
	verbose bool
	quiet   bool
	json    bool
	config  string
}

// BuildInfo identifies the companionctl binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

var (
	flags globalFlags
	build = BuildInfo{Version: "dev", Commit: "unknown", BuildDate: "unknown"}
)

// BindGlobalFlags registers --verbose, --quiet, --json and --config on fs.
// The root command binds its persistent flag set; tests bind their own.
func BindGlobalFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output")
	fs.BoolVarP(&flags.quiet, "quiet", "q", false, "Suppress non-error output")
	fs.BoolVar(&flags.json, "json", false, "Output in JSON format")
	fs.StringVar(&flags.config, "config", "", "Path to config file (default: "+DefaultConfigHint+")")
}

// ResetFlags clears parsed values so the root command can run again.
func ResetFlags() {
	flags = globalFlags{}
}

// SetVersion records build information stamped in by the linker.
func SetVersion(v, c, b string) {
	build = BuildInfo{Version: v, Commit: c, BuildDate: b}
}

// Build returns companionctl's own build information.
func Build() BuildInfo {
	return build
}

func GetVerbose() bool { return flags.verbose }

func GetQuiet() bool { return flags.quiet }

func GetJSON() bool { return flags.json }

// GetConfigPath returns --config, empty when the default location applies.
func GetConfigPath() string { return flags.config }
