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

package config

import "path/filepath"

// Paths holds the absolute locations of every file the controller manages.
type Paths struct {
	Home            string
	LogDir          string
	LogFile         string
	LifecycleLog    string
	GeneratedDir    string
	GeneratedConfig string
	ConfigLink      string
	UserConfig      string
	LockFile        string
	MetadataFile    string
	LibraryDir      string
	Entrypoint      string
}

// Paths resolves the layout against Home.
func (c *Config) Paths() Paths {
	return Paths{
		Home:            c.Home,
		LogDir:          c.resolve(c.Layout.LogDir),
		LogFile:         c.resolve(c.Layout.LogFile),
		LifecycleLog:    c.resolve(c.Layout.LifecycleLog),
		GeneratedDir:    c.resolve(c.Layout.GeneratedDir),
		GeneratedConfig: c.resolve(c.Layout.GeneratedConfig),
		ConfigLink:      c.resolve(c.Layout.ConfigLink),
		UserConfig:      c.resolve(c.Layout.UserConfig),
		LockFile:        c.resolve(c.Layout.LockFile),
		MetadataFile:    c.resolve(c.Metadata.File),
		LibraryDir:      c.resolve(c.Launch.LibraryDir),
		Entrypoint:      c.resolve(c.Launch.Entrypoint),
	}
}

// Directories returns the directories bootstrap must create.
func (p Paths) Directories() []string {
	return []string{p.Home, p.LogDir, p.GeneratedDir}
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Home, path)
}
