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

import (
	"github.com/charmbracelet/lipgloss"
)

// CLI style colors using lipgloss
var (
	// StatusOK styles success indicators
	StatusOK = lipgloss.NewStyle().Foreground(lipgloss.Color("42")) // green

	// StatusWarn styles warning indicators
	StatusWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // orange

	// StatusError styles error indicators
	StatusError = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red

	// Muted styles secondary/less important text
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray

	// Bold styles emphasized text
	Bold = lipgloss.NewStyle().Bold(true)
)

// Symbols for status indicators
const (
	SymbolOK    = "✓"
	SymbolWarn  = "⚠"
	SymbolError = "✗"
)

// Styler renders text with color only when the destination supports it.
type Styler struct {
	color bool
}

// NewStyler creates a Styler. With color false every method returns plain text.
func NewStyler(color bool) Styler {
	return Styler{color: color}
}

func (s Styler) render(style lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return style.Render(text)
}

// OK renders a success message with a green checkmark
func (s Styler) OK(msg string) string {
	return s.render(StatusOK, SymbolOK) + " " + msg
}

// Warn renders a warning message with an orange symbol
func (s Styler) Warn(msg string) string {
	return s.render(StatusWarn, SymbolWarn) + " " + msg
}

// Error renders an error message with a red X
func (s Styler) Error(msg string) string {
	return s.render(StatusError, SymbolError) + " " + msg
}

// Label renders a dim label (for key: value pairs)
func (s Styler) Label(label string) string {
	return s.render(Muted, label)
}

// State renders a lifecycle state name, green when started.
func (s Styler) State(name string, running bool) string {
	if running {
		return s.render(StatusOK.Bold(true), name)
	}
	return s.render(Muted.Bold(true), name)
}
