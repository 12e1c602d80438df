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

package controller

import (
	"fmt"

	"github.com/tombee/companionctl/internal/lifecycle"
)

// State is the coarse lifecycle state of the companion.
type State int

const (
	// StateStopped means no process matches the identity.
	StateStopped State = iota
	// StateStarted means one or more processes match the identity.
	StateStarted
)

// String returns the upper-case state name.
func (s State) String() string {
	switch s {
	case StateStarted:
		return "STARTED"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText renders the state name for JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is one classification of the process table.
type Status struct {
	State State                `json:"state"`
	PIDs  lifecycle.ProcessSet `json:"pids"`
}

// statusOf classifies a snapshot.
func statusOf(set lifecycle.ProcessSet) Status {
	if set.Empty() {
		return Status{State: StateStopped, PIDs: lifecycle.ProcessSet{}}
	}
	return Status{State: StateStarted, PIDs: set}
}
