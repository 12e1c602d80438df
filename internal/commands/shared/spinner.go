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
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 100 * time.Millisecond

// Spinner shows progress while start waits for the companion to appear.
// On a terminal it redraws one line with the elapsed time; elsewhere it
// prints the message once.
type Spinner struct {
	out    io.Writer
	isTTY  bool
	styler Styler

	mu      sync.Mutex
	message string
	began   time.Time
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewSpinner creates a spinner writing to out.
func NewSpinner(out io.Writer) *Spinner {
	return &Spinner{
		out:    out,
		isTTY:  IsTerminal(out),
		styler: NewStyler(ColorEnabled(out)),
	}
}

// Start shows message. Calling Start on a running spinner does nothing.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}

	s.message = message
	s.began = time.Now()
	s.stop = make(chan struct{})

	if !s.isTTY {
		fmt.Fprintln(s.out, message)
		return
	}

	s.draw(0)
	s.wg.Add(1)
	go s.run(s.stop)
}

// Stop clears the spinner line and returns the time since Start. A spinner
// that was never started reports zero.
func (s *Spinner) Stop() time.Duration {
	s.mu.Lock()
	if s.stop == nil {
		s.mu.Unlock()
		return 0
	}
	elapsed := time.Since(s.began)
	close(s.stop)
	s.stop = nil
	s.mu.Unlock()

	s.wg.Wait()
	if s.isTTY {
		fmt.Fprint(s.out, "\r\033[K")
	}
	return elapsed
}

func (s *Spinner) run(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for frame := 1; ; frame++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.stop != nil {
				s.draw(frame)
			}
			s.mu.Unlock()
		}
	}
}

// draw must be called with mu held.
func (s *Spinner) draw(frame int) {
	glyph := "..."
	if s.styler.color {
		glyph = spinnerFrames[frame%len(spinnerFrames)]
	}
	fmt.Fprintf(s.out, "\r\033[K%s %s %s",
		s.message,
		s.styler.Label(glyph),
		s.styler.Label("("+formatElapsed(time.Since(s.began))+")"))
}

// formatElapsed formats a duration for display (e.g., "12s", "1m 23s")
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
