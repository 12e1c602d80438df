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

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrWaitTimeout is returned when a polled condition does not hold before the deadline.
var ErrWaitTimeout = errors.New("wait timeout")

// Condition reports whether the awaited state has been reached.
type Condition func(ctx context.Context) (bool, error)

// Poller polls a condition with exponential backoff.
type Poller struct {
	initialInterval time.Duration
	maxInterval     time.Duration
	multiplier      float64
}

// NewPoller creates a poller with the default backoff: 100ms initial,
// 2x multiplier, 1s max interval.
func NewPoller() *Poller {
	return &Poller{
		initialInterval: 100 * time.Millisecond,
		maxInterval:     1 * time.Second,
		multiplier:      2.0,
	}
}

// WithBackoff configures custom backoff parameters.
func (p *Poller) WithBackoff(initial, max time.Duration, multiplier float64) *Poller {
	p.initialInterval = initial
	p.maxInterval = max
	p.multiplier = multiplier
	return p
}

// WaitFor evaluates cond until it returns true, returns an error, or timeout
// elapses. The condition is always evaluated at least once.
func (p *Poller) WaitFor(ctx context.Context, timeout time.Duration, cond Condition) error {
	return p.WaitForWithCallback(ctx, timeout, cond, nil)
}

// WaitForWithCallback is like WaitFor but calls callback after each unsuccessful
// attempt. This is useful for logging progress during startup.
func (p *Poller) WaitForWithCallback(ctx context.Context, timeout time.Duration, cond Condition, callback func(attempt int)) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	interval := p.initialInterval
	attempts := 0

	for {
		attempts++
		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if callback != nil {
			callback(attempts)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w after %d attempts (%v)", ErrWaitTimeout, attempts, timeout)
			}
			return ctx.Err()
		case <-timer.C:
		}

		interval = time.Duration(float64(interval) * p.multiplier)
		if interval > p.maxInterval {
			interval = p.maxInterval
		}
	}
}
