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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPoller() *Poller {
	return NewPoller().WithBackoff(5*time.Millisecond, 20*time.Millisecond, 2.0)
}

func TestPoller_WaitFor(t *testing.T) {
	ctx := context.Background()

	t.Run("returns immediately when condition holds", func(t *testing.T) {
		calls := 0
		err := fastPoller().WaitFor(ctx, time.Second, func(context.Context) (bool, error) {
			calls++
			return true, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("polls until condition holds", func(t *testing.T) {
		calls := 0
		err := fastPoller().WaitFor(ctx, time.Second, func(context.Context) (bool, error) {
			calls++
			return calls >= 3, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("times out", func(t *testing.T) {
		start := time.Now()
		err := fastPoller().WaitFor(ctx, 60*time.Millisecond, func(context.Context) (bool, error) {
			return false, nil
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrWaitTimeout)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("stops on condition error", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := fastPoller().WaitFor(ctx, time.Second, func(context.Context) (bool, error) {
			calls++
			return false, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("honors parent cancellation", func(t *testing.T) {
		parent, cancel := context.WithCancel(ctx)
		cancel()
		err := fastPoller().WaitFor(parent, time.Second, func(context.Context) (bool, error) {
			return false, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("invokes callback per failed attempt", func(t *testing.T) {
		var attempts []int
		calls := 0
		err := fastPoller().WaitForWithCallback(ctx, time.Second, func(context.Context) (bool, error) {
			calls++
			return calls == 3, nil
		}, func(attempt int) {
			attempts = append(attempts, attempt)
		})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, attempts)
	})
}
