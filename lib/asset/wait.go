// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/bureau-foundation/assetpipe/lib/clock"
)

// ErrTimeout is returned by LoadAndWait when the asset did not reach a
// terminal state before the deadline.
var ErrTimeout = errors.New("asset: timed out waiting for load")

// LoadAndWait backoff: yields, then short sleeps, then long sleeps.
const (
	waitSpinIterations  = 32
	waitShortIterations = 128
	waitShortSleep      = time.Millisecond
	waitLongSleep       = 3 * time.Millisecond
)

// LoadAndWait loads key and blocks until it is Ready or Failed, or
// until timeout elapses on waitClock. pump is called once per
// iteration to apply completions; nil pumps the store directly with a
// budget of 8. It is meant for consumers, such as markup loaders, that
// need one asset synchronously; frame loops should poll State instead.
//
// A Failed asset returns an *Error carrying the failure message and
// kind. A zero or negative timeout checks the state once after one
// pump.
func LoadAndWait(store *Store, key Key, pump func(), timeout time.Duration, waitClock clock.Clock) (ID, error) {
	return LoadAndWaitContext(context.Background(), store, key, pump, timeout, waitClock)
}

// LoadAndWaitContext is LoadAndWait that also gives up when ctx is
// done, returning ctx's error wrapped.
func LoadAndWaitContext(ctx context.Context, store *Store, key Key, pump func(), timeout time.Duration, waitClock clock.Clock) (ID, error) {
	if waitClock == nil {
		waitClock = clock.Real()
	}
	if pump == nil {
		pump = func() { store.Pump(Steps(8)) }
	}

	id := store.Load(key)
	deadline := waitClock.Now().Add(timeout)

	for iteration := 0; ; iteration++ {
		pump()
		state := store.State(id)
		switch state.Status {
		case StatusReady:
			return id, nil
		case StatusFailed:
			return id, &Error{Kind: state.Kind, Message: state.Message}
		case StatusUnloaded:
			return id, &Error{
				Kind:    KindUnknown,
				Path:    key.LogicalPath,
				Message: "store rejected load of",
			}
		}

		if err := ctx.Err(); err != nil {
			return id, fmt.Errorf("waiting for %s: %w", key.LogicalPath, err)
		}
		if !waitClock.Now().Before(deadline) {
			return id, fmt.Errorf("%w: %s still loading after %s", ErrTimeout, key.LogicalPath, timeout)
		}

		switch {
		case iteration < waitSpinIterations:
			runtime.Gosched()
		case iteration < waitSpinIterations+waitShortIterations:
			waitClock.Sleep(waitShortSleep)
		default:
			waitClock.Sleep(waitLongSleep)
		}
	}
}
