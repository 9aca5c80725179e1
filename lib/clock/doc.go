// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used by the asset
// store, the frame host, and the load wait helper.
//
// Code that reads or waits on time takes a Clock instead of calling
// the time package. Real() is the production clock. Fake() is a manual
// clock for tests: time moves only through Advance, or through Sleep
// and Now when auto-advance is enabled.
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	fake.SetAutoAdvance(true)         // Sleep(d) moves time by d
//	fake.SetNowStep(time.Millisecond) // every Now() moves time by 1ms
//
// Auto-advance makes polling loops (sleep, check, sleep) deterministic
// without a second goroutine driving Advance. The now-step makes code
// that measures elapsed time, such as a pump time slice, observe time
// passing between two reads.
package clock
