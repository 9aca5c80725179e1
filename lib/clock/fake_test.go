// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeNowAndAdvance(t *testing.T) {
	clock := Fake(epoch)
	if got := clock.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	clock.Advance(5 * time.Second)
	if got := Since(clock, epoch); got != 5*time.Second {
		t.Fatalf("Since(epoch) = %v, want 5s", got)
	}
}

func TestFakeAfter(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(3 * time.Second)

	clock.Advance(2 * time.Second)
	select {
	case <-channel:
		t.Fatal("After fired before its deadline")
	default:
	}

	clock.Advance(time.Second)
	select {
	case fired := <-channel:
		if want := epoch.Add(3 * time.Second); !fired.Equal(want) {
			t.Errorf("fired at %v, want %v", fired, want)
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}
	if clock.Pending() != 0 {
		t.Errorf("Pending() = %d after firing, want 0", clock.Pending())
	}
}

func TestFakeAfterNonPositive(t *testing.T) {
	clock := Fake(epoch)
	select {
	case <-clock.After(0):
	default:
		t.Fatal("After(0) should be ready immediately")
	}
}

func TestFakeTicker(t *testing.T) {
	clock := Fake(epoch)
	ticker := clock.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	for frame := 1; frame <= 3; frame++ {
		clock.Advance(16 * time.Millisecond)
		select {
		case <-ticker.C:
		default:
			t.Fatalf("frame %d: ticker did not fire", frame)
		}
	}

	ticker.Stop()
	clock.Advance(time.Second)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker fired")
	default:
	}

	ticker.Reset(10 * time.Millisecond)
	clock.Advance(10 * time.Millisecond)
	select {
	case <-ticker.C:
	default:
		t.Fatal("reset ticker did not fire")
	}
}

func TestFakeTickerPanicsOnZeroInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewTicker(0) did not panic")
		}
	}()
	Fake(epoch).NewTicker(0)
}

func TestFakeSleepBlocksUntilAdvance(t *testing.T) {
	clock := Fake(epoch)
	done := make(chan struct{})
	go func() {
		clock.Sleep(time.Second)
		close(done)
	}()

	clock.WaitForTimers(1)
	select {
	case <-done:
		t.Fatal("Sleep returned before Advance")
	default:
	}

	clock.Advance(time.Second)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Sleep did not return after Advance")
	}
}

func TestFakeAutoAdvance(t *testing.T) {
	clock := Fake(epoch)
	clock.SetAutoAdvance(true)

	clock.Sleep(time.Millisecond)
	clock.Sleep(3 * time.Millisecond)

	if got := Since(clock, epoch); got != 4*time.Millisecond {
		t.Fatalf("elapsed = %v, want 4ms", got)
	}
	if clock.Sleeps() != 2 {
		t.Fatalf("Sleeps() = %d, want 2", clock.Sleeps())
	}
}

func TestFakeNowStep(t *testing.T) {
	clock := Fake(epoch)
	clock.SetNowStep(time.Millisecond)

	first := clock.Now()
	second := clock.Now()
	if got := second.Sub(first); got != time.Millisecond {
		t.Fatalf("consecutive Now() differ by %v, want 1ms", got)
	}

	clock.SetNowStep(0)
	if a, b := clock.Now(), clock.Now(); !a.Equal(b) {
		t.Fatalf("Now() moved with stepping disabled: %v then %v", a, b)
	}
}
