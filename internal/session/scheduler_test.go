package session

import (
	"testing"
	"time"
)

func TestDeltaUs(t *testing.T) {
	if got := deltaUs(60); got != 16666 {
		t.Fatalf("deltaUs(60) = %d, want 16666", got)
	}
	if got := deltaUs(1); got != 1_000_000 {
		t.Fatalf("deltaUs(1) = %d, want 1000000", got)
	}
}

func TestNextDeadlineNormalAdvance(t *testing.T) {
	got := nextDeadline(1000, 500, 1100)
	if got != 1500 {
		t.Fatalf("got %d, want 1500", got)
	}
}

func TestNextDeadlineSnapsOnOverrun(t *testing.T) {
	// prevDeadline=1000, delta=500 -> naive next=1500, but now=3000 already
	// blew past it: must snap to now+delta, not accumulate backlog.
	got := nextDeadline(1000, 500, 3000)
	if got != 3500 {
		t.Fatalf("got %d, want 3500 (snapped)", got)
	}
}

func TestSleepForLargeRemainingHighFPS(t *testing.T) {
	d := sleepFor(4000, 120)
	if d != 2000*time.Microsecond {
		t.Fatalf("got %v, want 2ms", d)
	}
}

func TestSleepForLargeRemainingLowFPS(t *testing.T) {
	d := sleepFor(2000, 30)
	if d != 1000*time.Microsecond {
		t.Fatalf("got %v, want 1ms", d)
	}
}

func TestSleepForSmallRemaining(t *testing.T) {
	d := sleepFor(500, 30)
	if d != 50*time.Microsecond {
		t.Fatalf("got %v, want 50us", d)
	}
}

func TestSleepForImminentDeadlineBusyWaits(t *testing.T) {
	d := sleepFor(50, 30)
	if d != 0 {
		t.Fatalf("got %v, want 0 (busy-wait)", d)
	}
}

func TestAdaptiveFPSRampsDownAfterIdle(t *testing.T) {
	a := NewAdaptiveFPS(5, 60, 1000, 0)
	fps, kf := a.Observe(500_000, false)
	if fps != 60 || kf {
		t.Fatalf("mid-ramp-down-window got fps=%d kf=%v, want 60,false", fps, kf)
	}
	fps, kf = a.Observe(1_000_001, false)
	if fps != 5 || kf {
		t.Fatalf("past ramp-down window got fps=%d kf=%v, want 5,false", fps, kf)
	}
}

func TestAdaptiveFPSRampsUpOnChangeAndRequestsKeyframeOnce(t *testing.T) {
	a := NewAdaptiveFPS(5, 60, 1000, 0)
	a.Observe(1_000_001, false) // ramps down to 5

	fps, kf := a.Observe(2_000_000, true)
	if fps != 60 || !kf {
		t.Fatalf("got fps=%d kf=%v, want 60,true on ramp-up", fps, kf)
	}

	fps, kf = a.Observe(2_016_000, true)
	if fps != 60 || kf {
		t.Fatalf("got fps=%d kf=%v, want 60,false on second consecutive change", fps, kf)
	}
}

func TestAdaptiveFPSIdempotenceAtMinFPS(t *testing.T) {
	a := NewAdaptiveFPS(5, 60, 1000, 0)
	a.Observe(1_000_001, false)
	fps, kf := a.Observe(5_000_000, false)
	if fps != 5 || kf {
		t.Fatalf("got fps=%d kf=%v, want 5,false staying idle", fps, kf)
	}
}
