// Package session implements the Server orchestrator: SessionState
// machine, bind cycle, and the capture→encode→send frame scheduler with
// its adaptive-FPS controller. Grounded on
// original_source/server/src/server.cpp's run()/capture_and_encode_loop()
// and a pipeline loop grounded on the same structure.
package session

import "time"

// deltaUs returns the tick interval for fps, in microseconds.
func deltaUs(fps int) int64 {
	if fps <= 0 {
		fps = 1
	}
	return 1_000_000 / int64(fps)
}

// nextDeadline advances prevDeadline by delta, snapping forward to now+delta
// if the previous deadline has already passed by more than one tick — "drop,
// don't burn" per the scheduler loop contract.
func nextDeadline(prevDeadline, delta, now int64) int64 {
	next := prevDeadline + delta
	if now > next {
		next = now + delta
	}
	return next
}

// sleepFor implements the tiered sleep strategy: sleep half the remaining
// time when there's enough of it to be worth a scheduler handoff, a short
// fixed sleep when there's a little, and busy-wait (return 0) when the
// deadline is imminent.
func sleepFor(remainingUs int64, fps int) time.Duration {
	threshold := int64(1000)
	if fps > 90 {
		threshold = 2000
	}
	switch {
	case remainingUs > threshold:
		return time.Duration(remainingUs/2) * time.Microsecond
	case remainingUs > 100:
		return 50 * time.Microsecond
	default:
		return 0
	}
}

// AdaptiveFPS ramps the target framerate between minFPS (idle) and maxFPS
// (active) based on a per-tick "did anything change" signal, requesting a
// keyframe exactly once on every ramp-up transition. It takes explicit
// timestamps rather than calling time.Now() so the ramp logic is
// deterministically testable.
type AdaptiveFPS struct {
	minFPS, maxFPS int
	rampDownUs     int64

	target       int
	lastChangeUs int64
}

// NewAdaptiveFPS builds a controller starting at maxFPS, as if a change had
// just been observed at startUs.
func NewAdaptiveFPS(minFPS, maxFPS int, rampDownMs int64, startUs int64) *AdaptiveFPS {
	if minFPS < 1 {
		minFPS = 1
	}
	if maxFPS < minFPS {
		maxFPS = minFPS
	}
	return &AdaptiveFPS{
		minFPS:       minFPS,
		maxFPS:       maxFPS,
		rampDownUs:   rampDownMs * 1000,
		target:       maxFPS,
		lastChangeUs: startUs,
	}
}

// Observe advances the controller by one tick and returns the fps to use
// for computing this tick's delta, and whether a keyframe should now be
// requested (true exactly on a min→max ramp-up transition).
func (a *AdaptiveFPS) Observe(nowUs int64, changed bool) (fps int, requestKeyframe bool) {
	if changed {
		a.lastChangeUs = nowUs
		if a.target != a.maxFPS {
			a.target = a.maxFPS
			return a.target, true
		}
		return a.target, false
	}
	if nowUs-a.lastChangeUs >= a.rampDownUs {
		a.target = a.minFPS
	}
	return a.target, false
}
