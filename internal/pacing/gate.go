package pacing

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Gate turns a resolved Params into a token-bucket burst limiter: burst
// capacity equals Params.BurstSize, refilling one token every
// Params.Delay/Params.BurstSize (BurstSize fragments per Delay). A
// VideoSender calls Wait before each fragment; fragments pass immediately
// while tokens remain, and once the bucket is empty each call blocks until
// the next token refills, without the sender ever holding a lock across
// the sleep.
type Gate struct {
	limiter *rate.Limiter
	paced   bool
}

// NewGate builds a Gate for one frame's resolved Params. If the frame
// doesn't cross the mode's pacing threshold, the returned Gate never
// blocks.
func NewGate(p Params, frameSize int) *Gate {
	if !p.ShouldPace(frameSize) {
		return &Gate{paced: false}
	}
	every := p.Delay
	if every <= 0 {
		every = time.Microsecond
	}
	// One token refills every Delay/BurstSize, not every Delay: the burst
	// must sustain BurstSize fragments per Delay, not collapse to 1 once
	// the initial burst drains.
	every /= time.Duration(p.BurstSize)
	if every <= 0 {
		every = time.Nanosecond
	}
	return &Gate{
		limiter: rate.NewLimiter(rate.Every(every), p.BurstSize),
		paced:   true,
	}
}

// Wait blocks until the gate has a token for one more fragment. It never
// blocks for an unpaced Gate.
func (g *Gate) Wait(ctx context.Context) error {
	if !g.paced {
		return nil
	}
	return g.limiter.WaitN(ctx, 1)
}
