package audiocap

import (
	"time"

	"inkstream/internal/types"
)

// SyntheticCapture generates a deterministic sine-free ramp PCM stream on
// a ticker, for tests and platforms without PulseAudio/PipeWire.
type SyntheticCapture struct {
	stop   chan struct{}
	ticker *time.Ticker
}

func NewSyntheticCapture() *SyntheticCapture { return &SyntheticCapture{} }

func (s *SyntheticCapture) Start(sampleRate, channels int, fn func(types.AudioPCM)) error {
	samplesPerTick := sampleRate / 50 // 20ms worth
	s.stop = make(chan struct{})
	s.ticker = time.NewTicker(20 * time.Millisecond)

	go func() {
		var phase int16
		for {
			select {
			case <-s.stop:
				return
			case <-s.ticker.C:
				samples := make([]float32, samplesPerTick*channels)
				for i := range samples {
					phase++
					samples[i] = float32(phase%1000) / 1000.0
				}
				fn(types.AudioPCM{
					Samples:        samples,
					SamplesPerChan: samplesPerTick,
					Channels:       channels,
					TimestampUs:    time.Now().UnixMicro(),
				})
			}
		}
	}()
	return nil
}

func (s *SyntheticCapture) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	if s.stop != nil {
		close(s.stop)
	}
}
