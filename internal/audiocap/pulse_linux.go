//go:build linux

// Package audiocap implements the AudioCapture collaborator: PipeWire's
// PulseAudio-compatible monitor-source capture, kept separate from Opus
// encoding (that is internal/audioenc's job) so AudioCapture only ever
// hands out raw interleaved float32 PCM.
package audiocap

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"

	"inkstream/internal/types"
)

// pcmWriter implements pulse.Writer, converting the S16LE bytes PipeWire's
// Pulse-compatible server delivers into interleaved float32 samples and
// forwarding them to fn on arrival. The callback runs on the capture
// library's own goroutine and must not block, matching the design's
// "audio capture thread" contract.
type pcmWriter struct {
	mu       sync.Mutex
	channels int
	fn       func(types.AudioPCM)
}

func (p *pcmWriter) Write(data []byte) (int, error) {
	n := len(data) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		samples[i] = float32(s) / 32768.0
	}

	p.mu.Lock()
	fn := p.fn
	channels := p.channels
	p.mu.Unlock()
	if fn == nil || channels == 0 {
		return len(data), nil
	}

	fn(types.AudioPCM{
		Samples:        samples,
		SamplesPerChan: n / channels,
		Channels:       channels,
		TimestampUs:    time.Now().UnixMicro(),
	})
	return len(data), nil
}

func (p *pcmWriter) Format() byte { return proto.FormatInt16LE }

// PulseCapture captures the default sink's monitor source.
type PulseCapture struct {
	client *pulse.Client
	stream *pulse.RecordStream
	writer *pcmWriter
}

func NewPulseCapture() (*PulseCapture, error) {
	client, err := pulse.NewClient(pulse.ClientApplicationName("inkstreamd"))
	if err != nil {
		return nil, types.NewError(types.ErrResourceUnavailable, "audiocap.New", fmt.Errorf("pulse connect: %w", err))
	}
	return &PulseCapture{client: client}, nil
}

func (ac *PulseCapture) Start(sampleRate, channels int, fn func(types.AudioPCM)) error {
	sink, err := ac.client.DefaultSink()
	if err != nil {
		return types.NewError(types.ErrResourceUnavailable, "audiocap.Start", fmt.Errorf("default sink: %w", err))
	}

	ac.writer = &pcmWriter{channels: channels, fn: fn}

	stream, err := ac.client.NewRecord(
		ac.writer,
		pulse.RecordMonitor(sink),
		pulse.RecordStereo,
		pulse.RecordSampleRate(sampleRate),
	)
	if err != nil {
		return types.NewError(types.ErrResourceUnavailable, "audiocap.Start", fmt.Errorf("new record: %w", err))
	}
	ac.stream = stream
	stream.Start()

	log.Printf("audio capture: monitoring default sink at %d Hz / %d ch", sampleRate, channels)
	return nil
}

func (ac *PulseCapture) Stop() {
	if ac.stream != nil {
		ac.stream.Stop()
		ac.stream = nil
	}
	if ac.client != nil {
		ac.client.Close()
	}
}
