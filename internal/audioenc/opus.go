// Package audioenc wraps github.com/hraban/opus behind the AudioEncoder
// contract, accumulating interleaved float32 samples across arbitrarily
// sized AudioPCM inputs until a full encoder-frame is available. Grounded
// on an Opus encoder wrapped around libopus, generalized
// to decouple accumulation from capture and to support variable input
// frame sizes.
package audioenc

import (
	"fmt"

	"github.com/hraban/opus"

	"inkstream/internal/types"
)

const complexityModerate = 5

// OpusEncoder buffers interleaved float32 PCM and emits one Opus packet
// per full frame_ms worth of samples.
type OpusEncoder struct {
	enc        *opus.Encoder
	sampleRate int
	channels   int
	frameMs    int
	frameSize  int // samples per channel per encoder frame

	buf          []float32
	bufStartUs   int64
	emittedInBuf int
	scratch      []byte
}

// NewOpusEncoder builds an encoder for the given sample rate/channel count
// and frame duration (20ms is the usual default). Discontinuous
// transmission is disabled, complexity is moderate, and inband FEC is off
// by default.
func NewOpusEncoder(sampleRate, channels, frameMs int) (*OpusEncoder, error) {
	enc, err := opus.NewEncoder(sampleRate, channels, opus.AppAudio)
	if err != nil {
		return nil, types.NewError(types.ErrResourceUnavailable, "audioenc.New", fmt.Errorf("opus encoder: %w", err))
	}
	if err := enc.SetDTX(false); err != nil {
		return nil, fmt.Errorf("opus SetDTX: %w", err)
	}
	if err := enc.SetComplexity(complexityModerate); err != nil {
		return nil, fmt.Errorf("opus SetComplexity: %w", err)
	}
	if err := enc.SetInBandFEC(false); err != nil {
		return nil, fmt.Errorf("opus SetInBandFEC: %w", err)
	}

	return &OpusEncoder{
		enc:        enc,
		sampleRate: sampleRate,
		channels:   channels,
		frameMs:    frameMs,
		frameSize:  sampleRate * frameMs / 1000,
		scratch:    make([]byte, 4000),
	}, nil
}

// Encode appends pcm to the internal buffer and emits zero or more
// complete Opus packets. The first emitted packet's timestamp is the
// timestamp of the first buffered sample; each subsequent packet advances
// by frame_ms*1000 microseconds.
func (e *OpusEncoder) Encode(pcm types.AudioPCM) ([]types.EncodedAudio, error) {
	if pcm.Channels != 0 && pcm.Channels != e.channels {
		return nil, types.NewError(types.ErrEncode, "audioenc.Encode", fmt.Errorf("channel count mismatch: got %d, want %d", pcm.Channels, e.channels))
	}
	if len(e.buf) == 0 {
		e.bufStartUs = pcm.TimestampUs
	}
	e.buf = append(e.buf, pcm.Samples...)

	samplesPerFrame := e.frameSize * e.channels
	var out []types.EncodedAudio

	for len(e.buf) >= samplesPerFrame {
		frame := e.buf[:samplesPerFrame]
		n, err := e.enc.EncodeFloat32(frame, e.scratch)
		if err != nil {
			return out, types.NewError(types.ErrEncode, "audioenc.Encode", err)
		}

		data := make([]byte, n)
		copy(data, e.scratch[:n])

		out = append(out, types.EncodedAudio{
			Data:           data,
			TimestampUs:    e.bufStartUs + int64(e.emittedInBuf)*int64(e.frameMs)*1000,
			SamplesPerChan: e.frameSize,
		})
		e.emittedInBuf++

		e.buf = e.buf[samplesPerFrame:]
	}

	if len(e.buf) == 0 {
		e.emittedInBuf = 0
	}
	return out, nil
}

func (e *OpusEncoder) Close() {}
