package audioenc

import (
	"testing"

	"inkstream/internal/types"
)

func TestOpusEncoderAccumulatesAndEmitsTimestamps(t *testing.T) {
	enc, err := NewOpusEncoder(48000, 2, 20)
	if err != nil {
		t.Skipf("libopus unavailable in this environment: %v", err)
	}
	defer enc.Close()

	frameSize := 48000 * 20 / 1000 // 960 samples/channel
	samplesPerFrame := frameSize * 2

	// Feed 1.5 frames worth in one call, then the remaining half in a
	// second call; expect exactly one packet from the first call and one
	// from the second, with timestamps 20ms apart.
	first := make([]float32, samplesPerFrame+samplesPerFrame/2)
	pkts, err := enc.Encode(types.AudioPCM{Samples: first, Channels: 2, TimestampUs: 1_000_000})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(pkts) != 1 {
		t.Fatalf("got %d packets, want 1", len(pkts))
	}
	if pkts[0].TimestampUs != 1_000_000 {
		t.Fatalf("first packet timestamp = %d, want 1000000", pkts[0].TimestampUs)
	}
	if pkts[0].SamplesPerChan != frameSize {
		t.Fatalf("samples_per_chan = %d, want %d", pkts[0].SamplesPerChan, frameSize)
	}

	second := make([]float32, samplesPerFrame/2)
	pkts, err = enc.Encode(types.AudioPCM{Samples: second, Channels: 2, TimestampUs: 1_020_000})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(pkts) != 1 {
		t.Fatalf("got %d packets on second call, want 1", len(pkts))
	}
}

func TestOpusEncoderRejectsChannelMismatch(t *testing.T) {
	enc, err := NewOpusEncoder(48000, 2, 20)
	if err != nil {
		t.Skipf("libopus unavailable in this environment: %v", err)
	}
	defer enc.Close()

	_, err = enc.Encode(types.AudioPCM{Samples: make([]float32, 10), Channels: 1, TimestampUs: 0})
	if err == nil {
		t.Fatal("expected error for channel count mismatch")
	}
}
