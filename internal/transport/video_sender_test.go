package transport

import (
	"bytes"
	"math/rand"
	"testing"

	"inkstream/internal/wire"
)

func TestFragmentFrameCount(t *testing.T) {
	data := make([]byte, 3650)
	rand.New(rand.NewSource(1)).Read(data)

	frags, next := FragmentFrame(data, 7, 100, false)
	if len(frags) != 4 {
		t.Fatalf("fragment count = %d, want 4", len(frags))
	}
	if next != 104 {
		t.Fatalf("next sequence = %d, want 104", next)
	}
	if frags[0].Header.Flags&wire.FlagStartOfFrame == 0 {
		t.Fatal("fragment 0 missing FLAG_START_OF_FRAME")
	}
	if frags[3].Header.Flags&wire.FlagEndOfFrame == 0 {
		t.Fatal("fragment 3 missing FLAG_END_OF_FRAME")
	}
	for i, f := range frags {
		if f.Header.FrameNumber != 7 {
			t.Errorf("fragment %d frame_number = %d, want 7", i, f.Header.FrameNumber)
		}
		if int(f.Header.FragmentIdx) != i {
			t.Errorf("fragment %d fragment_idx = %d, want %d", i, f.Header.FragmentIdx, i)
		}
		if int(f.Header.FragmentCnt) != 4 {
			t.Errorf("fragment %d fragment_cnt = %d, want 4", i, f.Header.FragmentCnt)
		}
	}
}

func TestFragmentFrameRoundTrip(t *testing.T) {
	data := make([]byte, 5000)
	rand.New(rand.NewSource(2)).Read(data)

	frags, _ := FragmentFrame(data, 0, 0, true)

	var reassembled bytes.Buffer
	for i, f := range frags {
		if int(f.Header.FragmentIdx) != i {
			t.Fatalf("fragments out of order at %d", i)
		}
		if f.Header.Flags&wire.FlagKeyframe == 0 {
			t.Errorf("fragment %d missing FLAG_KEYFRAME", i)
		}
		reassembled.Write(f.Payload)
	}
	if !bytes.Equal(reassembled.Bytes(), data) {
		t.Fatal("reassembled payload does not match original")
	}
}

func TestFragmentFrameSequenceWraps(t *testing.T) {
	data := make([]byte, 10)
	frags, next := FragmentFrame(data, 0, 0xFFFF, false)
	if len(frags) != 1 {
		t.Fatalf("expected 1 fragment for 10 bytes, got %d", len(frags))
	}
	if frags[0].Header.Sequence != 0xFFFF {
		t.Fatalf("sequence = %d, want 0xFFFF", frags[0].Header.Sequence)
	}
	if next != 0 {
		t.Fatalf("next = %d, want 0 (wrapped)", next)
	}
}

func TestFragmentFrameEmptyData(t *testing.T) {
	frags, next := FragmentFrame(nil, 5, 10, false)
	if frags != nil {
		t.Fatalf("expected nil fragments for empty data, got %d", len(frags))
	}
	if next != 10 {
		t.Fatalf("next sequence should be unchanged, got %d", next)
	}
}
