package wire

import (
	"bufio"
	"bytes"
	"testing"
)

func TestHeaderSizesExact(t *testing.T) {
	var vh VideoHeader
	buf := make([]byte, VideoHeaderSize)
	vh.Marshal(buf) // panics on short slice, proving VideoHeaderSize is exact
	if len(buf) != 16 {
		t.Fatalf("video header size = %d, want 16", len(buf))
	}

	var ah AudioHeader
	abuf := make([]byte, AudioHeaderSize)
	ah.Marshal(abuf)
	if len(abuf) != 12 {
		t.Fatalf("audio header size = %d, want 12", len(abuf))
	}

	ie := InputEvent{}
	if got := len(ie.Marshal()); got != 28 {
		t.Fatalf("input event size = %d, want 28", got)
	}
}

func TestVideoHeaderRoundTrip(t *testing.T) {
	h := VideoHeader{
		Magic:       VideoMagic,
		Sequence:    1234,
		FrameNumber: 5,
		Flags:       FlagStartOfFrame | FlagKeyframe,
		FragmentIdx: 2,
		FragmentCnt: 4,
		PayloadLen:  900,
	}
	buf := make([]byte, VideoHeaderSize)
	h.Marshal(buf)

	got, err := UnmarshalVideoHeader(buf)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestVideoHeaderBadMagic(t *testing.T) {
	buf := make([]byte, VideoHeaderSize)
	buf[0], buf[1] = 0xAB, 0xCD
	if _, err := UnmarshalVideoHeader(buf); err == nil {
		t.Fatal("expected error on bad magic")
	}
}

func TestAudioHeaderRoundTrip(t *testing.T) {
	h := AudioHeader{Magic: AudioMagic, Sequence: 7, Timestamp: 48000, PayloadLen: 160}
	buf := make([]byte, AudioHeaderSize)
	h.Marshal(buf)
	got, err := UnmarshalAudioHeader(buf)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestInputEventRoundTrip(t *testing.T) {
	e := InputEvent{
		Type: EventStylusMove, PointerID: 0,
		X: 0.5, Y: 0.25, Pressure: 0.8, TiltX: 0.1, TiltY: -0.2,
		Buttons: ButtonEraser, Timestamp: 123456,
	}
	buf := e.Marshal()
	got, err := UnmarshalInputEvent(buf)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != e {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, e)
	}
}

func TestControlMessageFraming(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("ping-payload")
	if err := WriteMessage(&buf, MsgPing, payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := bufio.NewReader(&buf)
	typ, got, err := ReadMessage(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != MsgPing {
		t.Fatalf("type = 0x%02x, want 0x%02x", typ, MsgPing)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload = %q, want %q", got, payload)
	}
}

func TestConfigRequestRoundTrip(t *testing.T) {
	want := ConfigRequest{ClientWidth: 1080, ClientHeight: 2340, VideoPort: 40001, InputPort: 40002}
	payload := make([]byte, ConfigRequestSize)
	payload[0], payload[1] = byte(want.ClientWidth>>8), byte(want.ClientWidth)
	payload[2], payload[3] = byte(want.ClientHeight>>8), byte(want.ClientHeight)
	payload[4], payload[5] = byte(want.VideoPort>>8), byte(want.VideoPort)
	payload[6], payload[7] = byte(want.InputPort>>8), byte(want.InputPort)

	got, err := UnmarshalConfigRequest(payload)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestConfigResponseMarshalSize(t *testing.T) {
	resp := ConfigResponse{
		ServerWidth: 1920, ServerHeight: 1080, VideoPort: 40001, InputPort: 40002,
		AudioPort: 40003, AudioSampleRate: 48000, AudioChannels: 2, AudioFrameMs: 20,
		CodecType: uint8(0),
	}
	buf := resp.Marshal()
	if len(buf) != ConfigResponseSize {
		t.Fatalf("config response size = %d, want %d", len(buf), ConfigResponseSize)
	}
}
