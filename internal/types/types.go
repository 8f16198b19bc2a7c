// Package types holds the shared contracts between the capture, encode,
// transport, input and session packages: the frame/packet data model, the
// session state machine, and the closed error-kind taxonomy.
package types

import "fmt"

// RawFrame is a BGRA8 frame handed from a VideoCapture to a VideoEncoder.
// Data may be an owned copy or may alias capturer-owned memory valid only
// until the next CaptureFrame call; a consumer that needs to retain a frame
// past that point must copy it.
type RawFrame struct {
	Data        []byte
	Width       int
	Height      int
	Stride      int
	TimestampUs int64
}

// EncodedVideo is one complete access unit produced by a VideoEncoder.
type EncodedVideo struct {
	Data        []byte
	IsKeyframe  bool
	TimestampUs int64
	FrameNumber uint32
}

// AudioPCM is a borrowed block of interleaved float32 samples. Its lifetime
// ends when the capture callback that produced it returns.
type AudioPCM struct {
	Samples        []float32
	SamplesPerChan int
	Channels       int
	TimestampUs    int64
}

// EncodedAudio is one Opus packet.
type EncodedAudio struct {
	Data           []byte
	TimestampUs    int64
	SamplesPerChan int
}

// Codec identifies the negotiated video codec, matching the wire's
// codec_type byte.
type Codec uint8

const (
	CodecAV1  Codec = 0
	CodecHEVC Codec = 1
	CodecH264 Codec = 2
)

func (c Codec) String() string {
	switch c {
	case CodecAV1:
		return "av1"
	case CodecHEVC:
		return "hevc"
	case CodecH264:
		return "h264"
	default:
		return "unknown"
	}
}

// RateControl selects the encoder's bitrate/quality regime.
type RateControl int

const (
	RateCBRLowLatency RateControl = iota
	RateCBRBalanced
	RateCQPHighQuality
	RateAdaptiveCQP
)

// CodecPreference is the user-facing knob the probe-and-select algorithm
// consumes; PreferAuto lets the encoder pick the best available combo.
type CodecPreference int

const (
	PreferAuto CodecPreference = iota
	PreferAV1
	PreferHEVC
	PreferH264
)

// EncoderConfig is the configuration record passed to VideoEncoder.Init.
type EncoderConfig struct {
	Width           int
	Height          int
	Framerate       int
	BitrateBps      int
	GOPSize         int
	RateControl     RateControl
	CQP             int
	CodecPreference CodecPreference
}

// TouchSlot tracks one of the five multi-touch tracking slots.
type TouchSlot struct {
	Active     bool
	TrackingID int
}

// SessionState is the single-client session lifecycle.
type SessionState int

const (
	StateIdle SessionState = iota
	StateListening
	StateNegotiating
	StateStreaming
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateNegotiating:
		return "negotiating"
	case StateStreaming:
		return "streaming"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// ErrorKind is the closed taxonomy from the error-handling design.
type ErrorKind int

const (
	ErrConfig ErrorKind = iota
	ErrResourceUnavailable
	ErrTransport
	ErrProtocol
	ErrCapture
	ErrEncode
	ErrDecode
	ErrPeerGone
	ErrFatal
)

func (k ErrorKind) String() string {
	switch k {
	case ErrConfig:
		return "config"
	case ErrResourceUnavailable:
		return "resource_unavailable"
	case ErrTransport:
		return "transport"
	case ErrProtocol:
		return "protocol"
	case ErrCapture:
		return "capture"
	case ErrEncode:
		return "encode"
	case ErrDecode:
		return "decode"
	case ErrPeerGone:
		return "peer_gone"
	case ErrFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error carries an ErrorKind alongside the usual wrapped cause, so callers
// can branch with errors.As instead of string matching.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an *Error, wrapping a possibly-nil cause.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// ErrWouldBlock is returned by non-blocking read paths (capture, sockets) to
// mean "nothing to do this tick", distinct from a real failure.
var ErrWouldBlock = fmt.Errorf("would block")

// VideoCapture is the pluggable screen-capture collaborator.
type VideoCapture interface {
	// Init opens the capture source and reports its native dimensions.
	Init(displayHint string) (width, height int, err error)
	// CaptureFrame returns the next frame, ErrWouldBlock if none is ready
	// yet, or an error. The returned frame's Data is valid only until the
	// next call.
	CaptureFrame() (RawFrame, error)
	// PendingChangeCount reports outstanding damage if the source tracks
	// it, or -1 if unsupported.
	PendingChangeCount() int
	Shutdown()
}

// VideoEncoder is the pluggable hardware/software video encoder.
type VideoEncoder interface {
	Init(cfg EncoderConfig) error
	// Encode may buffer one frame internally; a nil *EncodedVideo with a
	// nil error means "need more input".
	Encode(frame RawFrame) (*EncodedVideo, error)
	RequestKeyframe()
	ActualCodec() Codec
	Close()
}

// AudioCapture is the pluggable system-audio capture collaborator. It
// drives fn from its own capture thread with borrowed samples; fn must not
// block.
type AudioCapture interface {
	Start(sampleRate, channels int, fn func(AudioPCM)) error
	Stop()
}

// AudioEncoder is the pluggable Opus encoder.
type AudioEncoder interface {
	Encode(pcm AudioPCM) ([]EncodedAudio, error)
	Close()
}

// InputSink is the synthetic-input-device collaborator.
type InputSink interface {
	Shutdown()
}
