// Package config defines the server's configuration record and wires the
// CLI surface onto it with pflag, the way a stdlib flag-based
// CLI is structured but generalized to the larger flag set this server
// needs (display hint, backend, codec, rate control, pacing, ports...).
package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"inkstream/internal/inputsink"
	"inkstream/internal/pacing"
	"inkstream/internal/types"
)

// CaptureBackend selects the screen-capture driver.
type CaptureBackend int

const (
	BackendAuto CaptureBackend = iota
	BackendX11
	BackendPipeWire
)

func (b CaptureBackend) String() string {
	switch b {
	case BackendX11:
		return "x11"
	case BackendPipeWire:
		return "pipewire"
	default:
		return "auto"
	}
}

// ServerConfig is the fully parsed, validated CLI surface.
type ServerConfig struct {
	DisplayHint string
	Backend     CaptureBackend

	CodecPreference types.CodecPreference
	FPS             int
	BitrateBps      int
	GOPSize         int
	RateControl     types.RateControl
	CQP             int
	PacingMode      pacing.Mode

	ControlPort int
	VideoPort   int
	InputPort   int
	AudioPort   int

	AudioEnabled   bool
	AudioBitrateBps int

	TabletMode    inputsink.Mode
	TabletRotate90 bool

	TLSCertFile string
	TLSKeyFile  string
	TLSCAFile   string

	Verbose bool
	Stats   bool
}

// Derived port offsets from the control port: audio/video/input derived
// as control+{3,1,2}.
const (
	videoPortOffset = 1
	inputPortOffset = 2
	audioPortOffset = 3
)

// Parse builds a ServerConfig from args (normally os.Args[1:]) using GNU-
// style long/short flags.
func Parse(args []string) (ServerConfig, error) {
	fs := pflag.NewFlagSet("inkstreamd", pflag.ContinueOnError)

	display := fs.StringP("display", "d", "", "X11/Wayland display hint (empty = environment default)")
	backend := fs.String("backend", "auto", "capture backend: auto|x11|pipewire")
	codec := fs.String("codec", "auto", "codec preference: auto|av1|hevc|h264")
	fps := fs.IntP("fps", "f", 60, "target capture/encode framerate (1-120)")
	bitrate := fs.Int("bitrate", 8_000_000, "video bitrate in bits/sec")
	gop := fs.Int("gop", 0, "GOP size in frames (0 = 2*fps)")
	quality := fs.String("quality", "cbr-balanced", "rate control mode: cbr-low-latency|cbr-balanced|cqp-high-quality|adaptive-cqp")
	cqp := fs.Int("cqp", 23, "constant QP value (1-51), used by CQP modes")
	pace := fs.String("pacing", "auto", "pacing mode: auto|none|light|aggressive|keyframe")
	controlPort := fs.IntP("control-port", "p", 9443, "control channel TCP port")
	audioOn := fs.Bool("audio", true, "enable system audio capture/streaming")
	audioBitrate := fs.Int("audio-bitrate", 96_000, "audio bitrate in bits/sec")
	certFile := fs.String("tls-cert", "", "TLS certificate PEM file (empty = generate self-signed)")
	keyFile := fs.String("tls-key", "", "TLS private key PEM file (required if -tls-cert is set)")
	caFile := fs.String("tls-ca", "", "CA bundle PEM file for mutual-TLS client verification (empty = no client auth)")
	verbose := fs.BoolP("verbose", "v", false, "debug logging flag (stored in the config; no log output is gated on it)")
	stats := fs.Bool("stats", false, "log periodic pipeline stats")
	tabletMode := fs.String("tablet-mode", "letterbox", "tablet-to-screen aspect mapping: letterbox|fill|stretch")
	rotate90 := fs.Bool("rotate90", false, "rotate tablet coordinates 90 degrees before mapping")

	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, err
	}

	cfg := ServerConfig{
		DisplayHint:     *display,
		FPS:             *fps,
		BitrateBps:      *bitrate,
		GOPSize:         *gop,
		CQP:             *cqp,
		ControlPort:     *controlPort,
		AudioEnabled:    *audioOn,
		AudioBitrateBps: *audioBitrate,
		TLSCertFile:     *certFile,
		TLSKeyFile:      *keyFile,
		TLSCAFile:       *caFile,
		Verbose:         *verbose,
		Stats:           *stats,
		TabletRotate90:  *rotate90,
	}
	cfg.VideoPort = cfg.ControlPort + videoPortOffset
	cfg.InputPort = cfg.ControlPort + inputPortOffset
	cfg.AudioPort = cfg.ControlPort + audioPortOffset

	var err error
	if cfg.Backend, err = parseBackend(*backend); err != nil {
		return ServerConfig{}, err
	}
	if cfg.CodecPreference, err = parseCodec(*codec); err != nil {
		return ServerConfig{}, err
	}
	if cfg.RateControl, err = parseRateControl(*quality); err != nil {
		return ServerConfig{}, err
	}
	if cfg.PacingMode, err = parsePacing(*pace); err != nil {
		return ServerConfig{}, err
	}
	if cfg.TabletMode, err = parseTabletMode(*tabletMode); err != nil {
		return ServerConfig{}, err
	}

	if cfg.FPS < 1 || cfg.FPS > 120 {
		return ServerConfig{}, fmt.Errorf("fps must be in [1,120], got %d", cfg.FPS)
	}
	if cfg.CQP < 1 || cfg.CQP > 51 {
		return ServerConfig{}, fmt.Errorf("cqp must be in [1,51], got %d", cfg.CQP)
	}
	if cfg.GOPSize <= 0 {
		cfg.GOPSize = cfg.FPS * 2
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return ServerConfig{}, fmt.Errorf("-tls-cert and -tls-key must be set together")
	}

	return cfg, nil
}

func parseBackend(s string) (CaptureBackend, error) {
	switch s {
	case "auto":
		return BackendAuto, nil
	case "x11":
		return BackendX11, nil
	case "pipewire":
		return BackendPipeWire, nil
	default:
		return 0, fmt.Errorf("unknown capture backend %q", s)
	}
}

func parseCodec(s string) (types.CodecPreference, error) {
	switch s {
	case "auto":
		return types.PreferAuto, nil
	case "av1":
		return types.PreferAV1, nil
	case "hevc":
		return types.PreferHEVC, nil
	case "h264":
		return types.PreferH264, nil
	default:
		return 0, fmt.Errorf("unknown codec preference %q", s)
	}
}

func parseRateControl(s string) (types.RateControl, error) {
	switch s {
	case "cbr-low-latency":
		return types.RateCBRLowLatency, nil
	case "cbr-balanced":
		return types.RateCBRBalanced, nil
	case "cqp-high-quality":
		return types.RateCQPHighQuality, nil
	case "adaptive-cqp":
		return types.RateAdaptiveCQP, nil
	default:
		return 0, fmt.Errorf("unknown rate control mode %q", s)
	}
}

func parseTabletMode(s string) (inputsink.Mode, error) {
	switch s {
	case "letterbox":
		return inputsink.ModeLetterbox, nil
	case "fill":
		return inputsink.ModeFill, nil
	case "stretch":
		return inputsink.ModeStretch, nil
	default:
		return 0, fmt.Errorf("unknown tablet mode %q", s)
	}
}

func parsePacing(s string) (pacing.Mode, error) {
	switch s {
	case "auto":
		return pacing.ModeAuto, nil
	case "none":
		return pacing.ModeNone, nil
	case "light":
		return pacing.ModeLight, nil
	case "aggressive":
		return pacing.ModeAggressive, nil
	case "keyframe":
		return pacing.ModeKeyframe, nil
	default:
		return 0, fmt.Errorf("unknown pacing mode %q", s)
	}
}
