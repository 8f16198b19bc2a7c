//go:build linux

package main

import (
	"inkstream/internal/audiocap"
	"inkstream/internal/capture"
	"inkstream/internal/config"
	"inkstream/internal/inputsink"
	"inkstream/internal/session"
	"inkstream/internal/types"
	"inkstream/internal/videoenc"
)

// newVideoCapture selects the real X11/XShm backend on Linux; the
// synthetic fallback for other platforms lives in factories_other.go.
func newVideoCapture(cfg config.ServerConfig) func() types.VideoCapture {
	switch cfg.Backend {
	case config.BackendPipeWire:
		// PipeWire screen capture is not yet wired; fall through to X11.
		fallthrough
	default:
		return func() types.VideoCapture { return capture.NewX11Capture() }
	}
}

func newVideoEncoder() func() types.VideoEncoder {
	return func() types.VideoEncoder { return videoenc.NewHWEncoder() }
}

func newAudioCapture() func() (types.AudioCapture, error) {
	return func() (types.AudioCapture, error) { return audiocap.NewPulseCapture() }
}

func newInputSinkFactory(cfg config.ServerConfig) func(screenW, screenH, tabletW, tabletH int) (session.InputSink, error) {
	return func(screenW, screenH, tabletW, tabletH int) (session.InputSink, error) {
		return inputsink.NewUInputBackedSink(screenW, screenH, tabletW, tabletH, cfg.TabletMode, cfg.TabletRotate90)
	}
}
