//go:build !linux

package main

import (
	"fmt"

	"inkstream/internal/audiocap"
	"inkstream/internal/capture"
	"inkstream/internal/config"
	"inkstream/internal/session"
	"inkstream/internal/types"
	"inkstream/internal/videoenc"
)

// newVideoCapture falls back to the synthetic animated-gradient source on
// platforms without a real capture backend; inkstreamd's capture/encode
// pipeline is developed and tested this way off the target Linux host.
func newVideoCapture(cfg config.ServerConfig) func() types.VideoCapture {
	return func() types.VideoCapture { return capture.NewSyntheticCapture(1920, 1080) }
}

func newVideoEncoder() func() types.VideoEncoder {
	return func() types.VideoEncoder { return videoenc.NewHWEncoder() }
}

func newAudioCapture() func() (types.AudioCapture, error) {
	return func() (types.AudioCapture, error) { return audiocap.NewSyntheticCapture(), nil }
}

func newInputSinkFactory(cfg config.ServerConfig) func(screenW, screenH, tabletW, tabletH int) (session.InputSink, error) {
	return func(screenW, screenH, tabletW, tabletH int) (session.InputSink, error) {
		return nil, fmt.Errorf("inkstreamd: uinput input injection requires Linux")
	}
}
