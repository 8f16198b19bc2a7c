// Command inkstreamd is the remote-tablet streaming appliance server: it
// captures the local desktop and system audio, streams both over UDP to a
// single negotiated client, and injects that client's stylus/touch events
// as synthetic input devices.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"inkstream/internal/audioenc"
	"inkstream/internal/certs"
	"inkstream/internal/config"
	"inkstream/internal/session"
	"inkstream/internal/types"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("inkstreamd: %v", err)
	}

	tlsConfig, err := certs.Load(cfg.TLSCertFile, cfg.TLSKeyFile, cfg.TLSCAFile)
	if err != nil {
		log.Fatalf("inkstreamd: %v", err)
	}

	factories := session.Factories{
		NewVideoCapture: newVideoCapture(cfg),
		NewVideoEncoder: newVideoEncoder(),
		NewAudioCapture: newAudioCapture(),
		NewAudioEncoder: func(sampleRate, channels, frameMs int) (types.AudioEncoder, error) {
			return audioenc.NewOpusEncoder(sampleRate, channels, frameMs)
		},
		NewInputSink: newInputSinkFactory(cfg),
	}

	srv := session.New(cfg, tlsConfig, factories)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("inkstreamd: received %s, shutting down", sig)
		srv.Stop()
	}()

	log.Printf("inkstreamd: starting (fps=%d bitrate=%d codec=%v pacing=%v audio=%v)",
		cfg.FPS, cfg.BitrateBps, cfg.CodecPreference, cfg.PacingMode, cfg.AudioEnabled)

	if err := srv.Run(); err != nil {
		log.Fatalf("inkstreamd: %v", err)
	}
}
