package session

import (
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"inkstream/internal/config"
	"inkstream/internal/control"
	"inkstream/internal/inputrecv"
	"inkstream/internal/transport"
	"inkstream/internal/types"
	"inkstream/internal/wire"
)

const (
	audioSampleRate = 48000
	audioChannels   = 2
	audioFrameMs    = 20
	statsInterval   = 5 * time.Second
)

// InputSink is the subset of inputsink.Sink the session controller needs;
// declared locally so this package doesn't import the cgo-tagged
// inputsink backend directly. Exported so cmd/inkstreamd's per-platform
// factories can name it when wiring the real uinput-backed sink.
type InputSink interface {
	Dispatch(ev wire.InputEvent) error
	Reset() error
	Shutdown()
}

// Factories supplies the collaborator constructors the bind cycle wires
// together. Tests substitute synthetic/in-memory implementations; the
// real binary wires the hardware-backed ones from cmd/inkstreamd.
type Factories struct {
	NewVideoCapture func() types.VideoCapture
	NewVideoEncoder func() types.VideoEncoder
	NewAudioCapture func() (types.AudioCapture, error)
	NewAudioEncoder func(sampleRate, channels, frameMs int) (types.AudioEncoder, error)
	NewInputSink    func(screenW, screenH, tabletW, tabletH int) (InputSink, error)
}

// Server is the single-client session orchestrator: it owns the
// listeners, binds one client at a time, and drives the frame scheduler
// for the duration of that binding.
type Server struct {
	cfg       config.ServerConfig
	tlsConfig *tls.Config
	factories Factories

	control     *control.ControlServer
	inputRecv   *inputrecv.InputReceiver
	videoSender *transport.VideoSender
	audioSender *transport.AudioSender

	stopping atomic.Bool
	state    atomic.Int32
}

func New(cfg config.ServerConfig, tlsConfig *tls.Config, factories Factories) *Server {
	s := &Server{cfg: cfg, tlsConfig: tlsConfig, factories: factories}
	s.state.Store(int32(types.StateIdle))
	return s
}

// Stop requests the accept loop and any in-progress scheduler loop to
// return at their next observation point. Safe to call from a signal
// handler goroutine.
func (s *Server) Stop() { s.stopping.Store(true) }

func (s *Server) stopped() bool { return s.stopping.Load() }

// State reports the current session lifecycle state.
func (s *Server) State() types.SessionState { return types.SessionState(s.state.Load()) }

func (s *Server) setState(st types.SessionState) { s.state.Store(int32(st)) }

// Run opens every listener and repeatedly binds one client at a time
// until Stop is called, at which point the listeners are closed and Run
// returns.
func (s *Server) Run() error {
	cs, err := control.New(s.cfg.ControlPort, s.tlsConfig)
	if err != nil {
		return err
	}
	defer cs.Shutdown()
	s.control = cs

	ir, err := inputrecv.New(s.cfg.InputPort)
	if err != nil {
		return err
	}
	defer ir.Shutdown()
	s.inputRecv = ir

	vs, err := transport.NewVideoSender(s.cfg.VideoPort, s.cfg.PacingMode)
	if err != nil {
		return err
	}
	defer vs.Close()
	s.videoSender = vs

	if s.cfg.AudioEnabled {
		as, err := transport.NewAudioSender(s.cfg.AudioPort)
		if err != nil {
			return err
		}
		defer as.Close()
		s.audioSender = as
	}

	log.Printf("inkstreamd: listening control=%d video=%d input=%d audio=%d",
		s.cfg.ControlPort, s.cfg.VideoPort, s.cfg.InputPort, s.cfg.AudioPort)

	for !s.stopped() {
		s.setState(types.StateListening)
		if err := s.bindAndStream(); err != nil && !s.stopped() {
			log.Printf("session: %v", err)
		}
	}
	return nil
}

// bindAndStream performs one full bind cycle: accept, negotiate, stream
// until disconnect or Stop, then tear down and return to Listening.
func (s *Server) bindAndStream() error {
	req, remoteAddr, err := s.control.AcceptClient()
	if err != nil {
		if s.stopped() {
			return nil
		}
		return fmt.Errorf("accept: %w", err)
	}
	s.setState(types.StateNegotiating)
	sessionID := uuid.New().String()

	clientIP, err := clientIPFromAddr(remoteAddr)
	if err != nil {
		s.control.Reset()
		return fmt.Errorf("session %s: %w", sessionID, err)
	}

	capture := s.factories.NewVideoCapture()
	width, height, err := capture.Init(s.cfg.DisplayHint)
	if err != nil {
		s.control.Reset()
		return fmt.Errorf("session %s: capture init: %w", sessionID, err)
	}

	encoder := s.factories.NewVideoEncoder()
	if err := encoder.Init(types.EncoderConfig{
		Width: width, Height: height, Framerate: s.cfg.FPS,
		BitrateBps: s.cfg.BitrateBps, GOPSize: s.cfg.GOPSize,
		RateControl: s.cfg.RateControl, CQP: s.cfg.CQP, CodecPreference: s.cfg.CodecPreference,
	}); err != nil {
		capture.Shutdown()
		s.control.Reset()
		return fmt.Errorf("session %s: encoder init: %w", sessionID, err)
	}

	sink, err := s.factories.NewInputSink(width, height, int(req.ClientWidth), int(req.ClientHeight))
	if err != nil {
		encoder.Close()
		capture.Shutdown()
		s.control.Reset()
		return fmt.Errorf("session %s: input sink init: %w", sessionID, err)
	}

	audioCap, audioEnc := s.startAudio(sessionID)

	videoPort := int(req.VideoPort)
	s.videoSender.SetClient(&net.UDPAddr{IP: clientIP, Port: videoPort})
	audioPortAdvertised := 0
	if s.audioSender != nil {
		// The wire handshake carries only one client-side media port;
		// audio and video packets share it and are demultiplexed by the
		// magic number in their respective headers.
		s.audioSender.SetClient(&net.UDPAddr{IP: clientIP, Port: videoPort})
		audioPortAdvertised = s.cfg.AudioPort
	}

	resp := wire.ConfigResponse{
		ServerWidth: uint16(width), ServerHeight: uint16(height),
		VideoPort: uint16(videoPort), InputPort: req.InputPort,
		AudioPort: uint16(audioPortAdvertised), AudioSampleRate: audioSampleRate,
		AudioChannels: audioChannels, AudioFrameMs: audioFrameMs,
		CodecType: uint8(encoder.ActualCodec()),
	}
	if err := s.control.SendConfigResponse(resp); err != nil {
		s.teardownBind(capture, encoder, sink, audioCap, audioEnc)
		return fmt.Errorf("session %s: send config response: %w", sessionID, err)
	}

	encoder.RequestKeyframe()
	s.setState(types.StateStreaming)
	log.Printf("session %s: streaming to %s (%dx%d -> %dx%d, codec=%s)",
		sessionID, remoteAddr, req.ClientWidth, req.ClientHeight, width, height, encoder.ActualCodec())

	loopErr := s.schedulerLoop(sessionID, capture, encoder, sink)
	s.teardownBind(capture, encoder, sink, audioCap, audioEnc)
	return loopErr
}

func (s *Server) teardownBind(capture types.VideoCapture, encoder types.VideoEncoder, sink InputSink, audioCap types.AudioCapture, audioEnc types.AudioEncoder) {
	s.setState(types.StateDisconnecting)
	if audioCap != nil {
		audioCap.Stop()
	}
	if audioEnc != nil {
		audioEnc.Close()
	}
	if sink != nil {
		if err := sink.Reset(); err != nil {
			log.Printf("session: input sink reset: %v", err)
		}
		sink.Shutdown()
	}
	encoder.Close()
	capture.Shutdown()
	s.control.Reset()
	s.inputRecv.Reset()
	s.videoSender.SetClient(nil)
	if s.audioSender != nil {
		s.audioSender.SetClient(nil)
	}
}

// startAudio launches the audio capture/encode pipeline. A failure here is
// non-fatal: the session streams video-only, matching the
// "continuing without audio" behavior.
func (s *Server) startAudio(sessionID string) (types.AudioCapture, types.AudioEncoder) {
	if !s.cfg.AudioEnabled {
		return nil, nil
	}

	audioCap, err := s.factories.NewAudioCapture()
	if err != nil {
		log.Printf("session %s: audio capture unavailable, continuing without audio: %v", sessionID, err)
		return nil, nil
	}
	audioEnc, err := s.factories.NewAudioEncoder(audioSampleRate, audioChannels, audioFrameMs)
	if err != nil {
		log.Printf("session %s: audio encoder unavailable, continuing without audio: %v", sessionID, err)
		return nil, nil
	}

	var mu sync.Mutex
	if err := audioCap.Start(audioSampleRate, audioChannels, func(pcm types.AudioPCM) {
		mu.Lock()
		defer mu.Unlock()
		packets, err := audioEnc.Encode(pcm)
		if err != nil {
			log.Printf("session %s: audio encode: %v", sessionID, err)
			return
		}
		for _, pkt := range packets {
			ts := uint32(pkt.TimestampUs * audioSampleRate / 1_000_000)
			if err := s.audioSender.Send(pkt, ts); err != nil {
				log.Printf("session %s: audio send: %v", sessionID, err)
			}
		}
	}); err != nil {
		log.Printf("session %s: audio capture start failed, continuing without audio: %v", sessionID, err)
		return nil, nil
	}

	return audioCap, audioEnc
}

// schedulerLoop drives capture→encode→send at the tick deadline described
// by spec: non-blocking control poll, non-blocking input drain, a capture/
// encode/send phase gated on the deadline, then a tiered sleep. Returns
// nil on a clean client-initiated disconnect, or the error that ended the
// session otherwise.
func (s *Server) schedulerLoop(sessionID string, capture types.VideoCapture, encoder types.VideoEncoder, sink InputSink) error {
	const rampDownMs = 1000

	fps := s.cfg.FPS
	var adaptive *AdaptiveFPS
	if capture.PendingChangeCount() != -1 {
		minFPS := max(1, s.cfg.FPS/6)
		adaptive = NewAdaptiveFPS(minFPS, s.cfg.FPS, rampDownMs, time.Now().UnixMicro())
	}

	delta := deltaUs(fps)
	tNext := time.Now().UnixMicro() + delta

	var loopCount, grabFails, encodeFails, sendFails int
	var inputBound bool
	lastStats := time.Now()

	for !s.stopped() {
		ev, err := s.control.Poll()
		if err != nil {
			return fmt.Errorf("session %s: control: %w", sessionID, err)
		}
		switch ev {
		case control.EventKeyframeRequest:
			encoder.RequestKeyframe()
		case control.EventDisconnect:
			return nil
		}

		if !inputBound {
			ok, err := s.inputRecv.TryAccept()
			if err != nil {
				log.Printf("session %s: input accept: %v", sessionID, err)
			}
			inputBound = ok
		}
		events, err := s.inputRecv.DrainEvents()
		if err != nil {
			log.Printf("session %s: input receiver: %v", sessionID, err)
			s.inputRecv.Reset()
			inputBound = false
		}
		for _, iev := range events {
			if err := sink.Dispatch(iev); err != nil {
				log.Printf("session %s: input dispatch: %v", sessionID, err)
			}
		}

		now := time.Now().UnixMicro()
		if now >= tNext {
			loopCount++
			changed := true

			frame, err := capture.CaptureFrame()
			if err != nil {
				grabFails++
			} else {
				if adaptive != nil {
					changed = capture.PendingChangeCount() != 0
				}
				encoded, err := encoder.Encode(frame)
				if err != nil {
					encodeFails++
				} else if encoded != nil {
					if err := s.videoSender.Send(*encoded); err != nil {
						sendFails++
					}
				}
			}

			if adaptive != nil {
				newFPS, requestKeyframe := adaptive.Observe(now, changed)
				if newFPS != fps {
					fps = newFPS
					delta = deltaUs(fps)
				}
				if requestKeyframe {
					encoder.RequestKeyframe()
				}
			}

			tNext = nextDeadline(tNext, delta, now)

			if s.cfg.Stats && time.Since(lastStats) >= statsInterval {
				log.Printf("session %s: pipeline loops=%d grabFail=%d encFail=%d sendFail=%d fps=%d",
					sessionID, loopCount, grabFails, encodeFails, sendFails, fps)
				loopCount, grabFails, encodeFails, sendFails = 0, 0, 0, 0
				lastStats = time.Now()
			}
		}

		remaining := tNext - time.Now().UnixMicro()
		if d := sleepFor(remaining, fps); d > 0 {
			time.Sleep(d)
		}
	}
	return nil
}

func clientIPFromAddr(addr net.Addr) (net.IP, error) {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil, fmt.Errorf("split remote addr %q: %w", addr.String(), err)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return nil, fmt.Errorf("unparseable remote IP %q", host)
	}
	return ip, nil
}
