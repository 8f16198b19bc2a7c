// Package pacing resolves the VideoSender's burst-pacing policy: which of
// the five named modes applies, and the resulting (burst size, inter-burst
// delay) for a given frame. Grounded on
// original_source/server/src/network/video_sender.cpp's detect_pacing_mode
// and its per-mode threshold table.
package pacing

import (
	"net"
	"time"
)

// Mode is one of the five pacing policies from the design.
type Mode int

const (
	ModeAuto Mode = iota
	ModeNone
	ModeLight
	ModeAggressive
	ModeKeyframe
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeNone:
		return "none"
	case ModeLight:
		return "light"
	case ModeAggressive:
		return "aggressive"
	case ModeKeyframe:
		return "keyframe"
	default:
		return "unknown"
	}
}

// Params is the resolved (threshold, burst, delay) triple a VideoSender
// applies to one frame's fragments.
type Params struct {
	// ThresholdBytes: pacing only engages when the frame size exceeds this
	// (NONE effectively never paces: threshold is unreachable).
	ThresholdBytes int
	BurstSize      int
	Delay          time.Duration
}

// DetectFromIP implements AUTO mode's client-IP classification: RFC1918
//10.0.0.0/8 and the two documented 192.168.42/43.0/24 hotspot ranges pace
// AGGRESSIVE (assumed tethered/cellular uplink), everything else LIGHT
// (assumed local Wi-Fi).
func DetectFromIP(ip net.IP) Mode {
	ip4 := ip.To4()
	if ip4 == nil {
		return ModeLight
	}
	if ip4[0] == 10 {
		return ModeAggressive
	}
	if ip4[0] == 192 && ip4[1] == 168 && (ip4[2] == 42 || ip4[2] == 43) {
		return ModeAggressive
	}
	return ModeLight
}

// Resolve returns the pacing parameters for one frame. clientIP is only
// consulted when mode is ModeAuto. frameSize and isKeyframe select the
// KEYFRAME sub-policy's size tiers.
func Resolve(mode Mode, clientIP net.IP, frameSize int, isKeyframe bool) Params {
	switch mode {
	case ModeNone:
		return Params{ThresholdBytes: 1_000_000_000, BurstSize: 0, Delay: 0}
	case ModeLight:
		return Params{ThresholdBytes: 50_000, BurstSize: 20, Delay: 50 * time.Microsecond}
	case ModeAggressive:
		return Params{ThresholdBytes: 2_400, BurstSize: 4, Delay: 200 * time.Microsecond}
	case ModeKeyframe:
		return keyframeParams(frameSize, isKeyframe)
	case ModeAuto:
		resolved := DetectFromIP(clientIP)
		return Resolve(resolved, clientIP, frameSize, isKeyframe)
	default:
		return Resolve(ModeLight, clientIP, frameSize, isKeyframe)
	}
}

// keyframeParams implements the KEYFRAME mode's size-tiered sub-policy: a
// non-keyframe, or a keyframe under 100KB, is never paced; above that the
// burst tightens and the delay grows as the keyframe gets larger.
func keyframeParams(frameSize int, isKeyframe bool) Params {
	if !isKeyframe || frameSize < 100_000 {
		return Params{ThresholdBytes: 1_000_000_000, BurstSize: 0, Delay: 0}
	}
	switch {
	case frameSize < 300_000:
		return Params{ThresholdBytes: 0, BurstSize: 6, Delay: 150 * time.Microsecond}
	case frameSize < 500_000:
		return Params{ThresholdBytes: 0, BurstSize: 4, Delay: 200 * time.Microsecond}
	default:
		return Params{ThresholdBytes: 0, BurstSize: 2, Delay: 300 * time.Microsecond}
	}
}

// ShouldPace reports whether a frame of the given size crosses this Params'
// threshold and therefore needs burst pacing at all.
func (p Params) ShouldPace(frameSize int) bool {
	return p.BurstSize > 0 && frameSize > p.ThresholdBytes
}
