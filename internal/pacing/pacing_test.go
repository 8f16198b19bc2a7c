package pacing

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestDetectFromIP(t *testing.T) {
	cases := []struct {
		ip   string
		want Mode
	}{
		{"10.42.7.9", ModeAggressive},
		{"192.168.42.5", ModeAggressive},
		{"192.168.43.5", ModeAggressive},
		{"192.168.1.50", ModeLight},
		{"172.16.0.5", ModeLight},
	}
	for _, c := range cases {
		got := DetectFromIP(net.ParseIP(c.ip))
		if got != c.want {
			t.Errorf("DetectFromIP(%s) = %s, want %s", c.ip, got, c.want)
		}
	}
}

func TestResolveAutoAggressive(t *testing.T) {
	p := Resolve(ModeAuto, net.ParseIP("10.42.7.9"), 10_000, false)
	if p.BurstSize != 4 || p.Delay != 200*time.Microsecond {
		t.Fatalf("got %+v, want burst=4 delay=200us", p)
	}
}

func TestResolveAutoLight(t *testing.T) {
	p := Resolve(ModeAuto, net.ParseIP("192.168.1.50"), 10_000, false)
	if p.BurstSize != 20 || p.Delay != 50*time.Microsecond {
		t.Fatalf("got %+v, want burst=20 delay=50us", p)
	}
}

func TestKeyframeTiers(t *testing.T) {
	cases := []struct {
		size       int
		isKeyframe bool
		wantBurst  int
		wantDelay  time.Duration
	}{
		{50_000, true, 0, 0},
		{150_000, true, 6, 150 * time.Microsecond},
		{350_000, true, 4, 200 * time.Microsecond},
		{600_000, true, 2, 300 * time.Microsecond},
		{600_000, false, 0, 0},
	}
	for _, c := range cases {
		p := Resolve(ModeKeyframe, nil, c.size, c.isKeyframe)
		if p.BurstSize != c.wantBurst || p.Delay != c.wantDelay {
			t.Errorf("size=%d keyframe=%v: got burst=%d delay=%s, want burst=%d delay=%s",
				c.size, c.isKeyframe, p.BurstSize, p.Delay, c.wantBurst, c.wantDelay)
		}
	}
}

func TestGateSustainsBurstSizePerDelay(t *testing.T) {
	p := Params{ThresholdBytes: 0, BurstSize: 20, Delay: 50 * time.Microsecond}
	g := NewGate(p, 1)

	start := time.Now()
	const fragments = 60 // three bursts worth
	for i := 0; i < fragments; i++ {
		if err := g.Wait(context.Background()); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	elapsed := time.Since(start)

	// Sustained throughput should track BurstSize fragments per Delay, not
	// collapse to one fragment per Delay once the initial burst drains.
	want := p.Delay * time.Duration(fragments/p.BurstSize-1)
	if elapsed > want*3 {
		t.Fatalf("60 fragments at burst=20/delay=50us took %s, want well under %s", elapsed, want*3)
	}
}

func TestShouldPaceThreshold(t *testing.T) {
	light := Resolve(ModeLight, nil, 0, false)
	if light.ShouldPace(40_000) {
		t.Fatal("40KB frame should not trip the 50KB LIGHT threshold")
	}
	if !light.ShouldPace(60_000) {
		t.Fatal("60KB frame should trip the 50KB LIGHT threshold")
	}
}
