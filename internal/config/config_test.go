package config

import "testing"

func TestParseDerivedPorts(t *testing.T) {
	cfg, err := Parse([]string{"--control-port=9000"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.VideoPort != 9001 || cfg.InputPort != 9002 || cfg.AudioPort != 9003 {
		t.Fatalf("derived ports = %d/%d/%d, want 9001/9002/9003", cfg.VideoPort, cfg.InputPort, cfg.AudioPort)
	}
}

func TestParseDefaultGOP(t *testing.T) {
	cfg, err := Parse([]string{"--fps=30"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.GOPSize != 60 {
		t.Fatalf("gop = %d, want 60", cfg.GOPSize)
	}
}

func TestParseRejectsBadFPS(t *testing.T) {
	if _, err := Parse([]string{"--fps=200"}); err == nil {
		t.Fatal("expected error for fps out of range")
	}
}

func TestParseRejectsBadCQP(t *testing.T) {
	if _, err := Parse([]string{"--cqp=99"}); err == nil {
		t.Fatal("expected error for cqp out of range")
	}
}

func TestParseRejectsUnknownCodec(t *testing.T) {
	if _, err := Parse([]string{"--codec=vp9"}); err == nil {
		t.Fatal("expected error for unknown codec")
	}
}

func TestParseRejectsMismatchedTLSFlags(t *testing.T) {
	if _, err := Parse([]string{"--tls-cert=cert.pem"}); err == nil {
		t.Fatal("expected error when -tls-key is missing")
	}
}
