package certs

import "testing"

func TestLoadGeneratesSelfSignedByDefault(t *testing.T) {
	cfg, err := Load("", "", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Certificates) != 1 {
		t.Fatalf("got %d certificates, want 1", len(cfg.Certificates))
	}
	if cfg.ClientCAs != nil {
		t.Fatalf("expected no ClientCAs when caFile is empty")
	}
}

func TestLoadRejectsCertWithoutKey(t *testing.T) {
	if _, err := Load("cert.pem", "", ""); err == nil {
		t.Fatalf("expected error when -tls-cert is set without -tls-key")
	}
}

func TestLoadRejectsMissingCAFile(t *testing.T) {
	if _, err := Load("", "", "/nonexistent/ca.pem"); err == nil {
		t.Fatalf("expected error for unreadable CA bundle")
	}
}
