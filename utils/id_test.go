package utils

import (
	"strings"
	"testing"
)

func TestNewPeerIDFormat(t *testing.T) {
	id := NewPeerID("myhost")
	if !strings.HasPrefix(id, "myhost-") {
		t.Errorf("Expected ID to start with hostname, got %q", id)
	}
	nonce := strings.TrimPrefix(id, "myhost-")
	if len(nonce) != 8 {
		t.Errorf("Expected 8 character nonce, got %q", nonce)
	}
}

// Each process start must get a fresh identifier.
func TestNewPeerIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewPeerID("myhost")
		if seen[id] {
			t.Fatalf("Duplicate peer ID generated: %q", id)
		}
		seen[id] = true
	}
}

func TestGetHostname(t *testing.T) {
	if GetHostname() == "" {
		t.Error("Expected a non-empty hostname")
	}
}
