package internal

import (
	"bytes"
	"testing"
)

func TestNewSessionIDIsUUID(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	if !ValidID(a) || !ValidID(b) {
		t.Fatalf("expected uuids, got %q %q", a, b)
	}
	if a == b {
		t.Fatal("session ids must be unique")
	}
}

func TestNewSecret(t *testing.T) {
	if _, err := NewSecret(16); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
	a, err := NewSecret(32)
	if err != nil || len(a) != 32 {
		t.Fatalf("unexpected secret %x, %v", a, err)
	}
	b, _ := NewSecret(32)
	if bytes.Equal(a, b) {
		t.Fatal("secrets must differ")
	}
}

func TestValidID(t *testing.T) {
	for _, id := range []string{"", "current", "not-a-uuid", "{6ba7b810-9dad-11d1-80b4-00c04fd430c8}"} {
		if ValidID(id) {
			t.Fatalf("expected %q to be invalid", id)
		}
	}
	if !ValidID("6ba7b810-9dad-11d1-80b4-00c04fd430c8") {
		t.Fatal("expected canonical uuid to be valid")
	}
}
