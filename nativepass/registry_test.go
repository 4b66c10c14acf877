package nativepass

import "testing"

func TestNullBackendAlwaysRegistered(t *testing.T) {
	if b := Get("null"); b == nil {
		t.Fatal("expected the null backend to be registered by default")
	}
}

func TestDefaultFallsBackToNull(t *testing.T) {
	b := Default()
	if b == nil {
		t.Fatal("expected a default backend")
	}
	if b.Name() != "null" {
		t.Fatalf("Default() = %q, want %q when no platform backend is registered", b.Name(), "null")
	}
}

func TestRegisterAndGetRoundTrip(t *testing.T) {
	Register("test-backend", func() Backend { return NullBackend{} })
	if Get("test-backend") == nil {
		t.Fatal("expected registered backend to be retrievable")
	}
}
