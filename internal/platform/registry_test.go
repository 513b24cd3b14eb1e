package platform

import (
	"testing"
)

func TestGetOrInit(t *testing.T) {
	r := NewRegistry()

	adapter, err := r.GetOrInit(SamsClub)
	if err != nil {
		t.Fatalf("GetOrInit(SamsClub) returned error: %v", err)
	}
	if adapter.Slug() != SamsClub {
		t.Errorf("adapter.Slug() = %q, want %q", adapter.Slug(), SamsClub)
	}

	// Second lookup returns the same handle
	again, err := r.GetOrInit(SamsClub)
	if err != nil {
		t.Fatalf("second GetOrInit returned error: %v", err)
	}
	if again != adapter {
		t.Error("GetOrInit did not return the cached adapter")
	}
}

func TestGetOrInitUnknownPlatform(t *testing.T) {
	r := NewRegistry()
	if _, err := r.GetOrInit(ID("taobao")); err == nil {
		t.Error("expected error for unknown platform, got nil")
	}
}

func TestInitializeDefaultAdapters(t *testing.T) {
	DefaultRegistry = NewRegistry()
	if err := InitializeDefaultAdapters(); err != nil {
		t.Fatalf("InitializeDefaultAdapters() returned error: %v", err)
	}
	for _, id := range All() {
		if !DefaultRegistry.IsRegistered(id) {
			t.Errorf("platform %s not registered", id)
		}
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		id       ID
		expected bool
	}{
		{SamsClub, true},
		{JDDaojia, true},
		{Freshippo, true},
		{Meituan, true},
		{ID("taobao"), false},
		{ID(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			if got := Valid(tt.id); got != tt.expected {
				t.Errorf("Valid(%q) = %v, want %v", tt.id, got, tt.expected)
			}
		})
	}
}
