package utils

import (
	"testing"
	"time"

	"github.com/tungdibui2609/saritaqr/internal/store"
)

func TestDeduplicatorWindow(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	d := NewDeduplicator(5 * time.Second)
	d.now = func() time.Time { return now }

	if d.Seen("LOT-1|A-K1D1T1.PL1") {
		t.Error("first scan flagged as duplicate")
	}
	now = now.Add(2 * time.Second)
	if !d.Seen("LOT-1|A-K1D1T1.PL1") {
		t.Error("repeat inside the window not flagged")
	}
	if d.Seen("LOT-2|A-K1D1T1.PL1") {
		t.Error("different key flagged as duplicate")
	}

	now = now.Add(10 * time.Second)
	if d.Seen("LOT-1|A-K1D1T1.PL1") {
		t.Error("repeat after the window flagged as duplicate")
	}

	if d.Seen("") {
		t.Error("empty key can never be a duplicate")
	}
}

func TestDeviceIDIsStable(t *testing.T) {
	kv := store.NewMemoryKV()

	first, err := DeviceID(kv)
	if err != nil {
		t.Fatalf("DeviceID: %v", err)
	}
	if first == "" {
		t.Fatal("empty device id")
	}

	second, err := DeviceID(kv)
	if err != nil {
		t.Fatalf("DeviceID: %v", err)
	}
	if second != first {
		t.Errorf("device id changed between calls: %s then %s", first, second)
	}
}
