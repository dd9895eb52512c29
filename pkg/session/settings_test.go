package session

import (
	"testing"

	"playsight/pkg/detect"
)

func TestSettingsDefaults(t *testing.T) {
	s := NewSettings()
	thr := s.Snapshot()
	if thr != detect.DefaultThresholds() {
		t.Errorf("Snapshot = %+v, want defaults", thr)
	}
}

func TestSettingsUpdateValidates(t *testing.T) {
	s := NewSettings()

	if err := s.Update(detect.Thresholds{Confidence: 0, IoU: 0.5}); err == nil {
		t.Error("Expected error for zero confidence")
	}
	// Rejected updates leave the previous values in place.
	if thr := s.Snapshot(); thr != detect.DefaultThresholds() {
		t.Errorf("Snapshot after rejected update = %+v", thr)
	}

	if err := s.Update(detect.Thresholds{Confidence: 0.7, IoU: 0.3}); err != nil {
		t.Fatalf("Valid update rejected: %v", err)
	}
	if thr := s.Snapshot(); thr.Confidence != 0.7 || thr.IoU != 0.3 {
		t.Errorf("Snapshot = %+v, want updated values", thr)
	}
}

func TestSettingsSnapshotIsImmutable(t *testing.T) {
	s := NewSettings()
	snap := s.Snapshot()

	if err := s.Update(detect.Thresholds{Confidence: 0.9, IoU: 0.9}); err != nil {
		t.Fatal(err)
	}

	// The earlier snapshot is a value copy; later edits never reach it.
	if snap != detect.DefaultThresholds() {
		t.Errorf("Snapshot changed retroactively: %+v", snap)
	}
}
