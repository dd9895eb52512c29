// Package session drives one playback session: the frame sampling loop,
// its single-flight detection rounds, and the tunable thresholds they
// snapshot.
package session

import (
	"sync"

	"playsight/pkg/detect"
)

// Settings holds the live, UI-adjustable detection thresholds. Reads for
// a detection round go through Snapshot so an in-flight request is pinned
// to the values that were active when its frame was sent, not whatever
// the user dials in later.
type Settings struct {
	mu  sync.RWMutex
	thr detect.Thresholds
}

// NewSettings creates settings with the default thresholds.
func NewSettings() *Settings {
	return &Settings{thr: detect.DefaultThresholds()}
}

// Snapshot returns an immutable copy of the current thresholds.
func (s *Settings) Snapshot() detect.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thr
}

// Update validates and replaces the thresholds.
func (s *Settings) Update(thr detect.Thresholds) error {
	if err := thr.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.thr = thr
	s.mu.Unlock()
	return nil
}
