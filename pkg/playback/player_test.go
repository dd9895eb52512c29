package playback

import (
	"testing"
	"time"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		pos    time.Duration
		expect string
	}{
		{name: "zero", pos: 0, expect: "00:00.0"},
		{name: "sub second", pos: 400 * time.Millisecond, expect: "00:00.4"},
		{name: "seconds", pos: 9*time.Second + 250*time.Millisecond, expect: "00:09.2"},
		{name: "minutes", pos: 83*time.Second + 450*time.Millisecond, expect: "01:23.4"},
		{name: "long clip", pos: 12*time.Minute + 3*time.Second, expect: "12:03.0"},
		{name: "negative clamps to zero", pos: -time.Second, expect: "00:00.0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatTimestamp(tc.pos); got != tc.expect {
				t.Errorf("FormatTimestamp(%v) = %q, want %q", tc.pos, got, tc.expect)
			}
		})
	}
}

func TestFrameFormattedTimestamp(t *testing.T) {
	f := Frame{Timestamp: 61*time.Second + 500*time.Millisecond}
	if got := f.FormattedTimestamp(); got != "01:01.5" {
		t.Errorf("FormattedTimestamp = %q, want 01:01.5", got)
	}
}
