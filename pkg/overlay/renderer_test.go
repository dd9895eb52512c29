package overlay

import (
	"testing"

	"playsight/pkg/detect"
)

func TestClassColorDeterministic(t *testing.T) {
	first := ClassColor("person")
	for i := 0; i < 5; i++ {
		if got := ClassColor("person"); got != first {
			t.Fatalf("ClassColor not deterministic: %v vs %v", got, first)
		}
	}
}

func TestClassColorFallback(t *testing.T) {
	unknown := ClassColor("giraffe-on-a-unicycle")
	if unknown != fallbackColor {
		t.Errorf("Unknown class color = %v, want fallback %v", unknown, fallbackColor)
	}
	// Distinct palette entries stay distinct.
	if ClassColor("person") == ClassColor("car") {
		t.Error("person and car share a color")
	}
}

func TestLabelOrigin(t *testing.T) {
	tests := []struct {
		name    string
		left    int
		top     int
		expectX int
		expectY int
	}{
		{name: "well inside surface", left: 100, top: 200, expectX: 100, expectY: 192},
		{name: "near top edge clamps", left: 40, top: 10, expectX: 40, expectY: minLabelY},
		{name: "at top edge clamps", left: 0, top: 0, expectX: 0, expectY: minLabelY},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := labelOrigin(tc.left, tc.top)
			if p.X != tc.expectX || p.Y != tc.expectY {
				t.Errorf("labelOrigin(%d, %d) = %v, want (%d, %d)",
					tc.left, tc.top, p, tc.expectX, tc.expectY)
			}
		})
	}
}

func TestDetectionLabelText(t *testing.T) {
	d := detect.Detection{ClassName: "car", Confidence: 0.405}
	if got := d.Label(); got != "car 40.5%" {
		t.Errorf("Label = %q, want %q", got, "car 40.5%")
	}
}
