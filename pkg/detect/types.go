// Package detect provides the HTTP client for the external object
// detection service and the types its wire format uses.
package detect

import "fmt"

// Box is an axis-aligned bounding box in native-frame pixel space.
// Coordinates are never expressed in display-surface pixels; scaling to
// the screen is the geometry package's job.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is a single object reported by the inference service.
// The client returns detections exactly as received and never fabricates
// or mutates scores.
type Detection struct {
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"` // 0-1
	Box        Box     `json:"box"`
}

// Label returns the display label for the detection, e.g. "person 87.3%".
func (d Detection) Label() string {
	return fmt.Sprintf("%s %.1f%%", d.ClassName, d.Confidence*100)
}

// Thresholds is an immutable snapshot of the tunable detection
// parameters, taken at the instant a frame is handed to the client.
// Later edits to the live settings never alter a snapshot already
// captured by an in-flight or completed request.
type Thresholds struct {
	Confidence float64 `json:"confidence"`
	IoU        float64 `json:"iou"`
}

// Validate checks both thresholds are in (0,1].
func (t Thresholds) Validate() error {
	if t.Confidence <= 0 || t.Confidence > 1 {
		return fmt.Errorf("confidence threshold %.3f out of range (0,1]", t.Confidence)
	}
	if t.IoU <= 0 || t.IoU > 1 {
		return fmt.Errorf("iou threshold %.3f out of range (0,1]", t.IoU)
	}
	return nil
}

// DefaultThresholds returns the startup thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Confidence: 0.5, IoU: 0.45}
}
