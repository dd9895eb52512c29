// Package geometry computes the letterbox transform between native frame
// space and the rendered display surface.
package geometry

import (
	"fmt"

	"playsight/pkg/detect"
)

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Sz is shorthand for constructing a Size from ints.
func Sz(w, h int) Size {
	return Size{Width: float64(w), Height: float64(h)}
}

// IsZero reports whether either dimension is unset.
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Transform maps points from a source rectangle to an aspect-preserving
// "fit" placement inside a destination rectangle: a single uniform scale
// factor plus centering offsets. It never crops and never stretches. The
// same transform is applied to the frame image and to every detection box
// so the two can never drift apart.
type Transform struct {
	Src     Size    `json:"src"`
	Dst     Size    `json:"dst"`
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// Fit computes the letterbox transform of src into dst. Recompute whenever
// the destination surface resizes or the source size changes; the result
// is derived state and is never persisted.
func Fit(src, dst Size) Transform {
	t := Transform{Src: src, Dst: dst}
	if src.IsZero() || dst.IsZero() {
		t.Scale = 1
		return t
	}

	t.Scale = dst.Width / src.Width
	if s := dst.Height / src.Height; s < t.Scale {
		t.Scale = s
	}
	t.OffsetX = (dst.Width - src.Width*t.Scale) / 2
	t.OffsetY = (dst.Height - src.Height*t.Scale) / 2
	return t
}

// ScaledSize returns the size of the letterboxed source inside dst.
func (t Transform) ScaledSize() Size {
	return Size{Width: t.Src.Width * t.Scale, Height: t.Src.Height * t.Scale}
}

// Apply maps a point from native frame space to surface space.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.Scale + t.OffsetX, y*t.Scale + t.OffsetY
}

// Invert maps a surface-space point back to native frame space.
func (t Transform) Invert(x, y float64) (float64, float64) {
	return (x - t.OffsetX) / t.Scale, (y - t.OffsetY) / t.Scale
}

// ApplyBox maps a detection box into surface space. Widths and heights
// scale uniformly; only the origin is offset.
func (t Transform) ApplyBox(b detect.Box) detect.Box {
	left, top := t.Apply(b.Left, b.Top)
	return detect.Box{
		Left:   left,
		Top:    top,
		Width:  b.Width * t.Scale,
		Height: b.Height * t.Scale,
	}
}

// InvertBox maps a surface-space box back to native frame space.
func (t Transform) InvertBox(b detect.Box) detect.Box {
	left, top := t.Invert(b.Left, b.Top)
	return detect.Box{
		Left:   left,
		Top:    top,
		Width:  b.Width / t.Scale,
		Height: b.Height / t.Scale,
	}
}

func (t Transform) String() string {
	return fmt.Sprintf("fit %gx%g -> %gx%g (scale=%.5f offset=%.1f,%.1f)",
		t.Src.Width, t.Src.Height, t.Dst.Width, t.Dst.Height,
		t.Scale, t.OffsetX, t.OffsetY)
}
