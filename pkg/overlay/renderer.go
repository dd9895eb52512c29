// Package overlay paints captured frames and their detections onto the
// rendering surface.
package overlay

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"

	"playsight/internal/log"
	"playsight/pkg/detect"
	"playsight/pkg/geometry"
	"playsight/pkg/playback"
)

// ErrDisposed is returned when rendering after Dispose.
var ErrDisposed = errors.New("overlay: renderer disposed")

const (
	boxThickness = 2
	labelGap     = 8 // px between box top and label baseline
	minLabelY    = 14
	fontScale    = 0.5
)

// Renderer owns the rendering surface. It is the only writer: every
// repaint clears the surface completely before drawing, so stale boxes
// never accumulate across frames. The surface is disposed and recreated
// whenever the display geometry is replaced.
type Renderer struct {
	mu     sync.Mutex
	logger *slog.Logger

	surface   gocv.Mat
	viewport  geometry.Size
	frameSize geometry.Size
	transform geometry.Transform

	// Last round, kept so a resize alone can repaint with a fresh
	// transform and no new frame.
	lastFrame gocv.Mat
	hasFrame  bool
	lastDets  []detect.Detection

	disposed bool
}

// New creates a renderer with a surface of the given viewport size.
func New(width, height int) *Renderer {
	r := &Renderer{
		logger:    log.With("component", "overlay.renderer"),
		surface:   gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3),
		viewport:  geometry.Sz(width, height),
		lastFrame: gocv.NewMat(),
	}
	r.transform = geometry.Fit(r.frameSize, r.viewport)
	return r
}

// Viewport returns the current surface size.
func (r *Renderer) Viewport() geometry.Size {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewport
}

// Transform returns the current frame-to-surface transform.
func (r *Renderer) Transform() geometry.Transform {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transform
}

// SetViewport replaces the surface with one of the new size, recomputes
// the transform and repaints the last round under it. The old surface is
// fully disposed so no stale drawing survives a geometry change.
func (r *Renderer) SetViewport(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("overlay: invalid viewport %dx%d", width, height)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return ErrDisposed
	}

	r.surface.Close()
	r.surface = gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	r.viewport = geometry.Sz(width, height)
	r.transform = geometry.Fit(r.frameSize, r.viewport)

	r.logger.Debug("viewport changed", "transform", r.transform.String())
	return r.repaint()
}

// Render paints a captured frame and its detections. The frame image is
// drawn letterboxed behind the boxes; detections arrive in native-frame
// coordinates and are mapped through the same transform as the image.
func (r *Renderer) Render(frame playback.Frame, dets []detect.Detection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return ErrDisposed
	}

	img, err := gocv.IMDecode(frame.JPEG, gocv.IMReadColor)
	if err != nil {
		return fmt.Errorf("overlay: decode frame: %w", err)
	}
	if img.Empty() {
		img.Close()
		return fmt.Errorf("overlay: decode frame: empty image")
	}

	img.CopyTo(&r.lastFrame)
	img.Close()
	r.hasFrame = true
	r.lastDets = append(r.lastDets[:0], dets...)

	if size := geometry.Sz(frame.Width, frame.Height); size != r.frameSize {
		r.frameSize = size
		r.transform = geometry.Fit(r.frameSize, r.viewport)
		r.logger.Debug("frame size changed", "transform", r.transform.String())
	}

	return r.repaint()
}

// Rerender repaints the most recent round under the current transform,
// e.g. after a resize with no new frame.
func (r *Renderer) Rerender() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return ErrDisposed
	}
	return r.repaint()
}

// repaint redraws the whole surface. Caller holds the lock.
func (r *Renderer) repaint() error {
	// Clear everything from the previous repaint.
	r.surface.SetTo(gocv.NewScalar(0, 0, 0, 0))

	if r.hasFrame && !r.lastFrame.Empty() {
		scaled := r.transform.ScaledSize()
		w, h := int(scaled.Width+0.5), int(scaled.Height+0.5)
		if w > 0 && h > 0 {
			resized := gocv.NewMat()
			gocv.Resize(r.lastFrame, &resized, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)

			x, y := int(r.transform.OffsetX+0.5), int(r.transform.OffsetY+0.5)
			roi := r.surface.Region(image.Rect(x, y, x+w, y+h))
			resized.CopyTo(&roi)
			roi.Close()
			resized.Close()
		}
	}

	for _, d := range r.lastDets {
		r.drawDetection(d)
	}
	return nil
}

// drawDetection draws one unfilled box outline and its label. Caller
// holds the lock.
func (r *Renderer) drawDetection(d detect.Detection) {
	box := r.transform.ApplyBox(d.Box)
	rect := image.Rect(
		int(box.Left+0.5),
		int(box.Top+0.5),
		int(box.Left+box.Width+0.5),
		int(box.Top+box.Height+0.5),
	)

	c := ClassColor(d.ClassName)
	gocv.Rectangle(&r.surface, rect, c, boxThickness)

	origin := labelOrigin(rect.Min.X, rect.Min.Y)
	gocv.PutText(&r.surface, d.Label(), origin, gocv.FontHersheySimplex, fontScale, c, 1)
}

// labelOrigin places the label baseline directly above the box, clamped
// so it never renders above the top edge of the surface.
func labelOrigin(boxLeft, boxTop int) image.Point {
	y := boxTop - labelGap
	if y < minLabelY {
		y = minLabelY
	}
	return image.Point{X: boxLeft, Y: y}
}

// EncodeJPEG returns the current surface as a JPEG for streaming.
func (r *Renderer) EncodeJPEG() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return nil, ErrDisposed
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, r.surface)
	if err != nil {
		return nil, fmt.Errorf("overlay: encode surface: %w", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

// Dispose releases the surface and the retained frame. The renderer is
// unusable afterwards; create a new one for a new geometry.
func (r *Renderer) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	r.disposed = true
	r.surface.Close()
	r.lastFrame.Close()
	r.lastDets = nil
}
