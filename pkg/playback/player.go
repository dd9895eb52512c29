// Package playback decodes a local video file and exposes the most
// recently decoded frame for sampling.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"playsight/internal/log"
)

// Sentinel errors for frame capture.
var (
	// ErrNotReadable is returned when no decoded frame is available.
	// Not fatal: the sampler skips the tick and tries again next period.
	ErrNotReadable = errors.New("playback: source not in a readable state")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("playback: player closed")
)

// Frame is one captured video frame. Immutable once captured: the JPEG
// payload is a private copy and the size/timestamp never change.
type Frame struct {
	Width     int
	Height    int
	JPEG      []byte
	Timestamp time.Duration // playback position when captured
}

// FormattedTimestamp returns the playback position as mm:ss.t.
func (f Frame) FormattedTimestamp() string {
	return FormatTimestamp(f.Timestamp)
}

// FormatTimestamp renders a playback position as mm:ss.t, the form shown
// in the prediction history.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	mins := int(d.Minutes())
	secs := d.Seconds() - float64(mins)*60
	return fmt.Sprintf("%02d:%04.1f", mins, secs)
}

// Player plays a video file and keeps the latest decoded frame. The
// decode loop runs at the clip's native frame rate; CaptureFrame hands
// out an independent JPEG copy of whatever frame is current.
type Player struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	capture *gocv.VideoCapture
	current gocv.Mat
	hasFram bool
	width   int
	height  int
	fps     float64
	pos     time.Duration
	playing bool
	closed  bool

	cancel context.CancelFunc
	done   chan struct{}

	// OnEnd fires once when the clip runs out of frames.
	OnEnd func()
}

// Open opens a video file and reads its stream properties. Playback does
// not start until Play.
func Open(path string) (*Player, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("playback: open %s: %w", path, err)
	}

	p := &Player{
		path:    path,
		logger:  log.With("component", "playback.player"),
		capture: capture,
		current: gocv.NewMat(),
		width:   int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(capture.Get(gocv.VideoCaptureFrameHeight)),
		fps:     capture.Get(gocv.VideoCaptureFPS),
	}
	if p.fps <= 0 || p.fps > 240 {
		p.fps = 30
	}

	p.logger.Info("opened video",
		"path", path, "width", p.width, "height", p.height, "fps", p.fps)
	return p, nil
}

// Size returns the native frame size in pixels.
func (p *Player) Size() (int, int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.width, p.height
}

// Position returns the current playback position.
func (p *Player) Position() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.pos
}

// Playing reports whether the decode loop is running.
func (p *Player) Playing() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.playing
}

// Play starts (or resumes) the decode loop. No-op while already playing.
func (p *Player) Play() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.playing {
		p.mu.Unlock()
		return nil
	}
	p.playing = true
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	p.mu.Unlock()

	go p.decodeLoop(ctx, p.done)
	return nil
}

// Pause stops the decode loop deterministically: when Pause returns, no
// further frames will be decoded. The current frame stays available.
func (p *Player) Pause() {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return
	}
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done
}

func (p *Player) decodeLoop(ctx context.Context, done chan struct{}) {
	defer func() {
		p.mu.Lock()
		p.playing = false
		p.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(time.Duration(float64(time.Second) / p.fps))
	defer ticker.Stop()

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			if p.closed {
				p.mu.Unlock()
				return
			}
			ok := p.capture.Read(&frame)
			if !ok || frame.Empty() {
				p.mu.Unlock()
				p.logger.Info("end of stream", "path", p.path)
				if p.OnEnd != nil {
					p.OnEnd()
				}
				return
			}
			frame.CopyTo(&p.current)
			p.hasFram = true
			p.pos = time.Duration(p.capture.Get(gocv.VideoCapturePosMsec)) * time.Millisecond
			p.mu.Unlock()
		}
	}
}

// CaptureFrame returns the most recently decoded frame as an immutable
// JPEG snapshot. Returns ErrNotReadable before the first frame has been
// decoded; callers treat that as a missed sample, not an error.
func (p *Player) CaptureFrame() (Frame, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return Frame{}, ErrClosed
	}
	if !p.hasFram || p.current.Empty() {
		return Frame{}, ErrNotReadable
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, p.current)
	if err != nil {
		return Frame{}, fmt.Errorf("playback: encode frame: %w", err)
	}
	defer buf.Close()

	jpeg := make([]byte, len(buf.GetBytes()))
	copy(jpeg, buf.GetBytes())

	return Frame{
		Width:     p.current.Cols(),
		Height:    p.current.Rows(),
		JPEG:      jpeg,
		Timestamp: p.pos,
	}, nil
}

// Close stops playback and releases the capture and frame buffers.
func (p *Player) Close() error {
	p.Pause()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.current.Close()
	return p.capture.Close()
}
