package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"playsight/internal/log"
	"playsight/pkg/detect"
	"playsight/pkg/history"
	"playsight/pkg/playback"
)

// DefaultInterval is the frame sampling period.
const DefaultInterval = 300 * time.Millisecond

// State is the session-level sampling state.
type State int32

const (
	// StateIdle means playback is stopped and no ticks are scheduled.
	StateIdle State = iota
	// StateSampling means the tick timer is armed and no round is in flight.
	StateSampling
	// StateAwaiting means a detection round is outstanding. Ticks are
	// still evaluated but dropped until the response returns.
	StateAwaiting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSampling:
		return "sampling"
	case StateAwaiting:
		return "awaiting_response"
	default:
		return "unknown"
	}
}

// FrameSource captures the current playback frame.
type FrameSource interface {
	CaptureFrame() (playback.Frame, error)
}

// Detector runs one detection round for a JPEG frame.
type Detector interface {
	Detect(ctx context.Context, jpeg []byte, thr detect.Thresholds) ([]detect.Detection, error)
}

// Round is a completed detection round, handed to OnRound.
type Round struct {
	Frame  playback.Frame
	Record history.Record
}

// Stats are cumulative session counters, exposed as passive status text.
type Stats struct {
	Ticks   uint64 `json:"ticks"`
	Sampled uint64 `json:"sampled"` // requests actually issued
	Dropped uint64 `json:"dropped"` // ticks dropped while a round was in flight
	Skipped uint64 `json:"skipped"` // ticks where capture failed
	Failed  uint64 `json:"failed"`  // rounds that resolved fail-open
}

// Sampler owns the playback-state transitions of one session. On Play it
// emits capture ticks at a fixed period; each tick either issues a
// detection round or is dropped while a previous round is outstanding.
// Dropping, not queueing, is the backpressure policy: under sustained
// overload the request rate degrades to the service's round-trip latency
// instead of building a backlog or running rounds concurrently.
type Sampler struct {
	source   FrameSource
	detector Detector
	settings *Settings
	history  *history.History
	interval time.Duration
	logger   *slog.Logger

	state    atomic.Int32
	inFlight atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	ticks   atomic.Uint64
	sampled atomic.Uint64
	dropped atomic.Uint64
	skipped atomic.Uint64
	failed  atomic.Uint64

	// OnRound fires after every completed round, success or fail-open,
	// in round-completion order.
	OnRound func(Round)
}

// New creates a sampler. A zero interval falls back to DefaultInterval.
func New(source FrameSource, detector Detector, settings *Settings, hist *history.History, interval time.Duration) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sampler{
		source:   source,
		detector: detector,
		settings: settings,
		history:  hist,
		interval: interval,
		logger:   log.With("component", "session.sampler"),
	}
}

// State returns the current session state.
func (s *Sampler) State() State {
	return State(s.state.Load())
}

// Stats returns the cumulative counters.
func (s *Sampler) Stats() Stats {
	return Stats{
		Ticks:   s.ticks.Load(),
		Sampled: s.sampled.Load(),
		Dropped: s.dropped.Load(),
		Skipped: s.skipped.Load(),
		Failed:  s.failed.Load(),
	}
}

// Play arms the tick timer. No-op if already playing.
func (s *Sampler) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state.Store(int32(StateSampling))

	s.logger.Info("sampling started", "interval", s.interval)
	go s.run(ctx, s.done)
}

// Stop cancels the tick timer deterministically: when Stop returns, the
// loop has exited and no further tick will fire. A round already in
// flight completes on its own and its result is still recorded, but it
// does not re-arm the timer.
func (s *Sampler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.state.Store(int32(StateIdle))
	s.logger.Info("sampling stopped", "stats", s.Stats())
}

// Playing reports whether the tick timer is armed.
func (s *Sampler) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Sampler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.tick(ctx)
		}
	}
}

// tick evaluates one capture tick. Capture failures skip the tick with no
// side effect; ticks arriving during an in-flight round are dropped.
func (s *Sampler) tick(ctx context.Context) {
	s.ticks.Add(1)

	frame, err := s.source.CaptureFrame()
	if err != nil {
		// Not an error, merely a missed sample.
		s.skipped.Add(1)
		s.logger.Debug("tick skipped, capture unavailable", "reason", err)
		return
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		s.dropped.Add(1)
		s.logger.Debug("tick dropped, round in flight", "pos", frame.FormattedTimestamp())
		return
	}

	// Thresholds are pinned now, at send time.
	thr := s.settings.Snapshot()
	s.state.Store(int32(StateAwaiting))
	s.sampled.Add(1)

	// The round outlives a Stop that lands mid-flight; it is bounded by
	// the detector's own timeout, not by the loop context.
	go s.round(context.WithoutCancel(ctx), frame, thr)
}

func (s *Sampler) round(ctx context.Context, frame playback.Frame, thr detect.Thresholds) {
	dets, err := s.detector.Detect(ctx, frame.JPEG, thr)
	if err != nil {
		// Fail-open: an empty result for this round, sampling continues.
		s.failed.Add(1)
		s.logger.Warn("detection round failed", "pos", frame.FormattedTimestamp(), "error", err)
		dets = nil
	}

	rec := history.NewRecord(frame.FormattedTimestamp(), dets, thr)
	s.history.Record(rec)

	if s.OnRound != nil {
		s.OnRound(Round{Frame: frame, Record: rec})
	}

	// Clear the flag last so a new tick cannot start a round before this
	// one has fully published its result.
	s.state.CompareAndSwap(int32(StateAwaiting), int32(StateSampling))
	s.inFlight.Store(false)
}
