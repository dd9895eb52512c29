// Package history keeps a bounded, newest-first record of detection rounds.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"playsight/pkg/detect"
)

// DefaultLimit is the maximum number of rounds retained.
const DefaultLimit = 10

// Record is one completed detection round. Immutable after creation: the
// thresholds are the snapshot taken when the triggering frame was sent,
// not whatever the user has dialed in since.
type Record struct {
	ID         string             `json:"id"`
	Timestamp  string             `json:"timestamp"` // playback position, mm:ss.s
	Detections []detect.Detection `json:"detections"`
	Thresholds detect.Thresholds  `json:"thresholds"`
	CreatedAt  time.Time          `json:"created_at"`
}

// NewRecord builds a record for a completed round. The detections slice is
// copied so later reuse of the caller's buffer cannot mutate the record.
func NewRecord(timestamp string, dets []detect.Detection, thr detect.Thresholds) Record {
	copied := make([]detect.Detection, len(dets))
	copy(copied, dets)
	return Record{
		ID:         uuid.New().String(),
		Timestamp:  timestamp,
		Detections: copied,
		Thresholds: thr,
		CreatedAt:  time.Now(),
	}
}

// History is a bounded newest-first list of records. Safe for concurrent
// use; the sampler appends in round-completion order, which under
// single-flight equals tick order.
type History struct {
	mu      sync.RWMutex
	records []Record
	limit   int
}

// New creates a history bounded to DefaultLimit entries.
func New() *History {
	return NewWithLimit(DefaultLimit)
}

// NewWithLimit creates a history bounded to limit entries.
func NewWithLimit(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{
		records: make([]Record, 0, limit),
		limit:   limit,
	}
}

// Record prepends an entry and truncates to the limit, dropping the oldest.
func (h *History) Record(r Record) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append([]Record{r}, h.records...)
	if len(h.records) > h.limit {
		h.records = h.records[:h.limit]
	}
}

// Recent returns the entries newest-first. The returned slice is a copy;
// stored entries are never handed out for mutation.
func (h *History) Recent() []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Record, len(h.records))
	for i, r := range h.records {
		out[i] = r
		out[i].Detections = append([]detect.Detection(nil), r.Detections...)
	}
	return out
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

// Clear drops all entries, used when the playback source is replaced.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = h.records[:0]
}
