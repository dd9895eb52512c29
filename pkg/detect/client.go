package detect

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"playsight/internal/httpc"
	"playsight/internal/log"
)

// Sentinel errors for detection rounds.
var (
	// ErrInFlight is returned when a detection round is requested while a
	// previous round has not completed. The session permits exactly one
	// outstanding request at a time; callers drop, never queue.
	ErrInFlight = errors.New("detect: request already in flight")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("detect: client closed")
)

// DefaultTimeout bounds a single detection round trip. The service may be
// arbitrarily slow; the sampler keeps dropping ticks until this resolves.
const DefaultTimeout = 10 * time.Second

// Client talks to the inference service. It is single-flight: Detect
// refuses a second concurrent round with ErrInFlight, and the busy flag is
// cleared on every completion, success or failure.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	busy   atomic.Bool
	closed atomic.Bool
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpc.NewClient(DefaultTimeout),
		logger:  log.With("component", "detect.client"),
	}
}

// detectRequest is the wire format of POST /detect.
type detectRequest struct {
	ImageData  string  `json:"image_data"` // base64 JPEG
	Confidence float64 `json:"confidence"`
	IoU        float64 `json:"iou"`
}

// Detect runs one request/response round trip for a JPEG-encoded frame.
// An empty slice is a valid result ("no objects"). Network errors,
// non-success statuses and malformed payloads are returned as errors; the
// caller treats any of them as an empty result and keeps sampling.
func (c *Client) Detect(ctx context.Context, jpeg []byte, thr Thresholds) ([]Detection, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrInFlight
	}
	defer c.busy.Store(false)

	payload, err := json.Marshal(detectRequest{
		ImageData:  base64.StdEncoding.EncodeToString(jpeg),
		Confidence: thr.Confidence,
		IoU:        thr.IoU,
	})
	if err != nil {
		return nil, fmt.Errorf("detect: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("detect: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detect: round trip: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("detect: service returned %d", resp.StatusCode)
	}

	var detections []Detection
	if err := json.NewDecoder(resp.Body).Decode(&detections); err != nil {
		return nil, fmt.Errorf("detect: decode response: %w", err)
	}

	c.logger.Debug("detection round complete",
		"detections", len(detections),
		"latency_ms", time.Since(start).Milliseconds())

	return detections, nil
}

// InFlight reports whether a round is currently outstanding.
func (c *Client) InFlight() bool {
	return c.busy.Load()
}

// HealthCheck returns the service's opaque status string. Display only;
// control flow never depends on it.
func (c *Client) HealthCheck(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health_check", nil)
	if err != nil {
		return "", fmt.Errorf("detect: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("detect: health check: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("detect: read health status: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// LoadModel asks the service to switch models. Not part of the detection
// hot path; the returned string is opaque status text.
func (c *Client) LoadModel(ctx context.Context, modelName string) (string, error) {
	payload, err := json.Marshal(map[string]string{"model_name": modelName})
	if err != nil {
		return "", fmt.Errorf("detect: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/load_model", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("detect: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("detect: load model: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("detect: read load status: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// Close releases the client. Any subsequent Detect returns ErrClosed.
func (c *Client) Close() error {
	c.closed.Store(true)
	c.http.CloseIdleConnections()
	return nil
}
