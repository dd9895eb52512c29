package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"playsight/pkg/detect"
	"playsight/pkg/history"
	"playsight/pkg/playback"
	"playsight/pkg/session"
)

type stubSource struct{}

func (stubSource) CaptureFrame() (playback.Frame, error) {
	return playback.Frame{Width: 1920, Height: 1080, JPEG: []byte{0xff, 0xd8}}, nil
}

type stubDetector struct{}

func (stubDetector) Detect(ctx context.Context, jpeg []byte, thr detect.Thresholds) ([]detect.Detection, error) {
	return nil, nil
}

// newTestServer builds a server over an idle session, optionally backed
// by a fake inference service.
func newTestServer(t *testing.T, serviceURL string) *Server {
	t.Helper()

	settings := session.NewSettings()
	hist := history.New()
	sampler := session.New(stubSource{}, stubDetector{}, settings, hist, time.Second)
	detector := detect.NewClient(serviceURL)
	t.Cleanup(func() { detector.Close() })

	return New("0", hist, settings, sampler, detector)
}

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer(t, "http://localhost:0")

	req := httptest.NewRequest("GET", "/api/status", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}

	var got Status
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if got.State != "idle" {
		t.Errorf("State = %q, want idle", got.State)
	}
	if got.Playing {
		t.Error("Playing should be false before play")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	s := newTestServer(t, "http://localhost:0")

	req := httptest.NewRequest("GET", "/api/config", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	var thr detect.Thresholds
	if err := json.NewDecoder(resp.Body).Decode(&thr); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	resp.Body.Close()
	if thr != detect.DefaultThresholds() {
		t.Errorf("defaults = %+v, want %+v", thr, detect.DefaultThresholds())
	}

	body := strings.NewReader(`{"confidence":0.7,"iou":0.3}`)
	req = httptest.NewRequest("POST", "/api/config", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err = s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}

	got := s.settings.Snapshot()
	if got.Confidence != 0.7 || got.IoU != 0.3 {
		t.Errorf("settings after update = %+v", got)
	}
}

func TestConfigRejectsOutOfRange(t *testing.T) {
	s := newTestServer(t, "http://localhost:0")

	for _, body := range []string{
		`{"confidence":0,"iou":0.45}`,
		`{"confidence":0.5,"iou":1.5}`,
		`{"confidence":-1,"iou":0.45}`,
		`not json`,
	} {
		req := httptest.NewRequest("POST", "/api/config", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.app.Test(req)
		if err != nil {
			t.Fatalf("Request error: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %q: Status = %d, want 400", body, resp.StatusCode)
		}
	}

	if got := s.settings.Snapshot(); got != detect.DefaultThresholds() {
		t.Errorf("settings changed by rejected update: %+v", got)
	}
}

func TestHistoryEndpointEmpty(t *testing.T) {
	s := newTestServer(t, "http://localhost:0")

	req := httptest.NewRequest("GET", "/api/history", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	defer resp.Body.Close()

	var records []history.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
}

func TestHistoryEndpointReturnsRecords(t *testing.T) {
	s := newTestServer(t, "http://localhost:0")

	dets := []detect.Detection{{ClassName: "person", Confidence: 0.9}}
	s.history.Record(history.NewRecord("00:01.2", dets, detect.DefaultThresholds()))
	s.history.Record(history.NewRecord("00:01.5", nil, detect.DefaultThresholds()))

	req := httptest.NewRequest("GET", "/api/history", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	defer resp.Body.Close()

	var records []history.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Timestamp != "00:01.5" {
		t.Errorf("newest first violated: got %q", records[0].Timestamp)
	}
}

func TestHealthProxiesService(t *testing.T) {
	svc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health_check" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"status":"Service is running"}`))
	}))
	defer svc.Close()

	s := newTestServer(t, svc.URL)

	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), "Service is running") {
		t.Errorf("body = %s", data)
	}
}

func TestHealthReportsUnreachable(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:1")

	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := s.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	defer resp.Body.Close()

	// Display-only surface: upstream failure is reported as text, not
	// as an HTTP error.
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Status = %d, want 200", resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), "unreachable") {
		t.Errorf("body = %s", data)
	}
}

func TestLoadModelRequiresName(t *testing.T) {
	s := newTestServer(t, "http://localhost:0")

	req := httptest.NewRequest("POST", "/api/model", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", resp.StatusCode)
	}
}

func TestPlayWithoutPlaybackConfigured(t *testing.T) {
	s := newTestServer(t, "http://localhost:0")

	req := httptest.NewRequest("POST", "/api/play", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", resp.StatusCode)
	}
}

func TestPlayPauseCallbacks(t *testing.T) {
	s := newTestServer(t, "http://localhost:0")

	var played, paused bool
	s.OnPlay = func() error { played = true; return nil }
	s.OnPause = func() error { paused = true; return nil }

	req := httptest.NewRequest("POST", "/api/play", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !played {
		t.Errorf("play: status=%d played=%v", resp.StatusCode, played)
	}

	req = httptest.NewRequest("POST", "/api/pause", nil)
	resp, err = s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !paused {
		t.Errorf("pause: status=%d paused=%v", resp.StatusCode, paused)
	}
}

func TestViewportValidation(t *testing.T) {
	s := newTestServer(t, "http://localhost:0")

	var gotW, gotH int
	s.OnViewport = func(w, h int) error { gotW, gotH = w, h; return nil }

	req := httptest.NewRequest("POST", "/api/viewport", strings.NewReader(`{"width":1024,"height":576}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Status = %d, want 204", resp.StatusCode)
	}
	if gotW != 1024 || gotH != 576 {
		t.Errorf("viewport = %dx%d", gotW, gotH)
	}

	req = httptest.NewRequest("POST", "/api/viewport", strings.NewReader(`{"width":0,"height":576}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = s.app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", resp.StatusCode)
	}
}
