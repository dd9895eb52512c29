// Playsight - video playback with live object-detection overlays.
//
// Plays a local clip, samples frames on a fixed cadence, sends them to an
// inference service, and serves the rendered overlay plus a control API
// over HTTP and websockets.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"playsight/internal/config"
	"playsight/internal/log"
	"playsight/pkg/detect"
	"playsight/pkg/history"
	"playsight/pkg/overlay"
	"playsight/pkg/playback"
	"playsight/pkg/session"
	"playsight/pkg/web"
)

func main() {
	serviceURL := flag.String("service", config.ServiceURL(), "Detection service base URL (or SERVICE_URL env)")
	port := flag.String("port", config.Port(), "HTTP listen port (or PORT env)")
	interval := flag.Duration("interval", config.SampleInterval(), "Frame sampling period (or SAMPLE_INTERVAL_MS env)")
	viewportW := flag.Int("viewport-width", 800, "Initial overlay surface width")
	viewportH := flag.Int("viewport-height", 450, "Initial overlay surface height")
	logLevel := flag.String("log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <video-file>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	videoPath := flag.Arg(0)

	log.Init(*logLevel)
	logger := log.With("component", "main")

	player, err := playback.Open(videoPath)
	if err != nil {
		logger.Error("failed to open video", "path", videoPath, "error", err)
		os.Exit(1)
	}
	defer player.Close()

	w, h := player.Size()
	logger.Info("video opened", "path", videoPath, "width", w, "height", h)

	detector := detect.NewClient(*serviceURL)
	defer detector.Close()

	settings := session.NewSettings()
	hist := history.New()
	sampler := session.New(player, detector, settings, hist, *interval)

	renderer := overlay.New(*viewportW, *viewportH)
	defer renderer.Dispose()

	server := web.New(*port, hist, settings, sampler, detector)

	server.OnPlay = func() error {
		if err := player.Play(); err != nil {
			return err
		}
		sampler.Play()
		return nil
	}
	server.OnPause = func() error {
		sampler.Stop()
		player.Pause()
		return nil
	}
	server.OnViewport = func(width, height int) error {
		if err := renderer.SetViewport(width, height); err != nil {
			return err
		}
		return publishOverlay(server, renderer)
	}

	// Each completed round repaints the overlay surface and pushes the
	// result to connected clients. Rounds complete one at a time, so the
	// renderer sees them in order.
	sampler.OnRound = func(r session.Round) {
		if err := renderer.Render(r.Frame, r.Record.Detections); err != nil {
			logger.Warn("overlay render failed", "error", err)
			return
		}
		if err := publishOverlay(server, renderer); err != nil {
			logger.Warn("overlay publish failed", "error", err)
		}
		server.PublishStatus()
	}

	player.OnEnd = func() {
		logger.Info("playback finished")
		sampler.Stop()
		server.PublishStatus()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server.StartAsync()
	logger.Info("playsight ready", "port", *port, "service", *serviceURL, "interval", (*interval).String())

	<-ctx.Done()
	logger.Info("shutting down")
	sampler.Stop()
	player.Pause()
	if err := server.Shutdown(); err != nil {
		logger.Warn("server shutdown", "error", err)
	}
}

func publishOverlay(server *web.Server, renderer *overlay.Renderer) error {
	jpeg, err := renderer.EncodeJPEG()
	if err != nil {
		return err
	}
	server.SendOverlayFrame(jpeg)
	return nil
}
