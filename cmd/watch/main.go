// Watch - command line subscriber for the overlay stream.
//
// Dials the server's overlay websocket and writes received frames to
// disk, which is handy for checking the rendered output without a
// browser.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"playsight/internal/log"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "Playsight server host:port")
	outDir := flag.String("out", "frames", "Directory to write received frames to")
	max := flag.Int("max", 0, "Stop after this many frames (0 = run until interrupted)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	log.Init(*logLevel)
	logger := log.With("component", "watch")

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		logger.Error("failed to create output directory", "dir", *outDir, "error", err)
		os.Exit(1)
	}

	url := fmt.Sprintf("ws://%s/ws/overlay", *addr)
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		logger.Error("failed to connect", "url", url, "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	logger.Info("connected", "url", url, "out", *outDir)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		// Unblocks the read loop.
		conn.SetReadDeadline(time.Now())
		conn.Close()
	}()

	count := 0
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error("read failed", "error", err)
			os.Exit(1)
		}
		if msgType != websocket.BinaryMessage {
			// Status and control traffic goes over a separate socket;
			// anything textual here is unexpected but harmless.
			logger.Debug("ignoring non-binary message", "type", msgType)
			continue
		}

		count++
		name := filepath.Join(*outDir, fmt.Sprintf("frame_%04d.jpg", count))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			logger.Error("write failed", "path", name, "error", err)
			os.Exit(1)
		}
		logger.Info("frame saved", "path", name, "bytes", len(data))

		if *max > 0 && count >= *max {
			break
		}
	}

	logger.Info("done", "frames", count)
}
