// Command bridge stands in for the browser extension: it connects to the
// editor's extension bridge and saves every injected image to a directory.
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"safelens/pkg/log"
	websocketPkg "safelens/pkg/websocket"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Fatalf("Error loading .env file: %v", err)
	}

	endpoint := getEnv("BRIDGE_URL", "ws://localhost:3000/api/v1/extension/ws")
	clientID := getEnv("BRIDGE_CLIENT_ID", "local-bridge")
	outDir := getEnv("BRIDGE_OUTPUT_DIR", "./storage/injected")
	pingInterval, err := time.ParseDuration(getEnv("BRIDGE_PING_INTERVAL", "30s"))
	if err != nil || pingInterval <= 0 {
		logger.Fatalf("Invalid BRIDGE_PING_INTERVAL: %q", os.Getenv("BRIDGE_PING_INTERVAL"))
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		logger.Fatalf("Error creating output directory: %v", err)
	}

	client, err := websocketPkg.NewBridgeClient(endpoint, clientID, saveTo(outDir, logger), logger,
		websocketPkg.WithPingInterval(pingInterval))
	if err != nil {
		logger.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backoff := time.Second
	for ctx.Err() == nil {
		if err := client.Run(ctx); err != nil {
			logger.Warnf("Bridge connection lost: %v, retrying in %s", err, backoff)
			select {
			case <-ctx.Done():
			case <-time.After(backoff):
			}
			backoff = min(2*backoff, 30*time.Second)
			continue
		}
		backoff = time.Second
	}

	logger.Info("Bridge stopped")
}

func saveTo(dir string, logger *logrus.Logger) websocketPkg.InjectHandler {
	return func(_ context.Context, msg websocketPkg.InjectMessage) websocketPkg.InjectReply {
		data, ext, err := decodeDataURL(msg.ImageDataURL)
		if err != nil {
			return websocketPkg.InjectReply{Error: err.Error()}
		}

		name := filepath.Join(dir, fmt.Sprintf("%s.%s", msg.RequestID, ext))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return websocketPkg.InjectReply{Error: err.Error()}
		}

		logger.WithField("file", name).Info("Saved injected image")
		return websocketPkg.InjectReply{Success: true, Message: "Image injected successfully"}
	}
}

func decodeDataURL(raw string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(raw, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, "", errors.New("not a base64 data url")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid image payload: %w", err)
	}

	contentType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	ext := "png"
	if _, sub, ok := strings.Cut(contentType, "/"); ok && sub != "" {
		ext = strings.TrimPrefix(sub, "x-")
	}
	if ext == "jpeg" {
		ext = "jpg"
	}
	return data, ext, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
