package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nmoreau/camlink/certs"
	"github.com/nmoreau/camlink/media"
	"github.com/nmoreau/camlink/pipesim"
	"github.com/nmoreau/camlink/rtsp"
)

var version = "dev"

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	bindAddr := envOr("BIND_ADDR", "0.0.0.0")
	bindPort := envOr("BIND_PORT", "8554")
	certFile := envOr("TLS_CERT", "")
	user := envOr("RTSP_USER", "")
	pass := envOr("RTSP_PASS", "")

	port, err := strconv.ParseUint(bindPort, 10, 16)
	if err != nil {
		slog.Error("invalid BIND_PORT", "value", bindPort, "error", err)
		os.Exit(1)
	}

	exec := pipesim.New(nil, nil)
	srv, err := rtsp.NewServer(exec, nil)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	if certFile == "" {
		// No certificate supplied: self-sign one and load it back
		// through the same file path a provided certificate would take.
		certFile, err = writeSelfSigned()
		if err != nil {
			slog.Error("failed to self-sign certificate", "error", err)
			os.Exit(1)
		}
	}
	if err := srv.SetTLS(certFile, rtsp.TLSAuthNone); err != nil {
		slog.Error("TLS setup failed", "cert", certFile, "error", err)
		os.Exit(1)
	}

	permitted := []string{"anonymous"}
	if user != "" {
		if err := srv.SetCredentials([]rtsp.Credential{{User: user, Pass: pass}}); err != nil {
			slog.Error("credential setup failed", "error", err)
			os.Exit(1)
		}
		permitted = []string{user}
	}

	stream, err := srv.AddStream([]string{"/live/main", "/live/sub"}, permitted)
	if err != nil {
		slog.Error("failed to register stream", "error", err)
		os.Exit(1)
	}

	slog.Info("camlink starting",
		"version", version,
		"addr", bindAddr,
		"port", port,
		"paths", "/live/main /live/sub",
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, bindAddr, uint16(port))
	})
	g.Go(func() error {
		return feedTestUnits(ctx, stream.Outputs)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// feedTestUnits pumps a synthetic H.264 unit stream so the demo serves
// something without a camera attached: one key frame per second at
// 25 fps, delta frames in between.
func feedTestUnits(ctx context.Context, out *rtsp.Outputs) error {
	ticker := time.NewTicker(40 * time.Millisecond)
	defer ticker.Stop()

	var n uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		var unit media.Unit
		if n%25 == 0 {
			unit = media.KeyFrame{Codec: media.H264, Data: fakeAccessUnit(0x65, n)}
		} else {
			unit = media.DeltaFrame{Codec: media.H264, Data: fakeAccessUnit(0x41, n)}
		}
		n++

		keep, err := out.Receive(unit)
		if err != nil {
			return fmt.Errorf("feed unit: %w", err)
		}
		if !keep {
			slog.Info("liveness oracle ended the feed")
			return nil
		}
	}
}

// fakeAccessUnit fabricates a minimal Annex-B access unit with the
// given NAL header byte.
func fakeAccessUnit(nalHeader byte, n uint64) []byte {
	data := []byte{0, 0, 0, 1, nalHeader}
	for i := 0; i < 16; i++ {
		data = append(data, byte(n+uint64(i)))
	}
	return data
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func writeSelfSigned() (string, error) {
	info, err := certs.Generate(0)
	if err != nil {
		return "", err
	}
	path := filepath.Join(os.TempDir(), "camlink-cert.pem")
	if err := certs.WritePEM(path, info); err != nil {
		return "", err
	}
	slog.Info("self-signed certificate written",
		"path", path,
		"fingerprint", info.FingerprintBase64(),
		"expires", info.NotAfter.Format(time.RFC3339),
	)
	return path, nil
}
