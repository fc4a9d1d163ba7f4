// cookersim - Relay Simulator
//
// Standalone relay simulator for local development and integration
// testing. It speaks the same websocket protocol as the vendor relay
// and drives a simulated cooker with a coarse thermal model, so cookerd
// can be exercised end to end without touching real hardware.
//
// Usage:
//
//	cookersim -addr :18080 -token dev-token
//	COOKERD_RELAY_URL=ws://127.0.0.1:18080/ws COOKERD_RELAY_TOKEN=dev-token cookerd
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relaykitchen/cooker-core/internal/simulator"
)

var (
	version = "dev"
)

func main() {
	addr := flag.String("addr", ":18080", "listen address")
	token := flag.String("token", "dev-token", "relay token clients must present")
	cookerID := flag.String("cooker-id", "", "cooker identifier to announce (default: simulator default)")
	tick := flag.Duration("tick", time.Second, "physics tick and broadcast interval")
	wrap := flag.Bool("wrap-events", false, "wrap outbound messages in carrier envelopes")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *addr, *token, *cookerID, *tick, *wrap); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, addr, token, cookerID string, tick time.Duration, wrap bool) error {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("service", "cookersim", "version", version)

	sim := simulator.New(simulator.Config{
		Token:        token,
		CookerID:     cookerID,
		TickInterval: tick,
		WrapEvents:   wrap,
		Logger:       log,
	})

	// Physics and broadcast loop
	go sim.Run(ctx)

	server := &http.Server{
		Addr:              addr,
		Handler:           sim,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("relay simulator listening", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	}
}
