// cookerd - Device Protocol Bridge
//
// This is the main entry point for cookerd, a persistent bridge between
// a vendor cloud relay and local consumers. It maintains an authenticated
// websocket session to the relay, exposes blocking cook operations to
// concurrent callers, fans cooker status out over MQTT, and can serve an
// MCP tool surface to LLM assistants over stdio.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relaykitchen/cooker-core/internal/assistant"
	"github.com/relaykitchen/cooker-core/internal/bridges/apc"
	"github.com/relaykitchen/cooker-core/internal/infrastructure/config"
	"github.com/relaykitchen/cooker-core/internal/infrastructure/logging"
	"github.com/relaykitchen/cooker-core/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting cookerd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Connect to the vendor relay
	bridge, err := connectBridge(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connecting to relay: %w", err)
	}
	defer func() {
		log.Info("shutting down relay bridge")
		if closeErr := bridge.Shutdown(); closeErr != nil {
			log.Error("error shutting down bridge", "error", closeErr)
		}
	}()

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		// Fan cooker status updates out to the broker as they arrive
		bridge.SetOnStatus(func(cookerID string, s apc.Status) {
			msg := mqtt.CookerStatusMessage{
				CookerID:      cookerID,
				State:         string(s.State),
				WaterTemp:     s.WaterTemp,
				TargetTemp:    s.TargetTemp,
				TimerSeconds:  s.TimerSeconds,
				TimeRemaining: s.TimeRemaining,
			}
			if pubErr := mqttClient.PublishCookerStatus(msg); pubErr != nil {
				log.Warn("failed to publish cooker status", "error", pubErr)
			}
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Wait for device discovery; a slow relay is not fatal at startup,
	// the bridge keeps resolving in the background.
	waitCtx, waitCancel := context.WithTimeout(ctx, cfg.GetDiscoveryTimeout())
	cookerID, err := bridge.WaitUntilReady(waitCtx)
	waitCancel()
	if err != nil {
		log.Warn("no cooker discovered yet, continuing", "error", err)
	} else {
		log.Info("cooker ready", "cooker_id", cookerID)
	}

	// Verify connections are healthy
	if err := healthCheck(ctx, bridge, mqttClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Serve the assistant tool surface over stdio (optional).
	// ServeStdio returns when stdin closes; that ends the process too,
	// since an assistant-managed daemon should exit with its parent.
	if cfg.Assistant.Enabled {
		assistantSrv := assistant.New(bridge, version, log)
		errCh := make(chan error, 1)
		go func() {
			errCh <- assistantSrv.Serve()
		}()
		log.Info("initialisation complete, serving assistant on stdio")

		select {
		case <-ctx.Done():
		case serveErr := <-errCh:
			if serveErr != nil {
				return fmt.Errorf("assistant server: %w", serveErr)
			}
		}
	} else {
		log.Info("initialisation complete, waiting for shutdown signal")
		<-ctx.Done()
	}

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. MQTT (if enabled)
	// 2. Relay bridge

	log.Info("cookerd stopped")
	return nil
}

// connectBridge establishes the relay websocket session.
func connectBridge(ctx context.Context, cfg *config.Config, log *logging.Logger) (*apc.Client, error) {
	bridgeCfg := apc.Config{
		URL:                  cfg.Relay.URL,
		Token:                cfg.Relay.Token,
		Accessories:          cfg.Relay.Accessories,
		DeviceHint:           cfg.Relay.DeviceID,
		ConnectTimeout:       cfg.GetConnectTimeout(),
		CommandTimeout:       cfg.GetCommandTimeout(),
		DiscoveryTimeout:     cfg.GetDiscoveryTimeout(),
		ReconnectInterval:    cfg.GetReconnectInitialDelay(),
		ReconnectMaxInterval: cfg.GetReconnectMaxDelay(),
		MaxReconnectAttempts: cfg.Relay.Reconnect.MaxAttempts,
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.GetConnectTimeout())
	defer cancel()

	bridge, err := apc.Connect(connectCtx, bridgeCfg)
	if err != nil {
		return nil, err
	}
	bridge.SetLogger(log)

	log.Info("relay connected", "state", bridge.State().String())
	return bridge, nil
}

// getConfigPath returns the configuration file path.
// Uses COOKERD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("COOKERD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections are healthy.
// mqttClient may be nil when MQTT is disabled.
func healthCheck(ctx context.Context, bridge *apc.Client, mqttClient *mqtt.Client) error {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// An undiscovered cooker is not fatal at startup: the daemon has
	// already decided to continue past the discovery wait, and the
	// bridge keeps resolving in the background.
	if err := bridge.HealthCheck(checkCtx); err != nil && !errors.Is(err, apc.ErrDeviceUnresolved) {
		return fmt.Errorf("relay: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(checkCtx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	return nil
}
