package main

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/relaykitchen/cooker-core/internal/simulator"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("COOKERD_CONFIG")
	defer os.Setenv("COOKERD_CONFIG", originalEnv)

	os.Setenv("COOKERD_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingRelayToken verifies run fails when the relay token is absent.
func TestRun_MissingRelayToken(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
relay:
  url: "ws://127.0.0.1:18080/ws"
  token: ""

mqtt:
  enabled: false

assistant:
  enabled: false

logging:
  level: info
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("COOKERD_CONFIG")
	defer os.Setenv("COOKERD_CONFIG", originalEnv)
	os.Setenv("COOKERD_CONFIG", configPath)
	// Token env override would mask the empty config value
	originalToken := os.Getenv("COOKERD_RELAY_TOKEN")
	defer os.Setenv("COOKERD_RELAY_TOKEN", originalToken)
	os.Unsetenv("COOKERD_RELAY_TOKEN")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with empty relay token")
	}
}

// TestRun_UnreachableRelay verifies run fails when the relay cannot be reached
// and the reconnect budget is exhausted.
func TestRun_UnreachableRelay(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
relay:
  url: "ws://127.0.0.1:1/ws"
  token: "test-token"
  timeouts:
    connect: 2
  reconnect:
    initial_delay: 1
    max_delay: 1
    max_attempts: 1

mqtt:
  enabled: false

assistant:
  enabled: false

logging:
  level: error
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("COOKERD_CONFIG")
	defer os.Setenv("COOKERD_CONFIG", originalEnv)
	os.Setenv("COOKERD_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail when the relay is unreachable")
	}
}

// TestRun_ContinuesWithoutDiscoveredCooker verifies the daemon stays up
// when the configured cooker is never announced: the discovery wait is
// logged and skipped, and the startup health check does not turn the
// same condition into a fatal error.
func TestRun_ContinuesWithoutDiscoveredCooker(t *testing.T) {
	sim := simulator.New(simulator.Config{Token: "test-token"})
	srv := httptest.NewServer(sim)
	defer srv.Close()
	relayURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
relay:
  url: "` + relayURL + `"
  token: "test-token"
  device_id: "cooker-that-never-announces"
  timeouts:
    connect: 2
    command: 1
    discovery: 1

mqtt:
  enabled: false

assistant:
  enabled: false

logging:
  level: error
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("COOKERD_CONFIG")
	defer os.Setenv("COOKERD_CONFIG", originalEnv)
	os.Setenv("COOKERD_CONFIG", configPath)
	originalDevice := os.Getenv("COOKERD_RELAY_DEVICE_ID")
	defer os.Setenv("COOKERD_RELAY_DEVICE_ID", originalDevice)
	os.Unsetenv("COOKERD_RELAY_DEVICE_ID")

	// The context expiring is the shutdown signal; run must reach it
	// instead of failing the startup health check.
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() should outlive a missing cooker, got: %v", err)
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("COOKERD_CONFIG")
	defer os.Setenv("COOKERD_CONFIG", originalEnv)

	os.Unsetenv("COOKERD_CONFIG")

	path := getConfigPath()
	if path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("COOKERD_CONFIG")
	defer os.Setenv("COOKERD_CONFIG", originalEnv)

	expected := "/custom/path/config.yaml"
	os.Setenv("COOKERD_CONFIG", expected)

	path := getConfigPath()
	if path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}
