package mqtt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/relaykitchen/cooker-core/internal/infrastructure/config"
)

// === Topic Builder Tests ===

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "cooker status",
			got:  topics.CookerStatus("anova sim-0000000000"),
			want: "cookerd/status/anova sim-0000000000",
		},
		{
			name: "device list",
			got:  topics.CookerDevices(),
			want: "cookerd/devices",
		},
		{
			name: "system status",
			got:  topics.SystemStatus(),
			want: "cookerd/system/status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

// === Options Tests ===

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "localhost",
			Port:     1883,
			ClientID: "test-client",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     60,
		},
	}
}

func TestBuildClientOptions_PlainBroker(t *testing.T) {
	opts := buildClientOptions(testConfig())

	if len(opts.Servers) != 1 {
		t.Fatalf("len(Servers) = %d, want 1", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://localhost:1883" {
		t.Errorf("broker URL = %q, want tcp://localhost:1883", got)
	}
	if opts.ClientID != "test-client" {
		t.Errorf("ClientID = %q, want test-client", opts.ClientID)
	}
}

func TestBuildClientOptions_TLSBroker(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if got := opts.Servers[0].String(); got != "ssl://localhost:8883" {
		t.Errorf("broker URL = %q, want ssl://localhost:8883", got)
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig should be set when TLS is enabled")
	}
}

func TestBuildClientOptions_Auth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "bridge"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if opts.Username != "bridge" {
		t.Errorf("Username = %q, want bridge", opts.Username)
	}
	if opts.Password != "secret" {
		t.Errorf("Password not carried into options")
	}
}

// === Payload Tests ===

func TestStatusPayloads(t *testing.T) {
	for _, payload := range []string{
		buildOnlinePayload("test-client"),
		buildOfflinePayload("test-client"),
	} {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
			t.Fatalf("payload is not valid JSON: %v", err)
		}
		if decoded["client_id"] != "test-client" {
			t.Errorf("client_id = %v, want test-client", decoded["client_id"])
		}
		if decoded["timestamp"] == "" {
			t.Error("timestamp missing")
		}
	}

	if !strings.Contains(buildOfflinePayload("c"), "graceful_shutdown") {
		t.Error("offline payload should carry graceful_shutdown reason")
	}
}

func TestCookerStatusMessage_JSON(t *testing.T) {
	msg := CookerStatusMessage{
		CookerID:      "anova sim-0000000000",
		State:         "COOKING",
		WaterTemp:     62.4,
		TargetTemp:    62.5,
		TimerSeconds:  5400,
		TimeRemaining: 4100,
		Timestamp:     "2026-08-31T12:00:00Z",
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["state"] != "COOKING" {
		t.Errorf("state = %v", decoded["state"])
	}
	if decoded["water_temp_c"] != 62.4 {
		t.Errorf("water_temp_c = %v", decoded["water_temp_c"])
	}
}
