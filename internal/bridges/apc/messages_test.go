package apc

import (
	"encoding/json"
	"errors"
	"testing"
)

// === Envelope Tests ===

func TestDecodeEnvelope_Command(t *testing.T) {
	raw := []byte(`{"command":"RESPONSE","requestId":"abc123","payload":{"status":"ok"}}`)

	env, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("DecodeEnvelope() error = %v", err)
	}

	if env.Command != TypeResponse {
		t.Errorf("Command = %q, want %q", env.Command, TypeResponse)
	}
	if env.RequestID != "abc123" {
		t.Errorf("RequestID = %q, want %q", env.RequestID, "abc123")
	}
}

func TestDecodeEnvelope_MissingCommand(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"requestId":"abc123"}`))
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestDecodeEnvelope_NotJSON(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`not json at all`))
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestEnvelope_Unwrap(t *testing.T) {
	inner := []byte(`{"command":"EVENT_APC_STATE","payload":{"cookerId":"c1"}}`)
	env := Envelope{Command: EventWrapped, Payload: inner}

	nested, err := env.Unwrap()
	if err != nil {
		t.Fatalf("Unwrap() error = %v", err)
	}
	if nested.Command != EventState {
		t.Errorf("nested.Command = %q, want %q", nested.Command, EventState)
	}
}

func TestEnvelope_Unwrap_NotCarrier(t *testing.T) {
	env := Envelope{Command: EventState}
	if _, err := env.Unwrap(); !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestNewCommand_RoundTrip(t *testing.T) {
	env, err := NewCommand(CommandStart, "req-1", StartPayload{
		CookerID:          "anova test-0001",
		TargetTemperature: 62.5,
		Unit:              "C",
		Timer:             5400,
	})
	if err != nil {
		t.Fatalf("NewCommand() error = %v", err)
	}

	var p StartPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if p.CookerID != "anova test-0001" {
		t.Errorf("CookerID = %q", p.CookerID)
	}
	if p.Timer != 5400 {
		t.Errorf("Timer = %d, want 5400", p.Timer)
	}
	if p.Unit != "C" {
		t.Errorf("Unit = %q, want C", p.Unit)
	}
}

// === Response Tests ===

func TestParseResponse_OK(t *testing.T) {
	resp, err := ParseResponse([]byte(`{"status":"ok"}`))
	if err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}
	if err := resp.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestParseResponse_BadStatus(t *testing.T) {
	_, err := ParseResponse([]byte(`{"status":"maybe"}`))
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestResponsePayload_ErrMapping(t *testing.T) {
	tests := []struct {
		name string
		resp ResponsePayload
		want error
	}{
		{
			name: "device busy",
			resp: ResponsePayload{Status: "error", Code: CodeDeviceBusy},
			want: ErrDeviceBusy,
		},
		{
			name: "no active cook",
			resp: ResponsePayload{Status: "error", Code: CodeNoActiveCook},
			want: ErrNoActiveCook,
		},
		{
			name: "unknown code",
			resp: ResponsePayload{Status: "error", Code: "SOMETHING_ELSE", Message: "nope"},
			want: ErrCommandRejected,
		},
		{
			name: "error without code",
			resp: ResponsePayload{Status: "error"},
			want: ErrCommandRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.resp.Err(); !errors.Is(err, tt.want) {
				t.Errorf("Err() = %v, want %v", err, tt.want)
			}
		})
	}
}

// === Device List Tests ===

func TestParseDeviceList(t *testing.T) {
	raw := []byte(`[{"cookerId":"anova sim-0000000000","type":"pro","name":"Kitchen"}]`)

	devices, err := ParseDeviceList(raw)
	if err != nil {
		t.Fatalf("ParseDeviceList() error = %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("len(devices) = %d, want 1", len(devices))
	}
	if devices[0].CookerID != "anova sim-0000000000" {
		t.Errorf("CookerID = %q", devices[0].CookerID)
	}
	if devices[0].Type != "pro" {
		t.Errorf("Type = %q, want pro", devices[0].Type)
	}
}

func TestParseDeviceList_NotArray(t *testing.T) {
	_, err := ParseDeviceList([]byte(`{"cookerId":"c1"}`))
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("expected ErrInvalidMessage, got %v", err)
	}
}

// === State Event Tests ===

func TestParseStateEvent(t *testing.T) {
	raw := []byte(`{
		"cookerId": "anova sim-0000000000",
		"type": "pro",
		"state": {
			"job": {"target-temperature": 62.5, "cook-time-seconds": 5400},
			"job-status": {"state": "COOKING", "cook-time-remaining": 4000},
			"temperature-info": {"water-temperature": 61.9}
		}
	}`)

	cookerID, status, err := ParseStateEvent(raw)
	if err != nil {
		t.Fatalf("ParseStateEvent() error = %v", err)
	}

	if cookerID != "anova sim-0000000000" {
		t.Errorf("cookerID = %q", cookerID)
	}
	if status.State != StateCooking {
		t.Errorf("State = %q, want COOKING", status.State)
	}
	if status.WaterTemp != 61.9 {
		t.Errorf("WaterTemp = %v, want 61.9", status.WaterTemp)
	}
	if status.TargetTemp != 62.5 {
		t.Errorf("TargetTemp = %v, want 62.5", status.TargetTemp)
	}
	if status.TimeRemaining != 4000 {
		t.Errorf("TimeRemaining = %d, want 4000", status.TimeRemaining)
	}
	if status.LastUpdated.IsZero() {
		t.Error("LastUpdated should be set")
	}
}

func TestParseStateEvent_UnknownState(t *testing.T) {
	raw := []byte(`{
		"cookerId": "c1",
		"state": {
			"job-status": {"state": "DEFROSTING"},
			"temperature-info": {"water-temperature": 20.0}
		}
	}`)

	_, status, err := ParseStateEvent(raw)
	if err != nil {
		t.Fatalf("ParseStateEvent() error = %v", err)
	}
	if status.State != StateUnknown {
		t.Errorf("State = %q, want UNKNOWN", status.State)
	}
	if status.WaterTemp != 20.0 {
		t.Errorf("WaterTemp = %v, want 20.0", status.WaterTemp)
	}
}

func TestParseStateEvent_MissingCookerID(t *testing.T) {
	_, _, err := ParseStateEvent([]byte(`{"state":{}}`))
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestCookState_Active(t *testing.T) {
	if !StatePreheating.Active() {
		t.Error("PREHEATING should be active")
	}
	if !StateCooking.Active() {
		t.Error("COOKING should be active")
	}
	if StateIdle.Active() {
		t.Error("IDLE should not be active")
	}
	if StateDone.Active() {
		t.Error("DONE should not be active")
	}
}
