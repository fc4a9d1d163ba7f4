package apc

import (
	"encoding/json"
	"fmt"
)

// Relay message commands. Commands sent by the bridge use the CMD_ prefix
// and carry a requestId; the relay answers each with a RESPONSE bearing
// the same requestId. EVENT_ messages arrive unsolicited.
const (
	CommandStart         = "CMD_APC_START"
	CommandStop          = "CMD_APC_STOP"
	CommandSetTargetTemp = "CMD_APC_SET_TARGET_TEMP"
	CommandSetTimer      = "CMD_APC_SET_TIMER"

	TypeResponse = "RESPONSE"

	// EventDeviceList announces the cookers on the account. The relay
	// sends it first after every successful connection.
	EventDeviceList = "EVENT_APC_WIFI_LIST"

	// EventState carries a cooker state snapshot.
	EventState = "EVENT_APC_STATE"

	// EventWrapped is a carrier envelope whose payload is another
	// complete envelope. Some relay deployments deliver all appliance
	// traffic wrapped this way.
	EventWrapped = "EVENT_APC"
)

// Relay error codes carried in RESPONSE payloads.
const (
	CodeDeviceBusy   = "DEVICE_BUSY"
	CodeNoActiveCook = "NO_ACTIVE_COOK"
)

// maxUnwrapDepth bounds nested carrier envelopes. Anything deeper is
// malformed input, not legitimate traffic.
const maxUnwrapDepth = 4

// Envelope is the outer frame of every relay message.
type Envelope struct {
	Command   string          `json:"command"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// StartPayload is the body of a CMD_APC_START command.
// Temperature is Celsius, timer is seconds.
type StartPayload struct {
	CookerID          string  `json:"cookerId"`
	TargetTemperature float64 `json:"targetTemperature"`
	Unit              string  `json:"unit"`
	Timer             int     `json:"timer"`
}

// StopPayload is the body of a CMD_APC_STOP command.
type StopPayload struct {
	CookerID string `json:"cookerId"`
}

// SetTargetTempPayload is the body of a CMD_APC_SET_TARGET_TEMP command.
type SetTargetTempPayload struct {
	CookerID          string  `json:"cookerId"`
	TargetTemperature float64 `json:"targetTemperature"`
	Unit              string  `json:"unit"`
}

// SetTimerPayload is the body of a CMD_APC_SET_TIMER command.
type SetTimerPayload struct {
	CookerID string `json:"cookerId"`
	Timer    int    `json:"timer"`
}

// ResponsePayload is the body of a RESPONSE message.
type ResponsePayload struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Err maps a rejection response to a domain error. Returns nil for
// accepted responses.
func (p ResponsePayload) Err() error {
	if p.Status == "ok" {
		return nil
	}
	switch p.Code {
	case CodeDeviceBusy:
		return ErrDeviceBusy
	case CodeNoActiveCook:
		return ErrNoActiveCook
	default:
		if p.Message != "" {
			return fmt.Errorf("%w: %s", ErrCommandRejected, p.Message)
		}
		return ErrCommandRejected
	}
}

// DeviceInfo describes one cooker in an EVENT_APC_WIFI_LIST payload.
type DeviceInfo struct {
	CookerID string `json:"cookerId"`
	Type     string `json:"type"`
	Name     string `json:"name"`
}

// NewCommand builds a command envelope with a marshalled payload.
func NewCommand(command, requestID string, payload any) (Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encoding %s payload: %w", command, err)
	}
	return Envelope{
		Command:   command,
		RequestID: requestID,
		Payload:   body,
	}, nil
}

// DecodeEnvelope parses a raw relay frame into an Envelope.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if env.Command == "" {
		return Envelope{}, fmt.Errorf("%w: missing command", ErrInvalidMessage)
	}
	return env, nil
}

// Unwrap extracts the nested envelope from a carrier message.
func (e Envelope) Unwrap() (Envelope, error) {
	if e.Command != EventWrapped {
		return Envelope{}, fmt.Errorf("%w: %s is not a carrier message", ErrInvalidMessage, e.Command)
	}
	return DecodeEnvelope(e.Payload)
}

// ParseResponse decodes a RESPONSE payload.
func ParseResponse(raw json.RawMessage) (ResponsePayload, error) {
	var resp ResponsePayload
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ResponsePayload{}, fmt.Errorf("%w: response payload: %w", ErrInvalidMessage, err)
	}
	if resp.Status != "ok" && resp.Status != "error" {
		return ResponsePayload{}, fmt.Errorf("%w: response status %q", ErrInvalidMessage, resp.Status)
	}
	return resp, nil
}

// ParseDeviceList decodes an EVENT_APC_WIFI_LIST payload.
// The payload is a bare JSON array, not an object.
func ParseDeviceList(raw json.RawMessage) ([]DeviceInfo, error) {
	var devices []DeviceInfo
	if err := json.Unmarshal(raw, &devices); err != nil {
		return nil, fmt.Errorf("%w: device list payload: %w", ErrInvalidMessage, err)
	}
	return devices, nil
}
