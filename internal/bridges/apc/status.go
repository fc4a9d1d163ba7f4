package apc

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// CookState is the cooker's reported lifecycle state.
type CookState string

// Cooker lifecycle states as reported in EVENT_APC_STATE messages.
const (
	StateIdle       CookState = "IDLE"
	StatePreheating CookState = "PREHEATING"
	StateCooking    CookState = "COOKING"
	StateDone       CookState = "DONE"
	StateUnknown    CookState = "UNKNOWN"
)

// Active reports whether the cooker is running a cook (heating or holding).
func (s CookState) Active() bool {
	return s == StatePreheating || s == StateCooking
}

// Status is a point-in-time snapshot of the cooker, built from the most
// recent EVENT_APC_STATE message. Temperatures are Celsius, durations
// are seconds.
type Status struct {
	State         CookState
	WaterTemp     float64
	TargetTemp    float64
	TimerSeconds  int
	TimeRemaining int
	LastUpdated   time.Time
}

// stateEventPayload is the wire form of an EVENT_APC_STATE payload.
// The vendor nests the snapshot under kebab-case keys.
type stateEventPayload struct {
	CookerID string `json:"cookerId"`
	Type     string `json:"type"`
	State    struct {
		Job struct {
			TargetTemperature float64 `json:"target-temperature"`
			CookTimeSeconds   int     `json:"cook-time-seconds"`
		} `json:"job"`
		JobStatus struct {
			State             string `json:"state"`
			CookTimeRemaining int    `json:"cook-time-remaining"`
		} `json:"job-status"`
		TemperatureInfo struct {
			WaterTemperature float64 `json:"water-temperature"`
		} `json:"temperature-info"`
	} `json:"state"`
}

// ParseStateEvent decodes an EVENT_APC_STATE payload into a Status.
// Returns the cooker identifier the snapshot belongs to.
func ParseStateEvent(raw json.RawMessage) (string, Status, error) {
	var p stateEventPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", Status{}, fmt.Errorf("%w: state payload: %w", ErrInvalidMessage, err)
	}
	if p.CookerID == "" {
		return "", Status{}, fmt.Errorf("%w: state payload missing cookerId", ErrInvalidMessage)
	}

	state := CookState(p.State.JobStatus.State)
	switch state {
	case StateIdle, StatePreheating, StateCooking, StateDone:
	default:
		// Unrecognised states are preserved as UNKNOWN rather than
		// failing the whole snapshot; temperatures are still useful.
		state = StateUnknown
	}

	return p.CookerID, Status{
		State:         state,
		WaterTemp:     p.State.TemperatureInfo.WaterTemperature,
		TargetTemp:    p.State.Job.TargetTemperature,
		TimerSeconds:  p.State.Job.CookTimeSeconds,
		TimeRemaining: p.State.JobStatus.CookTimeRemaining,
		LastUpdated:   time.Now(),
	}, nil
}

// statusCache holds the latest cooker snapshot. Reads never block on
// relay traffic; they only take the lock long enough to copy the value.
type statusCache struct {
	mu      sync.RWMutex
	current Status
	valid   bool
}

func (c *statusCache) set(s Status) {
	c.mu.Lock()
	c.current = s
	c.valid = true
	c.mu.Unlock()
}

func (c *statusCache) get() (Status, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.valid
}

// reset invalidates the cache. Called on disconnect so a stale snapshot
// from a previous connection is never served as current.
func (c *statusCache) reset() {
	c.mu.Lock()
	c.current = Status{}
	c.valid = false
	c.mu.Unlock()
}
