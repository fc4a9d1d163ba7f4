package simulator

import (
	"fmt"
	"sync"
)

// Cooker lifecycle states.
const (
	stateIdle       = "IDLE"
	statePreheating = "PREHEATING"
	stateCooking    = "COOKING"
	stateDone       = "DONE"
)

// Command validation bounds, matching the real appliance.
const (
	minTargetTemp = 20.0
	maxTargetTemp = 100.0
	minTimer      = 0
	maxTimer      = 359999 // just under 100 hours, in seconds

	// preheatThreshold is how close the water must be to target before
	// the cooker transitions from PREHEATING to COOKING.
	preheatThreshold = 0.5
)

// CommandError is a rejection the cooker reports in a RESPONSE payload.
type CommandError struct {
	Code    string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Cooker models one simulated appliance: its identity, job, and water
// temperature. All methods are safe for concurrent use.
type Cooker struct {
	mu sync.Mutex

	id         string
	deviceType string
	name       string

	state       string
	waterTemp   float64
	targetTemp  float64
	timerTotal  int
	timerRemain int

	ambientTemp float64
	heatingRate float64 // degrees per second while heating
	coolingRate float64 // degrees per second while idle
}

// NewCooker creates an idle cooker at ambient temperature.
func NewCooker(id, deviceType, name string) *Cooker {
	return &Cooker{
		id:          id,
		deviceType:  deviceType,
		name:        name,
		state:       stateIdle,
		waterTemp:   20.0,
		ambientTemp: 20.0,
		heatingRate: 0.5,
		coolingRate: 0.05,
	}
}

// ID returns the cooker identifier.
func (c *Cooker) ID() string {
	return c.id
}

// Device returns the identity fields announced in the device list.
func (c *Cooker) Device() (id, deviceType, name string) {
	return c.id, c.deviceType, c.name
}

// Start begins a cook. Rejected with DEVICE_BUSY if one is running.
func (c *Cooker) Start(targetTemp float64, unit string, timer int) *CommandError {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == statePreheating || c.state == stateCooking {
		return &CommandError{Code: "DEVICE_BUSY", Message: "a cook is already in progress"}
	}
	if unit != "" && unit != "C" {
		return &CommandError{Code: "INVALID_PAYLOAD", Message: fmt.Sprintf("unsupported unit %q", unit)}
	}
	if err := validateTarget(targetTemp); err != nil {
		return err
	}
	if err := validateTimer(timer); err != nil {
		return err
	}

	c.targetTemp = targetTemp
	c.timerTotal = timer
	c.timerRemain = timer
	c.state = statePreheating
	return nil
}

// Stop ends the running cook. Rejected with NO_ACTIVE_COOK when idle.
func (c *Cooker) Stop() *CommandError {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != statePreheating && c.state != stateCooking {
		return &CommandError{Code: "NO_ACTIVE_COOK", Message: "no cook to stop"}
	}

	c.state = stateIdle
	c.targetTemp = 0
	c.timerTotal = 0
	c.timerRemain = 0
	return nil
}

// SetTargetTemp adjusts the running cook's target temperature.
func (c *Cooker) SetTargetTemp(targetTemp float64, unit string) *CommandError {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != statePreheating && c.state != stateCooking {
		return &CommandError{Code: "NO_ACTIVE_COOK", Message: "no cook to adjust"}
	}
	if unit != "" && unit != "C" {
		return &CommandError{Code: "INVALID_PAYLOAD", Message: fmt.Sprintf("unsupported unit %q", unit)}
	}
	if err := validateTarget(targetTemp); err != nil {
		return err
	}

	c.targetTemp = targetTemp
	// A raised target can put the cooker back below threshold.
	if c.waterTemp < c.targetTemp-preheatThreshold {
		c.state = statePreheating
	}
	return nil
}

// SetTimer adjusts the running cook's timer.
func (c *Cooker) SetTimer(timer int) *CommandError {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != statePreheating && c.state != stateCooking {
		return &CommandError{Code: "NO_ACTIVE_COOK", Message: "no cook to adjust"}
	}
	if err := validateTimer(timer); err != nil {
		return err
	}

	c.timerTotal = timer
	c.timerRemain = timer
	return nil
}

func validateTarget(temp float64) *CommandError {
	if temp < minTargetTemp || temp > maxTargetTemp {
		return &CommandError{
			Code:    "INVALID_PAYLOAD",
			Message: fmt.Sprintf("target temperature %.1f out of range %.0f-%.0f", temp, minTargetTemp, maxTargetTemp),
		}
	}
	return nil
}

func validateTimer(timer int) *CommandError {
	if timer < minTimer || timer > maxTimer {
		return &CommandError{
			Code:    "INVALID_PAYLOAD",
			Message: fmt.Sprintf("timer %d out of range %d-%d", timer, minTimer, maxTimer),
		}
	}
	return nil
}

// Tick advances the physics by dt seconds: heating toward target while
// running, drifting toward ambient while idle, and counting the timer
// down once at temperature.
func (c *Cooker) Tick(dt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case statePreheating:
		c.waterTemp += c.heatingRate * dt
		if c.waterTemp >= c.targetTemp-preheatThreshold {
			c.waterTemp = c.targetTemp
			c.state = stateCooking
		}
	case stateCooking:
		c.waterTemp = c.targetTemp
		if c.timerTotal > 0 {
			c.timerRemain -= int(dt)
			if c.timerRemain <= 0 {
				c.timerRemain = 0
				c.state = stateDone
			}
		}
	default:
		if c.waterTemp > c.ambientTemp {
			c.waterTemp -= c.coolingRate * dt
			if c.waterTemp < c.ambientTemp {
				c.waterTemp = c.ambientTemp
			}
		}
	}
}

// State returns the current lifecycle state.
func (c *Cooker) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StatePayload builds the nested EVENT_APC_STATE payload the relay
// broadcasts for this cooker.
func (c *Cooker) StatePayload() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	return map[string]any{
		"cookerId": c.id,
		"type":     c.deviceType,
		"state": map[string]any{
			"job": map[string]any{
				"target-temperature": c.targetTemp,
				"cook-time-seconds":  c.timerTotal,
			},
			"job-status": map[string]any{
				"state":               c.state,
				"cook-time-remaining": c.timerRemain,
			},
			"temperature-info": map[string]any{
				"water-temperature": c.waterTemp,
			},
		},
	}
}
