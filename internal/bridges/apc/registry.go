package apc

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DeviceRecord describes a cooker announced by the relay.
type DeviceRecord struct {
	CookerID  string
	Type      string
	Name      string
	FirstSeen time.Time
}

// deviceRegistry tracks the cookers announced on the current connection
// and the one the bridge operates on. Selection happens once per
// connection: the configured hint wins if it is announced, otherwise the
// first cooker listed. The ready channel is closed on selection so
// waiters unblock without polling.
type deviceRegistry struct {
	mu       sync.Mutex
	hint     string
	devices  map[string]DeviceRecord
	selected string
	ready    chan struct{}
}

func newDeviceRegistry(hint string) *deviceRegistry {
	return &deviceRegistry{
		hint:    hint,
		devices: make(map[string]DeviceRecord),
		ready:   make(chan struct{}),
	}
}

// applyDeviceList merges an announcement into the registry and performs
// selection if none has happened on this connection. Returns the selected
// cooker id and whether this call performed the selection.
func (r *deviceRegistry) applyDeviceList(devices []DeviceInfo) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, d := range devices {
		if d.CookerID == "" {
			continue
		}
		if existing, ok := r.devices[d.CookerID]; ok {
			existing.Type = d.Type
			existing.Name = d.Name
			r.devices[d.CookerID] = existing
			continue
		}
		r.devices[d.CookerID] = DeviceRecord{
			CookerID:  d.CookerID,
			Type:      d.Type,
			Name:      d.Name,
			FirstSeen: now,
		}
	}

	if r.selected != "" {
		return r.selected, false
	}

	if r.hint != "" {
		if _, ok := r.devices[r.hint]; ok {
			r.selected = r.hint
			close(r.ready)
			return r.selected, true
		}
		// Hint not announced yet; keep waiting rather than grab the
		// wrong cooker.
		return "", false
	}

	for _, d := range devices {
		if d.CookerID != "" {
			r.selected = d.CookerID
			close(r.ready)
			return r.selected, true
		}
	}

	return "", false
}

// selectedDevice returns the cooker the bridge operates on, if selection
// has happened on this connection.
func (r *deviceRegistry) selectedDevice() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selected, r.selected != ""
}

// waitForDevice blocks until a cooker is selected, the context ends, or
// shutdown is signalled.
func (r *deviceRegistry) waitForDevice(ctx context.Context, closed <-chan struct{}) (string, error) {
	r.mu.Lock()
	if r.selected != "" {
		id := r.selected
		r.mu.Unlock()
		return id, nil
	}
	ready := r.ready
	r.mu.Unlock()

	select {
	case <-ready:
		// Selection closed the channel; re-read under the lock. A reset
		// may have raced in, in which case selected is empty again.
		r.mu.Lock()
		id := r.selected
		r.mu.Unlock()
		if id == "" {
			return "", ErrDeviceUnresolved
		}
		return id, nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return "", ErrDiscoveryTimeout
		}
		return "", ctx.Err()
	case <-closed:
		return "", ErrShuttingDown
	}
}

// snapshot returns the announced cookers ordered by id.
func (r *deviceRegistry) snapshot() []DeviceRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]DeviceRecord, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CookerID < out[j].CookerID })
	return out
}

// reset clears announcements and selection for a new connection. The old
// ready channel is abandoned closed or not; waiters racing a reset
// re-check selection and fall out with ErrDeviceUnresolved.
func (r *deviceRegistry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.devices = make(map[string]DeviceRecord)
	r.selected = ""
	select {
	case <-r.ready:
		// Already closed by a selection; waiters on it will observe the
		// cleared selection. Fresh channel for the new connection.
		r.ready = make(chan struct{})
	default:
		// Never closed; keep it so existing waiters survive the
		// reconnect and unblock when the new connection selects.
	}
}
