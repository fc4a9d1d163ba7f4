package apc

import (
	"context"
	"errors"
	"testing"
	"time"
)

// === Registration Tests ===

func TestPendingTable_RegisterAndFulfill(t *testing.T) {
	table := newPendingTable(time.Second)

	req, err := table.register("req-1")
	if err != nil {
		t.Fatalf("register() error = %v", err)
	}
	if table.count() != 1 {
		t.Errorf("count() = %d, want 1", table.count())
	}

	if !table.fulfill("req-1", ResponsePayload{Status: "ok"}) {
		t.Error("fulfill() should succeed for registered request")
	}
	if table.count() != 0 {
		t.Errorf("count() = %d after fulfill, want 0", table.count())
	}

	resp, err := table.await(context.Background(), req)
	if err != nil {
		t.Fatalf("await() error = %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Status = %q, want ok", resp.Status)
	}
}

func TestPendingTable_DuplicateID(t *testing.T) {
	table := newPendingTable(time.Second)

	if _, err := table.register("req-1"); err != nil {
		t.Fatalf("register() error = %v", err)
	}
	if _, err := table.register("req-1"); !errors.Is(err, ErrDuplicateRequest) {
		t.Errorf("expected ErrDuplicateRequest, got %v", err)
	}
}

func TestPendingTable_FulfillUnknownID(t *testing.T) {
	table := newPendingTable(time.Second)

	if table.fulfill("never-registered", ResponsePayload{Status: "ok"}) {
		t.Error("fulfill() should return false for unknown id")
	}
}

// === Resolution Tests ===

func TestPendingTable_Timeout(t *testing.T) {
	table := newPendingTable(20 * time.Millisecond)

	req, err := table.register("req-1")
	if err != nil {
		t.Fatalf("register() error = %v", err)
	}

	start := time.Now()
	_, err = table.await(context.Background(), req)
	if !errors.Is(err, ErrRequestTimeout) {
		t.Fatalf("expected ErrRequestTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("timeout took %v, deadline not honoured", elapsed)
	}

	// The entry is gone; a late response is discarded.
	if table.fulfill("req-1", ResponsePayload{Status: "ok"}) {
		t.Error("late fulfill() should return false after timeout")
	}
}

func TestPendingTable_ContextCancelled(t *testing.T) {
	table := newPendingTable(time.Minute)

	req, err := table.register("req-1")
	if err != nil {
		t.Fatalf("register() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := table.await(ctx, req); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if table.count() != 0 {
		t.Errorf("count() = %d after cancellation, want 0", table.count())
	}
}

func TestPendingTable_FailAll(t *testing.T) {
	table := newPendingTable(time.Minute)

	var reqs []*pendingRequest
	for _, id := range []string{"a", "b", "c"} {
		req, err := table.register(id)
		if err != nil {
			t.Fatalf("register(%s) error = %v", id, err)
		}
		reqs = append(reqs, req)
	}

	table.failAll(ErrConnectionLost)

	if table.count() != 0 {
		t.Errorf("count() = %d after failAll, want 0", table.count())
	}
	for _, req := range reqs {
		if _, err := table.await(context.Background(), req); !errors.Is(err, ErrConnectionLost) {
			t.Errorf("await(%s) = %v, want ErrConnectionLost", req.id, err)
		}
	}
}

// TestPendingTable_FulfillWinsRace verifies a response delivered while
// the waiter processes its deadline still reaches the caller.
func TestPendingTable_FulfillWinsRace(t *testing.T) {
	table := newPendingTable(time.Minute)

	req, err := table.register("req-1")
	if err != nil {
		t.Fatalf("register() error = %v", err)
	}

	// Resolve before await even starts; the deadline path must then
	// read the buffered result instead of reporting a timeout.
	table.fulfill("req-1", ResponsePayload{Status: "error", Code: CodeDeviceBusy})

	resp, err := table.await(context.Background(), req)
	if err != nil {
		t.Fatalf("await() error = %v", err)
	}
	if resp.Code != CodeDeviceBusy {
		t.Errorf("Code = %q, want DEVICE_BUSY", resp.Code)
	}
}

// TestPendingTable_ConcurrentCallers verifies independent requests
// resolve independently.
func TestPendingTable_ConcurrentCallers(t *testing.T) {
	table := newPendingTable(time.Second)

	reqA, _ := table.register("a")
	reqB, _ := table.register("b")

	done := make(chan error, 2)
	go func() {
		resp, err := table.await(context.Background(), reqA)
		if err == nil && resp.Status != "ok" {
			err = errors.New("unexpected response for a")
		}
		done <- err
	}()
	go func() {
		_, err := table.await(context.Background(), reqB)
		done <- err
	}()

	// Out-of-order resolution: b fails first, then a succeeds.
	table.fail("b", ErrConnectionLost)
	table.fulfill("a", ResponsePayload{Status: "ok"})

	var sawOK, sawLost bool
	for range 2 {
		err := <-done
		switch {
		case err == nil:
			sawOK = true
		case errors.Is(err, ErrConnectionLost):
			sawLost = true
		default:
			t.Errorf("unexpected result: %v", err)
		}
	}
	if !sawOK || !sawLost {
		t.Errorf("sawOK=%v sawLost=%v, want both", sawOK, sawLost)
	}
}
