package apc

import (
	"context"
	"sync"
	"time"
)

// pendingResult is the outcome delivered to a waiting caller.
type pendingResult struct {
	response ResponsePayload
	err      error
}

// pendingRequest is one in-flight command awaiting its RESPONSE.
// The channel is buffered so the resolver never blocks on a caller.
type pendingRequest struct {
	id       string
	ch       chan pendingResult
	deadline time.Time
}

// pendingTable correlates command requestIds with their responses.
//
// Every request resolves exactly once: fulfilment, failure, and timeout
// all race to remove the entry from the map under the lock, and only the
// winner delivers. Responses arriving after resolution find no entry and
// are discarded by the caller.
type pendingTable struct {
	mu       sync.Mutex
	requests map[string]*pendingRequest
	timeout  time.Duration
}

func newPendingTable(timeout time.Duration) *pendingTable {
	return &pendingTable{
		requests: make(map[string]*pendingRequest),
		timeout:  timeout,
	}
}

// register creates an entry for a new request. The response deadline
// starts now, not at write time, so relay stalls count against it.
func (t *pendingTable) register(id string) (*pendingRequest, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.requests[id]; exists {
		return nil, ErrDuplicateRequest
	}

	req := &pendingRequest{
		id:       id,
		ch:       make(chan pendingResult, 1),
		deadline: time.Now().Add(t.timeout),
	}
	t.requests[id] = req
	return req, nil
}

// remove takes an entry out of the table. Returns nil if the request was
// already resolved. The caller that gets a non-nil entry owns delivery.
func (t *pendingTable) remove(id string) *pendingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()

	req, ok := t.requests[id]
	if !ok {
		return nil
	}
	delete(t.requests, id)
	return req
}

// fulfill delivers a response to the waiting caller. Returns false if the
// request was already resolved (timed out, failed, or never existed).
func (t *pendingTable) fulfill(id string, resp ResponsePayload) bool {
	req := t.remove(id)
	if req == nil {
		return false
	}
	req.ch <- pendingResult{response: resp}
	return true
}

// fail resolves a single request with an error.
func (t *pendingTable) fail(id string, err error) bool {
	req := t.remove(id)
	if req == nil {
		return false
	}
	req.ch <- pendingResult{err: err}
	return true
}

// failAll resolves every in-flight request with the same error. Used on
// disconnect and shutdown so no caller is left blocked.
func (t *pendingTable) failAll(err error) {
	t.mu.Lock()
	pending := t.requests
	t.requests = make(map[string]*pendingRequest)
	t.mu.Unlock()

	for _, req := range pending {
		req.ch <- pendingResult{err: err}
	}
}

// count returns the number of in-flight requests.
func (t *pendingTable) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}

// await blocks until the request resolves, its deadline passes, or the
// context ends. On deadline or cancellation it races the resolver for
// ownership: if the resolver already removed the entry, the delivered
// result wins and is returned instead.
func (t *pendingTable) await(ctx context.Context, req *pendingRequest) (ResponsePayload, error) {
	timer := time.NewTimer(time.Until(req.deadline))
	defer timer.Stop()

	select {
	case res := <-req.ch:
		return res.response, res.err
	case <-timer.C:
		if t.remove(req.id) != nil {
			return ResponsePayload{}, ErrRequestTimeout
		}
		res := <-req.ch
		return res.response, res.err
	case <-ctx.Done():
		if t.remove(req.id) != nil {
			return ResponsePayload{}, ctx.Err()
		}
		res := <-req.ch
		return res.response, res.err
	}
}
