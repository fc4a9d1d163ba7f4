package apc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newIdleRelay serves websocket upgrades and then holds each connection
// open without sending anything, so a read loop against it blocks until
// the connection is closed from our side.
func newIdleRelay(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// A shutdown can land in the window after a redial succeeds but before
// the fresh connection is published in c.conn. Shutdown then closes
// nothing, so the serving goroutines must notice the closed stop channel
// themselves and close the new socket; otherwise wg.Wait() never returns.
func TestRun_ExitsWhenShutdownLandsBeforeConnPublished(t *testing.T) {
	conn, _, err := websocket.DefaultDialer.Dial(newIdleRelay(t), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	c := &Client{
		cfg: Config{
			CommandTimeout:       time.Second,
			ReconnectInterval:    10 * time.Millisecond,
			ReconnectMaxInterval: 20 * time.Millisecond,
		},
		pending:   newPendingTable(time.Second),
		registry:  newDeviceRegistry(""),
		status:    &statusCache{},
		outbound:  make(chan Envelope, 4),
		done:      newCloseOnce(),
		runCtx:    runCtx,
		runCancel: runCancel,
	}

	// The shutdown half of the race: stop channel closed, run context
	// cancelled, no connection recorded yet for Shutdown to close.
	c.done.Close()
	runCancel()

	c.wg.Add(1)
	go c.run(conn)

	finished := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not exit after shutdown raced the reconnect")
	}
}

func TestDrainOutbound_DiscardsQueuedWrites(t *testing.T) {
	c := &Client{outbound: make(chan Envelope, 4)}

	c.outbound <- Envelope{Command: CommandStart}
	c.outbound <- Envelope{Command: CommandStop}

	c.drainOutbound()

	select {
	case env := <-c.outbound:
		t.Fatalf("queued write survived epoch teardown: %s", env.Command)
	default:
	}
}

func TestDrainOutbound_Empty(t *testing.T) {
	c := &Client{outbound: make(chan Envelope, 4)}
	c.drainOutbound() // must not block
}
