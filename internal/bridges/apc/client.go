package apc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// closeOnce wraps a channel with sync.Once to prevent double-close panics.
type closeOnce struct {
	ch   chan struct{}
	once sync.Once
}

func newCloseOnce() *closeOnce {
	return &closeOnce{ch: make(chan struct{})}
}

func (c *closeOnce) Close() {
	c.once.Do(func() { close(c.ch) })
}

func (c *closeOnce) Done() <-chan struct{} {
	return c.ch
}

// Default timeouts and intervals for relay communication.
const (
	// defaultConnectTimeout is the maximum time for one connection attempt.
	defaultConnectTimeout = 10 * time.Second

	// defaultCommandTimeout is how long a command waits for its RESPONSE.
	defaultCommandTimeout = 10 * time.Second

	// defaultDiscoveryTimeout is how long readiness waits for the relay
	// to announce a cooker.
	defaultDiscoveryTimeout = 30 * time.Second

	// defaultWriteTimeout is the timeout for a single websocket write.
	defaultWriteTimeout = 5 * time.Second

	// defaultReconnectInterval is the initial delay between reconnection attempts.
	defaultReconnectInterval = 2 * time.Second

	// maxReconnectInterval is the maximum delay between reconnection attempts.
	maxReconnectInterval = 2 * time.Minute

	// outboundQueueSize is the buffer size for the outbound message queue.
	outboundQueueSize = 16
)

// errCredentialsRejected marks an authentication failure during the
// websocket upgrade. Retrying with the same token cannot succeed, so the
// dial loop treats it as terminal.
var errCredentialsRejected = errors.New("apc: relay rejected credentials")

// Config holds relay connection configuration.
type Config struct {
	// URL is the relay websocket endpoint (ws:// or wss://).
	URL string

	// Token is the account credential. It travels only as a query
	// parameter during connection establishment, never in payloads.
	Token string

	// Accessories is the capability filter announced at connect time.
	// Default: "APC".
	Accessories string

	// DeviceHint optionally pins the bridge to a specific cooker id.
	// Empty means first cooker announced.
	DeviceHint string

	// ConnectTimeout bounds a single connection attempt.
	// Default: 10 seconds.
	ConnectTimeout time.Duration

	// CommandTimeout bounds the wait for a command RESPONSE, measured
	// from registration. Default: 10 seconds.
	CommandTimeout time.Duration

	// DiscoveryTimeout bounds the wait for the relay to announce a
	// cooker when the caller's context has no deadline.
	// Default: 30 seconds.
	DiscoveryTimeout time.Duration

	// ReconnectInterval is the initial delay between reconnection
	// attempts. Default: 2 seconds.
	ReconnectInterval time.Duration

	// ReconnectMaxInterval caps the reconnect backoff.
	// Default: 2 minutes.
	ReconnectMaxInterval time.Duration

	// MaxReconnectAttempts limits consecutive failed connection
	// attempts before the bridge degrades. 0 means unlimited.
	MaxReconnectAttempts int
}

// Stats holds operational statistics.
type Stats struct {
	MessagesTx      uint64
	MessagesRx      uint64
	ErrorsTotal     uint64
	ReconnectsTotal uint64 // Successful reconnections
	PendingRequests int
	LastActivity    time.Time
	Connected       bool
	Degraded        bool // True once reconnect attempts were exhausted
}

// ConnState is the client's connection lifecycle state.
type ConnState int32

// Connection lifecycle states.
const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateClosing
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "disconnected"
	}
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Controller is the cooker control surface exposed by the client.
// This allows mocking the bridge in tests.
type Controller interface {
	StartCook(ctx context.Context, targetTempC float64, duration time.Duration) error
	StopCook(ctx context.Context) error
	SetTargetTemp(ctx context.Context, targetTempC float64) error
	SetTimer(ctx context.Context, duration time.Duration) error
	Status() (Status, error)
	WaitUntilReady(ctx context.Context) (string, error)
	Devices() []DeviceRecord
	Stats() Stats
	Shutdown() error
}

// Ensure Client implements Controller.
var _ Controller = (*Client)(nil)

// Client maintains a persistent authenticated websocket connection to
// the vendor relay and exposes blocking cooker operations to concurrent
// callers.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Status callbacks are invoked from the receive goroutine and must
//     not block.
//
// Auto-Reconnection:
//   - When the connection is lost, in-flight requests fail with
//     ErrConnectionLost and the client reconnects with exponential
//     backoff starting at ReconnectInterval up to ReconnectMaxInterval.
//   - Device discovery and the status snapshot are reset on every
//     disconnect; the relay re-announces both on the new connection.
//   - If MaxReconnectAttempts is exhausted the client degrades:
//     operations fail fast with ErrNotConnected until Shutdown.
type Client struct {
	cfg Config

	// dialURL carries the credential query parameters. redactedURL is
	// the same endpoint with the query stripped, safe for logs.
	dialURL     string
	redactedURL string

	conn   *websocket.Conn
	connMu sync.Mutex

	connState atomic.Int32
	degraded  atomic.Bool

	pending  *pendingTable
	registry *deviceRegistry
	status   *statusCache

	outbound chan Envelope

	// Status update callback
	onStatus   func(cookerID string, s Status)
	callbackMu sync.RWMutex

	// Shutdown coordination (closeOnce prevents double-close panics)
	done         *closeOnce
	shutdownOnce sync.Once
	runCtx       context.Context
	runCancel    context.CancelFunc
	wg           sync.WaitGroup

	// Logger (optional)
	logger   Logger
	loggerMu sync.RWMutex

	// Statistics (atomic for performance)
	messagesTx      atomic.Uint64
	messagesRx      atomic.Uint64
	errorsTotal     atomic.Uint64
	reconnectsTotal atomic.Uint64 // Successful reconnections
	lastActivity    atomic.Int64  // Unix timestamp
}

// Connect establishes the relay connection and starts the receive loop.
//
// Connection attempts are retried with exponential backoff until the
// context ends or MaxReconnectAttempts is exhausted. Authentication
// rejections are terminal and returned immediately.
//
// Parameters:
//   - ctx: Context bounding the initial connection
//   - cfg: Connection configuration
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: If no connection could be established
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	applyDefaults(&cfg)

	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: relay URL is required", ErrConnectionFailed)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: relay token is required", ErrConnectionFailed)
	}

	dialURL, redactedURL, err := buildDialURL(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())

	client := &Client{
		cfg:         cfg,
		dialURL:     dialURL,
		redactedURL: redactedURL,
		pending:     newPendingTable(cfg.CommandTimeout),
		registry:    newDeviceRegistry(cfg.DeviceHint),
		status:      &statusCache{},
		outbound:    make(chan Envelope, outboundQueueSize),
		done:        newCloseOnce(),
		runCtx:      runCtx,
		runCancel:   runCancel,
	}
	client.setState(StateConnecting)

	conn, err := client.dialLoop(ctx)
	if err != nil {
		runCancel()
		client.setState(StateDisconnected)
		return nil, err
	}

	client.wg.Add(1)
	go client.run(conn)

	return client, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Accessories == "" {
		cfg.Accessories = "APC"
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = defaultCommandTimeout
	}
	if cfg.DiscoveryTimeout == 0 {
		cfg.DiscoveryTimeout = defaultDiscoveryTimeout
	}
	if cfg.ReconnectInterval == 0 {
		cfg.ReconnectInterval = defaultReconnectInterval
	}
	if cfg.ReconnectMaxInterval == 0 {
		cfg.ReconnectMaxInterval = maxReconnectInterval
	}
}

// buildDialURL appends the credential query parameters to the relay URL
// and also returns a redacted form with the query stripped for logging.
func buildDialURL(cfg Config) (dialURL, redactedURL string, err error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", "", fmt.Errorf("invalid relay URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", "", fmt.Errorf("unsupported scheme %q (use ws or wss)", u.Scheme)
	}

	q := u.Query()
	q.Set("token", cfg.Token)
	q.Set("supportedAccessories", cfg.Accessories)
	u.RawQuery = q.Encode()
	dialURL = u.String()

	u.RawQuery = ""
	return dialURL, u.String(), nil
}

// connectOnce performs a single dial and websocket upgrade.
func (c *Client) connectOnce(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.ConnectTimeout}
	conn, resp, err := dialer.DialContext(dialCtx, c.dialURL, nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return nil, fmt.Errorf("%w: %w: status %d", ErrConnectionFailed, errCredentialsRejected, resp.StatusCode)
			}
			return nil, fmt.Errorf("%w: upgrade rejected with status %d", ErrConnectionFailed, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnectionFailed, c.redactedURL, err)
	}
	return conn, nil
}

// dialLoop attempts connection with exponential backoff until success,
// context end, shutdown, or attempt ceiling.
func (c *Client) dialLoop(ctx context.Context) (*websocket.Conn, error) {
	backoff := c.cfg.ReconnectInterval
	var lastErr error

	for attempt := 1; ; attempt++ {
		if c.cfg.MaxReconnectAttempts > 0 && attempt > c.cfg.MaxReconnectAttempts {
			return nil, fmt.Errorf("%w: %d attempts exhausted: %w",
				ErrConnectionFailed, c.cfg.MaxReconnectAttempts, lastErr)
		}

		conn, err := c.connectOnce(ctx)
		if err == nil {
			return conn, nil
		}
		if errors.Is(err, errCredentialsRejected) {
			return nil, err
		}

		lastErr = err
		c.errorsTotal.Add(1)
		c.logWarn("relay connection attempt failed",
			"attempt", attempt, "backoff", backoff.String(), "error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, ctx.Err())
		case <-c.done.Done():
			return nil, ErrShuttingDown
		case <-time.After(backoff):
		}

		// Exponential backoff with cap
		backoff = time.Duration(float64(backoff) * 1.5)
		if backoff > c.cfg.ReconnectMaxInterval {
			backoff = c.cfg.ReconnectMaxInterval
		}
	}
}

// run owns the connection lifecycle: it serves one connection until it
// drops, tears down per-connection state, and reconnects.
func (c *Client) run(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		c.serveConn(conn)

		if c.isClosed() {
			return
		}

		// The connection is gone. Every in-flight request belongs to it
		// and can never resolve; fail them before redialling. Discovery
		// and status are connection-scoped and start over.
		c.setState(StateDisconnected)
		c.pending.failAll(ErrConnectionLost)
		c.drainOutbound()
		c.registry.reset()
		c.status.reset()
		c.logInfo("relay connection lost, reconnecting")

		c.setState(StateConnecting)
		next, err := c.dialLoop(c.runCtx)
		if err != nil {
			c.setState(StateDisconnected)
			if c.isClosed() {
				return
			}
			c.degraded.Store(true)
			c.logError("reconnect attempts exhausted, bridge degraded", err)
			return
		}

		// A shutdown that raced the redial found no connection to close.
		if c.isClosed() {
			next.Close()
			return
		}

		c.reconnectsTotal.Add(1)
		c.logInfo("relay reconnected", "total_reconnects", c.reconnectsTotal.Load())
		conn = next
	}
}

// serveConn reads from one connection until it fails. A paired writer
// goroutine drains the outbound queue for the connection's lifetime.
func (c *Client) serveConn(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	closed := c.isClosed()
	c.connMu.Unlock()

	// Shutdown closes whatever connection is published in c.conn. If it
	// ran before the store above it found nil and closed nothing, and
	// the read loop below would block on a socket nothing else can
	// reach. Closing here makes the first ReadMessage fail immediately.
	if closed {
		conn.Close()
	}

	c.setState(StateConnected)
	c.degraded.Store(false)
	c.lastActivity.Store(time.Now().Unix())
	c.logInfo("relay connected", "url", c.redactedURL)

	stopWriter := make(chan struct{})
	c.wg.Add(1)
	go c.writePump(conn, stopWriter)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !c.isClosed() {
				c.logDebug("relay read ended", "error", err)
			}
			break
		}

		c.messagesRx.Add(1)
		c.lastActivity.Store(time.Now().Unix())

		env, err := DecodeEnvelope(data)
		if err != nil {
			c.errorsTotal.Add(1)
			c.logWarn("dropping malformed relay message", "error", err)
			continue
		}

		c.dispatch(env, 0)
	}

	close(stopWriter)
	conn.Close()

	c.connMu.Lock()
	c.conn = nil
	c.connMu.Unlock()
}

// writePump serialises all writes for one connection. A write failure
// closes the connection, which unblocks the read loop and triggers
// reconnection.
func (c *Client) writePump(conn *websocket.Conn, stop <-chan struct{}) {
	defer c.wg.Done()

	for {
		select {
		case <-c.done.Done():
			return
		case <-stop:
			return
		case env := <-c.outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
			if err := conn.WriteJSON(env); err != nil {
				c.errorsTotal.Add(1)
				c.logError("relay write failed", err)
				conn.Close()
				return
			}
			c.messagesTx.Add(1)
			c.lastActivity.Store(time.Now().Unix())
		}
	}
}

// dispatch routes one decoded envelope. Carrier envelopes are unwrapped
// recursively up to maxUnwrapDepth.
func (c *Client) dispatch(env Envelope, depth int) {
	switch env.Command {
	case TypeResponse:
		c.handleResponse(env)
	case EventDeviceList:
		c.handleDeviceList(env)
	case EventState:
		c.handleStateEvent(env)
	case EventWrapped:
		if depth >= maxUnwrapDepth {
			c.errorsTotal.Add(1)
			c.logWarn("carrier message nested too deep, dropping", "depth", depth)
			return
		}
		nested, err := env.Unwrap()
		if err != nil {
			c.errorsTotal.Add(1)
			c.logWarn("dropping malformed carrier message", "error", err)
			return
		}
		c.dispatch(nested, depth+1)
	default:
		c.logDebug("unhandled relay message dropped", "message_command", env.Command)
	}
}

func (c *Client) handleResponse(env Envelope) {
	resp, err := ParseResponse(env.Payload)
	if err != nil {
		c.errorsTotal.Add(1)
		c.logWarn("malformed response payload", "error", err, "request_id", env.RequestID)
		// A malformed response still resolves its own request; other
		// callers are unaffected.
		if env.RequestID != "" {
			c.pending.fail(env.RequestID, err)
		}
		return
	}

	if env.RequestID == "" {
		c.logDebug("response without request id dropped")
		return
	}

	if !c.pending.fulfill(env.RequestID, resp) {
		// Expected after a timeout or reconnect; not an error.
		c.logDebug("late response discarded", "request_id", env.RequestID)
	}
}

func (c *Client) handleDeviceList(env Envelope) {
	devices, err := ParseDeviceList(env.Payload)
	if err != nil {
		c.errorsTotal.Add(1)
		c.logWarn("malformed device list", "error", err)
		return
	}

	if id, selected := c.registry.applyDeviceList(devices); selected {
		c.logInfo("cooker selected", "cooker_id", id, "announced", len(devices))
	}
}

func (c *Client) handleStateEvent(env Envelope) {
	cookerID, status, err := ParseStateEvent(env.Payload)
	if err != nil {
		c.errorsTotal.Add(1)
		c.logWarn("malformed state event", "error", err)
		return
	}

	if selected, ok := c.registry.selectedDevice(); ok {
		if selected != cookerID {
			c.logDebug("state for unselected cooker ignored", "cooker_id", cookerID)
			return
		}
	} else if c.cfg.DeviceHint != "" && c.cfg.DeviceHint != cookerID {
		return
	}

	c.status.set(status)
	c.notifyStatus(cookerID, status)
}

// notifyStatus invokes the status callback if set.
// Panics in the callback are recovered and logged.
func (c *Client) notifyStatus(cookerID string, status Status) {
	c.callbackMu.RLock()
	callback := c.onStatus
	c.callbackMu.RUnlock()

	if callback == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			c.logError("status callback panic", fmt.Errorf("%v", r))
		}
	}()
	callback(cookerID, status)
}

// drainOutbound discards writes queued by a dead connection epoch.
// Their callers were already failed with ErrConnectionLost; letting the
// next epoch's writer transmit them would execute commands on the
// device with nobody waiting on the outcome.
func (c *Client) drainOutbound() {
	for {
		select {
		case <-c.outbound:
		default:
			return
		}
	}
}

// send queues an envelope for the writer goroutine.
func (c *Client) send(ctx context.Context, env Envelope) error {
	select {
	case c.outbound <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done.Done():
		return ErrShuttingDown
	}
}

// command sends a request and blocks until its response, deadline, or
// connection loss. The response deadline starts at registration, before
// the write, so a stalled relay cannot extend it.
func (c *Client) command(ctx context.Context, command string, payload any) error {
	if c.isClosed() {
		return ErrShuttingDown
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	id := uuid.NewString()
	env, err := NewCommand(command, id, payload)
	if err != nil {
		return err
	}

	req, err := c.pending.register(id)
	if err != nil {
		return err
	}

	if err := c.send(ctx, env); err != nil {
		c.pending.remove(id)
		return err
	}

	resp, err := c.pending.await(ctx, req)
	if err != nil {
		return err
	}
	return resp.Err()
}

// resolveDevice returns the selected cooker, waiting for discovery if
// none has been announced yet. Callers without a context deadline get
// the configured discovery timeout.
func (c *Client) resolveDevice(ctx context.Context) (string, error) {
	if id, ok := c.registry.selectedDevice(); ok {
		return id, nil
	}
	if !c.IsConnected() {
		return "", ErrNotConnected
	}

	waitCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.cfg.DiscoveryTimeout)
		defer cancel()
	}
	return c.registry.waitForDevice(waitCtx, c.done.Done())
}

// StartCook starts a cook at the given target temperature (Celsius) for
// the given duration. Blocks until the cooker acknowledges or rejects.
//
// Returns ErrDeviceBusy if a cook is already running.
func (c *Client) StartCook(ctx context.Context, targetTempC float64, duration time.Duration) error {
	cookerID, err := c.resolveDevice(ctx)
	if err != nil {
		return err
	}
	return c.command(ctx, CommandStart, StartPayload{
		CookerID:          cookerID,
		TargetTemperature: targetTempC,
		Unit:              "C",
		Timer:             int(duration.Seconds()),
	})
}

// StopCook stops the running cook.
//
// Returns ErrNoActiveCook if nothing is running.
func (c *Client) StopCook(ctx context.Context) error {
	cookerID, err := c.resolveDevice(ctx)
	if err != nil {
		return err
	}
	return c.command(ctx, CommandStop, StopPayload{CookerID: cookerID})
}

// SetTargetTemp changes the target temperature (Celsius) of the current
// cook without restarting it.
func (c *Client) SetTargetTemp(ctx context.Context, targetTempC float64) error {
	cookerID, err := c.resolveDevice(ctx)
	if err != nil {
		return err
	}
	return c.command(ctx, CommandSetTargetTemp, SetTargetTempPayload{
		CookerID:          cookerID,
		TargetTemperature: targetTempC,
		Unit:              "C",
	})
}

// SetTimer changes the cook timer without restarting the cook.
func (c *Client) SetTimer(ctx context.Context, duration time.Duration) error {
	cookerID, err := c.resolveDevice(ctx)
	if err != nil {
		return err
	}
	return c.command(ctx, CommandSetTimer, SetTimerPayload{
		CookerID: cookerID,
		Timer:    int(duration.Seconds()),
	})
}

// Status returns the latest cooker snapshot. It never blocks on relay
// traffic.
//
// Returns ErrDeviceUnresolved until the first state event of the
// current connection arrives, and ErrNotConnected while disconnected.
func (c *Client) Status() (Status, error) {
	if s, ok := c.status.get(); ok {
		return s, nil
	}
	if !c.IsConnected() {
		return Status{State: StateUnknown}, ErrNotConnected
	}
	return Status{State: StateUnknown}, ErrDeviceUnresolved
}

// WaitUntilReady blocks until the relay has announced a cooker and the
// bridge is ready to accept commands. This is the authoritative
// readiness signal; a connected transport alone is not ready.
//
// Callers without a context deadline get the configured discovery
// timeout. Returns the selected cooker id.
func (c *Client) WaitUntilReady(ctx context.Context) (string, error) {
	if c.isClosed() {
		return "", ErrShuttingDown
	}
	if c.degraded.Load() {
		return "", ErrNotConnected
	}

	waitCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, c.cfg.DiscoveryTimeout)
		defer cancel()
	}
	return c.registry.waitForDevice(waitCtx, c.done.Done())
}

// Devices returns the cookers announced on the current connection.
func (c *Client) Devices() []DeviceRecord {
	return c.registry.snapshot()
}

// SelectedDevice returns the cooker the bridge operates on, if
// discovery has completed.
func (c *Client) SelectedDevice() (string, bool) {
	return c.registry.selectedDevice()
}

// SetOnStatus sets the callback for cooker state updates.
//
// The callback is invoked from the receive goroutine and must not
// block. Panics are recovered and logged.
func (c *Client) SetOnStatus(callback func(cookerID string, s Status)) {
	c.callbackMu.Lock()
	c.onStatus = callback
	c.callbackMu.Unlock()
}

// SetLogger sets the logger for this client.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// isClosed returns true if the client has been shut down.
func (c *Client) isClosed() bool {
	select {
	case <-c.done.Done():
		return true
	default:
		return false
	}
}

func (c *Client) setState(s ConnState) {
	c.connState.Store(int32(s))
}

// State returns the connection lifecycle state.
func (c *Client) State() ConnState {
	return ConnState(c.connState.Load())
}

// IsConnected returns true if the relay connection is established.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Stats returns current operational statistics.
func (c *Client) Stats() Stats {
	return Stats{
		MessagesTx:      c.messagesTx.Load(),
		MessagesRx:      c.messagesRx.Load(),
		ErrorsTotal:     c.errorsTotal.Load(),
		ReconnectsTotal: c.reconnectsTotal.Load(),
		PendingRequests: c.pending.count(),
		LastActivity:    time.Unix(c.lastActivity.Load(), 0),
		Connected:       c.IsConnected(),
		Degraded:        c.degraded.Load(),
	}
}

// HealthCheck verifies the relay connection is alive and a cooker has
// been discovered.
func (c *Client) HealthCheck(_ context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	if _, ok := c.registry.selectedDevice(); !ok {
		return ErrDeviceUnresolved
	}
	return nil
}

// Shutdown gracefully closes the client.
//
// Callers blocked in operations are released with ErrShuttingDown.
// Safe to call multiple times; concurrent callers block until the first
// shutdown completes.
//
// Returns:
//   - error: nil (closing is best-effort)
func (c *Client) Shutdown() error {
	c.shutdownOnce.Do(func() {
		c.setState(StateClosing)
		c.done.Close()
		c.runCancel()

		// Closing the connection unblocks the read loop.
		c.connMu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.connMu.Unlock()

		c.pending.failAll(ErrShuttingDown)
		c.wg.Wait()

		c.setState(StateDisconnected)
		c.logInfo("relay client stopped")
	})
	return nil
}

// logDebug logs a debug message if logger is set.
func (c *Client) logDebug(msg string, keysAndValues ...any) {
	if logger := c.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if logger is set.
func (c *Client) logInfo(msg string, keysAndValues ...any) {
	if logger := c.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

// logWarn logs a warning message if logger is set.
func (c *Client) logWarn(msg string, keysAndValues ...any) {
	if logger := c.getLogger(); logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is set.
func (c *Client) logError(msg string, err error) {
	if logger := c.getLogger(); logger != nil {
		logger.Error(msg, "error", err)
	}
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}
