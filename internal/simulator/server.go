package simulator

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Config holds simulator settings.
type Config struct {
	// Token is the credential the relay requires as a query parameter
	// on the websocket upgrade. Empty disables the check.
	Token string

	// Cooker identity announced in the device list.
	CookerID   string
	DeviceType string
	Name       string

	// TickInterval is the physics and broadcast cadence used by Run.
	// Default: 1 second.
	TickInterval time.Duration

	// WrapEvents delivers every outbound message inside an EVENT_APC
	// carrier envelope, as some relay deployments do.
	WrapEvents bool

	// Logger is optional.
	Logger *slog.Logger
}

// frame is an outbound relay message.
type frame struct {
	Command   string `json:"command"`
	RequestID string `json:"requestId,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// inboundFrame is a message received from a bridge.
type inboundFrame struct {
	Command   string          `json:"command"`
	RequestID string          `json:"requestId"`
	Payload   json.RawMessage `json:"payload"`
}

// Command payload shapes accepted from bridges.
type startPayload struct {
	CookerID          string  `json:"cookerId"`
	TargetTemperature float64 `json:"targetTemperature"`
	Unit              string  `json:"unit"`
	Timer             int     `json:"timer"`
}

type stopPayload struct {
	CookerID string `json:"cookerId"`
}

type setTargetTempPayload struct {
	CookerID          string  `json:"cookerId"`
	TargetTemperature float64 `json:"targetTemperature"`
	Unit              string  `json:"unit"`
}

type setTimerPayload struct {
	CookerID string `json:"cookerId"`
	Timer    int    `json:"timer"`
}

// Server is an in-process stand-in for the vendor relay. It speaks the
// relay's websocket protocol: token-checked upgrade, device list and
// state snapshot on connect, request/response commands, and periodic
// state broadcasts.
//
// It implements http.Handler so tests can mount it on httptest.Server
// and cmd/cookersim can serve it standalone.
type Server struct {
	cfg      Config
	cooker   *Cooker
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex // per-connection write lock

	// silent swallows commands without responding, for timeout tests.
	silent atomic.Bool
}

// New creates a simulator with one cooker.
func New(cfg Config) *Server {
	if cfg.CookerID == "" {
		cfg.CookerID = "anova sim-0000000000"
	}
	if cfg.DeviceType == "" {
		cfg.DeviceType = "pro"
	}
	if cfg.Name == "" {
		cfg.Name = "Simulated Cooker"
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		cfg:     cfg,
		cooker:  NewCooker(cfg.CookerID, cfg.DeviceType, cfg.Name),
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Cooker returns the simulated appliance for direct inspection in tests.
func (s *Server) Cooker() *Cooker {
	return s.cooker
}

// SetSilent makes the relay swallow commands without responding.
// State broadcasts continue.
func (s *Server) SetSilent(silent bool) {
	s.silent.Store(silent)
}

// ServeHTTP upgrades the connection after validating the credential and
// capability query parameters, then serves the relay protocol until the
// client disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Token != "" && r.URL.Query().Get("token") != s.cfg.Token {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if acc := r.URL.Query().Get("supportedAccessories"); !strings.Contains(acc, "APC") {
		http.Error(w, "unsupported accessories", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.cfg.Logger.Warn("upgrade failed", "error", err)
		return
	}

	s.addClient(conn)
	defer s.removeClient(conn)

	// The device list always arrives first, then a state snapshot.
	id, deviceType, name := s.cooker.Device()
	s.writeTo(conn, frame{
		Command: "EVENT_APC_WIFI_LIST",
		Payload: []map[string]any{{
			"cookerId": id,
			"type":     deviceType,
			"name":     name,
		}},
	})
	s.writeTo(conn, frame{
		Command: "EVENT_APC_STATE",
		Payload: s.cooker.StatePayload(),
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var in inboundFrame
		if err := json.Unmarshal(data, &in); err != nil {
			s.cfg.Logger.Warn("malformed frame", "error", err)
			continue
		}
		s.handleCommand(conn, in)
	}
}

func (s *Server) handleCommand(conn *websocket.Conn, in inboundFrame) {
	if s.silent.Load() {
		return
	}

	var cmdErr *CommandError
	broadcast := false

	switch in.Command {
	case "CMD_APC_START":
		var p startPayload
		cmdErr = decodePayload(in.Payload, &p)
		if cmdErr == nil {
			cmdErr = s.checkCookerID(p.CookerID)
		}
		if cmdErr == nil {
			cmdErr = s.cooker.Start(p.TargetTemperature, p.Unit, p.Timer)
		}
		broadcast = cmdErr == nil
	case "CMD_APC_STOP":
		var p stopPayload
		cmdErr = decodePayload(in.Payload, &p)
		if cmdErr == nil {
			cmdErr = s.checkCookerID(p.CookerID)
		}
		if cmdErr == nil {
			cmdErr = s.cooker.Stop()
		}
		broadcast = cmdErr == nil
	case "CMD_APC_SET_TARGET_TEMP":
		var p setTargetTempPayload
		cmdErr = decodePayload(in.Payload, &p)
		if cmdErr == nil {
			cmdErr = s.checkCookerID(p.CookerID)
		}
		if cmdErr == nil {
			cmdErr = s.cooker.SetTargetTemp(p.TargetTemperature, p.Unit)
		}
		broadcast = cmdErr == nil
	case "CMD_APC_SET_TIMER":
		var p setTimerPayload
		cmdErr = decodePayload(in.Payload, &p)
		if cmdErr == nil {
			cmdErr = s.checkCookerID(p.CookerID)
		}
		if cmdErr == nil {
			cmdErr = s.cooker.SetTimer(p.Timer)
		}
		broadcast = cmdErr == nil
	default:
		cmdErr = &CommandError{Code: "UNKNOWN_COMMAND", Message: in.Command}
	}

	payload := map[string]any{"status": "ok"}
	if cmdErr != nil {
		payload = map[string]any{
			"status":  "error",
			"code":    cmdErr.Code,
			"message": cmdErr.Message,
		}
	}
	s.writeTo(conn, frame{
		Command:   "RESPONSE",
		RequestID: in.RequestID,
		Payload:   payload,
	})

	if broadcast {
		s.Broadcast()
	}
}

func decodePayload(raw json.RawMessage, dst any) *CommandError {
	if err := json.Unmarshal(raw, dst); err != nil {
		return &CommandError{Code: "INVALID_PAYLOAD", Message: err.Error()}
	}
	return nil
}

func (s *Server) checkCookerID(id string) *CommandError {
	if id != s.cooker.ID() {
		return &CommandError{Code: "UNKNOWN_DEVICE", Message: id}
	}
	return nil
}

// Broadcast sends the current state snapshot to every connected client.
func (s *Server) Broadcast() {
	f := frame{
		Command: "EVENT_APC_STATE",
		Payload: s.cooker.StatePayload(),
	}

	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		s.writeTo(conn, f)
	}
}

// Run advances the cooker physics and broadcasts on every tick until
// the context ends. Intended for standalone use; tests usually drive
// Tick and Broadcast directly.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.DropClients()
			return
		case <-ticker.C:
			s.cooker.Tick(s.cfg.TickInterval.Seconds())
			s.Broadcast()
		}
	}
}

// DropClients severs every connection, simulating a relay-side outage.
func (s *Server) DropClients() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.clients = make(map[*websocket.Conn]*sync.Mutex)
	s.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}

// ClientCount returns the number of connected bridges.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) addClient(conn *websocket.Conn) {
	s.mu.Lock()
	s.clients[conn] = &sync.Mutex{}
	s.mu.Unlock()
	s.cfg.Logger.Info("bridge connected", "clients", s.ClientCount())
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

// writeTo sends one frame, optionally inside a carrier envelope. Writes
// to the same connection are serialised with a per-connection lock.
func (s *Server) writeTo(conn *websocket.Conn, f frame) {
	var out any = f
	if s.cfg.WrapEvents {
		out = frame{Command: "EVENT_APC", Payload: f}
	}

	s.mu.Lock()
	lock, ok := s.clients[conn]
	s.mu.Unlock()
	if !ok {
		return
	}

	lock.Lock()
	defer lock.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(out); err != nil {
		s.cfg.Logger.Debug("write failed", "error", err)
	}
}
