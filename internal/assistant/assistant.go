package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/relaykitchen/cooker-core/internal/bridges/apc"
	"github.com/relaykitchen/cooker-core/internal/infrastructure/logging"
)

// Bridge is the cooker control surface the assistant tools operate on.
// *apc.Client satisfies it.
type Bridge interface {
	StartCook(ctx context.Context, targetTempC float64, duration time.Duration) error
	StopCook(ctx context.Context) error
	SetTargetTemp(ctx context.Context, targetTempC float64) error
	SetTimer(ctx context.Context, duration time.Duration) error
	Status() (apc.Status, error)
	WaitUntilReady(ctx context.Context) (string, error)
	Devices() []apc.DeviceRecord
}

var _ Bridge = (*apc.Client)(nil)

// Server wraps an MCP stdio server around a Bridge.
type Server struct {
	bridge    Bridge
	mcpServer *server.MCPServer
	logger    *logging.Logger
}

// New creates an assistant server and registers the cooker tool set.
func New(bridge Bridge, version string, logger *logging.Logger) *Server {
	s := &Server{
		bridge:    bridge,
		mcpServer: server.NewMCPServer("cooker-core", version),
		logger:    logger,
	}
	s.registerTools()
	return s
}

// Serve runs the MCP server over stdio until the transport closes.
func (s *Server) Serve() error {
	s.logger.Info("assistant server starting on stdio")
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	startTool := mcp.NewTool("start_cook",
		mcp.WithDescription("Start a sous-vide cook at a target water temperature, with an optional countdown timer"),
		mcp.WithNumber("target_temperature",
			mcp.Required(),
			mcp.Description("Target water temperature in degrees Celsius (20-100)"),
		),
		mcp.WithNumber("minutes",
			mcp.Description("Cook timer in minutes; 0 or omitted runs without a timer"),
		),
	)
	s.mcpServer.AddTool(startTool, s.handleStartCook)

	stopTool := mcp.NewTool("stop_cook",
		mcp.WithDescription("Stop the active cook and return the cooker to idle"),
	)
	s.mcpServer.AddTool(stopTool, s.handleStopCook)

	setTempTool := mcp.NewTool("set_target_temperature",
		mcp.WithDescription("Adjust the target water temperature of the active cook"),
		mcp.WithNumber("target_temperature",
			mcp.Required(),
			mcp.Description("New target temperature in degrees Celsius (20-100)"),
		),
	)
	s.mcpServer.AddTool(setTempTool, s.handleSetTargetTemp)

	setTimerTool := mcp.NewTool("set_timer",
		mcp.WithDescription("Adjust the countdown timer of the active cook"),
		mcp.WithNumber("minutes",
			mcp.Required(),
			mcp.Description("New timer value in minutes"),
		),
	)
	s.mcpServer.AddTool(setTimerTool, s.handleSetTimer)

	statusTool := mcp.NewTool("get_status",
		mcp.WithDescription("Get the current cooker status: state, water temperature, target, timer"),
	)
	s.mcpServer.AddTool(statusTool, s.handleGetStatus)

	readyTool := mcp.NewTool("wait_until_ready",
		mcp.WithDescription("Block until a cooker has been discovered and is reachable"),
		mcp.WithNumber("timeout_seconds",
			mcp.Description("Maximum seconds to wait before giving up"),
		),
	)
	s.mcpServer.AddTool(readyTool, s.handleWaitUntilReady)

	listTool := mcp.NewTool("list_devices",
		mcp.WithDescription("List the cookers announced by the relay"),
	)
	s.mcpServer.AddTool(listTool, s.handleListDevices)
}

func (s *Server) handleStartCook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := request.RequireFloat("target_temperature")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	minutes := request.GetFloat("minutes", 0)
	if minutes < 0 {
		return mcp.NewToolResultError("minutes must not be negative"), nil
	}
	duration := time.Duration(minutes) * time.Minute

	if err := s.bridge.StartCook(ctx, target, duration); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("start cook failed: %v", err)), nil
	}
	if duration > 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Cook started at %.1f°C with a %.0f minute timer.", target, minutes)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cook started at %.1f°C with no timer.", target)), nil
}

func (s *Server) handleStopCook(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.bridge.StopCook(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stop cook failed: %v", err)), nil
	}
	return mcp.NewToolResultText("Cook stopped."), nil
}

func (s *Server) handleSetTargetTemp(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := request.RequireFloat("target_temperature")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.bridge.SetTargetTemp(ctx, target); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("set target temperature failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Target temperature set to %.1f°C.", target)), nil
}

func (s *Server) handleSetTimer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	minutes, err := request.RequireFloat("minutes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if minutes < 0 {
		return mcp.NewToolResultError("minutes must not be negative"), nil
	}
	if err := s.bridge.SetTimer(ctx, time.Duration(minutes)*time.Minute); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("set timer failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Timer set to %.0f minutes.", minutes)), nil
}

func (s *Server) handleGetStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.bridge.Status()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status unavailable: %v", err)), nil
	}

	out := map[string]any{
		"state":          string(status.State),
		"water_temp_c":   status.WaterTemp,
		"target_temp_c":  status.TargetTemp,
		"timer_seconds":  status.TimerSeconds,
		"cooking_active": status.State.Active(),
	}
	if status.TimeRemaining > 0 {
		out["time_remaining_seconds"] = status.TimeRemaining
	}
	if !status.LastUpdated.IsZero() {
		out["last_updated"] = status.LastUpdated.UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode status: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleWaitUntilReady(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	timeout := request.GetFloat("timeout_seconds", 30.0)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout*float64(time.Second)))
		defer cancel()
	}

	cookerID, err := s.bridge.WaitUntilReady(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cooker not ready: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cooker %s is ready.", cookerID)), nil
}

func (s *Server) handleListDevices(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	devices := s.bridge.Devices()
	if len(devices) == 0 {
		return mcp.NewToolResultText("No cookers announced yet."), nil
	}

	out := make([]map[string]any, 0, len(devices))
	for _, d := range devices {
		out = append(out, map[string]any{
			"cooker_id":  d.CookerID,
			"type":       d.Type,
			"name":       d.Name,
			"first_seen": d.FirstSeen.UTC().Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode device list: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
