package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/floatwm/internal/ipc"
)

const (
	ServerName    = "floatwm"
	ServerVersion = "0.1.0"
)

// Control is the part of the IPC client the tools use.
type Control interface {
	GetStatus() (*ipc.StatusData, error)
	ListWindows() (*ipc.WindowsData, error)
	ListOutputs() (*ipc.OutputsData, error)
	Spawn(command string) error
	FocusWindow(id uint32) error
	MoveWindow(id uint32, x, y int) error
	CloseWindow(id uint32) error
	SwitchWorkspace(n int) error
	Quit() error
}

var _ Control = (*ipc.Client)(nil)

// Server is the MCP server exposing compositor control as tools.
type Server struct {
	mcpServer *mcpsdk.Server
	control   Control
}

// NewServer creates a new MCP server talking to the compositor through
// control.
func NewServer(control Control) *Server {
	s := &Server{control: control}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the running compositor: backend, active workspace (1-based), workspace count, window and client counts, uptime.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List every window on every workspace with its id, title, workspace, content geometry and focus state. Optionally filter by workspace or a fuzzy title match.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_outputs",
		Description: "List the outputs with their logical position, mode, refresh (mHz), scale and transform.",
	}, s.handleListOutputs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "spawn",
		Description: "Start a program inside the compositor. The command is split like a shell would (quotes respected) and runs detached with FLOATWM_SOCKET set.",
	}, s.handleSpawn)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "focus_window",
		Description: "Raise, activate and keyboard-focus a window, switching to its workspace if needed. Identify it by id or by title.",
	}, s.handleFocusWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_window",
		Description: "Move a window's content origin to (x, y) in global logical coordinates and raise it.",
	}, s.handleMoveWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Ask a window's client to close it. The client decides whether to exit.",
	}, s.handleCloseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "switch_workspace",
		Description: "Switch to a workspace, numbered from 1. Keyboard focus is cleared.",
	}, s.handleSwitchWorkspace)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "quit",
		Description: "Stop the compositor. All client connections are closed.",
	}, s.handleQuit)
}
