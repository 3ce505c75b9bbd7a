package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/floatwm/internal/surface"
)

// CommandType represents different IPC command types
type CommandType string

// Control commands. A connection sends one and gets one response.
const (
	CommandGetStatus       CommandType = "GET_STATUS"
	CommandListWindows     CommandType = "LIST_WINDOWS"
	CommandListOutputs     CommandType = "LIST_OUTPUTS"
	CommandSpawn           CommandType = "SPAWN"
	CommandFocusWindow     CommandType = "FOCUS_WINDOW"
	CommandMoveWindow      CommandType = "MOVE_WINDOW"
	CommandCloseWindow     CommandType = "CLOSE_WINDOW"
	CommandSwitchWorkspace CommandType = "SWITCH_WORKSPACE"
	CommandQuit            CommandType = "QUIT"
)

// Session commands. HELLO turns the connection into a client session that
// owns surfaces and receives events until it disconnects.
const (
	CommandHello         CommandType = "HELLO"
	CommandCreateSurface CommandType = "CREATE_SURFACE"
	CommandAttach        CommandType = "ATTACH"
	CommandCommit        CommandType = "COMMIT"
	CommandSetCursor     CommandType = "SET_CURSOR"
	CommandMove          CommandType = "MOVE"
	CommandResize        CommandType = "RESIZE"
	CommandDestroy       CommandType = "DESTROY"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// EventMessage carries a server event on a session connection. Lines with an
// "event" key are events; everything else is a response.
type EventMessage struct {
	Event surface.Event `json:"event"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Backend        string `json:"backend"`
	Seat           string `json:"seat"`
	Workspace      int    `json:"workspace"`
	WorkspaceCount int    `json:"workspace_count"`
	WindowCount    int    `json:"window_count"`
	Clients        int    `json:"clients"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	Running        bool   `json:"running"`
}

// WindowInfo describes a mapped window. Workspace is 1-based.
type WindowInfo struct {
	ID        uint32 `json:"id"`
	Title     string `json:"title"`
	Client    string `json:"client"`
	Workspace int    `json:"workspace"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Focused   bool   `json:"focused"`
	Activated bool   `json:"activated"`
}

// WindowsData represents the data returned by LIST_WINDOWS, bottom to top
// per workspace.
type WindowsData struct {
	Windows []WindowInfo `json:"windows"`
}

// OutputInfo describes an output in the global layout.
type OutputInfo struct {
	Name      string  `json:"name"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Refresh   int     `json:"refresh"`
	Scale     float64 `json:"scale"`
	Transform string  `json:"transform"`
}

// OutputsData represents the data returned by LIST_OUTPUTS
type OutputsData struct {
	Outputs []OutputInfo `json:"outputs"`
}

type SpawnPayload struct {
	Command string `json:"command"`
}

// WindowPayload selects a window for FOCUS_WINDOW and CLOSE_WINDOW.
type WindowPayload struct {
	ID uint32 `json:"id"`
}

type MoveWindowPayload struct {
	ID uint32 `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

// SwitchWorkspacePayload selects a workspace, 1-based.
type SwitchWorkspacePayload struct {
	Workspace int `json:"workspace"`
}

// HelloData is returned by HELLO.
type HelloData struct {
	Session string `json:"session"`
}

// CreateSurfacePayload creates a surface. Role is "toplevel" or "cursor".
type CreateSurfacePayload struct {
	Role   string `json:"role"`
	Title  string `json:"title,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// SurfaceData is returned by CREATE_SURFACE.
type SurfaceData struct {
	Surface uint32 `json:"surface"`
}

// AttachPayload sets a surface's pending buffer: either Pixels, tightly
// packed RGBA rows (base64 in JSON), or a solid Color "#rrggbb".
type AttachPayload struct {
	Surface uint32 `json:"surface"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Color   string `json:"color,omitempty"`
	Pixels  []byte `json:"pixels,omitempty"`
}

// CommitPayload applies the pending buffer. Frame requests a frame event
// after the next presentation.
type CommitPayload struct {
	Surface uint32 `json:"surface"`
	Frame   bool   `json:"frame,omitempty"`
}

// SetCursorPayload sets the pointer image. A nil Surface with Hidden false
// restores the default cursor.
type SetCursorPayload struct {
	Surface  *uint32 `json:"surface"`
	HotspotX int     `json:"hotspot_x"`
	HotspotY int     `json:"hotspot_y"`
	Hidden   bool    `json:"hidden,omitempty"`
}

// SurfacePayload selects one of the session's surfaces.
type SurfacePayload struct {
	Surface uint32 `json:"surface"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// Respond builds an OK response carrying data, or an error response for err.
func Respond(data any, err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// DecodePayload unmarshals req's payload into v.
func DecodePayload(req *Request, v any) error {
	if len(req.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", req.Command)
	}
	if err := json.Unmarshal(req.Payload, v); err != nil {
		return fmt.Errorf("invalid %s payload: %w", req.Command, err)
	}
	return nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
