package mcp

import "github.com/1broseidon/floatwm/internal/ipc"

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	Workspace int    `json:"workspace,omitempty" jsonschema:"Only windows on this workspace (1-based). 0 lists all."`
	Title     string `json:"title,omitempty" jsonschema:"Only windows whose title fuzzily matches this text (case-insensitive)."`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []ipc.WindowInfo `json:"windows"`
}

// ListOutputsInput is the input for the list_outputs tool.
type ListOutputsInput struct{}

// ListOutputsOutput is the output for the list_outputs tool.
type ListOutputsOutput struct {
	Outputs []ipc.OutputInfo `json:"outputs"`
}

// SpawnInput is the input for the spawn tool.
type SpawnInput struct {
	Command string `json:"command" jsonschema:"required,Command line to run, e.g. foot -e htop"`
}

// WindowInput identifies a window by id or by title.
type WindowInput struct {
	ID    uint32 `json:"id,omitempty" jsonschema:"Window id from list_windows"`
	Title string `json:"title,omitempty" jsonschema:"Window title; used when id is 0. Must match exactly one window, exactly or fuzzily."`
}

// MoveWindowInput is the input for the move_window tool.
type MoveWindowInput struct {
	ID    uint32 `json:"id,omitempty" jsonschema:"Window id from list_windows"`
	Title string `json:"title,omitempty" jsonschema:"Window title; used when id is 0"`
	X     int    `json:"x" jsonschema:"required,Global x of the content origin"`
	Y     int    `json:"y" jsonschema:"required,Global y of the content origin"`
}

// SwitchWorkspaceInput is the input for the switch_workspace tool.
type SwitchWorkspaceInput struct {
	Workspace int `json:"workspace" jsonschema:"required,Workspace number, starting at 1"`
}

// QuitInput is the input for the quit tool.
type QuitInput struct{}

// WindowOutput names the window a tool acted on.
type WindowOutput struct {
	ID    uint32 `json:"id"`
	Title string `json:"title"`
}
