package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/floatwm/internal/ipc"
)

func textResult(format string, args ...any) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, ipc.StatusData, error) {
	st, err := s.control.GetStatus()
	if err != nil {
		return nil, ipc.StatusData{}, err
	}
	return nil, *st, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	data, err := s.control.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}
	out := ListWindowsOutput{Windows: []ipc.WindowInfo{}}
	title := strings.TrimSpace(args.Title)
	for _, w := range data.Windows {
		if args.Workspace > 0 && w.Workspace != args.Workspace {
			continue
		}
		if title != "" && !fuzzy.MatchFold(title, w.Title) {
			continue
		}
		out.Windows = append(out.Windows, w)
	}
	return nil, out, nil
}

func (s *Server) handleListOutputs(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListOutputsInput) (*mcpsdk.CallToolResult, ListOutputsOutput, error) {
	data, err := s.control.ListOutputs()
	if err != nil {
		return nil, ListOutputsOutput{}, err
	}
	return nil, ListOutputsOutput{Outputs: data.Outputs}, nil
}

func (s *Server) handleSpawn(_ context.Context, _ *mcpsdk.CallToolRequest, args SpawnInput) (*mcpsdk.CallToolResult, any, error) {
	command := strings.TrimSpace(args.Command)
	if command == "" {
		return nil, nil, fmt.Errorf("command is required")
	}
	if err := s.control.Spawn(command); err != nil {
		return nil, nil, err
	}
	return textResult("Spawned %s", command), nil, nil
}

func (s *Server) handleFocusWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, WindowOutput, error) {
	w, err := s.resolveWindow(args.ID, args.Title)
	if err != nil {
		return nil, WindowOutput{}, err
	}
	if err := s.control.FocusWindow(w.ID); err != nil {
		return nil, WindowOutput{}, err
	}
	return nil, WindowOutput{ID: w.ID, Title: w.Title}, nil
}

func (s *Server) handleMoveWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveWindowInput) (*mcpsdk.CallToolResult, WindowOutput, error) {
	w, err := s.resolveWindow(args.ID, args.Title)
	if err != nil {
		return nil, WindowOutput{}, err
	}
	if err := s.control.MoveWindow(w.ID, args.X, args.Y); err != nil {
		return nil, WindowOutput{}, err
	}
	return nil, WindowOutput{ID: w.ID, Title: w.Title}, nil
}

func (s *Server) handleCloseWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, WindowOutput, error) {
	w, err := s.resolveWindow(args.ID, args.Title)
	if err != nil {
		return nil, WindowOutput{}, err
	}
	if err := s.control.CloseWindow(w.ID); err != nil {
		return nil, WindowOutput{}, err
	}
	return nil, WindowOutput{ID: w.ID, Title: w.Title}, nil
}

func (s *Server) handleSwitchWorkspace(_ context.Context, _ *mcpsdk.CallToolRequest, args SwitchWorkspaceInput) (*mcpsdk.CallToolResult, any, error) {
	if args.Workspace < 1 {
		return nil, nil, fmt.Errorf("workspace must be 1 or greater, got %d", args.Workspace)
	}
	if err := s.control.SwitchWorkspace(args.Workspace); err != nil {
		return nil, nil, err
	}
	return textResult("Switched to workspace %d", args.Workspace), nil, nil
}

func (s *Server) handleQuit(_ context.Context, _ *mcpsdk.CallToolRequest, _ QuitInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.control.Quit(); err != nil {
		return nil, nil, err
	}
	return textResult("Compositor stopping"), nil, nil
}

// resolveWindow finds a window by id, or by title when id is 0. A title
// matches case-insensitively first; otherwise the closest fuzzy match wins
// if it is the only one at its distance.
func (s *Server) resolveWindow(id uint32, title string) (ipc.WindowInfo, error) {
	title = strings.TrimSpace(title)
	if id == 0 && title == "" {
		return ipc.WindowInfo{}, fmt.Errorf("id or title is required")
	}
	data, err := s.control.ListWindows()
	if err != nil {
		return ipc.WindowInfo{}, err
	}

	if id != 0 {
		for _, w := range data.Windows {
			if w.ID == id {
				return w, nil
			}
		}
		return ipc.WindowInfo{}, fmt.Errorf("no window with id %d", id)
	}

	var exact []ipc.WindowInfo
	titles := make([]string, len(data.Windows))
	for i, w := range data.Windows {
		titles[i] = w.Title
		if strings.EqualFold(w.Title, title) {
			exact = append(exact, w)
		}
	}
	switch len(exact) {
	case 1:
		return exact[0], nil
	case 0:
	default:
		return ipc.WindowInfo{}, fmt.Errorf("%d windows are titled %q; use an id", len(exact), title)
	}

	ranks := fuzzy.RankFindFold(title, titles)
	if len(ranks) == 0 {
		return ipc.WindowInfo{}, fmt.Errorf("no window matches %q", title)
	}
	sort.Sort(ranks)
	if len(ranks) > 1 && ranks[0].Distance == ranks[1].Distance {
		names := make([]string, 0, len(ranks))
		for _, r := range ranks {
			names = append(names, fmt.Sprintf("%q", r.Target))
		}
		return ipc.WindowInfo{}, fmt.Errorf("%q is ambiguous: %s", title, strings.Join(names, ", "))
	}
	return data.Windows[ranks[0].OriginalIndex], nil
}
