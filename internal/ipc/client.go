package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/1broseidon/floatwm/internal/runtimepath"
	"github.com/1broseidon/floatwm/internal/surface"
)

// ErrSessionClosed is returned by session calls after the connection ended.
var ErrSessionClosed = errors.New("session closed")

// Client sends one-shot control requests to the compositor
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithPath(socketPath)
}

// NewClientWithPath creates a client for an explicit socket.
func NewClientWithPath(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to compositor: %w (is floatwm running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	if err := writeLine(conn, req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("compositor error: %s", resp.Error)
	}
	return &resp, nil
}

func (c *Client) call(cmd CommandType, payload any, out any) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return fmt.Errorf("failed to parse %s data: %w", cmd, err)
		}
	}
	return nil
}

// GetStatus retrieves compositor status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListWindows returns every mapped window.
func (c *Client) ListWindows() (*WindowsData, error) {
	var data WindowsData
	if err := c.call(CommandListWindows, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// ListOutputs returns the output layout.
func (c *Client) ListOutputs() (*OutputsData, error) {
	var data OutputsData
	if err := c.call(CommandListOutputs, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Spawn starts command with the compositor's client environment.
func (c *Client) Spawn(command string) error {
	return c.call(CommandSpawn, SpawnPayload{Command: command}, nil)
}

func (c *Client) FocusWindow(id uint32) error {
	return c.call(CommandFocusWindow, WindowPayload{ID: id}, nil)
}

func (c *Client) MoveWindow(id uint32, x, y int) error {
	return c.call(CommandMoveWindow, MoveWindowPayload{ID: id, X: x, Y: y}, nil)
}

// CloseWindow asks the window's client to close it.
func (c *Client) CloseWindow(id uint32) error {
	return c.call(CommandCloseWindow, WindowPayload{ID: id}, nil)
}

// SwitchWorkspace activates workspace n, counting from 1.
func (c *Client) SwitchWorkspace(n int) error {
	return c.call(CommandSwitchWorkspace, SwitchWorkspacePayload{Workspace: n}, nil)
}

// Quit stops the compositor.
func (c *Client) Quit() error {
	return c.call(CommandQuit, nil, nil)
}

// Ping checks if the compositor is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}

// SessionClient is a connected client session. Requests are serialized;
// events arrive on Events until the connection closes.
type SessionClient struct {
	conn    net.Conn
	id      string
	events  chan surface.Event
	replies chan Response
	mu      sync.Mutex
	done    chan struct{}
}

// Dial opens a client session on socketPath.
func Dial(socketPath string) (*SessionClient, error) {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to compositor: %w", err)
	}
	sc := &SessionClient{
		conn:    conn,
		events:  make(chan surface.Event, 1024),
		replies: make(chan Response, 1),
		done:    make(chan struct{}),
	}
	go sc.readLoop()

	var hello HelloData
	if err := sc.call(CommandHello, nil, &hello); err != nil {
		conn.Close()
		return nil, err
	}
	sc.id = hello.Session
	return sc, nil
}

// ID returns the session id assigned by the compositor.
func (sc *SessionClient) ID() string { return sc.id }

// Events delivers server events. It is closed when the session ends.
func (sc *SessionClient) Events() <-chan surface.Event { return sc.events }

// Done is closed when the connection ends.
func (sc *SessionClient) Done() <-chan struct{} { return sc.done }

func (sc *SessionClient) readLoop() {
	defer close(sc.done)
	defer close(sc.events)
	reader := bufio.NewReader(sc.conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}
		var probe struct {
			Event *surface.Event `json:"event"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			continue
		}
		if probe.Event != nil {
			// A client that stops reading events loses them rather than
			// stalling its replies.
			select {
			case sc.events <- *probe.Event:
			default:
			}
			continue
		}
		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			continue
		}
		sc.replies <- resp
	}
}

func (sc *SessionClient) call(cmd CommandType, payload any, out any) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		req.Payload = data
	}
	if err := writeLine(sc.conn, req); err != nil {
		return fmt.Errorf("failed to send %s: %w", cmd, err)
	}

	select {
	case resp := <-sc.replies:
		if resp.Status == "ERROR" {
			return fmt.Errorf("compositor error: %s", resp.Error)
		}
		if out != nil {
			return json.Unmarshal(resp.Data, out)
		}
		return nil
	case <-sc.done:
		return ErrSessionClosed
	}
}

// CreateSurface creates a surface and returns its id.
func (sc *SessionClient) CreateSurface(p CreateSurfacePayload) (uint32, error) {
	var data SurfaceData
	if err := sc.call(CommandCreateSurface, p, &data); err != nil {
		return 0, err
	}
	return data.Surface, nil
}

func (sc *SessionClient) Attach(p AttachPayload) error {
	return sc.call(CommandAttach, p, nil)
}

func (sc *SessionClient) Commit(id uint32, frame bool) error {
	return sc.call(CommandCommit, CommitPayload{Surface: id, Frame: frame}, nil)
}

func (sc *SessionClient) SetCursor(p SetCursorPayload) error {
	return sc.call(CommandSetCursor, p, nil)
}

// Move starts an interactive move of a window while a button is held.
func (sc *SessionClient) Move(id uint32) error {
	return sc.call(CommandMove, SurfacePayload{Surface: id}, nil)
}

// Resize starts an interactive resize of a window while a button is held.
func (sc *SessionClient) Resize(id uint32) error {
	return sc.call(CommandResize, SurfacePayload{Surface: id}, nil)
}

func (sc *SessionClient) Destroy(id uint32) error {
	return sc.call(CommandDestroy, SurfacePayload{Surface: id}, nil)
}

// Close ends the session; the compositor destroys its surfaces.
func (sc *SessionClient) Close() error {
	err := sc.conn.Close()
	<-sc.done
	return err
}
