package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/kballard/go-shellquote"
	"golang.org/x/term"

	"github.com/1broseidon/floatwm/internal/backend"
	"github.com/1broseidon/floatwm/internal/backend/x11"
	"github.com/1broseidon/floatwm/internal/compositor"
	"github.com/1broseidon/floatwm/internal/config"
	"github.com/1broseidon/floatwm/internal/daemon"
	"github.com/1broseidon/floatwm/internal/ipc"
	"github.com/1broseidon/floatwm/internal/logging"
	"github.com/1broseidon/floatwm/internal/runtimepath"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runRun(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "outputs":
		os.Exit(runOutputs(os.Args[2:]))
	case "spawn":
		os.Exit(runSpawn(os.Args[2:]))
	case "focus":
		os.Exit(runWindowCommand("focus", os.Args[2:], (*ipc.Client).FocusWindow))
	case "close":
		os.Exit(runWindowCommand("close", os.Args[2:], (*ipc.Client).CloseWindow))
	case "workspace":
		os.Exit(runWorkspace(os.Args[2:]))
	case "quit":
		os.Exit(runQuit(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "palette":
		os.Exit(runPalette(os.Args[2:]))
	case "top":
		os.Exit(runTop(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: floatwm <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Start the compositor (foreground)")
	fmt.Fprintln(w, "  status              Show compositor status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  windows             List windows")
	fmt.Fprintln(w, "  outputs             List outputs")
	fmt.Fprintln(w, "  spawn               Start a program inside the compositor")
	fmt.Fprintln(w, "  focus               Focus a window by id")
	fmt.Fprintln(w, "  close               Ask a window to close")
	fmt.Fprintln(w, "  workspace           Switch workspace")
	fmt.Fprintln(w, "  quit                Stop the compositor")
	fmt.Fprintln(w, "  palette             Pick a window, workspace or action with a launcher")
	fmt.Fprintln(w, "  top                 Live window monitor")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'floatwm <command> --help' for command-specific options.")
}

// parseFlags parses args and reports the exit code to use when parsing
// stopped the command.
func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func runRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	backendName := fs.String("backend", "", "Backend: auto, x11 or headless (default: config backend)")
	logLevel := fs.String("log", "", "Log level: debug, info, warning or error (default: config log_level)")
	spawnCmd := fs.String("spawn", "", "Command to start once the compositor is ready")
	path := fs.String("config", "", "Config file path (default: ~/.config/floatwm/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floatwm run [--backend B] [--log LEVEL] [--spawn CMD] [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "run takes no arguments")
		fs.Usage()
		return 2
	}

	// A .env next to the working directory may set DISPLAY or XDG paths.
	_ = godotenv.Load()

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg := res.Config

	levelName := cfg.LogLevel
	if *logLevel != "" {
		levelName = *logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	logDir, err := runtimepath.LogDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
	}
	logs, err := logging.Init(logging.Options{
		Level:      level,
		Dir:        logDir,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logs.Close()
	logger := logs.Logger
	defer logging.Recover(logger)

	name := cfg.Backend
	if *backendName != "" {
		name = *backendName
	}
	kind, err := resolveBackend(name, os.Getenv("DISPLAY"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	be, err := openBackend(kind, cfg.Outputs, logger)
	if err != nil {
		logger.Error("failed to initialize backend", "backend", kind, "error", err)
		return 1
	}
	defer be.Close()

	sock, err := runtimepath.SocketPath()
	if err != nil {
		logger.Error("failed to resolve socket path", "error", err)
		return 1
	}
	state, err := compositor.New(compositor.Options{
		Config:     cfg,
		Backend:    be,
		Logger:     logger,
		SocketPath: sock,
	})
	if err != nil {
		logger.Error("failed to initialize compositor", "error", err)
		return 1
	}

	server := ipc.NewServer(sock, state, logger)
	if err := server.Listen(); err != nil {
		logger.Error("failed to start IPC server", "error", err)
		return 1
	}
	defer server.Close()
	state.SetFlusher(server.Flush)

	if *spawnCmd != "" {
		command := *spawnCmd
		state.OnReady(func() {
			if err := state.Spawn(command); err != nil {
				logger.Warn("failed to spawn", "command", command, "error", err)
			}
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("floatwm started", "backend", be.Name(), "config", strings.Join(res.Files, ","), "log", logs.Path)
	if err := daemon.Run(ctx, state, server, daemon.Options{Logger: logger}); err != nil {
		logger.Error("compositor stopped with error", "error", err)
		return 1
	}
	logger.Info("floatwm stopped")
	return 0
}

// resolveBackend maps a configured backend name to x11 or headless. auto
// picks x11 when a display is available.
func resolveBackend(name, display string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", config.BackendAuto:
		if display != "" {
			return config.BackendX11, nil
		}
		return config.BackendHeadless, nil
	case config.BackendX11, "winit":
		return config.BackendX11, nil
	case config.BackendHeadless:
		return config.BackendHeadless, nil
	}
	return "", fmt.Errorf("unknown backend %q (want auto, x11 or headless)", name)
}

func openBackend(kind string, outputs []config.Output, logger *slog.Logger) (backend.Backend, error) {
	if kind == config.BackendX11 {
		b, err := x11.New(outputs, logger)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return backend.NewHeadless(outputs, logger)
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floatwm status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show compositor status via IPC.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("running:        %v\n", status.Running)
	fmt.Printf("backend:        %s\n", status.Backend)
	fmt.Printf("seat:           %s\n", status.Seat)
	fmt.Printf("workspace:      %d/%d\n", status.Workspace, status.WorkspaceCount)
	fmt.Printf("window_count:   %d\n", status.WindowCount)
	fmt.Printf("clients:        %d\n", status.Clients)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Output JSON (default when stdout is not a terminal)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floatwm windows [--json]")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	data, err := ipc.NewClient().ListWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON || !term.IsTerminal(int(os.Stdout.Fd())) {
		return printJSON(os.Stdout, data.Windows)
	}
	printWindowsTable(os.Stdout, data.Windows)
	return 0
}

func printWindowsTable(w io.Writer, windows []ipc.WindowInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWS\tGEOMETRY\tFOCUS\tCLIENT\tTITLE")
	for _, win := range windows {
		focus := ""
		switch {
		case win.Focused:
			focus = "focused"
		case win.Activated:
			focus = "active"
		}
		client := win.Client
		if len(client) > 8 {
			client = client[:8]
		}
		fmt.Fprintf(tw, "%d\t%d\t%dx%d+%d+%d\t%s\t%s\t%s\n",
			win.ID, win.Workspace, win.Width, win.Height, win.X, win.Y, focus, client, win.Title)
	}
	tw.Flush()
}

func runOutputs(args []string) int {
	fs := flag.NewFlagSet("outputs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Output JSON (default when stdout is not a terminal)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floatwm outputs [--json]")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	data, err := ipc.NewClient().ListOutputs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON || !term.IsTerminal(int(os.Stdout.Fd())) {
		return printJSON(os.Stdout, data.Outputs)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tGEOMETRY\tREFRESH\tSCALE\tTRANSFORM")
	for _, o := range data.Outputs {
		fmt.Fprintf(tw, "%s\t%dx%d+%d+%d\t%.2fHz\t%g\t%s\n",
			o.Name, o.Width, o.Height, o.X, o.Y, float64(o.Refresh)/1000, o.Scale, o.Transform)
	}
	tw.Flush()
	return 0
}

func printJSON(w io.Writer, v any) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runSpawn(args []string) int {
	fs := flag.NewFlagSet("spawn", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floatwm spawn <command> [args...]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Start a program inside the running compositor.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "spawn requires a command")
		fs.Usage()
		return 2
	}

	if err := ipc.NewClient().Spawn(spawnCommand(fs.Args())); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// spawnCommand rebuilds a command line from argv. A single argument is taken
// as a whole command line.
func spawnCommand(argv []string) string {
	if len(argv) == 1 {
		return argv[0]
	}
	return shellquote.Join(argv...)
}

func runWindowCommand(name string, args []string, fn func(*ipc.Client, uint32) error) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: floatwm %s <window-id>\n", name)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Window ids are listed by 'floatwm windows'.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "%s requires exactly one window id\n", name)
		fs.Usage()
		return 2
	}
	id, err := strconv.ParseUint(fs.Arg(0), 10, 32)
	if err != nil || id == 0 {
		fmt.Fprintf(os.Stderr, "invalid window id %q\n", fs.Arg(0))
		return 2
	}

	if err := fn(ipc.NewClient(), uint32(id)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runWorkspace(args []string) int {
	fs := flag.NewFlagSet("workspace", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floatwm workspace <n>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Switch to workspace n, counting from 1.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	n, err := strconv.Atoi(fs.Arg(0))
	if err != nil || n < 1 {
		fmt.Fprintf(os.Stderr, "invalid workspace %q\n", fs.Arg(0))
		return 2
	}

	if err := ipc.NewClient().SwitchWorkspace(n); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runQuit(args []string) int {
	fs := flag.NewFlagSet("quit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floatwm quit")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if err := ipc.NewClient().Quit(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
