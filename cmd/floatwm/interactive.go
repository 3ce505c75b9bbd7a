package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/floatwm/internal/ipc"
	"github.com/1broseidon/floatwm/internal/palette"
	"github.com/1broseidon/floatwm/internal/tui"
)

func runPalette(args []string) int {
	fs := flag.NewFlagSet("palette", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	launcher := fs.String("launcher", "auto", "Launcher: auto, rofi, fuzzel, wofi, bemenu or dmenu")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floatwm palette [--launcher NAME]")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	l, err := palette.New(*launcher)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := palette.Run(ctx, l, ipc.NewClient()); err != nil {
		if errors.Is(err, palette.ErrCancelled) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runTop(args []string) int {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: floatwm top")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show compositor status and windows, refreshed every second.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if err := tui.Run(ipc.NewClient()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
