package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Run starts the monitor on the current terminal and blocks until the user quits.
func Run(src Source) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("top requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	_, err := tea.NewProgram(newModel(src), tea.WithAltScreen()).Run()
	return err
}
