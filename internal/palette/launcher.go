package palette

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

type kind int

const (
	kindRofi kind = iota
	kindFuzzel
	kindWofi
	kindBemenu
	kindDmenu
)

var kinds = map[string]kind{
	"rofi":   kindRofi,
	"fuzzel": kindFuzzel,
	"wofi":   kindWofi,
	"bemenu": kindBemenu,
	"dmenu":  kindDmenu,
}

// command runs a dmenu-compatible launcher: rows on stdin, choice on stdout.
type command struct {
	name string
	kind kind
}

// indexed launchers print the chosen row number instead of its text.
func (c *command) indexed() bool {
	return c.kind == kindRofi || c.kind == kindFuzzel
}

func (c *command) Choose(ctx context.Context, prompt string, items []Item) (Item, error) {
	if len(items) == 0 {
		return Item{}, errors.New("palette: no items to show")
	}
	rows := c.labels(items)

	cmd := exec.CommandContext(ctx, c.name, c.args(prompt, items)...)
	cmd.Stdin = strings.NewReader(c.input(items, rows))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	selection := strings.TrimSpace(string(out))
	if err != nil {
		if selection == "" && isCancelExit(err) {
			return Item{}, ErrCancelled
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Item{}, fmt.Errorf("%s failed: %s", c.name, msg)
		}
		return Item{}, fmt.Errorf("%s failed: %w", c.name, err)
	}
	if selection == "" {
		return Item{}, ErrCancelled
	}
	return c.parse(selection, items, rows)
}

func (c *command) args(prompt string, items []Item) []string {
	var args []string
	switch c.kind {
	case kindRofi:
		args = []string{"-dmenu", "-i", "-format", "i", "-no-custom", "-markup-rows", "-show-icons"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		var active []string
		for i, it := range items {
			if it.Active && !it.Header {
				active = append(active, strconv.Itoa(i))
			}
		}
		if len(active) > 0 {
			args = append(args, "-a", strings.Join(active, ","))
		}
	case kindFuzzel:
		args = []string{"--dmenu", "--index"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case kindWofi:
		args = []string{"--dmenu", "--insensitive"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case kindBemenu, kindDmenu:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}
	return args
}

// labels returns the visible text of each row. Launchers that print text
// back get duplicate labels numbered so the choice stays unambiguous.
func (c *command) labels(items []Item) []string {
	rows := make([]string, len(items))
	seen := make(map[string]int)
	for i, it := range items {
		label := sanitize(it.Label)
		if !c.indexed() && !it.Header {
			if n := seen[label]; n > 0 {
				label = fmt.Sprintf("%s (%d)", label, n+1)
			}
			seen[sanitize(it.Label)]++
		}
		rows[i] = label
	}
	return rows
}

func (c *command) input(items []Item, rows []string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		if c.kind != kindRofi {
			lines[i] = rows[i]
			continue
		}
		// rofi rows carry properties after a single NUL, separated by \x1f.
		line := html.EscapeString(rows[i])
		var attrs []string
		if it.Header {
			line = "<b>" + line + "</b>"
			attrs = append(attrs, "nonselectable", "true")
		}
		if it.Icon != "" {
			attrs = append(attrs, "icon", sanitizeField(it.Icon))
		}
		if len(attrs) > 0 {
			line += "\x00" + strings.Join(attrs, "\x1f")
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func (c *command) parse(selection string, items []Item, rows []string) (Item, error) {
	if c.indexed() {
		if idx, err := strconv.Atoi(selection); err == nil {
			if idx < 0 || idx >= len(items) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return items[idx], nil
		}
	}
	for i, row := range rows {
		if row == selection {
			return items[i], nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", selection)
}

func sanitize(label string) string {
	label = strings.ReplaceAll(label, "\r", " ")
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.TrimSpace(label)
}

func sanitizeField(value string) string {
	value = strings.ReplaceAll(value, "\x00", " ")
	value = strings.ReplaceAll(value, "\x1f", " ")
	return sanitize(value)
}

// isCancelExit reports the exit codes launchers use for Escape (1) and Ctrl+C (130).
func isCancelExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	code := exitErr.ExitCode()
	return code == 1 || code == 130
}
