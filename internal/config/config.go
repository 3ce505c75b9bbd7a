package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/1broseidon/floatwm/internal/geom"
	"github.com/1broseidon/floatwm/internal/keybind"
	"gopkg.in/yaml.v3"
)

// Color is a 24-bit RGB value written as "#rrggbb" in YAML.
type Color uint32

// ParseColor accepts "#rrggbb", "0xrrggbb" or "rrggbb".
func ParseColor(s string) (Color, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimPrefix(v, "#")
	v = strings.TrimPrefix(strings.TrimPrefix(v, "0x"), "0X")
	if len(v) != 6 {
		return 0, fmt.Errorf("invalid color %q: want #rrggbb", s)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color(n), nil
}

func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

// RGB splits the color into 8-bit channels.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string like \"#00ff00\"")
	}
	if value.Tag == "!!int" {
		n, err := strconv.ParseUint(value.Value, 0, 32)
		if err != nil || n > 0xffffff {
			return fmt.Errorf("invalid color %q", value.Value)
		}
		*c = Color(n)
		return nil
	}
	parsed, err := ParseColor(value.Value)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Color) MarshalYAML() (any, error) {
	return c.String(), nil
}

// Border controls the server-side window border.
type Border struct {
	Thickness      int   `yaml:"thickness"`
	FocusedColor   Color `yaml:"focused_color"`
	UnfocusedColor Color `yaml:"unfocused_color"`
}

// Keybind is one entry of the keybinds list.
type Keybind struct {
	Keys    string `yaml:"keys"`
	Action  string `yaml:"action"`
	Command string `yaml:"command,omitempty"`
}

// Output describes a display region. Width and height are the mode size in
// physical pixels; refresh is in mHz.
type Output struct {
	Name      string  `yaml:"name"`
	X         int     `yaml:"x"`
	Y         int     `yaml:"y"`
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	Scale     float64 `yaml:"scale,omitempty"`
	Transform string  `yaml:"transform,omitempty"`
	Refresh   int     `yaml:"refresh,omitempty"`
}

// Cursor configures the compositor-drawn default cursor.
type Cursor struct {
	Size  int   `yaml:"size"`
	Color Color `yaml:"color"`
}

// Log configures the rotating log file.
type Log struct {
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

const (
	BackendAuto     = "auto"
	BackendX11      = "x11"
	BackendHeadless = "headless"
)

const (
	DefaultBorderThickness = 2
	DefaultFocusedColor    = Color(0x00ff00)
	DefaultUnfocusedColor  = Color(0xff0000)
	DefaultWorkspaceCount  = 9
	DefaultRefresh         = 60000
)

// Config holds the compositor configuration. It is read once at startup and
// never mutated afterwards.
type Config struct {
	Backend        string    `yaml:"backend"`
	LogLevel       string    `yaml:"log_level"`
	Border         Border    `yaml:"border"`
	WorkspaceCount int       `yaml:"workspace_count"`
	Keybinds       []Keybind `yaml:"keybinds"`
	Autostart      []string  `yaml:"autostart,omitempty"`
	SpawnEnvFile   string    `yaml:"spawn_env_file,omitempty"`
	Outputs        []Output  `yaml:"outputs,omitempty"`
	Cursor         Cursor    `yaml:"cursor"`
	Log            Log       `yaml:"log"`
}

func DefaultConfig() *Config {
	cfg := &Config{
		Backend:  BackendAuto,
		LogLevel: "info",
		Border: Border{
			Thickness:      DefaultBorderThickness,
			FocusedColor:   DefaultFocusedColor,
			UnfocusedColor: DefaultUnfocusedColor,
		},
		WorkspaceCount: DefaultWorkspaceCount,
		Cursor: Cursor{
			Size:  16,
			Color: Color(0xffffff),
		},
		Log: Log{
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
	for _, b := range keybind.DefaultBinds() {
		kb := Keybind{Keys: b.Binding.String(), Action: b.Action.Kind.String()}
		if b.Action.Kind == keybind.ActionSpawn {
			kb.Command = b.Action.Command
		}
		cfg.Keybinds = append(cfg.Keybinds, kb)
	}
	return cfg
}

// KeybindTable parses the keybinds list into the lookup table used by the
// input router.
func (c *Config) KeybindTable() (*keybind.Table, error) {
	binds := make([]keybind.Bind, 0, len(c.Keybinds))
	for i, kb := range c.Keybinds {
		binding, err := keybind.ParseBinding(kb.Keys)
		if err != nil {
			return nil, &ValidationError{Path: "keybinds", Err: fmt.Errorf("entry %d: %w", i, err)}
		}
		action, err := keybind.ParseAction(kb.Action, kb.Command)
		if err != nil {
			return nil, &ValidationError{Path: "keybinds", Err: fmt.Errorf("entry %d (%s): %w", i, kb.Keys, err)}
		}
		binds = append(binds, keybind.Bind{Binding: binding, Action: action})
	}
	table, err := keybind.NewTable(binds)
	if err != nil {
		return nil, &ValidationError{Path: "keybinds", Err: err}
	}
	return table, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendX11, BackendHeadless:
	default:
		return &ValidationError{Path: "backend", Err: fmt.Errorf("backend must be one of: auto, x11, headless")}
	}
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.Border.Thickness < 0 {
		return &ValidationError{Path: "border.thickness", Err: fmt.Errorf("thickness must be >= 0")}
	}
	if c.Border.FocusedColor > 0xffffff {
		return &ValidationError{Path: "border.focused_color", Err: fmt.Errorf("color out of range")}
	}
	if c.Border.UnfocusedColor > 0xffffff {
		return &ValidationError{Path: "border.unfocused_color", Err: fmt.Errorf("color out of range")}
	}
	if c.WorkspaceCount < 1 {
		return &ValidationError{Path: "workspace_count", Err: fmt.Errorf("workspace_count must be >= 1")}
	}
	if _, err := c.KeybindTable(); err != nil {
		return err
	}
	for i, cmd := range c.Autostart {
		if strings.TrimSpace(cmd) == "" {
			return &ValidationError{Path: "autostart", Err: fmt.Errorf("entry %d is empty", i)}
		}
	}

	names := make(map[string]struct{}, len(c.Outputs))
	for i, out := range c.Outputs {
		if strings.TrimSpace(out.Name) == "" {
			return &ValidationError{Path: "outputs", Err: fmt.Errorf("output %d: name is required", i)}
		}
		if _, dup := names[out.Name]; dup {
			return &ValidationError{Path: "outputs", Err: fmt.Errorf("output %q is defined twice", out.Name)}
		}
		names[out.Name] = struct{}{}
		if out.Width <= 0 || out.Height <= 0 {
			return &ValidationError{Path: "outputs", Err: fmt.Errorf("output %q: width and height must be > 0", out.Name)}
		}
		if out.Scale < 0 {
			return &ValidationError{Path: "outputs", Err: fmt.Errorf("output %q: scale must be > 0", out.Name)}
		}
		if _, err := geom.ParseTransform(out.Transform); err != nil {
			return &ValidationError{Path: "outputs", Err: fmt.Errorf("output %q: %w (valid: %s)", out.Name, err, strings.Join(geom.TransformNames(), ", "))}
		}
		if out.Refresh < 0 {
			return &ValidationError{Path: "outputs", Err: fmt.Errorf("output %q: refresh must be >= 0", out.Name)}
		}
	}

	if c.Cursor.Size < 1 || c.Cursor.Size > 256 {
		return &ValidationError{Path: "cursor.size", Err: fmt.Errorf("cursor size must be between 1 and 256")}
	}
	if c.Log.MaxSizeMB < 0 {
		return &ValidationError{Path: "log.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Log.MaxBackups < 0 {
		return &ValidationError{Path: "log.max_backups", Err: fmt.Errorf("max_backups must be >= 0")}
	}
	return nil
}
