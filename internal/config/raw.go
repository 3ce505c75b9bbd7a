package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawBorder struct {
	Thickness      *int   `yaml:"thickness"`
	FocusedColor   *Color `yaml:"focused_color"`
	UnfocusedColor *Color `yaml:"unfocused_color"`
}

type RawCursor struct {
	Size  *int   `yaml:"size"`
	Color *Color `yaml:"color"`
}

type RawLog struct {
	File       *string `yaml:"file"`
	MaxSizeMB  *int    `yaml:"max_size_mb"`
	MaxBackups *int    `yaml:"max_backups"`
}

// RawConfig mirrors Config with every scalar optional so files can be layered.
// Lists replace earlier values wholesale.
type RawConfig struct {
	Include        IncludeList `yaml:"include"`
	Backend        *string     `yaml:"backend"`
	LogLevel       *string     `yaml:"log_level"`
	Border         *RawBorder  `yaml:"border"`
	WorkspaceCount *int        `yaml:"workspace_count"`
	Keybinds       []Keybind   `yaml:"keybinds"`
	Autostart      []string    `yaml:"autostart"`
	SpawnEnvFile   *string     `yaml:"spawn_env_file"`
	Outputs        []Output    `yaml:"outputs"`
	Cursor         *RawCursor  `yaml:"cursor"`
	Log            *RawLog     `yaml:"log"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Backend != nil {
		out.Backend = overlay.Backend
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.Border != nil {
		if out.Border == nil {
			out.Border = &RawBorder{}
		}
		merged := mergeRawBorder(*out.Border, *overlay.Border)
		out.Border = &merged
	}
	if overlay.WorkspaceCount != nil {
		out.WorkspaceCount = overlay.WorkspaceCount
	}
	if overlay.Keybinds != nil {
		out.Keybinds = overlay.Keybinds
	}
	if overlay.Autostart != nil {
		out.Autostart = overlay.Autostart
	}
	if overlay.SpawnEnvFile != nil {
		out.SpawnEnvFile = overlay.SpawnEnvFile
	}
	if overlay.Outputs != nil {
		out.Outputs = overlay.Outputs
	}
	if overlay.Cursor != nil {
		if out.Cursor == nil {
			out.Cursor = &RawCursor{}
		}
		merged := *out.Cursor
		if overlay.Cursor.Size != nil {
			merged.Size = overlay.Cursor.Size
		}
		if overlay.Cursor.Color != nil {
			merged.Color = overlay.Cursor.Color
		}
		out.Cursor = &merged
	}
	if overlay.Log != nil {
		if out.Log == nil {
			out.Log = &RawLog{}
		}
		merged := *out.Log
		if overlay.Log.File != nil {
			merged.File = overlay.Log.File
		}
		if overlay.Log.MaxSizeMB != nil {
			merged.MaxSizeMB = overlay.Log.MaxSizeMB
		}
		if overlay.Log.MaxBackups != nil {
			merged.MaxBackups = overlay.Log.MaxBackups
		}
		out.Log = &merged
	}

	return out
}

func mergeRawBorder(base RawBorder, overlay RawBorder) RawBorder {
	out := base
	if overlay.Thickness != nil {
		out.Thickness = overlay.Thickness
	}
	if overlay.FocusedColor != nil {
		out.FocusedColor = overlay.FocusedColor
	}
	if overlay.UnfocusedColor != nil {
		out.UnfocusedColor = overlay.UnfocusedColor
	}
	return out
}
