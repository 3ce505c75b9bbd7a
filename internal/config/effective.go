package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig layers raw on top of DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Backend != nil {
		cfg.Backend = *raw.Backend
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.Border != nil {
		cfg.Border.Thickness = derefInt(raw.Border.Thickness, cfg.Border.Thickness)
		if raw.Border.FocusedColor != nil {
			cfg.Border.FocusedColor = *raw.Border.FocusedColor
		}
		if raw.Border.UnfocusedColor != nil {
			cfg.Border.UnfocusedColor = *raw.Border.UnfocusedColor
		}
	}
	cfg.WorkspaceCount = derefInt(raw.WorkspaceCount, cfg.WorkspaceCount)
	if raw.Keybinds != nil {
		cfg.Keybinds = append([]Keybind(nil), raw.Keybinds...)
	}
	if raw.Autostart != nil {
		cfg.Autostart = append([]string(nil), raw.Autostart...)
	}
	if raw.SpawnEnvFile != nil {
		cfg.SpawnEnvFile = *raw.SpawnEnvFile
	}
	if raw.Outputs != nil {
		cfg.Outputs = make([]Output, len(raw.Outputs))
		for i, out := range raw.Outputs {
			if out.Scale == 0 {
				out.Scale = 1
			}
			if out.Transform == "" {
				out.Transform = "normal"
			}
			if out.Refresh == 0 {
				out.Refresh = DefaultRefresh
			}
			cfg.Outputs[i] = out
		}
	}
	if raw.Cursor != nil {
		cfg.Cursor.Size = derefInt(raw.Cursor.Size, cfg.Cursor.Size)
		if raw.Cursor.Color != nil {
			cfg.Cursor.Color = *raw.Cursor.Color
		}
	}
	if raw.Log != nil {
		if raw.Log.File != nil {
			cfg.Log.File = *raw.Log.File
		}
		cfg.Log.MaxSizeMB = derefInt(raw.Log.MaxSizeMB, cfg.Log.MaxSizeMB)
		cfg.Log.MaxBackups = derefInt(raw.Log.MaxBackups, cfg.Log.MaxBackups)
	}

	if cfg.Border.Thickness > 64 {
		return nil, &ValidationError{Path: "border.thickness", Err: fmt.Errorf("thickness must be <= 64")}
	}
	return cfg, nil
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
