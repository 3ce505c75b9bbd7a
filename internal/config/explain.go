package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and where it
// came from.
//
// Supported paths:
//
//	backend
//	log_level
//	border.thickness
//	border.focused_color
//	border.unfocused_color
//	workspace_count
//	keybinds
//	autostart
//	spawn_env_file
//	outputs
//	cursor.size
//	cursor.color
//	log.file
//	log.max_size_mb
//	log.max_backups
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	leaf := func(v any) (any, error) {
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return v, nil
	}
	child := func(fields map[string]any) (any, error) {
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		v, ok := fields[parts[1]]
		if !ok {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return v, nil
	}

	switch parts[0] {
	case "backend":
		return leaf(cfg.Backend)
	case "log_level":
		return leaf(cfg.LogLevel)
	case "workspace_count":
		return leaf(cfg.WorkspaceCount)
	case "keybinds":
		return leaf(cfg.Keybinds)
	case "autostart":
		return leaf(cfg.Autostart)
	case "spawn_env_file":
		return leaf(cfg.SpawnEnvFile)
	case "outputs":
		return leaf(cfg.Outputs)
	case "border":
		return child(map[string]any{
			"thickness":       cfg.Border.Thickness,
			"focused_color":   cfg.Border.FocusedColor.String(),
			"unfocused_color": cfg.Border.UnfocusedColor.String(),
		})
	case "cursor":
		return child(map[string]any{
			"size":  cfg.Cursor.Size,
			"color": cfg.Cursor.Color.String(),
		})
	case "log":
		return child(map[string]any{
			"file":        cfg.Log.File,
			"max_size_mb": cfg.Log.MaxSizeMB,
			"max_backups": cfg.Log.MaxBackups,
		})
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}
