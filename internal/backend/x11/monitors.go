package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

// monitor is an active CRTC of the host server.
type monitor struct {
	Name          string
	X, Y          int
	Width, Height int
}

// hostMonitors lists the host's active monitors via RandR.
func hostMonitors(xu *xgbutil.XUtil) ([]monitor, error) {
	if err := randr.Init(xu.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}
	resources, err := randr.GetScreenResources(xu.Conn(), xu.RootWin()).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(xu.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil || info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}
		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(xu.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}
		monitors = append(monitors, monitor{
			Name:   name,
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		})
	}
	return monitors, nil
}

// modMaskForKeysym returns the modifier bit a key such as Num_Lock is bound
// to, or 0.
func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
