package keybind

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Keysym is an X11/xkb keysym value.
type Keysym uint32

const (
	KeyBackSpace Keysym = 0xff08
	KeyTab       Keysym = 0xff09
	KeyReturn    Keysym = 0xff0d
	KeyEscape    Keysym = 0xff1b
	KeyHome      Keysym = 0xff50
	KeyLeft      Keysym = 0xff51
	KeyUp        Keysym = 0xff52
	KeyRight     Keysym = 0xff53
	KeyDown      Keysym = 0xff54
	KeyPageUp    Keysym = 0xff55
	KeyPageDown  Keysym = 0xff56
	KeyEnd       Keysym = 0xff57
	KeyPrint     Keysym = 0xff61
	KeyInsert    Keysym = 0xff63
	KeyF1        Keysym = 0xffbe
	KeyDelete    Keysym = 0xffff
	KeySpace     Keysym = 0x0020
)

var namedKeysyms = map[string]Keysym{
	"BackSpace":    KeyBackSpace,
	"Tab":          KeyTab,
	"Return":       KeyReturn,
	"Escape":       KeyEscape,
	"Home":         KeyHome,
	"Left":         KeyLeft,
	"Up":           KeyUp,
	"Right":        KeyRight,
	"Down":         KeyDown,
	"Page_Up":      KeyPageUp,
	"Page_Down":    KeyPageDown,
	"End":          KeyEnd,
	"Print":        KeyPrint,
	"Insert":       KeyInsert,
	"Delete":       KeyDelete,
	"space":        KeySpace,
	"minus":        0x002d,
	"equal":        0x003d,
	"comma":        0x002c,
	"period":       0x002e,
	"slash":        0x002f,
	"semicolon":    0x003b,
	"apostrophe":   0x0027,
	"bracketleft":  0x005b,
	"bracketright": 0x005d,
	"backslash":    0x005c,
	"grave":        0x0060,
}

func init() {
	for i := 0; i < 12; i++ {
		namedKeysyms[fmt.Sprintf("F%d", i+1)] = KeyF1 + Keysym(i)
	}
}

// Lower folds latin uppercase letters onto their lowercase keysym so a
// shifted letter still matches its binding.
func (k Keysym) Lower() Keysym {
	if k >= 'A' && k <= 'Z' {
		return k + ('a' - 'A')
	}
	return k
}

// String returns the canonical name of k.
func (k Keysym) String() string {
	for name, sym := range namedKeysyms {
		if sym == k {
			return name
		}
	}
	if k > 0x20 && k < 0x7f {
		return string(rune(k))
	}
	return fmt.Sprintf("0x%04x", uint32(k))
}

// ParseKeysym resolves a key name such as "q", "Return" or "F5".
func ParseKeysym(name string) (Keysym, error) {
	if name == "" {
		return 0, fmt.Errorf("key name is empty")
	}
	if len(name) == 1 {
		c := name[0]
		if c > 0x20 && c < 0x7f {
			return Keysym(c).Lower(), nil
		}
	}
	if sym, ok := namedKeysyms[name]; ok {
		return sym, nil
	}
	for known, sym := range namedKeysyms {
		if strings.EqualFold(known, name) {
			return sym, nil
		}
	}
	if hint := suggestKeysym(name); hint != "" {
		return 0, fmt.Errorf("unknown key %q (did you mean %q?)", name, hint)
	}
	return 0, fmt.Errorf("unknown key %q", name)
}

func suggestKeysym(name string) string {
	names := make([]string, 0, len(namedKeysyms))
	for known := range namedKeysyms {
		names = append(names, known)
	}
	sort.Strings(names)

	ranks := fuzzy.RankFindFold(name, names)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best := ""
	bestDist := 3
	for _, known := range names {
		d := fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(known))
		if d < bestDist {
			best = known
			bestDist = d
		}
	}
	return best
}
