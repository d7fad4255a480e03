// Package color picks terminal colors for CLI output.
package color

import (
	"hash/fnv"
	"os"
	"strings"

	fcolor "github.com/fatih/color"
)

// Palette used for ids, in assignment order.
var idColors = []fcolor.Attribute{
	fcolor.FgHiRed,
	fcolor.FgHiGreen,
	fcolor.FgHiYellow,
	fcolor.FgHiBlue,
	fcolor.FgHiMagenta,
	fcolor.FgHiCyan,
	fcolor.FgRed,
	fcolor.FgGreen,
	fcolor.FgYellow,
	fcolor.FgBlue,
	fcolor.FgMagenta,
	fcolor.FgCyan,
}

// Supported reports whether the environment asks for colored output.
func Supported() bool {
	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if os.Getenv("CI") != "" {
		return false
	}
	term := os.Getenv("TERM")
	if term == "" || term == "dumb" {
		return false
	}
	colorTerm := os.Getenv("COLORTERM")
	if colorTerm == "truecolor" || colorTerm == "24bit" {
		return true
	}
	for _, s := range []string{"color", "ansi", "xterm", "screen"} {
		if strings.Contains(term, s) {
			return true
		}
	}
	return false
}

// Palette builds colors that are switched on or off as a whole.
type Palette struct {
	enabled bool
}

func NewPalette(enabled bool) Palette {
	return Palette{enabled: enabled}
}

func (p Palette) Enabled() bool {
	return p.enabled
}

func (p Palette) New(attrs ...fcolor.Attribute) *fcolor.Color {
	c := fcolor.New(attrs...)
	if p.enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// ForID returns a color that is stable for id.
func (p Palette) ForID(id string) *fcolor.Color {
	h := fnv.New32a()
	h.Write([]byte(id))
	return p.New(idColors[int(h.Sum32()%uint32(len(idColors)))], fcolor.Bold)
}

// ForPriority colors a priority label: high red, medium yellow, low green.
// Any other label stays uncolored.
func (p Palette) ForPriority(priority string) *fcolor.Color {
	switch strings.ToLower(priority) {
	case "high":
		return p.New(fcolor.FgRed, fcolor.Bold)
	case "medium":
		return p.New(fcolor.FgYellow)
	case "low":
		return p.New(fcolor.FgGreen)
	default:
		c := fcolor.New()
		c.DisableColor()
		return c
	}
}
