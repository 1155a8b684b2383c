package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// DefaultBarWidth is the character width of progress bars.
const DefaultBarWidth = 24

func init() {
	// Honor NO_COLOR and friends
	if termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// barStyle picks a color band for a completion percentage.
func barStyle(pct int) lipgloss.Style {
	switch {
	case pct >= 80:
		return PassStyle
	case pct >= 50:
		return AccentStyle
	case pct >= 25:
		return WarnStyle
	default:
		return MutedStyle
	}
}

// RenderBar renders a fixed-width progress bar for a percentage in [0,100].
func RenderBar(pct, width int) string {
	if width <= 0 {
		width = DefaultBarWidth
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %3d%%", barStyle(pct).Render(bar), pct)
}
