package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/tiltsim/internal/motion"
)

// Theme is the colour scheme of one motion mode.
type Theme struct {
	Name    string
	Scene   lipgloss.Color
	Accent  lipgloss.Color
	Muted   lipgloss.Color
	Warning lipgloss.Color
}

var (
	ThemeBall = Theme{
		Name:    "ball",
		Scene:   lipgloss.Color("#ff8844"),
		Accent:  lipgloss.Color("#ffcc00"),
		Muted:   lipgloss.Color("#666688"),
		Warning: lipgloss.Color("#ff4444"),
	}

	ThemeSky = Theme{
		Name:    "sky",
		Scene:   lipgloss.Color("#88ccff"),
		Accent:  lipgloss.Color("#ff66aa"),
		Muted:   lipgloss.Color("#557799"),
		Warning: lipgloss.Color("#ff4444"),
	}

	ThemeSpace = Theme{
		Name:    "space",
		Scene:   lipgloss.Color("#ccccff"),
		Accent:  lipgloss.Color("#ffee55"),
		Muted:   lipgloss.Color("#444466"),
		Warning: lipgloss.Color("#ff8800"),
	}
)

func ThemeFor(m motion.Mode) Theme {
	switch m {
	case motion.Float:
		return ThemeSky
	case motion.Orbit:
		return ThemeSpace
	default:
		return ThemeBall
	}
}

func (t Theme) SceneStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Scene)
}

func (t Theme) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
}
