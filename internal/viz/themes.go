package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the palette of the live view.
type Theme struct {
	Name    string
	Chart   lipgloss.Color // biomass curve
	Value   lipgloss.Color // metric values and sparkline baseline
	Muted   lipgloss.Color
	Growing lipgloss.Color // running status, high rates
	Slowing lipgloss.Color // paused status, middling rates
	Failed  lipgloss.Color
}

var Themes = []Theme{
	{Name: "agar", Chart: "#49c5b6", Value: "#00ccff", Muted: "#666688", Growing: "#00ff88", Slowing: "#ffaa00", Failed: "#ff4444"},
	{Name: "broth", Chart: "#d9a441", Value: "#f2d49b", Muted: "#7a6a55", Growing: "#9bd46a", Slowing: "#e08a3c", Failed: "#c8553d"},
	{Name: "mono", Chart: "#ffffff", Value: "#dddddd", Muted: "#777777", Growing: "#ffffff", Slowing: "#aaaaaa", Failed: "#ff0000"},
}

// CurrentTheme is the palette in use, agar by default.
var CurrentTheme = Themes[0]

// GetTheme returns the named theme, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
	applyTheme(CurrentTheme)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// nextTheme cycles to the theme after the current one.
func nextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
	SetTheme(names[0])
}
