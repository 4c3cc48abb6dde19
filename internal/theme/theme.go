package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme for the application
type Theme struct {
	Name string
	Key  string

	// Text colors
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Accent  lipgloss.Color
	Error   lipgloss.Color

	// Cross-reference colors, one per edge kind
	Incoming  lipgloss.Color
	Outgoing  lipgloss.Color
	Mutual    lipgloss.Color
	Suggested lipgloss.Color
	Hidden    lipgloss.Color

	// UI element colors
	Border       lipgloss.Color
	BorderActive lipgloss.Color
	Highlight    lipgloss.Color
}

// Available themes
var (
	CatppuccinMocha = Theme{
		Name:         "Catppuccin Mocha",
		Key:          "catppuccin-mocha",
		Primary:      lipgloss.Color("#cdd6f4"),
		Muted:        lipgloss.Color("#6c7086"),
		Accent:       lipgloss.Color("#f5c2e7"),
		Error:        lipgloss.Color("#f38ba8"),
		Incoming:     lipgloss.Color("#89dceb"),
		Outgoing:     lipgloss.Color("#89b4fa"),
		Mutual:       lipgloss.Color("#a6e3a1"),
		Suggested:    lipgloss.Color("#f9e2af"),
		Hidden:       lipgloss.Color("#45475a"),
		Border:       lipgloss.Color("#45475a"),
		BorderActive: lipgloss.Color("#89b4fa"),
		Highlight:    lipgloss.Color("#313244"),
	}

	CatppuccinLatte = Theme{
		Name:         "Catppuccin Latte",
		Key:          "catppuccin-latte",
		Primary:      lipgloss.Color("#4c4f69"),
		Muted:        lipgloss.Color("#9ca0b0"),
		Accent:       lipgloss.Color("#ea76cb"),
		Error:        lipgloss.Color("#d20f39"),
		Incoming:     lipgloss.Color("#04a5e5"),
		Outgoing:     lipgloss.Color("#1e66f5"),
		Mutual:       lipgloss.Color("#40a02b"),
		Suggested:    lipgloss.Color("#df8e1d"),
		Hidden:       lipgloss.Color("#ccd0da"),
		Border:       lipgloss.Color("#dce0e8"),
		BorderActive: lipgloss.Color("#1e66f5"),
		Highlight:    lipgloss.Color("#e6e9ef"),
	}

	// Classic mirrors the web page: cyan references, amber suggestions,
	// light grey for filtered-out elements.
	Classic = Theme{
		Name:         "Classic",
		Key:          "classic",
		Primary:      lipgloss.Color("#ffffff"),
		Muted:        lipgloss.Color("#8a8a8a"),
		Accent:       lipgloss.Color("#00ccff"),
		Error:        lipgloss.Color("#ff5555"),
		Incoming:     lipgloss.Color("#00ccff"),
		Outgoing:     lipgloss.Color("#00ccff"),
		Mutual:       lipgloss.Color("#00ccff"),
		Suggested:    lipgloss.Color("#ffb300"),
		Hidden:       lipgloss.Color("#dcdcdc"),
		Border:       lipgloss.Color("#cccccc"),
		BorderActive: lipgloss.Color("#00ccff"),
		Highlight:    lipgloss.Color("#303030"),
	}

	Dracula = Theme{
		Name:         "Dracula",
		Key:          "dracula",
		Primary:      lipgloss.Color("#f8f8f2"),
		Muted:        lipgloss.Color("#6272a4"),
		Accent:       lipgloss.Color("#ff79c6"),
		Error:        lipgloss.Color("#ff5555"),
		Incoming:     lipgloss.Color("#8be9fd"),
		Outgoing:     lipgloss.Color("#bd93f9"),
		Mutual:       lipgloss.Color("#50fa7b"),
		Suggested:    lipgloss.Color("#f1fa8c"),
		Hidden:       lipgloss.Color("#44475a"),
		Border:       lipgloss.Color("#44475a"),
		BorderActive: lipgloss.Color("#bd93f9"),
		Highlight:    lipgloss.Color("#282a36"),
	}

	SolarizedDark = Theme{
		Name:         "Solarized Dark",
		Key:          "solarized-dark",
		Primary:      lipgloss.Color("#839496"),
		Muted:        lipgloss.Color("#586e75"),
		Accent:       lipgloss.Color("#d33682"),
		Error:        lipgloss.Color("#dc322f"),
		Incoming:     lipgloss.Color("#2aa198"),
		Outgoing:     lipgloss.Color("#268bd2"),
		Mutual:       lipgloss.Color("#859900"),
		Suggested:    lipgloss.Color("#b58900"),
		Hidden:       lipgloss.Color("#073642"),
		Border:       lipgloss.Color("#073642"),
		BorderActive: lipgloss.Color("#268bd2"),
		Highlight:    lipgloss.Color("#002b36"),
	}
)

// AllThemes returns a list of all available themes
func AllThemes() []Theme {
	return []Theme{
		CatppuccinMocha,
		CatppuccinLatte,
		Classic,
		Dracula,
		SolarizedDark,
	}
}

// GetTheme returns a theme by key, defaulting to Catppuccin Mocha if not found
func GetTheme(key string) Theme {
	for _, t := range AllThemes() {
		if t.Key == key {
			return t
		}
	}
	return CatppuccinMocha
}

// Next returns the theme after t in AllThemes, wrapping around.
func Next(t Theme) Theme {
	themes := AllThemes()
	for i, candidate := range themes {
		if candidate.Key == t.Key {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}

// Styles are the lipgloss styles derived from a theme.
type Styles struct {
	Title     lipgloss.Style
	Text      lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Focus     lipgloss.Style
	Selected  lipgloss.Style
	Active    lipgloss.Style
	Incoming  lipgloss.Style
	Outgoing  lipgloss.Style
	Mutual    lipgloss.Style
	Suggested lipgloss.Style
	Hidden    lipgloss.Style
	Pane      lipgloss.Style
	PaneFocus lipgloss.Style
}

func (t Theme) Styles() Styles {
	pane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)

	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Text:      lipgloss.NewStyle().Foreground(t.Primary),
		Muted:     lipgloss.NewStyle().Foreground(t.Muted),
		Error:     lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		Focus:     lipgloss.NewStyle().Bold(true).Foreground(t.Accent).Border(lipgloss.RoundedBorder()).BorderForeground(t.Accent).Padding(0, 1),
		Selected:  lipgloss.NewStyle().Reverse(true),
		Active:    lipgloss.NewStyle().Bold(true).Foreground(t.Accent).Background(t.Highlight),
		Incoming:  lipgloss.NewStyle().Foreground(t.Incoming),
		Outgoing:  lipgloss.NewStyle().Foreground(t.Outgoing),
		Mutual:    lipgloss.NewStyle().Foreground(t.Mutual),
		Suggested: lipgloss.NewStyle().Foreground(t.Suggested).Italic(true),
		Hidden:    lipgloss.NewStyle().Foreground(t.Hidden),
		Pane:      pane,
		PaneFocus: pane.BorderForeground(t.BorderActive),
	}
}
