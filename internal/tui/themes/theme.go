// Package themes holds the color schemes of the transaction browser.
package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Header        lipgloss.Style
	Selected      lipgloss.Style
	Badge         lipgloss.Style
	BadgeFocused  lipgloss.Style
	StatusPending lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	RoundedBox    lipgloss.Style
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Foreground    lipgloss.Color
	Error         lipgloss.Color
	Warning       lipgloss.Color
	Info          lipgloss.Color
}

type palette struct {
	primary, selectedText, foreground, subtle, border, muted, badge lipgloss.Color
	info, warning, error                                            lipgloss.Color
}

func newTheme(p palette) Theme {
	return Theme{
		Primary:    p.primary,
		Muted:      p.muted,
		Border:     p.border,
		Foreground: p.foreground,
		Error:      p.error,
		Warning:    p.warning,
		Info:       p.info,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.subtle),
		Normal: lipgloss.NewStyle().
			Foreground(p.foreground),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(p.border).
			BorderBottom(true),
		Selected: lipgloss.NewStyle().
			Background(p.primary).
			Foreground(p.selectedText).
			Bold(true),
		Badge: lipgloss.NewStyle().
			Background(p.badge).
			Foreground(p.foreground).
			Padding(0, 1),
		BadgeFocused: lipgloss.NewStyle().
			Background(p.primary).
			Foreground(p.selectedText).
			Bold(true).
			Padding(0, 1),

		StatusPending: lipgloss.NewStyle().
			Foreground(p.muted).
			Italic(true),
		StatusInfo: lipgloss.NewStyle().
			Foreground(p.info).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(p.error).
			Bold(true),
		StatusWarning: lipgloss.NewStyle().
			Foreground(p.warning).
			Bold(true),

		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 1),
	}
}

// Default is the default theme.
var Default = newTheme(palette{
	primary:      lipgloss.Color("#7c3aed"),
	selectedText: lipgloss.Color("#fafafa"),
	foreground:   lipgloss.Color("#fafafa"),
	subtle:       lipgloss.Color("#a3a3a3"),
	border:       lipgloss.Color("#404040"),
	muted:        lipgloss.Color("#737373"),
	badge:        lipgloss.Color("#262626"),
	info:         lipgloss.Color("#3b82f6"),
	warning:      lipgloss.Color("#f59e0b"),
	error:        lipgloss.Color("#ef4444"),
})

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = newTheme(palette{
	primary:      lipgloss.Color("#cba6f7"),
	selectedText: lipgloss.Color("#1e1e2e"),
	foreground:   lipgloss.Color("#cdd6f4"),
	subtle:       lipgloss.Color("#a6adc8"),
	border:       lipgloss.Color("#45475a"),
	muted:        lipgloss.Color("#6c7086"),
	badge:        lipgloss.Color("#313244"),
	info:         lipgloss.Color("#89dceb"),
	warning:      lipgloss.Color("#f9e2af"),
	error:        lipgloss.Color("#f38ba8"),
})

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}

// CategoryIcons maps common category names to icons.
var CategoryIcons = map[string]string{
	"Groceries":      "🥬",
	"Supermarket":    "🥬",
	"Dining":         "🍕",
	"Restaurants":    "🍕",
	"Transportation": "🚗",
	"Fuel":           "⛽",
	"Entertainment":  "🎬",
	"Shopping":       "🛍",
	"Clothing":       "👕",
	"Healthcare":     "💊",
	"Utilities":      "💡",
	"Home":           "🏠",
	"Education":      "📚",
	"Travel":         "✈",
	"Fitness":        "💪",
	"Gifts":          "🎁",
	"Subscriptions":  "📱",
	"Insurance":      "🛡",
	"Pending":        "⏳",
}

// GetCategoryIcon returns an icon for a category.
func GetCategoryIcon(category string) string {
	if icon, ok := CategoryIcons[category]; ok {
		return icon
	}
	return "📦"
}
