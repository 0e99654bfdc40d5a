package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps the notification panel content area.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Foreground(ColorWhite).
	Bold(true)

// UnreadStyle marks unread notifications.
var UnreadStyle = lipgloss.NewStyle().
	Foreground(ColorBlue).
	Bold(true)

// DimmedStyle lowers emphasis for read notifications and hints.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// BadgeStyle renders the unread count badge in the header.
var BadgeStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorRed).
	Padding(0, 1).
	Bold(true)

// TabStyle renders an inactive category tab.
var TabStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Padding(0, 1)

// ActiveTabStyle renders the selected category tab.
var ActiveTabStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1).
	Bold(true)

// WarningStyle renders persistent inline warnings, such as a denied
// desktop notification permission.
var WarningStyle = lipgloss.NewStyle().
	Foreground(ColorOrange).
	Bold(true)

// HelpStyle renders keybinding hints.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// categoryColors assigns a color per notification category label.
var categoryColors = map[string]lipgloss.AdaptiveColor{
	"mentions":     ColorMagenta,
	"tasks":        ColorBlue,
	"deals":        ColorGreen,
	"documents":    ColorYellow,
	"team":         ColorOrange,
	"achievements": ColorRed,
}

// CategoryStyle returns a foreground style for a category label.
func CategoryStyle(category string) lipgloss.Style {
	if c, ok := categoryColors[category]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return lipgloss.NewStyle().Foreground(ColorGray)
}

// PriorityStyle returns a style for a notification priority label.
func PriorityStyle(priority string) lipgloss.Style {
	switch priority {
	case "high", "urgent":
		return lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	case "low":
		return lipgloss.NewStyle().Foreground(ColorGray)
	default:
		return lipgloss.NewStyle().Foreground(ColorWhite)
	}
}
