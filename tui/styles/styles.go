package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7C3AED") // Purple
	AccentColor  = lipgloss.Color("#F59E0B") // Amber

	BuyColor     = lipgloss.Color("#10B981") // Green
	SellColor    = lipgloss.Color("#EF4444") // Red
	NeutralColor = lipgloss.Color("#6B7280") // Gray

	BorderColor      = lipgloss.Color("#374151")
	FocusBorderColor = lipgloss.Color("#7C3AED")

	TextColor          = lipgloss.Color("#F9FAFB")
	TextSecondaryColor = lipgloss.Color("#9CA3AF")
	TextMutedColor     = lipgloss.Color("#6B7280")
	ErrorColor         = lipgloss.Color("#EF4444")
	WarnColor          = lipgloss.Color("#F59E0B")
)

var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(FocusBorderColor).
				Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextSecondaryColor)

	RowStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Background(lipgloss.Color("#312E81")).
				Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(TextMutedColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	WarnStyle = lipgloss.NewStyle().
			Foreground(WarnColor)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)
)

// StatusStyle colors an order status label.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "OPEN":
		return lipgloss.NewStyle().Foreground(TextSecondaryColor)
	case "IN_PROGRESS":
		return lipgloss.NewStyle().Foreground(AccentColor)
	case "READY_TO_TRADE":
		return lipgloss.NewStyle().Foreground(BuyColor)
	case "FULFILLED":
		return lipgloss.NewStyle().Foreground(TextMutedColor).Strikethrough(true)
	default:
		return lipgloss.NewStyle().Foreground(TextColor)
	}
}

// SideStyle colors a BUY/SELL label.
func SideStyle(side string) lipgloss.Style {
	if side == "BUY" {
		return lipgloss.NewStyle().Foreground(BuyColor).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(SellColor).Bold(true)
}
