package theme

import "github.com/charmbracelet/lipgloss"

// ---------------------------------------------------------------------------
// Color palette: ANSI 0-15 plus a few 256-color accents
// ---------------------------------------------------------------------------

var (
	Text      = lipgloss.Color("7")
	TextMuted = lipgloss.Color("8")

	Primary       = lipgloss.Color("4")   // blue
	Secondary     = lipgloss.Color("6")   // cyan
	Accent        = lipgloss.Color("5")   // magenta
	Success       = lipgloss.Color("2")   // green
	Warning       = lipgloss.Color("3")   // yellow
	Danger        = lipgloss.Color("1")   // red
	Surface       = lipgloss.Color("236") // dark bg
	Border        = lipgloss.Color("8")   // dim
	BorderFocused = lipgloss.Color("4")   // blue
)

// optionColors maps stored option color names to terminal colors.
var optionColors = map[string]lipgloss.Color{
	"propColorGray":   lipgloss.Color("8"),
	"propColorBrown":  lipgloss.Color("130"),
	"propColorOrange": lipgloss.Color("208"),
	"propColorYellow": Warning,
	"propColorGreen":  Success,
	"propColorBlue":   Primary,
	"propColorPurple": Accent,
	"propColorPink":   lipgloss.Color("13"),
	"propColorRed":    Danger,
}

// OptionColor returns the terminal color of a property option color name.
// Unknown and default colors render as plain text.
func OptionColor(name string) lipgloss.Color {
	if c, ok := optionColors[name]; ok {
		return c
	}
	return Text
}

// Option renders an option label in its color.
func Option(label, color string) string {
	return lipgloss.NewStyle().Foreground(OptionColor(color)).Render(label)
}

// ---------------------------------------------------------------------------
// Semantic text styles
// ---------------------------------------------------------------------------

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	Muted = lipgloss.NewStyle().Foreground(TextMuted)

	Error = lipgloss.NewStyle().Bold(true).Foreground(Danger)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(Warning)
	Ok    = lipgloss.NewStyle().Bold(true).Foreground(Success)

	PropertyName = lipgloss.NewStyle().Foreground(Secondary)
)

// ---------------------------------------------------------------------------
// Reusable component helpers
// ---------------------------------------------------------------------------

var (
	ModalBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	ModalTitle = lipgloss.NewStyle().Bold(true).Foreground(Warning)

	StatusBar = lipgloss.NewStyle().
			Foreground(TextMuted).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	HelpHint = lipgloss.NewStyle().Foreground(TextMuted)
)
