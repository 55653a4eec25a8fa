package kanban

import (
	"cardview/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const (
	// Layout constants
	columnWidth             = 40
	columnPaddingHorizontal = 2
	cardPaddingHorizontal   = 1
	cardBorderWidth         = 1
	columnTotalWidth        = columnWidth + 2*columnPaddingHorizontal + 2
)

var (
	// Title styles
	titleStyle = theme.Title.Padding(0, 1)

	viewTypeStyle = theme.Muted.Italic(true)

	// Column styles
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(1, columnPaddingHorizontal).
			Width(columnWidth)

	selectedColumnStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(theme.BorderFocused).
				Padding(1, columnPaddingHorizontal).
				Width(columnWidth)

	columnCountStyle = theme.Muted

	// Card styles
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), false, false, false, true).
			BorderForeground(theme.Border).
			Padding(0, cardPaddingHorizontal).
			MarginBottom(1)

	selectedCardStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), false, false, false, true).
				BorderForeground(theme.BorderFocused).
				Background(theme.Surface).
				Padding(0, cardPaddingHorizontal).
				MarginBottom(1).
				Bold(true)

	moveSelectedCardStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), false, false, false, true).
				BorderForeground(theme.Warning).
				Background(lipgloss.Color("54")).
				Padding(0, cardPaddingHorizontal).
				MarginBottom(1).
				Bold(true)

	cardTitleStyle = lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true)

	cardPreviewStyle = lipgloss.NewStyle().
				Foreground(theme.TextMuted)

	// Help styles
	helpStyle = theme.Muted.Padding(1, 2)

	// List styles
	listItemStyle = lipgloss.NewStyle().
			Foreground(theme.Text).
			Padding(0, 2)

	selectedListItemStyle = lipgloss.NewStyle().
				Foreground(theme.Warning).
				Bold(true).
				Padding(0, 2)

	// Message styles
	errorStyle   = theme.Error
	warningStyle = theme.Warn
	successStyle = theme.Ok

	// Modal styles
	modalBoxStyle   = theme.ModalBox.Width(50)
	modalTitleStyle = theme.ModalTitle

	// Scroll indicator style
	scrollIndicatorStyle = lipgloss.NewStyle().
				Foreground(theme.Primary).
				Italic(true).
				Align(lipgloss.Center)

	// Path style for dimmed secondary text
	pathStyle = theme.Muted

	// Filter indicator style
	filterIndicatorStyle = lipgloss.NewStyle().
				Foreground(theme.Warning).
				Bold(true)
)

// columnTitleStyle renders a group header in its option color.
func columnTitleStyle(color string, selected bool) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true).Foreground(theme.OptionColor(color)).Align(lipgloss.Center)
	if selected {
		s = s.Background(theme.Surface).Underline(true)
	}
	return s
}
