package kanban

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// selectorItem is one row of a SelectorModel.
type selectorItem struct {
	ID    string
	Label string // rendered as is, may carry color
	Hint  string
}

// SelectorModel is a simple single-select list shown as a modal, used for
// picking a group-by property, a hidden group to show, or a sort key.
type SelectorModel struct {
	title  string
	items  []selectorItem
	cursor int
	width  int
	height int
}

// NewSelectorModel creates a selector with the cursor on the item with id
// current, if any.
func NewSelectorModel(title string, items []selectorItem, current string) SelectorModel {
	m := SelectorModel{title: title, items: items}
	for i, it := range items {
		if it.ID == current {
			m.cursor = i
		}
	}
	return m
}

// Empty returns true when there is nothing to choose from.
func (m SelectorModel) Empty() bool {
	return len(m.items) == 0
}

// Update handles key events. Returns (model, selectedID, chosen, done).
// chosen is true only on enter; done is true on enter or esc.
func (m SelectorModel) Update(msg tea.KeyMsg) (SelectorModel, string, bool, bool) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if len(m.items) > 0 && m.cursor < len(m.items) {
			return m, m.items[m.cursor].ID, true, true
		}
		return m, "", false, true
	case "esc", "q":
		return m, "", false, true
	}
	return m, "", false, false
}

// View renders the selector as a centered modal.
func (m SelectorModel) View() string {
	var lines []string

	lines = append(lines, modalTitleStyle.Render(m.title))
	lines = append(lines, "")

	for i, it := range m.items {
		style := listItemStyle
		prefix := "  "
		if i == m.cursor {
			style = selectedListItemStyle
			prefix = "► "
		}
		line := style.Render(prefix) + it.Label
		if it.Hint != "" {
			line += "  " + pathStyle.Render(it.Hint)
		}
		lines = append(lines, line)
	}

	lines = append(lines, "")
	lines = append(lines, pathStyle.Render("j/k: navigate • enter: select • esc: cancel"))

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	boxed := modalBoxStyle.Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, boxed)
}
