package kanban

import (
	"context"
	"fmt"
	"strings"

	"cardview/internal/kanban/models"
	"cardview/internal/kanban/operations"
	"cardview/internal/tui/messages"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

type pickerMode int

const (
	modeList pickerMode = iota
	modeSearch
	modeCreate
)

// pickerEntry is one openable board view.
type pickerEntry struct {
	board models.Board
	view  models.BoardView
}

func (e pickerEntry) label() string {
	return e.board.Title + " / " + e.view.Title
}

type PickerModel struct {
	ops         *operations.Service
	entries     []pickerEntry
	filtered    []int // indices into entries
	selected    int
	mode        pickerMode
	textInput   textinput.Model
	searchQuery string
	width       int
	height      int
	err         error
}

func NewPickerModel(ops *operations.Service) PickerModel {
	ti := textinput.New()
	ti.Placeholder = "Enter board name..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 40

	m := PickerModel{
		ops:       ops,
		mode:      modeList,
		textInput: ti,
	}
	m.Refresh()
	return m
}

// SetSize updates the view dimensions
func (m *PickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// IsTyping returns true when the picker is in create or search mode with active text input
func (m PickerModel) IsTyping() bool {
	return m.mode == modeCreate || m.mode == modeSearch
}

// HintText returns the raw hint string for the current picker mode.
func (m PickerModel) HintText() string {
	switch m.mode {
	case modeSearch:
		return "type to filter  enter:confirm  esc:cancel"
	case modeCreate:
		return "enter:create  esc:cancel"
	default:
		return "j/k:navigate  /:search  enter:open  n:new board  ?:help  q:quit"
	}
}

// Refresh rebuilds the entry list from the store.
func (m *PickerModel) Refresh() {
	st := m.ops.Engine.Store
	m.entries = m.entries[:0]
	for _, b := range st.Boards() {
		if b.IsTemplate {
			continue
		}
		for _, v := range st.ViewsForBoard(b.ID) {
			m.entries = append(m.entries, pickerEntry{board: b, view: v})
		}
	}
	m.applyFilter()
}

func (m *PickerModel) applyFilter() {
	if m.searchQuery == "" {
		m.filtered = make([]int, len(m.entries))
		for i := range m.entries {
			m.filtered[i] = i
		}
	} else {
		names := make([]string, len(m.entries))
		for i, e := range m.entries {
			names[i] = e.label()
		}
		matches := fuzzy.Find(m.searchQuery, names)
		m.filtered = make([]int, len(matches))
		for i, match := range matches {
			m.filtered[i] = match.Index
		}
	}
	if m.selected >= len(m.filtered) {
		m.selected = max(0, len(m.filtered)-1)
	}
}

func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update handles picker events, returns (PickerModel, tea.Cmd) as a child view
func (m PickerModel) Update(msg tea.Msg) (PickerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case modeList:
			return m.updateList(msg)
		case modeSearch:
			return m.updateSearch(msg)
		case modeCreate:
			return m.updateCreate(msg)
		}
	}

	return m, nil
}

func (m PickerModel) startCreate() (PickerModel, tea.Cmd) {
	m.mode = modeCreate
	m.err = nil
	m.textInput.Placeholder = "Enter board name..."
	m.textInput.SetValue("")
	m.textInput.Focus()
	return m, textinput.Blink
}

func (m PickerModel) updateList(msg tea.KeyMsg) (PickerModel, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "esc":
		if m.searchQuery != "" {
			m.searchQuery = ""
			m.applyFilter()
		}
		return m, nil

	case "/":
		m.mode = modeSearch
		m.textInput.Placeholder = "Search boards..."
		m.textInput.SetValue(m.searchQuery)
		m.textInput.Focus()
		return m, textinput.Blink

	case "j", "down":
		if len(m.filtered) > 0 && m.selected < len(m.filtered)-1 {
			m.selected++
		}

	case "k", "up":
		if m.selected > 0 {
			m.selected--
		}

	case "n":
		return m.startCreate()

	case "enter":
		if len(m.filtered) == 0 {
			// If no boards, enter means create new
			return m.startCreate()
		}
		e := m.entries[m.filtered[m.selected]]
		return m, messages.OpenView(e.board.ID, e.view.ID)
	}

	return m, nil
}

func (m PickerModel) updateSearch(msg tea.KeyMsg) (PickerModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.searchQuery = ""
		m.textInput.SetValue("")
		m.applyFilter()
		return m, nil

	case "enter":
		m.searchQuery = m.textInput.Value()
		m.mode = modeList
		m.applyFilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	m.searchQuery = m.textInput.Value()
	m.applyFilter()
	return m, cmd
}

func (m PickerModel) updateCreate(msg tea.KeyMsg) (PickerModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.textInput.SetValue("")
		return m, nil

	case "enter":
		name := strings.TrimSpace(m.textInput.Value())
		if name == "" {
			return m, nil
		}
		board, view, err := m.ops.CreateBoard(context.Background(), name, true)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.mode = modeList
		m.textInput.SetValue("")
		m.Refresh()
		return m, messages.OpenView(board.ID, view.ID)
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m PickerModel) View() string {
	switch m.mode {
	case modeSearch:
		return m.viewSearch()
	case modeCreate:
		return m.viewCreate()
	default:
		return m.viewList()
	}
}

func (m PickerModel) viewSearch() string {
	var lines []string
	lines = append(lines, titleStyle.Render("Search Boards"))
	lines = append(lines, "")
	lines = append(lines, "  "+m.textInput.View())
	lines = append(lines, "")

	// Show live results
	if len(m.filtered) > 0 {
		show := min(8, len(m.filtered))
		for i := 0; i < show; i++ {
			prefix := "  "
			if i == m.selected {
				prefix = "► "
			}
			lines = append(lines, listItemStyle.Render(prefix+m.entries[m.filtered[i]].label()))
		}
		if len(m.filtered) > show {
			lines = append(lines, pathStyle.Render(fmt.Sprintf("  ... %d more", len(m.filtered)-show)))
		}
	} else {
		lines = append(lines, listItemStyle.Render("  No matches"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m PickerModel) viewList() string {
	var lines []string

	lines = append(lines, titleStyle.Render("Boards"))
	lines = append(lines, "")

	if m.searchQuery != "" {
		lines = append(lines, filterIndicatorStyle.Render("  Filter: ")+pathStyle.Render(m.searchQuery))
		lines = append(lines, "")
	}

	if len(m.filtered) == 0 {
		if len(m.entries) == 0 {
			lines = append(lines, listItemStyle.Render("No boards found. Press 'n' to create one."))
		} else {
			lines = append(lines, listItemStyle.Render("No matching boards."))
		}
		lines = append(lines, "")
	} else {
		// Calculate max name width for alignment
		maxNameWidth := 0
		for _, idx := range m.filtered {
			width := lipgloss.Width(listItemStyle.Render("► " + m.entries[idx].board.Title))
			if width > maxNameWidth {
				maxNameWidth = width
			}
		}

		prevBoard := ""
		for i, idx := range m.filtered {
			e := m.entries[idx]
			style := listItemStyle
			prefix := "  "
			if i == m.selected {
				style = selectedListItemStyle
				prefix = "► "
			}
			name := e.board.Title
			if e.board.ID == prevBoard && m.searchQuery == "" {
				name = ""
			}
			prevBoard = e.board.ID
			nameCol := style.Width(maxNameWidth).Render(prefix + name)
			line := nameCol + "  " + style.UnsetPadding().Render(e.view.Title) + " " + pathStyle.Render(string(e.view.ViewType))
			lines = append(lines, line)
		}
		lines = append(lines, "")
	}

	// Error message
	if m.err != nil {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		lines = append(lines, "")
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m PickerModel) viewCreate() string {
	var lines []string

	lines = append(lines, titleStyle.Render("Create New Board"))
	lines = append(lines, "")
	lines = append(lines, m.textInput.View())
	lines = append(lines, "")

	if m.err != nil {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		lines = append(lines, "")
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
