package messages

import tea "github.com/charmbracelet/bubbletea"

// ViewType represents the screens of the application
type ViewType int

const (
	ViewPicker ViewType = iota
	ViewBoard
)

// SwitchViewMsg is sent by child views to switch to a different screen
type SwitchViewMsg struct {
	View ViewType
}

// OpenViewMsg requests opening a board view
type OpenViewMsg struct {
	BoardID string
	ViewID  string
}

// DataRefreshMsg signals that the store changed and projections are stale.
// Kind is the notify event kind that caused it.
type DataRefreshMsg struct {
	Kind    string
	BoardID string
}

func SwitchView(v ViewType) tea.Cmd {
	return func() tea.Msg {
		return SwitchViewMsg{View: v}
	}
}

func OpenView(boardID, viewID string) tea.Cmd {
	return func() tea.Msg {
		return OpenViewMsg{BoardID: boardID, ViewID: viewID}
	}
}
