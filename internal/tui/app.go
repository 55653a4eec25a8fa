// Package tui is the terminal front end: a picker of board views and a
// board screen that renders one projected view as columns.
package tui

import (
	"context"

	"cardview/internal/logs"
	"cardview/internal/notify"
	kanbanview "cardview/internal/tui/kanban"
	"cardview/internal/tui/messages"
	"cardview/internal/tui/shared"
	"cardview/internal/tui/theme"
	"cardview/internal/workspace"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Feed carries store change events into the program. Sends never block;
// a full feed drops the event since one pending refresh covers it.
type Feed chan notify.Event

// NewFeed creates a feed with room for a burst of events.
func NewFeed() Feed {
	return make(Feed, 16)
}

func (f Feed) Notify(_ context.Context, ev notify.Event) error {
	select {
	case f <- ev:
	default:
	}
	return nil
}

// waitForEvent turns the next feed event into a DataRefreshMsg.
func waitForEvent(f Feed) tea.Cmd {
	if f == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-f
		if !ok {
			return nil
		}
		return messages.DataRefreshMsg{Kind: string(ev.Kind), BoardID: ev.BoardID}
	}
}

// AppModel is the root model that dispatches to child views
type AppModel struct {
	ws          *workspace.Workspace
	feed        Feed
	currentView messages.ViewType
	pickerView  kanbanview.PickerModel
	boardView   kanbanview.BoardModel
	boardLoaded bool // true when boardView has a valid view
	showHelp    bool
	err         error
	width       int
	height      int
	ready       bool
}

// NewAppModel creates the root application model. When boardRef or viewRef
// is set the app starts on that view instead of the picker.
func NewAppModel(ws *workspace.Workspace, feed Feed, boardRef, viewRef string) AppModel {
	m := AppModel{
		ws:          ws,
		feed:        feed,
		currentView: messages.ViewPicker,
		pickerView:  kanbanview.NewPickerModel(ws.Ops),
	}
	if boardRef == "" && viewRef == "" {
		return m
	}
	_, view, err := ws.ResolveView(boardRef, viewRef)
	if err != nil {
		m.err = err
		return m
	}
	m.openView(view.ID)
	return m
}

func (m *AppModel) openView(viewID string) {
	board, err := kanbanview.NewBoardModel(m.ws.Ops, viewID, m.ws.Reload)
	if err != nil {
		logs.Logger.Errorw("open view", "view", viewID, "error", err)
		m.err = err
		return
	}
	board.SetSize(m.width, m.contentHeight())
	m.boardView = board
	m.boardLoaded = true
	m.currentView = messages.ViewBoard
	m.err = nil
}

func (m AppModel) contentHeight() int {
	return m.height - 3 // Reserve space for status bar
}

func (m AppModel) Init() tea.Cmd {
	return waitForEvent(m.feed)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.pickerView.SetSize(msg.Width, m.contentHeight())
		if m.boardLoaded {
			m.boardView.SetSize(msg.Width, m.contentHeight())
		}
		return m, nil

	case messages.OpenViewMsg:
		m.openView(msg.ViewID)
		return m, nil

	case messages.SwitchViewMsg:
		m.currentView = msg.View
		if msg.View == messages.ViewPicker {
			m.pickerView.Refresh()
		}
		return m, nil

	case messages.DataRefreshMsg:
		m.pickerView.Refresh()
		var cmd tea.Cmd
		if m.boardLoaded {
			m.boardView, cmd = m.boardView.Update(msg)
		}
		return m, tea.Batch(cmd, waitForEvent(m.feed))

	case tea.KeyMsg:
		// Global keys: ctrl+c always quits
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		// Dismiss help overlay on any key
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		if m.currentView == messages.ViewPicker && !m.pickerView.IsTyping() && msg.String() == "?" {
			m.showHelp = true
			return m, nil
		}
	}

	// Dispatch to current child view
	var cmd tea.Cmd
	switch m.currentView {
	case messages.ViewPicker:
		m.pickerView, cmd = m.pickerView.Update(msg)
		return m, cmd
	case messages.ViewBoard:
		if m.boardLoaded {
			m.boardView, cmd = m.boardView.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m AppModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelpOverlay()
	}

	var content, statusText string
	switch m.currentView {
	case messages.ViewBoard:
		if m.boardLoaded {
			content = m.boardView.View()
		}
		statusText = "Board view | ?: keys | q/b: back to views"
	default:
		content = m.pickerView.View()
		statusText = m.pickerView.HintText()
	}

	if m.err != nil {
		statusText = theme.Error.Render("Error: "+m.err.Error()) + "  " + statusText
	}
	statusBar := theme.StatusBar.Width(m.width).Render(theme.HelpHint.Render(statusText))

	return lipgloss.JoinVertical(lipgloss.Left, content, statusBar)
}

func (m AppModel) renderHelpOverlay() string {
	sections := []shared.HelpSection{
		{Title: "Views", Binds: []shared.HelpBind{
			{Key: "j / k", Desc: "Navigate views"},
			{Key: "enter", Desc: "Open view"},
			{Key: "/", Desc: "Search boards and views"},
			{Key: "n", Desc: "New board"},
			{Key: "q", Desc: "Quit"},
			{Key: "ctrl+c", Desc: "Force quit"},
		}},
		{Title: "Board", Binds: []shared.HelpBind{
			{Key: "?", Desc: "Board keys"},
		}},
	}
	return shared.RenderHelpPopup("cardview - Keyboard Shortcuts", sections, m.width, m.height)
}
