package kanban

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"cardview/internal/calculations"
	"cardview/internal/export"
	"cardview/internal/filter"
	"cardview/internal/kanban/format"
	"cardview/internal/kanban/models"
	"cardview/internal/kanban/operations"
	"cardview/internal/projection"
	"cardview/internal/tui/messages"
	"cardview/internal/tui/shared"
	"cardview/internal/tui/theme"
	"cardview/internal/undo"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type boardMode int

const (
	boardModeNormal boardMode = iota
	boardModeMove
	boardModeConfirmDelete
	boardModeNewCard
	boardModeFilter
	boardModeSelect
	boardModeHelp
)

type selectPurpose int

const (
	selectGroupBy selectPurpose = iota
	selectShowGroup
	selectSort
)

// ReloadFunc re-reads the workspace after an external edit.
type ReloadFunc func(ctx context.Context) error

// column is one rendered group. Ungrouped views have a single column.
type column struct {
	option models.PropertyOption
	cards  []models.CardPage
}

type BoardModel struct {
	ops    *operations.Service
	reload ReloadFunc
	viewID string

	res     projection.Result
	columns []column

	selectedCol            int
	selectedCard           int
	mode                   boardMode
	width                  int
	height                 int
	err                    error
	message                string
	columnScrollOffsets    []int // scroll position (card index) for each column
	columnCursorPos        []int // cursor position (card index) for each column
	columnHorizontalOffset int   // horizontal scroll offset (first visible column index)
	filterInput            textinput.Model
	filterQuery            string
	filterActive           bool
	titleInput             textinput.Model
	selector               SelectorModel
	selecting              selectPurpose
}

// NewBoardModel opens viewID. reload may be nil when the backing store
// cannot change underneath the process.
func NewBoardModel(ops *operations.Service, viewID string, reload ReloadFunc) (BoardModel, error) {
	m := BoardModel{
		ops:    ops,
		reload: reload,
		viewID: viewID,
		mode:   boardModeNormal,
	}
	if err := m.Refresh(); err != nil {
		return BoardModel{}, err
	}
	return m, nil
}

// ViewID returns the id of the open view.
func (m BoardModel) ViewID() string {
	return m.viewID
}

// BoardID returns the id of the board the open view belongs to.
func (m BoardModel) BoardID() string {
	return m.res.Board.ID
}

// SetSize updates the view dimensions
func (m *BoardModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.selector.width = width
	m.selector.height = height
	m.adjustScrollPosition()
	m.adjustHorizontalScrollPosition()
}

// Refresh re-projects the view and keeps the cursor on the same card when
// it is still visible.
func (m *BoardModel) Refresh() error {
	current := ""
	if cp, ok := m.selectedCardPage(); ok {
		current = cp.Card.ID
	}

	res, err := m.ops.Engine.Project(m.viewID)
	if err != nil {
		return err
	}
	m.res = res
	m.buildColumns()
	m.reloadBoardState()
	if current != "" {
		m.selectCard(current)
	}
	return nil
}

// IsModal returns true if the board is in a mode that captures keys
func (m BoardModel) IsModal() bool {
	return m.mode != boardModeNormal
}

// IsTyping returns true when a text input has focus
func (m BoardModel) IsTyping() bool {
	return m.mode == boardModeFilter || m.mode == boardModeNewCard
}

func (m BoardModel) Init() tea.Cmd {
	return nil
}

type editorFinishedMsg struct {
	err error
}

// Update handles board events as a child view
func (m BoardModel) Update(msg tea.Msg) (BoardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case editorFinishedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if m.reload != nil {
			if err := m.reload(context.Background()); err != nil {
				m.err = err
				return m, nil
			}
		}
		if err := m.Refresh(); err != nil {
			m.err = err
			return m, nil
		}
		m.message = "Card updated"
		return m, nil

	case messages.DataRefreshMsg:
		if msg.BoardID != "" && msg.BoardID != m.res.Board.ID {
			return m, nil
		}
		if err := m.Refresh(); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				// the view went away under us
				return m, messages.SwitchView(messages.ViewPicker)
			}
			m.err = err
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case boardModeMove:
			return m.updateMove(msg)
		case boardModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case boardModeNewCard:
			return m.updateNewCard(msg)
		case boardModeFilter:
			return m.updateFilter(msg)
		case boardModeSelect:
			return m.updateSelect(msg)
		case boardModeHelp:
			m.mode = boardModeNormal
			return m, nil
		default:
			return m.updateNormal(msg)
		}
	}

	return m, nil
}

func (m BoardModel) updateNormal(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	m.message = ""
	m.err = nil

	switch msg.String() {
	case "q", "b":
		return m, messages.SwitchView(messages.ViewPicker)

	case "esc":
		if m.filterActive {
			m.clearFilter()
		} else {
			return m, messages.SwitchView(messages.ViewPicker)
		}

	case "?":
		m.mode = boardModeHelp

	case "/":
		ti := textinput.New()
		ti.Placeholder = "search..."
		ti.CharLimit = 100
		ti.Width = 40
		ti.SetValue(m.filterQuery)
		ti.Focus()
		m.filterInput = ti
		m.mode = boardModeFilter
		m.selectedCard = 0
		m.columnCursorPos[m.selectedCol] = 0
		return m, textinput.Blink

	case "h", "left":
		if m.selectedCol > 0 {
			m.focusColumn(m.selectedCol - 1)
		}

	case "l", "right":
		if m.selectedCol < len(m.columns)-1 {
			m.focusColumn(m.selectedCol + 1)
		}

	case "j", "down":
		if m.selectedCol < len(m.columns) {
			maxCard := len(m.columns[m.selectedCol].cards) - 1
			if m.selectedCard < maxCard {
				m.selectedCard++
				m.columnCursorPos[m.selectedCol] = m.selectedCard
				m.adjustScrollPosition()
			}
		}

	case "k", "up":
		if m.selectedCard > 0 {
			m.selectedCard--
			m.columnCursorPos[m.selectedCol] = m.selectedCard
			m.adjustScrollPosition()
		}

	case "m", " ":
		if _, ok := m.selectedCardPage(); ok {
			m.mode = boardModeMove
		}

	case "enter":
		return m.handleEdit()

	case "n":
		return m.handleNew()

	case "D":
		if _, ok := m.selectedCardPage(); ok {
			m.mode = boardModeConfirmDelete
		}

	case "o":
		return m.handleOpenURL()

	case "x":
		return m.handleHideGroup()

	case "H":
		return m.openSelector(selectShowGroup)

	case "g":
		return m.openSelector(selectGroupBy)

	case "s":
		return m.openSelector(selectSort)

	case "u":
		return m.handleUndo(false)

	case "ctrl+r":
		return m.handleUndo(true)
	}

	return m, nil
}

func (m BoardModel) updateMove(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	cp, ok := m.selectedCardPage()
	if !ok {
		m.mode = boardModeNormal
		return m, nil
	}

	switch msg.String() {
	case "esc", "q", "enter":
		m.mode = boardModeNormal
		return m, nil

	case "h", "left":
		if m.selectedCol > 0 {
			m.moveToColumn(cp, m.selectedCol-1)
		}

	case "l", "right":
		if m.selectedCol < len(m.columns)-1 {
			m.moveToColumn(cp, m.selectedCol+1)
		}

	case "j", "down":
		cards := m.columns[m.selectedCol].cards
		if m.selectedCard < len(cards)-1 {
			m.reorder(cp, cards[m.selectedCard+1].Card.ID)
		}

	case "k", "up":
		if m.selectedCard > 0 {
			m.reorder(cp, m.columns[m.selectedCol].cards[m.selectedCard-1].Card.ID)
		}
	}

	return m, nil
}

// moveToColumn sets the card's group-by value to the target column's option.
// The empty group clears the value.
func (m *BoardModel) moveToColumn(cp models.CardPage, target int) {
	groupBy := m.res.GroupByProperty
	if groupBy == nil || !m.res.IsGrouped() {
		m.mode = boardModeNormal
		return
	}

	var value any
	if id := m.columns[target].option.ID; id != models.EmptyGroupID {
		value = id
		if groupBy.Type == models.PropertyTypeMultiSelect {
			value = []string{id}
		}
	}
	if err := m.ops.SetCardProperty(context.Background(), cp.Card.ID, groupBy.ID, value); err != nil {
		m.err = err
		m.mode = boardModeNormal
		return
	}
	m.afterChange("Card moved")
	m.selectCard(cp.Card.ID)
	m.mode = boardModeNormal
}

// reorder moves a card to the slot of its neighbour in the view's manual
// order. Sorted views ignore manual order.
func (m *BoardModel) reorder(cp models.CardPage, neighbourID string) {
	if len(m.res.View.SortOptions) > 0 {
		m.message = "View is sorted; clear the sort (s) to reorder by hand"
		return
	}
	to := indexOf(manualOrder(m.res), neighbourID)
	if to < 0 {
		return
	}
	if err := m.ops.ReorderCard(context.Background(), m.viewID, cp.Card.ID, to); err != nil {
		m.err = err
		return
	}
	m.afterChange("")
	m.selectCard(cp.Card.ID)
}

func (m BoardModel) updateConfirmDelete(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	switch msg.String() {
	case "y":
		cp, ok := m.selectedCardPage()
		if ok {
			if err := m.ops.Engine.DeleteCards(context.Background(), []string{cp.Card.ID}); err != nil {
				m.err = err
			} else {
				m.afterChange("Card deleted")
			}
		}
		m.mode = boardModeNormal

	case "n", "esc":
		m.mode = boardModeNormal
	}

	return m, nil
}

func (m BoardModel) handleNew() (BoardModel, tea.Cmd) {
	if m.res.ReadOnly {
		m.err = models.ErrReadOnlySource
		return m, nil
	}
	ti := textinput.New()
	ti.Placeholder = "card title..."
	ti.CharLimit = 200
	ti.Width = 40
	ti.Focus()
	m.titleInput = ti
	m.mode = boardModeNewCard
	return m, textinput.Blink
}

func (m BoardModel) updateNewCard(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = boardModeNormal
		return m, nil

	case "enter":
		opts := projection.AddCardOptions{Title: strings.TrimSpace(m.titleInput.Value())}
		if m.res.IsGrouped() && m.selectedCol < len(m.columns) {
			id := m.columns[m.selectedCol].option.ID
			opts.GroupOptionID = &id
		}
		card, err := m.ops.Engine.AddCard(context.Background(), m.viewID, opts)
		m.mode = boardModeNormal
		if err != nil {
			m.err = err
			return m, nil
		}
		m.afterChange("Card created")
		m.selectCard(card.ID)
		return m, nil
	}

	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(msg)
	return m, cmd
}

func (m BoardModel) updateFilter(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	switch msg.String() {
	case "enter":
		// Lock filter and return to normal mode
		m.filterQuery = strings.TrimSpace(m.filterInput.Value())
		m.filterActive = m.filterQuery != ""
		m.buildColumns()
		m.reloadBoardState()
		m.mode = boardModeNormal
		return m, nil

	case "esc":
		m.clearFilter()
		m.mode = boardModeNormal
		return m, nil

	default:
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		// Live recompute
		m.filterQuery = strings.TrimSpace(m.filterInput.Value())
		m.filterActive = m.filterQuery != ""
		m.buildColumns()
		m.reloadBoardState()
		return m, cmd
	}
}

func (m *BoardModel) clearFilter() {
	m.filterQuery = ""
	m.filterActive = false
	m.buildColumns()
	m.selectedCard = 0
	m.reloadBoardState()
}

func (m BoardModel) handleEdit() (BoardModel, tea.Cmd) {
	cp, ok := m.selectedCardPage()
	if !ok {
		return m, nil
	}
	if cp.Page.Path == "" {
		m.err = fmt.Errorf("%q has no card file to edit", cp.DisplayTitle())
		return m, nil
	}
	c := operations.EditorCommand(cp.Page.Path)
	return m, tea.ExecProcess(c, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

func (m BoardModel) handleOpenURL() (BoardModel, tea.Cmd) {
	cp, ok := m.selectedCardPage()
	if !ok {
		return m, nil
	}
	for _, p := range m.res.Board.CardProperties {
		if p.Type != models.PropertyTypeURL {
			continue
		}
		if url := cp.Card.Value(p.ID).String(); url != "" {
			if err := operations.OpenURL(url); err != nil {
				m.err = err
			} else {
				m.message = "Opened " + url
			}
			return m, nil
		}
	}
	m.message = "Card has no URL"
	return m, nil
}

func (m BoardModel) handleHideGroup() (BoardModel, tea.Cmd) {
	if !m.res.IsGrouped() || m.selectedCol >= len(m.columns) {
		return m, nil
	}
	col := m.columns[m.selectedCol]
	if err := m.ops.HideGroup(context.Background(), m.viewID, col.option.ID); err != nil {
		m.err = err
		return m, nil
	}
	m.afterChange("Hid " + col.option.Value)
	return m, nil
}

func (m BoardModel) handleUndo(redo bool) (BoardModel, tea.Cmd) {
	ctx := context.Background()
	var (
		desc string
		err  error
	)
	if redo {
		desc, err = m.ops.Engine.Redo(ctx)
	} else {
		desc, err = m.ops.Engine.Undo(ctx)
	}
	switch {
	case errors.Is(err, undo.ErrNothingToUndo):
		m.message = "Nothing to undo"
		return m, nil
	case errors.Is(err, undo.ErrNothingToRedo):
		m.message = "Nothing to redo"
		return m, nil
	case err != nil:
		m.err = err
		return m, nil
	}
	if redo {
		m.afterChange("Redid " + desc)
	} else {
		m.afterChange("Undid " + desc)
	}
	return m, nil
}

func (m BoardModel) openSelector(purpose selectPurpose) (BoardModel, tea.Cmd) {
	var (
		items   []selectorItem
		title   string
		current string
	)

	switch purpose {
	case selectShowGroup:
		title = "Show hidden group"
		for _, g := range m.res.Hidden {
			items = append(items, selectorItem{
				ID:    g.Option.ID,
				Label: theme.Option(g.Option.Value, g.Option.Color),
				Hint:  fmt.Sprintf("%d cards", len(g.CardPages)),
			})
		}
		if len(items) == 0 {
			m.message = "No hidden groups"
			return m, nil
		}

	case selectGroupBy:
		title = "Group by"
		board := m.res.View.ViewType == models.ViewTypeBoard
		for _, p := range m.res.Board.CardProperties {
			if p.Type.IsGroupable() || (!board && p.Type.HasOptions()) {
				items = append(items, selectorItem{ID: p.ID, Label: p.Name, Hint: string(p.Type)})
			}
		}
		if len(items) == 0 {
			m.message = "Board has no property to group by"
			return m, nil
		}
		if m.res.GroupByProperty != nil {
			current = m.res.GroupByProperty.ID
		}

	case selectSort:
		title = "Sort by"
		items = append(items, selectorItem{ID: "", Label: "Manual order"})
		items = append(items, selectorItem{ID: models.TitlePropertyID, Label: "Name"})
		for _, p := range m.res.Board.CardProperties {
			items = append(items, selectorItem{ID: p.ID, Label: p.Name, Hint: string(p.Type)})
		}
		if sorts := m.res.View.SortOptions; len(sorts) > 0 {
			current = sorts[0].PropertyID
			for i := range items {
				if items[i].ID == current {
					dir := "ascending"
					if sorts[0].Reversed {
						dir = "descending"
					}
					items[i].Hint = dir + ", enter to flip"
				}
			}
		}
	}

	m.selector = NewSelectorModel(title, items, current)
	m.selector.width = m.width
	m.selector.height = m.height
	m.selecting = purpose
	m.mode = boardModeSelect
	return m, nil
}

func (m BoardModel) updateSelect(msg tea.KeyMsg) (BoardModel, tea.Cmd) {
	var (
		id           string
		chosen, done bool
	)
	m.selector, id, chosen, done = m.selector.Update(msg)
	if !done {
		return m, nil
	}
	m.mode = boardModeNormal
	if !chosen {
		return m, nil
	}

	ctx := context.Background()
	var err error
	switch m.selecting {
	case selectShowGroup:
		err = m.ops.UnhideGroup(ctx, m.viewID, id)
		if err == nil {
			m.afterChange("Group shown")
		}

	case selectGroupBy:
		err = m.ops.ChangeGroupBy(ctx, m.viewID, id)
		if err == nil {
			m.selectedCol = 0
			m.selectedCard = 0
			m.afterChange("Grouping changed")
		}

	case selectSort:
		var sorts []models.SortOption
		if id != "" {
			reversed := false
			if cur := m.res.View.SortOptions; len(cur) > 0 && cur[0].PropertyID == id {
				reversed = !cur[0].Reversed
			}
			sorts = []models.SortOption{{PropertyID: id, Reversed: reversed}}
		}
		err = m.ops.ChangeSortOptions(ctx, m.viewID, sorts)
		if err == nil {
			m.afterChange("Sort changed")
		}
	}
	if err != nil {
		m.err = err
	}
	return m, nil
}

// afterChange re-projects after a mutation and shows msg.
func (m *BoardModel) afterChange(msg string) {
	if err := m.Refresh(); err != nil {
		m.err = err
		return
	}
	m.message = msg
}

func (m BoardModel) helpSections() []shared.HelpSection {
	return []shared.HelpSection{
		{Title: "Navigation", Binds: []shared.HelpBind{
			{Key: "h/l", Desc: "previous / next group"},
			{Key: "j/k", Desc: "previous / next card"},
			{Key: "/", Desc: "search cards"},
			{Key: "q/esc", Desc: "back to views"},
		}},
		{Title: "Cards", Binds: []shared.HelpBind{
			{Key: "n", Desc: "new card in this group"},
			{Key: "enter", Desc: "edit card file"},
			{Key: "m/space", Desc: "move (h/l group, j/k order)"},
			{Key: "D", Desc: "delete card"},
			{Key: "o", Desc: "open card URL"},
		}},
		{Title: "View", Binds: []shared.HelpBind{
			{Key: "g", Desc: "group by"},
			{Key: "s", Desc: "sort by"},
			{Key: "x", Desc: "hide group"},
			{Key: "H", Desc: "show hidden group"},
			{Key: "u", Desc: "undo"},
			{Key: "ctrl+r", Desc: "redo"},
		}},
	}
}

func (m BoardModel) View() string {
	switch m.mode {
	case boardModeSelect:
		return m.selector.View()
	case boardModeHelp:
		return shared.RenderHelpPopup("Keys", m.helpSections(), m.width, m.height)
	}

	var s strings.Builder

	// Title
	title := titleStyle.Render(m.res.Board.Title + " / " + m.res.View.Title)
	kind := string(m.res.View.ViewType)
	if m.res.GroupByProperty != nil && m.res.IsGrouped() {
		kind += " by " + m.res.GroupByProperty.Name
	}
	if m.res.ReadOnly {
		kind += " (read-only)"
	}
	s.WriteString(title + " " + viewTypeStyle.Render(kind))
	s.WriteString("\n")

	// Filter bar
	if m.mode == boardModeFilter {
		s.WriteString("  / " + m.filterInput.View())
	} else if m.mode == boardModeNewCard {
		s.WriteString("  + " + m.titleInput.View())
	} else if m.filterActive {
		s.WriteString("  " + filterIndicatorStyle.Render("Search: "+m.filterQuery))
	}
	s.WriteString("\n")

	totalFixedColumnHeight := m.columnHeight()

	// Render columns with fixed height and horizontal scrolling
	startCol, endCol := m.calculateVisibleColumns()
	visibleColumnViews := []string{}

	// Left scroll indicator space (always allocated)
	if startCol > 0 {
		visibleColumnViews = append(visibleColumnViews, m.renderScrollIndicator("◀", totalFixedColumnHeight))
	} else {
		visibleColumnViews = append(visibleColumnViews, m.renderScrollIndicator(" ", totalFixedColumnHeight))
	}

	for i := startCol; i < endCol; i++ {
		visibleColumnViews = append(visibleColumnViews, m.renderColumn(i, m.columns[i], totalFixedColumnHeight))
	}

	// Right scroll indicator space (always allocated)
	if endCol < len(m.columns) {
		visibleColumnViews = append(visibleColumnViews, m.renderScrollIndicator("▶", totalFixedColumnHeight))
	} else {
		visibleColumnViews = append(visibleColumnViews, m.renderScrollIndicator(" ", totalFixedColumnHeight))
	}

	columns := lipgloss.JoinHorizontal(lipgloss.Top, visibleColumnViews...)
	s.WriteString(lipgloss.Place(m.width, 0, lipgloss.Center, lipgloss.Top, columns))
	s.WriteString("\n")

	// Status message or error
	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n")
	} else if m.message != "" {
		s.WriteString(successStyle.Render(m.message))
		s.WriteString("\n")
	}

	// Mode-specific help
	switch m.mode {
	case boardModeMove:
		s.WriteString(helpStyle.Render("h/l: move to group • j/k: reorder • esc: done"))
	case boardModeConfirmDelete:
		s.WriteString(warningStyle.Render("Delete this card? (y/n)"))
	case boardModeFilter:
		s.WriteString(helpStyle.Render("type to search • enter: lock search • esc: cancel"))
	case boardModeNewCard:
		s.WriteString(helpStyle.Render("enter: create • esc: cancel"))
	default:
		helpText := "hjkl: navigate • n: new • enter: edit • m: move • D: delete • g: group by • s: sort • x/H: hide/show group • u: undo • ?: help • q: back"
		if m.filterActive {
			helpText = "hjkl: navigate • m/space: move • enter: edit • /: edit search • esc: clear search • q/b: back"
		}
		s.WriteString(helpStyle.Render(helpText))
	}

	return s.String()
}

func (m BoardModel) columnHeight() int {
	boardHeaderLines := 3
	statusLines := 3
	marginLines := 2

	h := m.height - boardHeaderLines - statusLines - marginLines
	if h < 10 {
		h = 10
	}
	return h
}

func (m BoardModel) renderColumn(index int, col column, fixedHeight int) string {
	var s strings.Builder

	selected := index == m.selectedCol
	heading := columnTitleStyle(col.option.Color, selected).Render(col.option.Value)
	s.WriteString(heading + " " + columnCountStyle.Render(fmt.Sprintf("(%d)", len(col.cards))))
	s.WriteString("\n")
	for _, line := range m.columnFooter(col) {
		s.WriteString(columnCountStyle.Render(line))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	style := columnStyle
	if selected {
		style = selectedColumnStyle
	}

	if len(col.cards) == 0 {
		s.WriteString(cardPreviewStyle.Render("(empty)"))
		s.WriteString("\n")
		return style.Height(fixedHeight).Render(s.String())
	}

	scrollOffset := 0
	if index < len(m.columnScrollOffsets) {
		scrollOffset = m.columnScrollOffsets[index]
	}

	// Top scroll indicator (always reserve space)
	if scrollOffset > 0 {
		s.WriteString(scrollIndicatorStyle.Render(fmt.Sprintf("▲ +%d cards above", scrollOffset)))
	}
	s.WriteString("\n\n")

	availableCardSpace := fixedHeight - 8

	cardsRendered := 0
	currentCardHeight := 0
	for i := scrollOffset; i < len(col.cards); i++ {
		cardView := m.renderCard(index, i, col.cards[i])
		cardHeight := lipgloss.Height(cardView)

		if cardsRendered > 0 && currentCardHeight+cardHeight > availableCardSpace {
			break
		}

		s.WriteString(cardView)
		s.WriteString("\n")
		cardsRendered++
		currentCardHeight += cardHeight
	}

	if cardsBelow := len(col.cards) - scrollOffset - cardsRendered; cardsBelow > 0 {
		s.WriteString(scrollIndicatorStyle.Render(fmt.Sprintf("▼ +%d cards below", cardsBelow)))
	}

	return style.Height(fixedHeight).Render(s.String())
}

// columnFooter renders the board's column calculations over one group.
func (m BoardModel) columnFooter(col column) []string {
	calcs := m.res.Board.ColumnCalculations
	if len(calcs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(calcs))
	for id := range calcs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cards := models.Cards(col.cards)
	var lines []string
	for _, id := range ids {
		p := models.PropertyTemplate{ID: models.TitlePropertyID, Name: "Name", Type: models.PropertyTypeText}
		if id != models.TitlePropertyID {
			tmpl := m.res.Board.Property(id)
			if tmpl == nil {
				continue
			}
			p = *tmpl
		}
		v, err := calculations.Calculate(calcs[id], cards, p)
		if err != nil || v == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s: %s", calcs[id], p.Name, v))
	}
	return lines
}

func (m BoardModel) renderCard(colIndex, cardIndex int, cp models.CardPage) string {
	maxWidth := columnWidth - (2 * columnPaddingHorizontal) - cardBorderWidth - (2 * cardPaddingHorizontal)

	var lines []string
	lines = append(lines, cardTitleStyle.Render(shared.Truncate(cp.DisplayTitle(), maxWidth)))

	if cp.Card.Preview != "" {
		lines = append(lines, cardPreviewStyle.Render(shared.Truncate(shared.SingleLine(cp.Card.Preview), maxWidth)))
	}

	members := m.ops.Engine.Store.Members()
	if d := m.res.DateDisplayProperty; d != nil {
		if v := format.Value(cp.Card, *d, members); v != "" {
			lines = append(lines, theme.Warn.Render(shared.Truncate(v, maxWidth)))
		}
	}
	for _, p := range export.Columns(m.res.Board, m.res.View) {
		if m.res.GroupByProperty != nil && p.ID == m.res.GroupByProperty.ID {
			continue
		}
		if m.res.DateDisplayProperty != nil && p.ID == m.res.DateDisplayProperty.ID {
			continue
		}
		if len(m.res.View.VisiblePropertyIDs) == 0 {
			// without a chosen list only show option properties to keep cards short
			if !p.Type.HasOptions() {
				continue
			}
		}
		v := format.Value(cp.Card, p, members)
		if v == "" {
			continue
		}
		lines = append(lines, theme.PropertyName.Render(p.Name+": ")+shared.Truncate(v, maxWidth-len(p.Name)-2))
	}

	style := cardStyle
	if colIndex == m.selectedCol && cardIndex == m.selectedCard {
		style = selectedCardStyle
		if m.mode == boardModeMove {
			style = moveSelectedCardStyle
		}
	}

	return style.Render(strings.Join(lines, "\n"))
}

// buildColumns turns the projection into columns, applying the search.
func (m *BoardModel) buildColumns() {
	templates := m.res.Board.CardProperties
	search := func(cps []models.CardPage) []models.CardPage {
		if !m.filterActive {
			return cps
		}
		return filter.Search(cps, m.filterQuery, templates)
	}

	if !m.res.IsGrouped() {
		m.columns = []column{{
			option: models.PropertyOption{Value: "All cards"},
			cards:  search(m.res.CardPages),
		}}
		return
	}

	m.columns = make([]column, 0, len(m.res.Visible))
	for _, g := range m.res.Visible {
		m.columns = append(m.columns, column{option: g.Option, cards: search(g.CardPages)})
	}
}

func (m *BoardModel) selectedCardPage() (models.CardPage, bool) {
	if m.selectedCol >= len(m.columns) {
		return models.CardPage{}, false
	}
	cards := m.columns[m.selectedCol].cards
	if m.selectedCard >= len(cards) {
		return models.CardPage{}, false
	}
	return cards[m.selectedCard], true
}

// selectCard moves the cursor to a card, wherever its column is.
func (m *BoardModel) selectCard(id string) {
	for ci, col := range m.columns {
		for i, cp := range col.cards {
			if cp.Card.ID == id {
				m.selectedCol = ci
				m.selectedCard = i
				m.columnCursorPos[ci] = i
				m.adjustScrollPosition()
				m.adjustHorizontalScrollPosition()
				return
			}
		}
	}
}

func (m *BoardModel) focusColumn(index int) {
	m.selectedCol = index
	// Restore saved cursor position
	m.selectedCard = m.columnCursorPos[m.selectedCol]
	if visible := len(m.columns[m.selectedCol].cards); m.selectedCard >= visible {
		m.selectedCard = max(0, visible-1)
		m.columnCursorPos[m.selectedCol] = m.selectedCard
	}
	m.adjustScrollPosition()
	m.adjustHorizontalScrollPosition()
}

// reloadBoardState syncs per-column arrays and validates cursors after the
// columns change
func (m *BoardModel) reloadBoardState() {
	if len(m.columnScrollOffsets) != len(m.columns) {
		newOffsets := make([]int, len(m.columns))
		copy(newOffsets, m.columnScrollOffsets)
		m.columnScrollOffsets = newOffsets
	}

	if len(m.columnCursorPos) != len(m.columns) {
		newCursorPos := make([]int, len(m.columns))
		copy(newCursorPos, m.columnCursorPos)
		m.columnCursorPos = newCursorPos
	}

	if m.selectedCol >= len(m.columns) {
		m.selectedCol = max(0, len(m.columns)-1)
	}
	if m.selectedCol < len(m.columns) {
		if visible := len(m.columns[m.selectedCol].cards); m.selectedCard >= visible {
			m.selectedCard = max(0, visible-1)
		}
		m.columnCursorPos[m.selectedCol] = m.selectedCard
	}

	if m.columnHorizontalOffset >= len(m.columns) {
		m.columnHorizontalOffset = max(0, len(m.columns)-1)
	}
	m.adjustScrollPosition()
	m.adjustHorizontalScrollPosition()
}

// manualOrder is the view's card order with unordered cards appended in
// projection order.
func manualOrder(res projection.Result) []string {
	order := append([]string{}, res.View.CardOrder...)
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		seen[id] = true
	}
	for _, c := range res.Cards() {
		if !seen[c.ID] {
			order = append(order, c.ID)
		}
	}
	return order
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// adjustScrollPosition ensures the selected card is visible by adjusting scroll offset
func (m *BoardModel) adjustScrollPosition() {
	if m.selectedCol >= len(m.columns) || m.selectedCol >= len(m.columnScrollOffsets) {
		return
	}

	cards := m.columns[m.selectedCol].cards
	if len(cards) == 0 {
		m.columnScrollOffsets[m.selectedCol] = 0
		return
	}

	availableCardHeight := m.columnHeight() - 8
	scrollOffset := m.columnScrollOffsets[m.selectedCol]

	if m.selectedCard < scrollOffset {
		m.columnScrollOffsets[m.selectedCol] = m.selectedCard
	} else {
		visibleCards := 0
		accumulatedHeight := 0

		for i := scrollOffset; i < len(cards); i++ {
			cardHeight := lipgloss.Height(m.renderCard(m.selectedCol, i, cards[i]))
			if visibleCards > 0 && accumulatedHeight+cardHeight > availableCardHeight {
				break
			}
			accumulatedHeight += cardHeight
			visibleCards++
		}

		if visibleCards < 1 {
			visibleCards = 1
		}

		if m.selectedCard >= scrollOffset+visibleCards {
			m.columnScrollOffsets[m.selectedCol] = m.selectedCard - visibleCards + 1
		}
	}

	if m.columnScrollOffsets[m.selectedCol] < 0 {
		m.columnScrollOffsets[m.selectedCol] = 0
	}
	if maxOffset := max(0, len(cards)-1); m.columnScrollOffsets[m.selectedCol] > maxOffset {
		m.columnScrollOffsets[m.selectedCol] = maxOffset
	}
}

// calculateVisibleColumns determines which columns fit in terminal width
func (m *BoardModel) calculateVisibleColumns() (startCol, endCol int) {
	startCol = m.columnHorizontalOffset

	leftIndicatorWidth := 5
	rightIndicatorWidth := 5

	widthForColumns := m.width - leftIndicatorWidth - rightIndicatorWidth
	visibleCount := widthForColumns / columnTotalWidth
	if visibleCount < 1 {
		visibleCount = 1
	}

	endCol = min(startCol+visibleCount, len(m.columns))
	if endCol <= startCol && len(m.columns) > 0 {
		endCol = startCol + 1
	}

	return startCol, endCol
}

// renderScrollIndicator renders ◀ and ▶ indicators for horizontal scrolling
func (m *BoardModel) renderScrollIndicator(symbol string, height int) string {
	indicator := lipgloss.NewStyle().
		Foreground(theme.Warning).
		Bold(true).
		Render(symbol)
	return lipgloss.NewStyle().
		Width(3).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(indicator)
}

// adjustHorizontalScrollPosition ensures the selected column is visible
func (m *BoardModel) adjustHorizontalScrollPosition() {
	if len(m.columns) == 0 {
		return
	}

	startCol, endCol := m.calculateVisibleColumns()

	if m.selectedCol < startCol {
		m.columnHorizontalOffset = m.selectedCol
		return
	}

	if m.selectedCol >= endCol {
		m.columnHorizontalOffset = max(0, m.selectedCol-(endCol-startCol)+1)
	}
}
