package kanban

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cardview/internal/kanban/fs"
	"cardview/internal/kanban/models"
	"cardview/internal/kanban/operations"
	"cardview/internal/kanban/store"
	"cardview/internal/projection"
	"cardview/internal/tui/messages"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ops    *operations.Service
	board  models.Board
	view   models.BoardView
	status models.PropertyTemplate
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := fs.NewStore(t.TempDir())
	engine := projection.NewEngine(store.New(store.Snapshot{}), repo, nil)
	n := 0
	engine.NewID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	engine.Now = func() time.Time {
		at = at.Add(time.Minute)
		return at
	}
	ops := operations.New(engine, repo)
	board, view, err := ops.CreateBoard(context.Background(), "Roadmap", true)
	require.NoError(t, err)
	return fixture{ops: ops, board: board, view: view, status: board.CardProperties[0]}
}

func (f fixture) addCard(t *testing.T, title, optionID string) models.Card {
	t.Helper()
	card, err := f.ops.Engine.AddCard(context.Background(), f.view.ID, projection.AddCardOptions{
		Title:         title,
		GroupOptionID: &optionID,
	})
	require.NoError(t, err)
	return card
}

func (f fixture) open(t *testing.T) BoardModel {
	t.Helper()
	m, err := NewBoardModel(f.ops, f.view.ID, nil)
	require.NoError(t, err)
	m.SetSize(200, 50)
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m BoardModel, keys ...string) BoardModel {
	for _, k := range keys {
		m, _ = m.Update(key(k))
	}
	return m
}

func columnTitles(m BoardModel) []string {
	var out []string
	for _, c := range m.columns {
		out = append(out, c.option.Value)
	}
	return out
}

func (f fixture) statusOf(t *testing.T, cardID string) any {
	t.Helper()
	card, ok := f.ops.Engine.Store.Card(cardID)
	require.True(t, ok)
	return card.Properties[f.status.ID]
}

func TestBoard_ColumnsFollowGroups(t *testing.T) {
	f := newFixture(t)
	f.addCard(t, "Plan", f.status.Options[0].ID)
	m := f.open(t)

	assert.Equal(t, []string{"No Status", "Not started", "In progress", "Completed"}, columnTitles(m))
	assert.Len(t, m.columns[1].cards, 1)
	assert.Contains(t, m.View(), "Roadmap / Board view")
}

func TestBoard_NewCardLandsInSelectedColumn(t *testing.T) {
	f := newFixture(t)
	m := f.open(t)

	m = press(m, "l", "l", "n", "Ship it", "enter")
	require.NoError(t, m.err)
	require.Len(t, m.columns[2].cards, 1)

	cp, ok := m.selectedCardPage()
	require.True(t, ok)
	assert.Equal(t, "Ship it", cp.Card.Title)
	assert.Equal(t, f.status.Options[1].ID, f.statusOf(t, cp.Card.ID))
	assert.Equal(t, "Card created", m.message)
}

func TestBoard_NewCardCancelled(t *testing.T) {
	f := newFixture(t)
	m := f.open(t)

	m = press(m, "n", "draft", "esc")
	assert.False(t, m.IsModal())
	assert.Empty(t, f.ops.Engine.Store.CardsForBoard(f.board.ID))
}

func TestBoard_MoveSetsGroupValueAndUndoes(t *testing.T) {
	f := newFixture(t)
	card := f.addCard(t, "Plan", f.status.Options[0].ID)
	m := f.open(t)

	m = press(m, "l", "m", "l")
	require.NoError(t, m.err)
	assert.Equal(t, f.status.Options[1].ID, f.statusOf(t, card.ID))
	assert.Equal(t, 2, m.selectedCol, "cursor follows the card")
	assert.False(t, m.IsModal())

	m = press(m, "u")
	assert.Equal(t, f.status.Options[0].ID, f.statusOf(t, card.ID))
	assert.Contains(t, m.message, "Undid")

	m = press(m, "ctrl+r")
	assert.Equal(t, f.status.Options[1].ID, f.statusOf(t, card.ID))
	assert.Contains(t, m.message, "Redid")
}

func TestBoard_MoveToEmptyGroupClearsValue(t *testing.T) {
	f := newFixture(t)
	card := f.addCard(t, "Plan", f.status.Options[0].ID)
	m := f.open(t)

	m = press(m, "l", "m", "h")
	require.NoError(t, m.err)
	assert.Nil(t, f.statusOf(t, card.ID))
	assert.Equal(t, 0, m.selectedCol)
}

func TestBoard_ReorderWithinColumn(t *testing.T) {
	f := newFixture(t)
	a := f.addCard(t, "A", f.status.Options[0].ID)
	b := f.addCard(t, "B", f.status.Options[0].ID)
	m := f.open(t)

	m = press(m, "l", "m", "j", "esc")
	require.NoError(t, m.err)

	titles := []string{m.columns[1].cards[0].Card.Title, m.columns[1].cards[1].Card.Title}
	assert.Equal(t, []string{"B", "A"}, titles)
	view, _ := f.ops.Engine.Store.View(f.view.ID)
	assert.Equal(t, []string{b.ID, a.ID}, view.CardOrder)
	assert.Equal(t, 1, m.selectedCard)
}

func TestBoard_ReorderIgnoredWhenSorted(t *testing.T) {
	f := newFixture(t)
	f.addCard(t, "A", f.status.Options[0].ID)
	f.addCard(t, "B", f.status.Options[0].ID)
	require.NoError(t, f.ops.ChangeSortOptions(context.Background(), f.view.ID,
		[]models.SortOption{{PropertyID: models.TitlePropertyID}}))
	m := f.open(t)

	m = press(m, "l", "m", "j")
	assert.Contains(t, m.message, "sorted")
	assert.Equal(t, "A", m.columns[1].cards[0].Card.Title)
}

func TestBoard_DeleteNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	f.addCard(t, "Plan", f.status.Options[0].ID)
	m := f.open(t)

	m = press(m, "l", "D", "n")
	assert.Len(t, f.ops.Engine.Store.CardsForBoard(f.board.ID), 1)

	m = press(m, "D", "y")
	require.NoError(t, m.err)
	assert.Empty(t, f.ops.Engine.Store.CardsForBoard(f.board.ID))
	assert.Equal(t, "Card deleted", m.message)
}

func TestBoard_HideAndShowGroup(t *testing.T) {
	f := newFixture(t)
	m := f.open(t)

	m = press(m, "x")
	require.NoError(t, m.err)
	assert.Equal(t, []string{"Not started", "In progress", "Completed"}, columnTitles(m))

	m = press(m, "H")
	require.Equal(t, boardModeSelect, m.mode)
	m = press(m, "enter")
	require.NoError(t, m.err)
	assert.Len(t, m.columns, 4)
	assert.Equal(t, "No Status", m.columns[3].option.Value)
}

func TestBoard_SearchNarrowsColumns(t *testing.T) {
	f := newFixture(t)
	f.addCard(t, "alpha launch", f.status.Options[0].ID)
	f.addCard(t, "beta", f.status.Options[0].ID)
	m := f.open(t)

	m = press(m, "/", "alp", "enter")
	assert.True(t, m.filterActive)
	require.Len(t, m.columns[1].cards, 1)
	assert.Equal(t, "alpha launch", m.columns[1].cards[0].Card.Title)

	m = press(m, "esc")
	assert.False(t, m.filterActive)
	assert.Len(t, m.columns[1].cards, 2)
}

func TestBoard_SortSelectorTogglesDirection(t *testing.T) {
	f := newFixture(t)
	m := f.open(t)

	m = press(m, "s", "j", "enter")
	require.NoError(t, m.err)
	view, _ := f.ops.Engine.Store.View(f.view.ID)
	assert.Equal(t, []models.SortOption{{PropertyID: models.TitlePropertyID}}, view.SortOptions)

	m = press(m, "s", "enter")
	view, _ = f.ops.Engine.Store.View(f.view.ID)
	assert.Equal(t, []models.SortOption{{PropertyID: models.TitlePropertyID, Reversed: true}}, view.SortOptions)

	press(m, "s", "k", "enter")
	view, _ = f.ops.Engine.Store.View(f.view.ID)
	assert.Empty(t, view.SortOptions)
}

func TestBoard_BackToPicker(t *testing.T) {
	f := newFixture(t)
	m := f.open(t)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.SwitchViewMsg{View: messages.ViewPicker}, cmd())
}

func TestBoard_RefreshOnExternalChange(t *testing.T) {
	f := newFixture(t)
	m := f.open(t)
	f.addCard(t, "from elsewhere", f.status.Options[2].ID)

	m, _ = m.Update(messages.DataRefreshMsg{BoardID: "other-board"})
	assert.Empty(t, m.columns[3].cards)

	m, _ = m.Update(messages.DataRefreshMsg{BoardID: f.board.ID})
	assert.Len(t, m.columns[3].cards, 1)
}
