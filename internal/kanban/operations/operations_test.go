package operations

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cardview/internal/kanban/fs"
	"cardview/internal/kanban/models"
	"cardview/internal/kanban/store"
	"cardview/internal/projection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	repo := fs.NewStore(t.TempDir())
	st := store.New(store.Snapshot{})
	engine := projection.NewEngine(st, repo, nil)
	n := 0
	engine.NewID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return New(engine, repo)
}

func seedBoard(t *testing.T, s *Service) (models.Board, models.BoardView) {
	t.Helper()
	board, view, err := s.CreateBoard(context.Background(), "Roadmap", true)
	require.NoError(t, err)
	return board, view
}

func TestCreateBoard_DefaultStatus(t *testing.T) {
	s := newTestService(t)
	board, view := seedBoard(t, s)

	require.Len(t, board.CardProperties, 1)
	status := board.CardProperties[0]
	assert.Equal(t, "Status", status.Name)
	assert.Equal(t, models.PropertyTypeSelect, status.Type)
	var labels []string
	for _, o := range status.Options {
		labels = append(labels, o.Value)
	}
	assert.Equal(t, []string{"Not started", "In progress", "Completed"}, labels)

	assert.Equal(t, models.ViewTypeBoard, view.ViewType)
	assert.Equal(t, status.ID, view.GroupByID)
	assert.Equal(t, []string{view.ID}, board.ViewIDs)

	// persisted, so a fresh load sees it
	snap, err := s.Repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Boards, 1)
	assert.Equal(t, "Roadmap", snap.Boards[0].Title)
	require.Len(t, snap.Views, 1)

	assert.False(t, s.Engine.History.CanUndo())
}

func TestCreateBoard_Empty(t *testing.T) {
	s := newTestService(t)
	board, view, err := s.CreateBoard(context.Background(), "Notes", false)
	require.NoError(t, err)
	assert.Empty(t, board.CardProperties)
	assert.Equal(t, "", view.GroupByID)

	_, _, err = s.CreateBoard(context.Background(), "   ", false)
	assert.Error(t, err)
}

func TestCreateView_AndUndo(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	board, _ := seedBoard(t, s)

	table, err := s.CreateView(ctx, board.ID, models.ViewTypeTable, "")
	require.NoError(t, err)
	assert.Equal(t, "table view", table.Title)
	assert.Equal(t, []string{board.CardProperties[0].ID}, table.VisiblePropertyIDs)
	assert.Len(t, s.Engine.Store.ViewsForBoard(board.ID), 2)

	_, err = s.Engine.Undo(ctx)
	require.NoError(t, err)
	assert.Len(t, s.Engine.Store.ViewsForBoard(board.ID), 1)
	b, _ := s.Engine.Store.Board(board.ID)
	assert.Len(t, b.ViewIDs, 1)
}

func TestDeleteView_KeepsLast(t *testing.T) {
	s := newTestService(t)
	_, view := seedBoard(t, s)
	err := s.DeleteView(context.Background(), view.ID)
	assert.Error(t, err)
}

func TestRemoveProperty_Cascades(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	board, view := seedBoard(t, s)
	status := board.CardProperties[0]
	done := status.Options[2].ID

	est, err := s.AddProperty(ctx, board.ID, "Estimate", models.PropertyTypeNumber)
	require.NoError(t, err)

	card, err := s.Engine.AddCard(ctx, view.ID, projection.AddCardOptions{
		Title:         "Ship",
		GroupOptionID: &done,
		Properties:    map[string]any{est.ID: 3},
	})
	require.NoError(t, err)

	require.NoError(t, s.ChangeSortOptions(ctx, view.ID, []models.SortOption{{PropertyID: status.ID}, {PropertyID: est.ID}}))
	require.NoError(t, s.ChangeFilter(ctx, view.ID, models.FilterGroup{
		Operation: models.FilterAnd,
		Filters: []models.FilterItem{
			models.Clause(status.ID, models.ConditionIsNotEmpty),
			models.NestedGroup(models.FilterOr, models.Clause(status.ID, models.ConditionIs, done)),
		},
	}))

	require.NoError(t, s.RemoveProperty(ctx, board.ID, status.ID))

	b, _ := s.Engine.Store.Board(board.ID)
	assert.Nil(t, b.Property(status.ID))
	c, _ := s.Engine.Store.Card(card.ID)
	_, has := c.Properties[status.ID]
	assert.False(t, has)
	assert.Equal(t, 3, c.Properties[est.ID])

	v, _ := s.Engine.Store.View(view.ID)
	assert.Equal(t, "", v.GroupByID)
	assert.Equal(t, []models.SortOption{{PropertyID: est.ID}}, v.SortOptions)
	require.Len(t, v.Filter.Filters, 1)
	assert.True(t, v.Filter.Filters[0].IsGroup())
	assert.Empty(t, v.Filter.Filters[0].Filters)

	// one undo restores everything
	_, err = s.Engine.Undo(ctx)
	require.NoError(t, err)
	b, _ = s.Engine.Store.Board(board.ID)
	assert.NotNil(t, b.Property(status.ID))
	c, _ = s.Engine.Store.Card(card.ID)
	assert.Equal(t, done, c.Properties[status.ID])
	v, _ = s.Engine.Store.View(view.ID)
	assert.Equal(t, status.ID, v.GroupByID)
}

func TestRemoveOption_ClearsValues(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	board, view := seedBoard(t, s)
	status := board.CardProperties[0]
	started := status.Options[1].ID

	tags, err := s.AddProperty(ctx, board.ID, "Tags", models.PropertyTypeMultiSelect)
	require.NoError(t, err)
	a, err := s.AddOption(ctx, board.ID, tags.ID, "A", "")
	require.NoError(t, err)
	bOpt, err := s.AddOption(ctx, board.ID, tags.ID, "B", "propColorRed")
	require.NoError(t, err)
	_, err = s.AddOption(ctx, board.ID, tags.ID, "a", "")
	assert.Error(t, err, "duplicate option labels are rejected")

	card, err := s.Engine.AddCard(ctx, view.ID, projection.AddCardOptions{
		GroupOptionID: &started,
		Properties:    map[string]any{tags.ID: []string{a.ID, bOpt.ID}},
	})
	require.NoError(t, err)
	require.NoError(t, s.HideGroup(ctx, view.ID, started))

	require.NoError(t, s.RemoveOption(ctx, board.ID, tags.ID, a.ID))
	c, _ := s.Engine.Store.Card(card.ID)
	assert.Equal(t, []string{bOpt.ID}, c.Properties[tags.ID])

	require.NoError(t, s.RemoveOption(ctx, board.ID, status.ID, started))
	c, _ = s.Engine.Store.Card(card.ID)
	_, has := c.Properties[status.ID]
	assert.False(t, has)
	v, _ := s.Engine.Store.View(view.ID)
	assert.NotContains(t, v.HiddenOptionIDs, started)
}

func TestHideAndUnhideGroup(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	board, view := seedBoard(t, s)
	status := board.CardProperties[0]
	notStarted := status.Options[0].ID

	require.NoError(t, s.HideGroup(ctx, view.ID, notStarted))
	res, err := s.Engine.Project(view.ID)
	require.NoError(t, err)
	require.Len(t, res.Hidden, 1)
	assert.Equal(t, notStarted, res.Hidden[0].ID())
	assert.Len(t, res.Visible, 3) // empty group plus two options

	// hiding twice is a no-op
	require.NoError(t, s.HideGroup(ctx, view.ID, notStarted))

	require.NoError(t, s.UnhideGroup(ctx, view.ID, notStarted))
	res, err = s.Engine.Project(view.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Hidden)
	assert.Equal(t, notStarted, res.Visible[len(res.Visible)-1].ID())
}

func TestChangeGroupBy(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	board, view := seedBoard(t, s)

	text, err := s.AddProperty(ctx, board.ID, "Notes", models.PropertyTypeText)
	require.NoError(t, err)
	assert.Error(t, s.ChangeGroupBy(ctx, view.ID, text.ID))
	assert.ErrorIs(t, s.ChangeGroupBy(ctx, view.ID, "missing"), models.ErrNotFound)

	prio, err := s.AddProperty(ctx, board.ID, "Priority", models.PropertyTypeSelect)
	require.NoError(t, err)
	require.NoError(t, s.HideGroup(ctx, view.ID, board.CardProperties[0].Options[0].ID))
	require.NoError(t, s.ChangeGroupBy(ctx, view.ID, prio.ID))

	v, _ := s.Engine.Store.View(view.ID)
	assert.Equal(t, prio.ID, v.GroupByID)
	assert.Empty(t, v.HiddenOptionIDs)
}

func TestChangeGroupBy_MultiSelectOnTable(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	board, _ := seedBoard(t, s)

	tags, err := s.AddProperty(ctx, board.ID, "Tags", models.PropertyTypeMultiSelect)
	require.NoError(t, err)
	backend, err := s.AddOption(ctx, board.ID, tags.ID, "Backend", "")
	require.NoError(t, err)
	table, err := s.CreateView(ctx, board.ID, models.ViewTypeTable, "Table")
	require.NoError(t, err)
	require.NoError(t, s.ChangeGroupBy(ctx, table.ID, tags.ID))

	_, err = s.Engine.AddCard(ctx, table.ID, projection.AddCardOptions{GroupOptionID: &backend.ID})
	require.NoError(t, err)

	res, err := s.Engine.Project(table.ID)
	require.NoError(t, err)
	require.True(t, res.IsGrouped())
	assert.Equal(t, tags.ID, res.GroupByProperty.ID)
	require.Len(t, res.Visible, 2)
	assert.Equal(t, backend.ID, res.Visible[1].ID())
	assert.Len(t, res.Visible[1].Cards, 1)
}

func TestReorderCard(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	_, view := seedBoard(t, s)

	var ids []string
	for _, title := range []string{"one", "two", "three"} {
		c, err := s.Engine.AddCard(ctx, view.ID, projection.AddCardOptions{Title: title})
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}

	require.NoError(t, s.ReorderCard(ctx, view.ID, ids[2], 0))
	v, _ := s.Engine.Store.View(view.ID)
	assert.Equal(t, []string{ids[2], ids[0], ids[1]}, v.CardOrder)

	assert.ErrorIs(t, s.ReorderCard(ctx, view.ID, "nope", 0), models.ErrNotFound)
}

func TestSetCardProperty(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	board, view := seedBoard(t, s)
	status := board.CardProperties[0]

	card, err := s.Engine.AddCard(ctx, view.ID, projection.AddCardOptions{Title: "Task"})
	require.NoError(t, err)

	require.NoError(t, s.SetCardProperty(ctx, card.ID, status.ID, status.Options[2].ID))
	c, _ := s.Engine.Store.Card(card.ID)
	assert.Equal(t, status.Options[2].ID, c.Properties[status.ID])

	assert.ErrorIs(t, s.SetCardProperty(ctx, card.ID, status.ID, "bogus"), models.ErrNotFound)

	require.NoError(t, s.SetCardProperty(ctx, card.ID, status.ID, ""))
	c, _ = s.Engine.Store.Card(card.ID)
	_, has := c.Properties[status.ID]
	assert.False(t, has)

	require.NoError(t, s.RenameCard(ctx, card.ID, "Renamed"))
	p, _ := s.Engine.Store.Page(card.ID)
	assert.Equal(t, "Renamed", p.Title)
}

func TestRenameAndReorderProperty(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	board, _ := seedBoard(t, s)
	est, err := s.AddProperty(ctx, board.ID, "Estimate", models.PropertyTypeNumber)
	require.NoError(t, err)

	assert.Error(t, s.RenameProperty(ctx, board.ID, est.ID, "status"))
	require.NoError(t, s.RenameProperty(ctx, board.ID, est.ID, "Points"))
	require.NoError(t, s.ReorderProperty(ctx, board.ID, 1, 0))

	b, _ := s.Engine.Store.Board(board.ID)
	assert.Equal(t, "Points", b.CardProperties[0].Name)
	assert.Error(t, s.ReorderProperty(ctx, board.ID, 0, 5))
}

type failingRepo struct {
	*fs.Store
	failViews bool
}

func (f *failingRepo) SaveView(ctx context.Context, v models.BoardView) error {
	if f.failViews {
		return errors.New("read-only filesystem")
	}
	return f.Store.SaveView(ctx, v)
}

func TestRemoveProperty_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	board, _ := seedBoard(t, s)
	status := board.CardProperties[0]

	repo := &failingRepo{Store: s.Repo.(*fs.Store)}
	s.Repo = repo
	s.Engine.Persistence = repo
	repo.failViews = true

	err := s.RemoveProperty(ctx, board.ID, status.ID)
	var perr *models.PersistenceError
	require.ErrorAs(t, err, &perr)

	b, _ := s.Engine.Store.Board(board.ID)
	assert.NotNil(t, b.Property(status.ID))
	assert.False(t, s.Engine.History.CanUndo())
}

func TestValidateName(t *testing.T) {
	got, err := ValidateName("  Sprint 4  ")
	require.NoError(t, err)
	assert.Equal(t, "Sprint 4", got)

	_, err = ValidateName("")
	assert.Error(t, err)
}
