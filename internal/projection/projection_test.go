package projection

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardview/internal/filter"
	"cardview/internal/kanban/models"
	"cardview/internal/kanban/store"
	"cardview/internal/notify"
)

type fakePersistence struct {
	calls     []string
	failFor   map[string]error
	orders    map[string][]string
	saved     map[string]models.Card
	deleted   []string
	insertErr error
}

func newFakePersistence() *fakePersistence {
	return &fakePersistence{
		failFor: map[string]error{},
		orders:  map[string][]string{},
		saved:   map[string]models.Card{},
	}
}

func (f *fakePersistence) InsertBlock(_ context.Context, card models.Card) (models.Card, error) {
	f.calls = append(f.calls, "insert "+card.ID)
	if f.insertErr != nil {
		return models.Card{}, f.insertErr
	}
	f.saved[card.ID] = card
	return card, nil
}

func (f *fakePersistence) DeleteBlock(_ context.Context, card models.Card) error {
	f.calls = append(f.calls, "delete "+card.ID)
	if err := f.failFor[card.ID]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, card.ID)
	return nil
}

func (f *fakePersistence) ChangeViewCardOrder(_ context.Context, view models.BoardView, order []string) error {
	f.calls = append(f.calls, "order "+view.ID)
	f.orders[view.ID] = append([]string(nil), order...)
	return nil
}

func (f *fakePersistence) SaveCard(_ context.Context, card models.Card) error {
	f.calls = append(f.calls, "save "+card.ID)
	f.saved[card.ID] = card
	return nil
}

var statusProp = models.PropertyTemplate{
	ID:   "status",
	Name: "Status",
	Type: models.PropertyTypeSelect,
	Options: []models.PropertyOption{
		{ID: "o1", Value: "Todo"},
		{ID: "o2", Value: "Done"},
	},
}

func testBoard() models.Board {
	return models.Board{
		ID:             "b1",
		RootID:         "root",
		CardProperties: []models.PropertyTemplate{statusProp.Clone()},
		ViewIDs:        []string{"v1"},
	}
}

func testView() models.BoardView {
	return models.BoardView{
		ID:               "v1",
		ParentID:         "b1",
		ViewType:         models.ViewTypeBoard,
		GroupByID:        "status",
		VisibleOptionIDs: []string{"o1", "o2"},
		HiddenOptionIDs:  []string{},
	}
}

func testCard(id string, status any, created time.Time) models.Card {
	props := map[string]any{}
	if status != nil {
		props["status"] = status
	}
	return models.Card{ID: id, ParentID: "b1", Title: id, CreatedAt: created, Properties: props}
}

func snapshot(cards ...models.Card) store.Snapshot {
	pages := make([]models.PageMeta, 0, len(cards))
	for _, c := range cards {
		pages = append(pages, models.PageMeta{ID: c.ID, Title: c.Title})
	}
	return store.Snapshot{
		Boards: []models.Board{testBoard()},
		Views:  []models.BoardView{testView()},
		Cards:  cards,
		Pages:  pages,
	}
}

type groupSummary struct {
	ID    string
	Cards []string
}

func summarize(groups []models.BoardGroup) []groupSummary {
	out := make([]groupSummary, len(groups))
	for i, g := range groups {
		ids := []string{}
		for _, c := range g.Cards {
			ids = append(ids, c.ID)
		}
		out[i] = groupSummary{ID: g.ID(), Cards: ids}
	}
	return out
}

func pageIDs(cps []models.CardPage) []string {
	out := make([]string, len(cps))
	for i, cp := range cps {
		out[i] = cp.Card.ID
	}
	return out
}

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestProject_GroupsWithEmptyGroupFirst(t *testing.T) {
	s := store.New(snapshot(
		testCard("A", "o1", t0),
		testCard("B", "o2", t0),
		testCard("C", nil, t0),
	))

	res, err := Project(s, testView(), filter.Default)
	require.NoError(t, err)
	require.True(t, res.IsGrouped())
	assert.Equal(t, []groupSummary{
		{ID: "", Cards: []string{"C"}},
		{ID: "o1", Cards: []string{"A"}},
		{ID: "o2", Cards: []string{"B"}},
	}, summarize(res.Visible))
	assert.Empty(t, res.Hidden)
}

func TestProject_SortsByOptionOrderNotCreation(t *testing.T) {
	s := store.New(snapshot(
		testCard("B", "o2", t0),
		testCard("A", "o1", t0.Add(time.Hour)),
	))
	view := testView()
	view.SortOptions = []models.SortOption{{PropertyID: "status"}}

	res, err := Project(s, view, filter.Default)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, pageIDs(res.CardPages))
}

func TestProject_FiltersCards(t *testing.T) {
	s := store.New(snapshot(testCard("A", "o1", t0), testCard("B", "o2", t0)))
	view := testView()
	view.Filter = models.FilterGroup{Operation: models.FilterAnd, Filters: []models.FilterItem{
		models.Clause("status", models.ConditionIs, "o1"),
	}}

	res, err := Project(s, view, filter.Default)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, pageIDs(res.CardPages))
}

func TestProject_DropsCardsWithoutLivePage(t *testing.T) {
	deleted := t0
	snap := snapshot(testCard("A", "o1", t0), testCard("B", "o1", t0), testCard("C", "o1", t0))
	snap.Pages = []models.PageMeta{
		{ID: "A", Title: "A"},
		{ID: "B", Title: "B", DeletedAt: &deleted},
	}
	tmpl := testCard("T", "o1", t0)
	tmpl.IsTemplate = true
	snap.Cards = append(snap.Cards, tmpl)
	snap.Pages = append(snap.Pages, models.PageMeta{ID: "T"})

	res, err := Project(store.New(snap), testView(), filter.Default)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, pageIDs(res.CardPages))
	require.Len(t, res.Templates, 1)
	assert.Equal(t, "T", res.Templates[0].ID)
}

func TestProject_LinkedSourceAndMissingBoard(t *testing.T) {
	snap := snapshot(testCard("A", "o1", t0))
	other := testBoard()
	other.ID = "b2"
	snap.Boards = append(snap.Boards, other)
	snap.Cards = append(snap.Cards, models.Card{ID: "X", ParentID: "b2", Title: "X"})
	snap.Pages = append(snap.Pages, models.PageMeta{ID: "X", Title: "X"})
	s := store.New(snap)

	view := testView()
	view.LinkedSourceID = "b2"
	res, err := Project(s, view, filter.Default)
	require.NoError(t, err)
	assert.Equal(t, "b2", res.BoardID)
	assert.Equal(t, []string{"X"}, pageIDs(res.CardPages))

	view.LinkedSourceID = "gone"
	_, err = Project(s, view, filter.Default)
	assert.ErrorIs(t, err, models.ErrMissingContext)
}

func TestProject_GroupByFallback(t *testing.T) {
	s := store.New(snapshot(testCard("A", "o1", t0)))

	view := testView()
	view.GroupByID = "deleted-property"
	res, err := Project(s, view, filter.Default)
	require.NoError(t, err)
	require.NotNil(t, res.GroupByProperty)
	assert.Equal(t, "status", res.GroupByProperty.ID)

	view.ViewType = models.ViewTypeTable
	res, err = Project(s, view, filter.Default)
	require.NoError(t, err)
	assert.Nil(t, res.GroupByProperty)
	assert.Empty(t, res.Visible)
	assert.Equal(t, []string{"A"}, pageIDs(res.CardPages))
}

func TestProject_TableGroupedByMultiSelect(t *testing.T) {
	tags := models.PropertyTemplate{
		ID:   "tags",
		Name: "Tags",
		Type: models.PropertyTypeMultiSelect,
		Options: []models.PropertyOption{
			{ID: "t1", Value: "Backend"},
			{ID: "t2", Value: "Frontend"},
		},
	}
	a := testCard("A", nil, t0)
	a.Properties["tags"] = []string{"t2", "t1"}
	b := testCard("B", nil, t0)
	b.Properties["tags"] = []string{"gone", "t1"}
	c := testCard("C", nil, t0)
	snap := snapshot(a, b, c)
	snap.Boards[0].CardProperties = append(snap.Boards[0].CardProperties, tags)
	s := store.New(snap)

	view := testView()
	view.ViewType = models.ViewTypeTable
	view.GroupByID = "tags"
	view.VisibleOptionIDs = []string{}

	res, err := Project(s, view, filter.Default)
	require.NoError(t, err)
	require.NotNil(t, res.GroupByProperty)
	assert.Equal(t, "tags", res.GroupByProperty.ID)
	assert.Equal(t, []groupSummary{
		{ID: "", Cards: []string{"C"}},
		{ID: "t1", Cards: []string{"B"}},
		{ID: "t2", Cards: []string{"A"}},
	}, summarize(res.Visible))

	// board views only group by single-choice properties
	view.ViewType = models.ViewTypeBoard
	res, err = Project(s, view, filter.Default)
	require.NoError(t, err)
	require.NotNil(t, res.GroupByProperty)
	assert.Equal(t, "status", res.GroupByProperty.ID)
}

func TestProject_OrphanedOptionIsUngrouped(t *testing.T) {
	s := store.New(snapshot(testCard("A", "removed-option", t0), testCard("B", "o2", t0)))

	res, err := Project(s, testView(), filter.Default)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, summarize(res.Visible)[0].Cards)
}

func TestProject_Idempotent(t *testing.T) {
	s := store.New(snapshot(
		testCard("A", "o1", t0),
		testCard("B", "o2", t0),
		testCard("C", nil, t0),
		testCard("D", "o1", t0),
	))
	view := testView()
	view.SortOptions = []models.SortOption{{PropertyID: models.TitlePropertyID, Reversed: true}}
	view.HiddenOptionIDs = []string{"o2"}

	first, err := Project(s, view, filter.Default)
	require.NoError(t, err)
	second, err := Project(s, view, filter.Default)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("projection changed between runs (-first +second):\n%s", diff)
	}
}

func newTestEngine(s *store.Store, p *fakePersistence) *Engine {
	e := NewEngine(s, p, nil)
	n := 0
	e.NewID = func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
	e.Now = func() time.Time { return t0 }
	e.UserID = "u1"
	return e
}

func TestEngine_AddCardPrefillsFromFilter(t *testing.T) {
	snap := snapshot(testCard("A", "o1", t0))
	snap.Views[0].Filter = models.FilterGroup{Operation: models.FilterAnd, Filters: []models.FilterItem{
		models.Clause("status", models.ConditionIs, "o1"),
	}}
	snap.Views[0].CardOrder = []string{"A"}
	s := store.New(snap)
	p := newFakePersistence()
	e := newTestEngine(s, p)

	card, err := e.AddCard(context.Background(), "v1", AddCardOptions{Title: "New"})
	require.NoError(t, err)

	assert.Equal(t, "new-1", card.ID)
	assert.Equal(t, "b1", card.ParentID)
	assert.Equal(t, "root", card.RootID)
	assert.Equal(t, "o1", card.Properties["status"])
	assert.Equal(t, "u1", card.CreatedBy)

	// order is persisted before the card
	assert.Equal(t, []string{"order v1", "insert new-1"}, p.calls)
	assert.Equal(t, []string{"A", "new-1"}, p.orders["v1"])

	// the new card is visible under the filter
	res, err := e.Project("v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "new-1"}, pageIDs(res.CardPages))
}

func TestEngine_AddCardGroupAndCallerProperties(t *testing.T) {
	s := store.New(snapshot())
	p := newFakePersistence()
	e := newTestEngine(s, p)

	done := "o2"
	card, err := e.AddCard(context.Background(), "v1", AddCardOptions{
		GroupOptionID: &done,
		Properties:    map[string]any{"notes": "hi"},
		InsertFirst:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "o2", card.Properties["status"])
	assert.Equal(t, "hi", card.Properties["notes"])

	none := ""
	card, err = e.AddCard(context.Background(), "v1", AddCardOptions{GroupOptionID: &none, InsertFirst: true})
	require.NoError(t, err)
	assert.NotContains(t, card.Properties, "status")
	assert.Equal(t, []string{"new-2", "new-1"}, p.orders["v1"])
}

func TestEngine_AddCardShowTravelsOnEvent(t *testing.T) {
	s := store.New(snapshot())
	e := newTestEngine(s, newFakePersistence())
	var events []notify.Event
	e.Notifier = notify.Func(func(_ context.Context, ev notify.Event) error {
		events = append(events, ev)
		return nil
	})

	card, err := e.AddCard(context.Background(), "v1", AddCardOptions{Show: true})
	require.NoError(t, err)
	_, err = e.AddCard(context.Background(), "v1", AddCardOptions{})
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, notify.CardsCreated, events[0].Kind)
	assert.Equal(t, []string{card.ID}, events[0].CardIDs)
	assert.True(t, events[0].Show)
	assert.False(t, events[1].Show)
}

func TestEngine_AddCardMissingContextAndReadOnly(t *testing.T) {
	snap := snapshot()
	snap.Boards[0].SourceType = models.SourceTypeProposals
	e := newTestEngine(store.New(snap), newFakePersistence())

	_, err := e.AddCard(context.Background(), "nope", AddCardOptions{})
	assert.ErrorIs(t, err, models.ErrMissingContext)

	_, err = e.AddCard(context.Background(), "v1", AddCardOptions{})
	assert.ErrorIs(t, err, models.ErrReadOnlySource)
}

func TestEngine_AddCardUndo(t *testing.T) {
	s := store.New(snapshot(testCard("A", "o1", t0)))
	p := newFakePersistence()
	e := newTestEngine(s, p)
	ctx := context.Background()

	_, err := e.AddCard(ctx, "v1", AddCardOptions{})
	require.NoError(t, err)
	_, ok := s.Card("new-1")
	require.True(t, ok)

	desc, err := e.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "add card", desc)
	_, ok = s.Card("new-1")
	assert.False(t, ok)
	v, _ := s.View("v1")
	assert.Empty(t, v.CardOrder)
}

func TestEngine_AddCardInsertFailure(t *testing.T) {
	s := store.New(snapshot())
	p := newFakePersistence()
	p.insertErr = errors.New("offline")
	e := newTestEngine(s, p)

	_, err := e.AddCard(context.Background(), "v1", AddCardOptions{})
	var perr *models.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "insert", perr.Op)
	assert.Empty(t, s.CardsForBoard("b1"))
}

func TestEngine_DeleteCardsSkipsMissing(t *testing.T) {
	s := store.New(snapshot(testCard("A", "o1", t0), testCard("B", "o2", t0)))
	p := newFakePersistence()
	e := newTestEngine(s, p)

	err := e.DeleteCards(context.Background(), []string{"A", "ghost", "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, p.deleted)
	assert.Empty(t, s.CardsForBoard("b1"))

	desc, err := e.Undo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "delete 3 cards", desc)
	assert.Len(t, s.CardsForBoard("b1"), 2)
	_, ok := s.Page("A")
	assert.True(t, ok)
}

func TestEngine_DeleteCardsIsolatesFailures(t *testing.T) {
	s := store.New(snapshot(testCard("A", "o1", t0), testCard("B", "o2", t0), testCard("C", nil, t0)))
	p := newFakePersistence()
	p.failFor["B"] = errors.New("locked")
	var events []notify.Event
	e := newTestEngine(s, p)
	e.Notifier = notify.Func(func(_ context.Context, ev notify.Event) error {
		events = append(events, ev)
		return nil
	})

	err := e.DeleteCards(context.Background(), []string{"A", "B", "C"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
	assert.Equal(t, []string{"A", "C"}, p.deleted)

	_, ok := s.Card("B")
	assert.True(t, ok)
	require.Len(t, events, 1)
	assert.Equal(t, notify.CardsDeleted, events[0].Kind)
	assert.Equal(t, []string{"A", "C"}, events[0].CardIDs)
}

func TestEngine_DeleteCardsAllFailing(t *testing.T) {
	s := store.New(snapshot(testCard("A", "o1", t0)))
	p := newFakePersistence()
	p.failFor["A"] = errors.New("locked")
	var events []notify.Event
	e := newTestEngine(s, p)
	e.Notifier = notify.Func(func(_ context.Context, ev notify.Event) error {
		events = append(events, ev)
		return nil
	})

	require.Error(t, e.DeleteCards(context.Background(), []string{"A"}))
	assert.Empty(t, events)
}

func TestEngine_UpdateCard(t *testing.T) {
	s := store.New(snapshot(testCard("A", "o1", t0)))
	p := newFakePersistence()
	e := newTestEngine(s, p)

	c, _ := s.Card("A")
	c = c.Clone()
	c.Title = "Renamed"
	c.Properties["status"] = "o2"
	require.NoError(t, e.UpdateCard(context.Background(), c))

	got, _ := s.Card("A")
	assert.Equal(t, "o2", got.Properties["status"])
	page, _ := s.Page("A")
	assert.Equal(t, "Renamed", page.Title)

	_, err := e.Undo(context.Background())
	require.NoError(t, err)
	got, _ = s.Card("A")
	assert.Equal(t, "o1", got.Properties["status"])
}

func TestBuildCard_CallerPropertiesWin(t *testing.T) {
	card := BuildCard(testBoard(), testView(), map[string]any{"status": "o1"}, AddCardOptions{
		Properties: map[string]any{"status": "o2"},
	})
	assert.Equal(t, "o2", card.Properties["status"])
	assert.Equal(t, "b1", card.ParentID)
	assert.NotNil(t, card.ContentOrder)
}
