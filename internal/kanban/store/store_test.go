package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardview/internal/kanban/models"
)

func cardIDs(cards []models.Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

func TestStore_CardsForBoardKeepsInsertionOrder(t *testing.T) {
	s := New(Snapshot{
		Boards: []models.Board{{ID: "b1"}, {ID: "b2"}},
		Cards: []models.Card{
			{ID: "c3", ParentID: "b1"},
			{ID: "x1", ParentID: "b2"},
			{ID: "c1", ParentID: "b1"},
			{ID: "c2", ParentID: "b1"},
		},
	})

	assert.Equal(t, []string{"c3", "c1", "c2"}, cardIDs(s.CardsForBoard("b1")))
	assert.Equal(t, []string{"x1"}, cardIDs(s.CardsForBoard("b2")))
	assert.Empty(t, s.CardsForBoard("missing"))
}

func TestStore_PutCardMovesBetweenBoards(t *testing.T) {
	s := New(Snapshot{
		Cards: []models.Card{{ID: "c1", ParentID: "b1"}, {ID: "c2", ParentID: "b1"}},
	})

	s.PutCard(models.Card{ID: "c1", ParentID: "b2", Title: "moved"})
	assert.Equal(t, []string{"c2"}, cardIDs(s.CardsForBoard("b1")))
	assert.Equal(t, []string{"c1"}, cardIDs(s.CardsForBoard("b2")))

	// updating in place keeps position
	s.PutCard(models.Card{ID: "c2", ParentID: "b1", Title: "renamed"})
	c, ok := s.Card("c2")
	require.True(t, ok)
	assert.Equal(t, "renamed", c.Title)
	assert.Equal(t, []string{"c2"}, cardIDs(s.CardsForBoard("b1")))
}

func TestStore_RemoveCard(t *testing.T) {
	s := New(Snapshot{
		Cards: []models.Card{{ID: "c1", ParentID: "b1"}, {ID: "c2", ParentID: "b1"}},
		Pages: []models.PageMeta{{ID: "c1"}, {ID: "c2"}},
	})

	s.RemoveCard("c1")
	s.RemoveCard("nope")

	assert.Equal(t, []string{"c2"}, cardIDs(s.CardsForBoard("b1")))
	_, ok := s.Page("c1")
	assert.False(t, ok)
}

func TestStore_ViewsForBoard(t *testing.T) {
	s := New(Snapshot{
		Boards: []models.Board{{ID: "b1", ViewIDs: []string{"v2", "v1"}}},
		Views: []models.BoardView{
			{ID: "v1", ParentID: "b1", Title: "Table"},
			{ID: "v2", ParentID: "b1", Title: "Board"},
			{ID: "v3", ParentID: "b1", Title: "Archive"},
			{ID: "v4", ParentID: "b2", Title: "Other"},
		},
	})

	views := s.ViewsForBoard("b1")
	require.Len(t, views, 3)
	assert.Equal(t, "v2", views[0].ID)
	assert.Equal(t, "v1", views[1].ID)
	assert.Equal(t, "v3", views[2].ID)
}

func TestStore_SnapshotRoundTrip(t *testing.T) {
	snap := Snapshot{
		Boards:  []models.Board{{ID: "b1"}},
		Cards:   []models.Card{{ID: "c1", ParentID: "b1"}},
		Pages:   []models.PageMeta{{ID: "c1", Title: "One"}},
		Members: []models.Member{{ID: "u1", Username: "ada"}},
	}
	s := New(snap)
	out := s.Snapshot()

	assert.Equal(t, snap.Boards, out.Boards)
	assert.Equal(t, snap.Cards, out.Cards)
	assert.Equal(t, snap.Pages, out.Pages)
	assert.Equal(t, snap.Members, out.Members)
}
