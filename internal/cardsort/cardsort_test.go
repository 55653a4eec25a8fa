package cardsort

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cardview/internal/kanban/models"
)

var board = models.Board{
	ID: "b1",
	CardProperties: []models.PropertyTemplate{
		{ID: "status", Name: "Status", Type: models.PropertyTypeSelect, Options: []models.PropertyOption{
			{ID: "o1", Value: "Todo"},
			{ID: "o2", Value: "Done"},
		}},
		{ID: "points", Name: "Points", Type: models.PropertyTypeNumber},
		{ID: "due", Name: "Due", Type: models.PropertyTypeDate},
		{ID: "owner", Name: "Owner", Type: models.PropertyTypePerson},
		{ID: "notes", Name: "Notes", Type: models.PropertyTypeText},
	},
}

func cp(id string, props map[string]any) models.CardPage {
	return models.CardPage{
		Card: models.Card{ID: id, ParentID: "b1", Properties: props},
		Page: models.PageMeta{ID: id, Title: id},
	}
}

func pageIDs(cps []models.CardPage) []string {
	out := make([]string, len(cps))
	for i, c := range cps {
		out[i] = c.Card.ID
	}
	return out
}

func view(opts ...models.SortOption) models.BoardView {
	return models.BoardView{ID: "v1", ParentID: "b1", ViewType: models.ViewTypeBoard, SortOptions: opts}
}

func TestSortCards_ByOptionOrder(t *testing.T) {
	cards := []models.CardPage{
		cp("B", map[string]any{"status": "o2"}),
		cp("A", map[string]any{"status": "o1"}),
	}
	got := SortCards(cards, board, view(models.SortOption{PropertyID: "status"}), nil)
	assert.Equal(t, []string{"A", "B"}, pageIDs(got))

	// input untouched
	assert.Equal(t, []string{"B", "A"}, pageIDs(cards))

	reordered := board.Clone()
	reordered.CardProperties[0].Options = []models.PropertyOption{{ID: "o2"}, {ID: "o1"}}
	got = SortCards(cards, reordered, view(models.SortOption{PropertyID: "status"}), nil)
	assert.Equal(t, []string{"B", "A"}, pageIDs(got))
}

func TestSortCards_StableOnTies(t *testing.T) {
	cards := []models.CardPage{
		cp("c3", map[string]any{"status": "o1", "points": 1}),
		cp("c1", map[string]any{"status": "o1", "points": 1}),
		cp("c2", map[string]any{"status": "o1", "points": 1}),
	}
	got := SortCards(cards, board, view(
		models.SortOption{PropertyID: "status"},
		models.SortOption{PropertyID: "points", Reversed: true},
	), nil)
	assert.Equal(t, []string{"c3", "c1", "c2"}, pageIDs(got))
}

func TestSortCards_MultiKey(t *testing.T) {
	cards := []models.CardPage{
		cp("a", map[string]any{"status": "o2", "points": 1}),
		cp("b", map[string]any{"status": "o1", "points": 2}),
		cp("c", map[string]any{"status": "o1", "points": 5}),
		cp("d", map[string]any{"status": "o1"}),
	}
	got := SortCards(cards, board, view(
		models.SortOption{PropertyID: "status"},
		models.SortOption{PropertyID: "points", Reversed: true},
	), nil)
	assert.Equal(t, []string{"c", "b", "d", "a"}, pageIDs(got))
}

func TestSortCards_DatesMissingLast(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.AddDate(0, 1, 0)
	cards := []models.CardPage{
		cp("none", nil),
		cp("late", map[string]any{"due": models.EncodeDate(late, nil)}),
		cp("early", map[string]any{"due": models.EncodeDate(early, nil)}),
	}
	got := SortCards(cards, board, view(models.SortOption{PropertyID: "due"}), nil)
	assert.Equal(t, []string{"early", "late", "none"}, pageIDs(got))
}

func TestSortCards_PeopleByName(t *testing.T) {
	members := []models.Member{{ID: "u1", Username: "zoe"}, {ID: "u2", Username: "adam"}}
	cards := []models.CardPage{
		cp("one", map[string]any{"owner": "u1"}),
		cp("two", map[string]any{"owner": "u2"}),
		cp("ghost", map[string]any{"owner": "m-unknown"}),
	}
	got := SortCards(cards, board, view(models.SortOption{PropertyID: "owner"}), members)
	assert.Equal(t, []string{"two", "ghost", "one"}, pageIDs(got))
}

func TestSortCards_TitleAndText(t *testing.T) {
	cards := []models.CardPage{cp("beta", nil), cp("Alpha", nil), cp("gamma", nil)}
	got := SortCards(cards, board, view(models.SortOption{PropertyID: models.TitlePropertyID}), nil)
	assert.Equal(t, []string{"Alpha", "beta", "gamma"}, pageIDs(got))

	cards = []models.CardPage{
		cp("x", map[string]any{"notes": "b"}),
		cp("y", map[string]any{"notes": "A"}),
	}
	got = SortCards(cards, board, view(models.SortOption{PropertyID: "notes", Reversed: true}), nil)
	assert.Equal(t, []string{"x", "y"}, pageIDs(got))
}

func TestSortCards_DanglingSortIgnored(t *testing.T) {
	cards := []models.CardPage{cp("b", nil), cp("a", nil)}
	got := SortCards(cards, board, view(models.SortOption{PropertyID: "deleted"}), nil)
	assert.Equal(t, []string{"b", "a"}, pageIDs(got))
}

func TestSortCards_FallsBackToCardOrder(t *testing.T) {
	cards := []models.CardPage{cp("a", nil), cp("b", nil), cp("c", nil), cp("d", nil)}
	v := view()
	v.CardOrder = []string{"c", "missing", "a"}

	got := SortCards(cards, board, v, nil)
	assert.Equal(t, []string{"c", "a", "b", "d"}, pageIDs(got))
}
