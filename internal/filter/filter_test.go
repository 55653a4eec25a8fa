package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardview/internal/kanban/models"
)

var (
	statusProp = models.PropertyTemplate{
		ID:   "status",
		Name: "Status",
		Type: models.PropertyTypeSelect,
		Options: []models.PropertyOption{
			{ID: "o1", Value: "Todo"},
			{ID: "o2", Value: "Done"},
		},
	}
	tagsProp = models.PropertyTemplate{
		ID:   "tags",
		Name: "Tags",
		Type: models.PropertyTypeMultiSelect,
		Options: []models.PropertyOption{
			{ID: "t1", Value: "bug"},
			{ID: "t2", Value: "ui"},
		},
	}
	notesProp  = models.PropertyTemplate{ID: "notes", Name: "Notes", Type: models.PropertyTypeText}
	pointsProp = models.PropertyTemplate{ID: "points", Name: "Points", Type: models.PropertyTypeNumber}
	doneProp   = models.PropertyTemplate{ID: "done", Name: "Done", Type: models.PropertyTypeCheckbox}
	dueProp    = models.PropertyTemplate{ID: "due", Name: "Due", Type: models.PropertyTypeDate}

	templates = []models.PropertyTemplate{statusProp, tagsProp, notesProp, pointsProp, doneProp, dueProp}
)

func card(id string, props map[string]any) models.Card {
	return models.Card{ID: id, ParentID: "b1", Title: id, Properties: props}
}

func ids(cards []models.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func and(items ...models.FilterItem) models.FilterGroup {
	return models.FilterGroup{Operation: models.FilterAnd, Filters: items}
}

func TestFilterCards_StatusIs(t *testing.T) {
	cards := []models.Card{
		card("A", map[string]any{"status": "o1"}),
		card("B", map[string]any{"status": "o2"}),
	}
	got := FilterCards(cards, and(models.Clause("status", models.ConditionIs, "o1")), templates)
	assert.Equal(t, []string{"A"}, ids(got))
}

func TestFilterCards_EmptyGroupPassesThrough(t *testing.T) {
	cards := []models.Card{
		card("A", map[string]any{"status": "o1"}),
		card("B", nil),
		card("C", map[string]any{"unknown": 1}),
	}
	got := FilterCards(cards, and(), templates)
	assert.Equal(t, cards, got)

	got = FilterCards(cards, models.FilterGroup{}, nil)
	assert.Equal(t, cards, got)
}

func TestMatches_UnknownPropertyFailsClosed(t *testing.T) {
	c := card("A", map[string]any{"gone": "x"})
	assert.False(t, Matches(c, and(models.Clause("gone", models.ConditionIs, "x")), templates))
	assert.False(t, Matches(c, and(models.Clause("gone", models.ConditionIsEmpty)), templates))
}

func TestMatches_OrAndNested(t *testing.T) {
	a := card("A", map[string]any{"status": "o1", "tags": []any{"t1"}})
	b := card("B", map[string]any{"status": "o2", "tags": []any{"t2"}})
	c := card("C", map[string]any{"status": "o2"})

	group := and(
		models.NestedGroup(models.FilterOr,
			models.Clause("status", models.ConditionIs, "o1"),
			models.Clause("tags", models.ConditionIsAny, "t2"),
		),
	)
	got := FilterCards([]models.Card{a, b, c}, group, templates)
	assert.Equal(t, []string{"A", "B"}, ids(got))
}

func TestMatches_Text(t *testing.T) {
	c := card("A", map[string]any{"notes": "Fix the Login page"})
	cases := []struct {
		cond  models.FilterCondition
		value string
		want  bool
	}{
		{models.ConditionContains, "login", true},
		{models.ConditionDoesNotContain, "login", false},
		{models.ConditionIs, "fix the login page", true},
		{models.ConditionIsNot, "other", true},
		{models.ConditionStartsWith, "fix", true},
		{models.ConditionEndsWith, "page", true},
		{models.ConditionIsEmpty, "", false},
		{models.ConditionIsNotEmpty, "", true},
		{models.ConditionGreaterThan, "x", false},
	}
	for _, tc := range cases {
		t.Run(string(tc.cond), func(t *testing.T) {
			item := models.Clause("notes", tc.cond)
			if tc.value != "" {
				item.Values = []string{tc.value}
			}
			assert.Equal(t, tc.want, Matches(c, and(item), templates))
		})
	}
}

func TestMatches_Title(t *testing.T) {
	cp := models.CardPage{
		Card: card("A", nil),
		Page: models.PageMeta{ID: "A", Title: "Quarterly report"},
	}
	group := and(models.Clause(models.TitlePropertyID, models.ConditionContains, "report"))
	assert.True(t, Default.MatchesPage(cp, group, templates))
	assert.False(t, Matches(cp.Card, group, templates))
}

func TestMatches_MultiSelect(t *testing.T) {
	c := card("A", map[string]any{"tags": []any{"t1", "t2"}})
	assert.True(t, Matches(c, and(models.Clause("tags", models.ConditionIs, "t1", "t2")), templates))
	assert.False(t, Matches(c, and(models.Clause("tags", models.ConditionIs, "t1", "t3")), templates))
	assert.True(t, Matches(c, and(models.Clause("tags", models.ConditionIsAny, "t3", "t2")), templates))
	assert.False(t, Matches(c, and(models.Clause("tags", models.ConditionIsNotAny, "t2")), templates))
	assert.True(t, Matches(card("B", nil), and(models.Clause("tags", models.ConditionIsEmpty)), templates))
}

func TestMatches_IncompleteClauseIgnored(t *testing.T) {
	c := card("A", map[string]any{"status": "o2"})
	assert.True(t, Matches(c, and(models.Clause("status", models.ConditionIs)), templates))
}

func TestMatches_NumberAndCheckbox(t *testing.T) {
	c := card("A", map[string]any{"points": "5", "done": true})
	assert.True(t, Matches(c, and(models.Clause("points", models.ConditionGreaterThan, "3")), templates))
	assert.False(t, Matches(c, and(models.Clause("points", models.ConditionLessThan, "3")), templates))
	assert.True(t, Matches(c, and(models.Clause("points", models.ConditionIs, "5.0")), templates))
	assert.True(t, Matches(c, and(models.Clause("done", models.ConditionIs, "true")), templates))
	assert.False(t, Matches(card("B", nil), and(models.Clause("done", models.ConditionIs, "true")), templates))
	assert.True(t, Matches(card("B", nil), and(models.Clause("points", models.ConditionIsNot, "5")), templates))
}

func TestMatches_RelativeDates(t *testing.T) {
	now := time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC) // Wednesday
	e := Evaluator{Now: func() time.Time { return now }, Location: time.UTC}

	today := card("today", map[string]any{"due": models.EncodeDate(now, nil)})
	monday := card("monday", map[string]any{"due": models.EncodeDate(time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC), nil)})
	lastMonth := card("old", map[string]any{"due": "2024-04-02"})
	none := card("none", nil)
	cards := []models.Card{today, monday, lastMonth, none}

	assert.Equal(t, []string{"today"}, ids(e.FilterCards(cards, and(models.Clause("due", models.ConditionIs, "today")), templates)))
	assert.Equal(t, []string{"today", "monday"}, ids(e.FilterCards(cards, and(models.Clause("due", models.ConditionIs, "this_week")), templates)))
	assert.Equal(t, []string{"monday", "old"}, ids(e.FilterCards(cards, and(models.Clause("due", models.ConditionIsBefore, "today")), templates)))
	assert.Equal(t, []string{"today"}, ids(e.FilterCards(cards, and(models.Clause("due", models.ConditionIsAfter, "2024-05-14")), templates)))
	assert.Equal(t, []string{"old"}, ids(e.FilterCards(cards, and(models.Clause("due", models.ConditionIs, "last_month")), templates)))
	assert.Equal(t, []string{"none"}, ids(e.FilterCards(cards, and(models.Clause("due", models.ConditionIsEmpty)), templates)))

	// relative tokens follow the clock
	later := now.AddDate(0, 0, 1)
	e.Now = func() time.Time { return later }
	assert.Empty(t, e.FilterCards(cards, and(models.Clause("due", models.ConditionIs, "today")), templates))
}

func TestPropertiesThatMeetFilterGroup(t *testing.T) {
	clauses := []models.FilterItem{
		models.Clause("status", models.ConditionIs, "o1"),
		models.Clause("tags", models.ConditionIsAny, "t2"),
		models.Clause("notes", models.ConditionIsEmpty),
		models.Clause("points", models.ConditionGreaterThan, "3"),
		models.Clause("done", models.ConditionIs, "true"),
	}
	group := and(append(clauses,
		models.Clause("gone", models.ConditionIs, "x"),
		models.NestedGroup(models.FilterOr, models.Clause("status", models.ConditionIs, "o2")),
	)...)
	props := PropertiesThatMeetFilterGroup(group, templates)

	assert.Equal(t, "o1", props["status"])
	assert.Equal(t, []string{"t2"}, props["tags"])
	v, ok := props["notes"]
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, 4.0, props["points"])
	assert.Equal(t, true, props["done"])
	assert.NotContains(t, props, "gone")

	// a card built from the implied values passes the filter
	c := card("new", map[string]any{})
	for k, v := range props {
		if v != nil {
			c.Properties[k] = v
		}
	}
	assert.True(t, Matches(c, and(clauses...), templates))
}

func TestPropertiesThatMeetFilterGroup_OrUsesFirstClause(t *testing.T) {
	group := models.FilterGroup{Operation: models.FilterOr, Filters: []models.FilterItem{
		models.Clause("status", models.ConditionIsNot, "o1"),
		models.Clause("notes", models.ConditionIs, "x"),
	}}
	props := PropertiesThatMeetFilterGroup(group, templates)
	require.Len(t, props, 1)
	assert.Equal(t, "o2", props["status"])
}

func TestSearch_KeepsInputOrder(t *testing.T) {
	cps := []models.CardPage{
		{Card: card("A", map[string]any{"status": "o2"}), Page: models.PageMeta{Title: "Write docs"}},
		{Card: card("B", nil), Page: models.PageMeta{Title: "Fix login"}},
		{Card: card("C", map[string]any{"notes": "docs follow-up"}), Page: models.PageMeta{Title: "Review"}},
	}

	got := Search(cps, "docs", templates)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Card.ID)
	assert.Equal(t, "C", got[1].Card.ID)

	got = Search(cps, "done", templates)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Card.ID)

	assert.Len(t, Search(cps, "  ", templates), 3)
}
