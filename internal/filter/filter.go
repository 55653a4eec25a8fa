package filter

import (
	"time"

	"cardview/internal/kanban/models"
)

// Evaluator evaluates filter groups against cards. The zero value uses the
// wall clock and the local time zone.
type Evaluator struct {
	Now      func() time.Time
	Location *time.Location
}

// Default is the evaluator used by the package-level helpers.
var Default = Evaluator{}

func (e Evaluator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Evaluator) loc() *time.Location {
	if e.Location != nil {
		return e.Location
	}
	return time.Local
}

// subject is what a clause is evaluated against: the card's values plus the
// title of its page.
type subject struct {
	card  models.Card
	title string
}

// Matches reports whether card satisfies group.
func Matches(card models.Card, group models.FilterGroup, templates []models.PropertyTemplate) bool {
	return Default.Matches(card, group, templates)
}

// FilterCards keeps the cards that satisfy group, in input order.
func FilterCards(cards []models.Card, group models.FilterGroup, templates []models.PropertyTemplate) []models.Card {
	return Default.FilterCards(cards, group, templates)
}

// Matches reports whether card satisfies group.
func (e Evaluator) Matches(card models.Card, group models.FilterGroup, templates []models.PropertyTemplate) bool {
	return e.group(subject{card: card, title: card.Title}, group, templates)
}

// MatchesPage is Matches with the page title standing in for the card title.
func (e Evaluator) MatchesPage(cp models.CardPage, group models.FilterGroup, templates []models.PropertyTemplate) bool {
	return e.group(subject{card: cp.Card, title: cp.DisplayTitle()}, group, templates)
}

// FilterCards keeps the cards that satisfy group, in input order.
func (e Evaluator) FilterCards(cards []models.Card, group models.FilterGroup, templates []models.PropertyTemplate) []models.Card {
	if group.IsEmpty() {
		return cards
	}
	out := make([]models.Card, 0, len(cards))
	for _, c := range cards {
		if e.Matches(c, group, templates) {
			out = append(out, c)
		}
	}
	return out
}

// FilterCardPages keeps the card pages that satisfy group, in input order.
func (e Evaluator) FilterCardPages(cardPages []models.CardPage, group models.FilterGroup, templates []models.PropertyTemplate) []models.CardPage {
	if group.IsEmpty() {
		return cardPages
	}
	out := make([]models.CardPage, 0, len(cardPages))
	for _, cp := range cardPages {
		if e.MatchesPage(cp, group, templates) {
			out = append(out, cp)
		}
	}
	return out
}

func (e Evaluator) group(s subject, group models.FilterGroup, templates []models.PropertyTemplate) bool {
	if len(group.Filters) == 0 {
		return true
	}

	if group.Operation == models.FilterOr {
		for _, item := range group.Filters {
			if e.item(s, item, templates) {
				return true
			}
		}
		return false
	}

	for _, item := range group.Filters {
		if !e.item(s, item, templates) {
			return false
		}
	}
	return true
}

func (e Evaluator) item(s subject, item models.FilterItem, templates []models.PropertyTemplate) bool {
	if item.IsGroup() {
		return e.group(s, item.Group(), templates)
	}
	return e.clause(s, item, templates)
}

func (e Evaluator) clause(s subject, c models.FilterItem, templates []models.PropertyTemplate) bool {
	if c.PropertyID == models.TitlePropertyID {
		return matchText(s.title, c)
	}

	tmpl, ok := models.FindTemplate(templates, c.PropertyID)
	if !ok {
		return false
	}

	value := s.card.MetaValue(tmpl)
	switch {
	case tmpl.Type == models.PropertyTypeSelect,
		tmpl.Type == models.PropertyTypeProposalStatus,
		tmpl.Type == models.PropertyTypeProposalCategory:
		return matchSingleOption(value, c)
	case tmpl.Type == models.PropertyTypeMultiSelect, tmpl.Type.IsPerson():
		return matchMultiOption(value, c)
	case tmpl.Type.IsDate():
		return e.matchDate(value, c)
	case tmpl.Type == models.PropertyTypeNumber:
		return matchNumber(value, c)
	case tmpl.Type == models.PropertyTypeCheckbox:
		return matchCheckbox(value, c)
	default:
		return matchText(value.String(), c)
	}
}
