package grouping

import (
	"cardview/internal/kanban/models"
)

// Groups is the visible/hidden split of a grouped view.
type Groups struct {
	Visible []models.BoardGroup `json:"visible"`
	Hidden  []models.BoardGroup `json:"hidden"`
}

// GroupKey returns the option id a card is grouped under: its first value
// that names a current option of property, or the empty group id.
func GroupKey(card models.Card, property models.PropertyTemplate) string {
	for _, id := range card.Value(property.ID).Strings() {
		if _, ok := property.Option(id); ok {
			return id
		}
	}
	return models.EmptyGroupID
}

// NormalizeOptionIDs resolves a view's visible and hidden option lists
// against property. Duplicates are dropped (visible wins), ids that are not
// options are dropped, options in neither list are appended to visible and
// the empty group id is put at the front of visible when neither list has it.
func NormalizeOptionIDs(visibleIDs, hiddenIDs []string, property models.PropertyTemplate) (visible, hidden []string) {
	seen := make(map[string]bool)
	keep := func(id string) bool {
		if seen[id] {
			return false
		}
		if id != models.EmptyGroupID {
			if _, ok := property.Option(id); !ok {
				return false
			}
		}
		seen[id] = true
		return true
	}

	for _, id := range visibleIDs {
		if keep(id) {
			visible = append(visible, id)
		}
	}
	for _, id := range hiddenIDs {
		if keep(id) {
			hidden = append(hidden, id)
		}
	}
	for _, o := range property.Options {
		if !seen[o.ID] {
			seen[o.ID] = true
			visible = append(visible, o.ID)
		}
	}
	if !seen[models.EmptyGroupID] {
		visible = append([]string{models.EmptyGroupID}, visible...)
	}
	return visible, hidden
}

// GroupCardsByOptions builds one group per id in optionIDs, in that order.
// The empty id collects cards with no value or a value naming a removed
// option.
func GroupCardsByOptions(cardPages []models.CardPage, optionIDs []string, property models.PropertyTemplate) []models.BoardGroup {
	buckets := make(map[string][]models.CardPage)
	for _, cp := range cardPages {
		key := GroupKey(cp.Card, property)
		buckets[key] = append(buckets[key], cp)
	}

	groups := make([]models.BoardGroup, 0, len(optionIDs))
	for _, id := range optionIDs {
		var option models.PropertyOption
		if id == models.EmptyGroupID {
			option = models.EmptyGroupOption(&property)
		} else {
			o, ok := property.Option(id)
			if !ok {
				continue
			}
			option = o
		}

		pages := buckets[id]
		if pages == nil {
			pages = []models.CardPage{}
		}
		groups = append(groups, models.BoardGroup{
			Option:    option,
			Cards:     models.Cards(pages),
			CardPages: pages,
		})
	}
	return groups
}

// GetVisibleAndHiddenGroups partitions card pages into the view's visible and
// hidden groups. With no group-by property both lists are empty.
func GetVisibleAndHiddenGroups(cardPages []models.CardPage, visibleIDs, hiddenIDs []string, property *models.PropertyTemplate) Groups {
	if property == nil {
		return Groups{Visible: []models.BoardGroup{}, Hidden: []models.BoardGroup{}}
	}

	visible, hidden := NormalizeOptionIDs(visibleIDs, hiddenIDs, *property)
	return Groups{
		Visible: GroupCardsByOptions(cardPages, visible, *property),
		Hidden:  GroupCardsByOptions(cardPages, hidden, *property),
	}
}
