package cardsort

import (
	"sort"
	"strings"

	"cardview/internal/kanban/models"
)

// compareFunc orders two values of one property: negative when a sorts
// first, positive when b does, zero on a tie.
type compareFunc func(a, b models.Value, tmpl models.PropertyTemplate, members []models.Member) int

// comparators maps each property type to its comparison strategy. Types not
// listed compare as text.
var comparators = map[models.PropertyType]compareFunc{
	models.PropertyTypeNumber:           compareNumbers,
	models.PropertyTypeSelect:           compareOptions,
	models.PropertyTypeMultiSelect:      compareOptions,
	models.PropertyTypeProposalStatus:   compareOptions,
	models.PropertyTypeProposalCategory: compareOptions,
	models.PropertyTypeDate:             compareDates,
	models.PropertyTypeCreatedTime:      compareDates,
	models.PropertyTypeUpdatedTime:      compareDates,
	models.PropertyTypePerson:           comparePeople,
	models.PropertyTypeCreatedBy:        comparePeople,
	models.PropertyTypeUpdatedBy:        comparePeople,
	models.PropertyTypeCheckbox:         compareCheckboxes,
}

// sortKey is a resolved sort option.
type sortKey struct {
	title    bool
	tmpl     models.PropertyTemplate
	compare  compareFunc
	reversed bool
}

// SortCards orders card pages for a view. With sort options it is a stable
// multi-key sort; without, it follows the view's manual card order. The input
// slice is not modified.
func SortCards(cardPages []models.CardPage, board models.Board, view models.BoardView, members []models.Member) []models.CardPage {
	out := append([]models.CardPage(nil), cardPages...)

	if len(view.SortOptions) == 0 {
		return ByCardOrder(out, view.CardOrder)
	}
	keys := resolveKeys(board, view)
	if len(keys) == 0 {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			c := k.cmp(out[i], out[j], members)
			if k.reversed {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	return out
}

// resolveKeys drops sort options whose property no longer exists.
func resolveKeys(board models.Board, view models.BoardView) []sortKey {
	var keys []sortKey
	for _, opt := range view.SortOptions {
		if opt.PropertyID == models.TitlePropertyID {
			keys = append(keys, sortKey{title: true, reversed: opt.Reversed})
			continue
		}
		tmpl := board.Property(opt.PropertyID)
		if tmpl == nil {
			continue
		}
		compare, ok := comparators[tmpl.Type]
		if !ok {
			compare = compareText
		}
		keys = append(keys, sortKey{tmpl: *tmpl, compare: compare, reversed: opt.Reversed})
	}
	return keys
}

func (k sortKey) cmp(a, b models.CardPage, members []models.Member) int {
	if k.title {
		return compareStrings(a.DisplayTitle(), b.DisplayTitle())
	}
	return k.compare(a.Card.MetaValue(k.tmpl), b.Card.MetaValue(k.tmpl), k.tmpl, members)
}

// ByCardOrder orders card pages by their index in order. Cards missing from
// order keep their relative input order after the listed ones; ids in order
// with no card are ignored.
func ByCardOrder(cardPages []models.CardPage, order []string) []models.CardPage {
	out := append([]models.CardPage(nil), cardPages...)
	if len(order) == 0 {
		return out
	}

	index := make(map[string]int, len(order))
	for i, id := range order {
		if _, dup := index[id]; !dup {
			index[id] = i
		}
	}
	rank := func(cp models.CardPage) int {
		if i, ok := index[cp.Card.ID]; ok {
			return i
		}
		return len(order)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i]) < rank(out[j])
	})
	return out
}

func compareStrings(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareText(a, b models.Value, _ models.PropertyTemplate, _ []models.Member) int {
	return compareStrings(a.String(), b.String())
}

// compareNumbers puts missing and non-numeric values lowest.
func compareNumbers(a, b models.Value, _ models.PropertyTemplate, _ []models.Member) int {
	an, aok := a.Number()
	bn, bok := b.Number()
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	case an < bn:
		return -1
	case an > bn:
		return 1
	}
	return 0
}

// compareOptions orders by the option's position in the property, so
// reordering options reorders cards. Values naming no option sort last.
func compareOptions(a, b models.Value, tmpl models.PropertyTemplate, _ []models.Member) int {
	rank := func(v models.Value) int {
		for _, id := range v.Strings() {
			if i := tmpl.OptionIndex(id); i >= 0 {
				return i
			}
		}
		return len(tmpl.Options)
	}
	return rank(a) - rank(b)
}

// compareDates puts missing dates last.
func compareDates(a, b models.Value, _ models.PropertyTemplate, _ []models.Member) int {
	ad, aok := a.Date()
	bd, bok := b.Date()
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}
	return ad.From.Compare(bd.From)
}

// comparePeople compares display names, falling back to the raw id for
// unknown members.
func comparePeople(a, b models.Value, _ models.PropertyTemplate, members []models.Member) int {
	name := func(v models.Value) string {
		ids := v.Strings()
		if len(ids) == 0 {
			return ""
		}
		if m, ok := models.FindMember(members, ids[0]); ok {
			return m.Username
		}
		return ids[0]
	}
	return compareStrings(name(a), name(b))
}

func compareCheckboxes(a, b models.Value, _ models.PropertyTemplate, _ []models.Member) int {
	ab, bb := a.Bool(), b.Bool()
	switch {
	case ab == bb:
		return 0
	case !ab:
		return -1
	}
	return 1
}
