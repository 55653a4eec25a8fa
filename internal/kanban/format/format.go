// Package format renders card property values for people: option labels
// instead of ids, member names instead of user ids, readable dates.
package format

import (
	"strconv"
	"strings"
	"time"

	"cardview/internal/kanban/models"
)

const (
	DateLayout     = "Jan 2, 2006"
	DateTimeLayout = "Jan 2, 2006 3:04 PM"
)

// Value renders the value a card holds for a property.
func Value(card models.Card, p models.PropertyTemplate, members []models.Member) string {
	v := card.MetaValue(p)

	switch p.Type {
	case models.PropertyTypeSelect, models.PropertyTypeProposalStatus, models.PropertyTypeProposalCategory,
		models.PropertyTypeMultiSelect:
		return OptionLabels(p, v.Strings())
	case models.PropertyTypePerson, models.PropertyTypeCreatedBy, models.PropertyTypeUpdatedBy:
		return People(v.Strings(), members)
	case models.PropertyTypeDate:
		d, ok := v.Date()
		if !ok {
			return ""
		}
		return DateRange(d)
	case models.PropertyTypeCreatedTime, models.PropertyTypeUpdatedTime:
		d, ok := v.Date()
		if !ok {
			return ""
		}
		return d.From.Format(DateTimeLayout)
	case models.PropertyTypeCheckbox:
		if v.Bool() {
			return "Yes"
		}
		return "No"
	case models.PropertyTypeNumber:
		n, ok := v.Number()
		if !ok {
			return v.String()
		}
		return Number(n)
	}
	return v.String()
}

// OptionLabels maps option ids to labels. Ids that are no longer options
// are dropped.
func OptionLabels(p models.PropertyTemplate, ids []string) string {
	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		if o, ok := p.Option(id); ok {
			labels = append(labels, o.Value)
		}
	}
	return strings.Join(labels, ", ")
}

// People maps user ids to usernames, keeping the id for unknown users.
func People(ids []string, members []models.Member) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if m, ok := models.FindMember(members, id); ok && m.Username != "" {
			names = append(names, m.Username)
			continue
		}
		names = append(names, id)
	}
	return strings.Join(names, ", ")
}

// DateRange renders a single date or a from/to range.
func DateRange(d models.DateValue) string {
	from := d.From.Format(DateLayout)
	if d.To == nil || sameDay(d.From, *d.To) {
		return from
	}
	return from + " to " + d.To.Format(DateLayout)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Number renders a number without a trailing ".0".
func Number(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// GroupLabel is the heading of a group column. The empty group is named
// after the property.
func GroupLabel(p *models.PropertyTemplate, optionID string) string {
	if p == nil {
		return ""
	}
	if optionID == "" {
		return "No " + p.Name
	}
	if o, ok := p.Option(optionID); ok {
		return o.Value
	}
	return optionID
}
