package filter

import (
	"strconv"
	"strings"

	"cardview/internal/kanban/models"
)

// PropertiesThatMeetFilterGroup derives property values that make a new card
// satisfy the top-level clauses of group. A nil value in the result means the
// property must be left empty. Nested groups are not inspected and for an "or"
// group only the first clause is used.
func PropertiesThatMeetFilterGroup(group models.FilterGroup, templates []models.PropertyTemplate) map[string]any {
	return Default.PropertiesThatMeetFilterGroup(group, templates)
}

// PropertiesThatMeetFilterGroup is the evaluator-aware form that resolves
// relative dates against e's clock.
func (e Evaluator) PropertiesThatMeetFilterGroup(group models.FilterGroup, templates []models.PropertyTemplate) map[string]any {
	out := make(map[string]any)

	var clauses []models.FilterItem
	for _, item := range group.Filters {
		if !item.IsGroup() {
			clauses = append(clauses, item)
		}
	}
	if len(clauses) == 0 {
		return out
	}
	if group.Operation == models.FilterOr {
		clauses = clauses[:1]
	}

	for _, c := range clauses {
		tmpl, ok := models.FindTemplate(templates, c.PropertyID)
		if !ok || tmpl.Type.IsReadOnly() {
			continue
		}
		if value, ok := e.valueThatMeets(tmpl, c); ok {
			out[tmpl.ID] = value
		}
	}
	return out
}

func (e Evaluator) valueThatMeets(tmpl models.PropertyTemplate, c models.FilterItem) (any, bool) {
	if c.Condition == models.ConditionIsEmpty {
		return nil, true
	}
	if c.Condition != models.ConditionIsNotEmpty && len(c.Values) == 0 {
		return nil, false
	}

	switch {
	case tmpl.Type == models.PropertyTypeMultiSelect, tmpl.Type == models.PropertyTypePerson:
		return listThatMeets(tmpl, c)
	case tmpl.Type.HasOptions():
		return optionThatMeets(tmpl, c)
	case tmpl.Type.IsDate():
		return e.dateThatMeets(c)
	case tmpl.Type == models.PropertyTypeNumber:
		return numberThatMeets(c)
	case tmpl.Type == models.PropertyTypeCheckbox:
		return checkboxThatMeets(c)
	default:
		return textThatMeets(c)
	}
}

func optionThatMeets(tmpl models.PropertyTemplate, c models.FilterItem) (any, bool) {
	switch c.Condition {
	case models.ConditionIs, models.ConditionIsAny:
		return c.Values[0], true
	case models.ConditionIsNotEmpty:
		if len(tmpl.Options) == 0 {
			return nil, false
		}
		return tmpl.Options[0].ID, true
	case models.ConditionIsNot, models.ConditionIsNotAny:
		for _, o := range tmpl.Options {
			if !contains(c.Values, o.ID) {
				return o.ID, true
			}
		}
	}
	return nil, false
}

func listThatMeets(tmpl models.PropertyTemplate, c models.FilterItem) (any, bool) {
	switch c.Condition {
	case models.ConditionIs:
		return append([]string(nil), c.Values...), true
	case models.ConditionIsAny:
		return []string{c.Values[0]}, true
	case models.ConditionIsNotEmpty:
		if len(tmpl.Options) == 0 {
			return nil, false
		}
		return []string{tmpl.Options[0].ID}, true
	case models.ConditionIsNot, models.ConditionIsNotAny:
		return nil, true
	}
	return nil, false
}

func textThatMeets(c models.FilterItem) (any, bool) {
	switch c.Condition {
	case models.ConditionIs, models.ConditionContains, models.ConditionStartsWith, models.ConditionEndsWith:
		return c.Values[0], true
	}
	return nil, false
}

func numberThatMeets(c models.FilterItem) (any, bool) {
	if len(c.Values) == 0 {
		return nil, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(c.Values[0]), 64)
	if err != nil {
		return nil, false
	}
	switch c.Condition {
	case models.ConditionIs, models.ConditionGreaterThanOrEqual, models.ConditionLessThanOrEqual:
		return n, true
	case models.ConditionGreaterThan:
		return n + 1, true
	case models.ConditionLessThan:
		return n - 1, true
	}
	return nil, false
}

func checkboxThatMeets(c models.FilterItem) (any, bool) {
	if len(c.Values) == 0 {
		return nil, false
	}
	want := strings.EqualFold(strings.TrimSpace(c.Values[0]), "true")
	switch c.Condition {
	case models.ConditionIs:
		return want, true
	case models.ConditionIsNot:
		return !want, true
	}
	return nil, false
}

func (e Evaluator) dateThatMeets(c models.FilterItem) (any, bool) {
	loc := e.loc()
	if c.Condition == models.ConditionIsNotEmpty {
		return models.EncodeDate(startOfDay(e.now(), loc), nil), true
	}

	target, ok := resolveDate(c.Values[0], e.now(), loc)
	if !ok {
		return nil, false
	}
	switch c.Condition {
	case models.ConditionIs, models.ConditionIsOnOrAfter, models.ConditionIsOnOrBefore:
		return models.EncodeDate(target.Start, nil), true
	case models.ConditionIsBefore:
		return models.EncodeDate(target.Start.AddDate(0, 0, -1), nil), true
	case models.ConditionIsAfter:
		return models.EncodeDate(target.End, nil), true
	}
	return nil, false
}
