package filter

import (
	"strconv"
	"strings"

	"cardview/internal/kanban/models"
)

// A clause that needs values but has none is incomplete and ignored (always
// met). Conditions a type does not understand never match.

func matchText(value string, c models.FilterItem) bool {
	switch c.Condition {
	case models.ConditionIsEmpty:
		return strings.TrimSpace(value) == ""
	case models.ConditionIsNotEmpty:
		return strings.TrimSpace(value) != ""
	}
	if len(c.Values) == 0 {
		return true
	}

	v := strings.ToLower(value)
	want := strings.ToLower(c.Values[0])
	switch c.Condition {
	case models.ConditionIs:
		return v == want
	case models.ConditionIsNot:
		return v != want
	case models.ConditionContains:
		return strings.Contains(v, want)
	case models.ConditionDoesNotContain:
		return !strings.Contains(v, want)
	case models.ConditionStartsWith:
		return strings.HasPrefix(v, want)
	case models.ConditionEndsWith:
		return strings.HasSuffix(v, want)
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func matchSingleOption(value models.Value, c models.FilterItem) bool {
	switch c.Condition {
	case models.ConditionIsEmpty:
		return value.IsEmpty()
	case models.ConditionIsNotEmpty:
		return !value.IsEmpty()
	}
	if len(c.Values) == 0 {
		return true
	}

	v := value.String()
	switch c.Condition {
	case models.ConditionIs, models.ConditionIsAny:
		return contains(c.Values, v)
	case models.ConditionIsNot, models.ConditionIsNotAny:
		return !contains(c.Values, v)
	}
	return false
}

// matchMultiOption handles list-valued properties: "is" requires every
// clause value, "is_any" at least one, the negations none.
func matchMultiOption(value models.Value, c models.FilterItem) bool {
	switch c.Condition {
	case models.ConditionIsEmpty:
		return value.IsEmpty()
	case models.ConditionIsNotEmpty:
		return !value.IsEmpty()
	}
	if len(c.Values) == 0 {
		return true
	}

	have := value.Strings()
	anyOf := func() bool {
		for _, want := range c.Values {
			if contains(have, want) {
				return true
			}
		}
		return false
	}
	switch c.Condition {
	case models.ConditionIs:
		for _, want := range c.Values {
			if !contains(have, want) {
				return false
			}
		}
		return true
	case models.ConditionIsAny:
		return anyOf()
	case models.ConditionIsNot, models.ConditionIsNotAny:
		return !anyOf()
	}
	return false
}

func matchNumber(value models.Value, c models.FilterItem) bool {
	switch c.Condition {
	case models.ConditionIsEmpty:
		return value.IsEmpty()
	case models.ConditionIsNotEmpty:
		return !value.IsEmpty()
	}
	if len(c.Values) == 0 {
		return true
	}

	want, err := strconv.ParseFloat(strings.TrimSpace(c.Values[0]), 64)
	if err != nil {
		return false
	}
	n, ok := value.Number()
	if !ok {
		return c.Condition == models.ConditionIsNot
	}
	switch c.Condition {
	case models.ConditionIs:
		return n == want
	case models.ConditionIsNot:
		return n != want
	case models.ConditionGreaterThan:
		return n > want
	case models.ConditionLessThan:
		return n < want
	case models.ConditionGreaterThanOrEqual:
		return n >= want
	case models.ConditionLessThanOrEqual:
		return n <= want
	}
	return false
}

func matchCheckbox(value models.Value, c models.FilterItem) bool {
	checked := value.Bool()
	switch c.Condition {
	case models.ConditionIsEmpty:
		return !checked
	case models.ConditionIsNotEmpty:
		return checked
	}
	if len(c.Values) == 0 {
		return true
	}

	want := strings.EqualFold(strings.TrimSpace(c.Values[0]), "true")
	switch c.Condition {
	case models.ConditionIs:
		return checked == want
	case models.ConditionIsNot:
		return checked != want
	}
	return false
}

func (e Evaluator) matchDate(value models.Value, c models.FilterItem) bool {
	d, ok := value.Date()
	switch c.Condition {
	case models.ConditionIsEmpty:
		return !ok
	case models.ConditionIsNotEmpty:
		return ok
	}
	if len(c.Values) == 0 {
		return true
	}

	target, valid := resolveDate(c.Values[0], e.now(), e.loc())
	if !valid {
		return false
	}
	if !ok {
		return c.Condition == models.ConditionIsNot
	}

	loc := e.loc()
	start := startOfDay(d.From, loc)
	end := start.AddDate(0, 0, 1)
	if d.To != nil {
		end = startOfDay(*d.To, loc).AddDate(0, 0, 1)
	}

	switch c.Condition {
	case models.ConditionIs:
		return start.Before(target.End) && end.After(target.Start)
	case models.ConditionIsNot:
		return !(start.Before(target.End) && end.After(target.Start))
	case models.ConditionIsBefore:
		return start.Before(target.Start)
	case models.ConditionIsAfter:
		return !start.Before(target.End)
	case models.ConditionIsOnOrBefore:
		return start.Before(target.End)
	case models.ConditionIsOnOrAfter:
		return !start.Before(target.Start)
	}
	return false
}
