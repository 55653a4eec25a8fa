package models

// FilterOperation joins the children of a filter group.
type FilterOperation string

const (
	FilterAnd FilterOperation = "and"
	FilterOr  FilterOperation = "or"
)

// FilterCondition names a leaf comparison.
type FilterCondition string

const (
	ConditionIs                 FilterCondition = "is"
	ConditionIsNot              FilterCondition = "is_not"
	ConditionContains           FilterCondition = "contains"
	ConditionDoesNotContain     FilterCondition = "does_not_contain"
	ConditionStartsWith         FilterCondition = "starts_with"
	ConditionEndsWith           FilterCondition = "ends_with"
	ConditionIsEmpty            FilterCondition = "is_empty"
	ConditionIsNotEmpty         FilterCondition = "is_not_empty"
	ConditionIsAny              FilterCondition = "is_any"
	ConditionIsNotAny           FilterCondition = "is_not_any"
	ConditionIsBefore           FilterCondition = "is_before"
	ConditionIsAfter            FilterCondition = "is_after"
	ConditionIsOnOrBefore       FilterCondition = "is_on_or_before"
	ConditionIsOnOrAfter        FilterCondition = "is_on_or_after"
	ConditionGreaterThan        FilterCondition = "greater_than"
	ConditionLessThan           FilterCondition = "less_than"
	ConditionGreaterThanOrEqual FilterCondition = "greater_than_or_equal"
	ConditionLessThanOrEqual    FilterCondition = "less_than_or_equal"
)

// FilterGroup is a boolean expression over its children.
type FilterGroup struct {
	Operation FilterOperation `json:"operation" yaml:"operation"`
	Filters   []FilterItem    `json:"filters" yaml:"filters"`
}

// FilterItem is either a leaf clause (PropertyID, Condition, Values) or a
// nested group (Operation, Filters). Both share one shape so stored filters
// decode without a type discriminator.
type FilterItem struct {
	PropertyID string          `json:"propertyId,omitempty" yaml:"propertyId,omitempty"`
	Condition  FilterCondition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Values     []string        `json:"values,omitempty" yaml:"values,omitempty"`
	Operation  FilterOperation `json:"operation,omitempty" yaml:"operation,omitempty"`
	Filters    []FilterItem    `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// IsGroup reports whether the item is a nested group.
func (i FilterItem) IsGroup() bool {
	return i.Operation != ""
}

// Group returns the item as a FilterGroup.
func (i FilterItem) Group() FilterGroup {
	return FilterGroup{Operation: i.Operation, Filters: i.Filters}
}

// Clause builds a leaf filter item.
func Clause(propertyID string, condition FilterCondition, values ...string) FilterItem {
	return FilterItem{PropertyID: propertyID, Condition: condition, Values: values}
}

// NestedGroup builds a group filter item.
func NestedGroup(op FilterOperation, items ...FilterItem) FilterItem {
	return FilterItem{Operation: op, Filters: items}
}

// IsEmpty reports whether the group has no children.
func (g FilterGroup) IsEmpty() bool {
	return len(g.Filters) == 0
}

// Clone returns a deep copy of the group.
func (g FilterGroup) Clone() FilterGroup {
	c := FilterGroup{Operation: g.Operation}
	if g.Filters != nil {
		c.Filters = make([]FilterItem, len(g.Filters))
		for i, item := range g.Filters {
			ci := item
			ci.Values = append([]string(nil), item.Values...)
			if item.IsGroup() {
				ci.Filters = item.Group().Clone().Filters
			}
			c.Filters[i] = ci
		}
	}
	return c
}

// WithoutProperty drops every clause that references propertyID.
func (g FilterGroup) WithoutProperty(propertyID string) FilterGroup {
	out := FilterGroup{Operation: g.Operation}
	for _, item := range g.Filters {
		if item.IsGroup() {
			nested := item.Group().WithoutProperty(propertyID)
			out.Filters = append(out.Filters, NestedGroup(nested.Operation, nested.Filters...))
			continue
		}
		if item.PropertyID != propertyID {
			out.Filters = append(out.Filters, item)
		}
	}
	return out
}
