package models

import "fmt"

// EmptyGroupID marks the group of cards with no (valid) group-by value.
const EmptyGroupID = ""

// BoardGroup is a runtime-derived bucket of cards sharing a group-by value.
// It is recomputed from the board, view and cards and never persisted.
type BoardGroup struct {
	Option    PropertyOption `json:"option"`
	Cards     []Card         `json:"cards"`
	CardPages []CardPage     `json:"cardPages"`
}

// ID returns the option id of the group ("" for the empty group).
func (g BoardGroup) ID() string {
	return g.Option.ID
}

// EmptyGroupOption is the synthetic option of the ungrouped bucket.
func EmptyGroupOption(property *PropertyTemplate) PropertyOption {
	name := ""
	if property != nil {
		name = property.Name
	}
	return PropertyOption{ID: EmptyGroupID, Value: fmt.Sprintf("No %s", name), Color: ""}
}
