package models

// Board is the schema and container for a set of structured cards.
type Board struct {
	ID                 string             `json:"id" yaml:"id"`
	RootID             string             `json:"rootId" yaml:"rootId"`
	Title              string             `json:"title" yaml:"-"`
	Description        string             `json:"description,omitempty" yaml:"-"`
	Icon               string             `json:"icon,omitempty" yaml:"icon,omitempty"`
	Path               string             `json:"-" yaml:"-"` // board directory for the file store
	CardProperties     []PropertyTemplate `json:"cardProperties" yaml:"cardProperties"`
	ColumnCalculations map[string]string  `json:"columnCalculations,omitempty" yaml:"columnCalculations,omitempty"`
	ViewIDs            []string           `json:"viewIds" yaml:"viewIds"`
	SourceType         string             `json:"sourceType,omitempty" yaml:"sourceType,omitempty"`
	IsTemplate         bool               `json:"isTemplate,omitempty" yaml:"isTemplate,omitempty"`
}

// Property returns a pointer to the template with the given id.
func (b *Board) Property(id string) *PropertyTemplate {
	for i := range b.CardProperties {
		if b.CardProperties[i].ID == id {
			return &b.CardProperties[i]
		}
	}
	return nil
}

// PropertyIndex returns the position of the template with the given id, or -1.
func (b *Board) PropertyIndex(id string) int {
	for i := range b.CardProperties {
		if b.CardProperties[i].ID == id {
			return i
		}
	}
	return -1
}

// FirstPropertyOfType returns the first template whose type is one of types.
func (b *Board) FirstPropertyOfType(types ...PropertyType) *PropertyTemplate {
	for i := range b.CardProperties {
		for _, t := range types {
			if b.CardProperties[i].Type == t {
				return &b.CardProperties[i]
			}
		}
	}
	return nil
}

// IsReadOnlySource reports whether cards cannot be added to this board by hand.
func (b *Board) IsReadOnlySource() bool {
	return b.SourceType == SourceTypeProposals
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	c := b
	c.CardProperties = make([]PropertyTemplate, len(b.CardProperties))
	for i, p := range b.CardProperties {
		c.CardProperties[i] = p.Clone()
	}
	if b.ColumnCalculations != nil {
		c.ColumnCalculations = make(map[string]string, len(b.ColumnCalculations))
		for k, v := range b.ColumnCalculations {
			c.ColumnCalculations[k] = v
		}
	}
	c.ViewIDs = append([]string(nil), b.ViewIDs...)
	return c
}
