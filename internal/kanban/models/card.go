package models

import "time"

// Card is a single structured record belonging to a board. Properties are
// keyed by PropertyTemplate.ID; ids with no matching template are inert.
type Card struct {
	ID           string         `json:"id"`
	ParentID     string         `json:"parentId"`
	RootID       string         `json:"rootId"`
	Title        string         `json:"title"`
	Content      string         `json:"content,omitempty"`
	Preview      string         `json:"preview,omitempty"`
	CreatedBy    string         `json:"createdBy,omitempty"`
	UpdatedBy    string         `json:"updatedBy,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	Properties   map[string]any `json:"properties"`
	ContentOrder []string       `json:"contentOrder"`
	IsTemplate   bool           `json:"isTemplate,omitempty"`
}

// Value returns the stored value for a property id.
func (c Card) Value(propertyID string) Value {
	if c.Properties == nil {
		return Value{}
	}
	return ValueOf(c.Properties[propertyID])
}

// MetaValue returns the value a property holds for this card, reading card
// metadata for the read-only created/updated types.
func (c Card) MetaValue(p PropertyTemplate) Value {
	switch p.Type {
	case PropertyTypeCreatedTime:
		return ValueOf(c.CreatedAt)
	case PropertyTypeUpdatedTime:
		if c.UpdatedAt.IsZero() {
			return ValueOf(c.CreatedAt)
		}
		return ValueOf(c.UpdatedAt)
	case PropertyTypeCreatedBy:
		return ValueOf(c.CreatedBy)
	case PropertyTypeUpdatedBy:
		if c.UpdatedBy == "" {
			return ValueOf(c.CreatedBy)
		}
		return ValueOf(c.UpdatedBy)
	}
	return c.Value(p.ID)
}

// Clone returns a copy with its own property map and content order.
func (c Card) Clone() Card {
	out := c
	out.Properties = make(map[string]any, len(c.Properties))
	for k, v := range c.Properties {
		out.Properties[k] = v
	}
	out.ContentOrder = append([]string(nil), c.ContentOrder...)
	return out
}

// PageMeta is the page record backing a card: its title and deletion state.
type PageMeta struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Path      string     `json:"path,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// IsLive reports whether the page exists and is not soft-deleted.
func (p *PageMeta) IsLive() bool {
	return p != nil && p.DeletedAt == nil
}

// CardPage is a card joined with its backing page.
type CardPage struct {
	Card Card     `json:"card"`
	Page PageMeta `json:"page"`
}

// DisplayTitle prefers the page title and falls back to the card title.
func (cp CardPage) DisplayTitle() string {
	if cp.Page.Title != "" {
		return cp.Page.Title
	}
	return cp.Card.Title
}

// Cards extracts the cards from a list of card pages.
func Cards(cardPages []CardPage) []Card {
	cards := make([]Card, len(cardPages))
	for i, cp := range cardPages {
		cards[i] = cp.Card
	}
	return cards
}

// Member is a workspace user that person properties can reference.
type Member struct {
	ID       string `json:"id" yaml:"id"`
	Username string `json:"username" yaml:"username"`
}

// FindMember looks up a member by id.
func FindMember(members []Member, id string) (Member, bool) {
	for _, m := range members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}
