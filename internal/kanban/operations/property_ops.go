package operations

import (
	"context"
	"fmt"
	"strings"

	"cardview/internal/kanban/models"
	"cardview/internal/notify"
	"cardview/internal/undo"
)

// AddProperty appends a property to a board. Table views show it right away.
func (s *Service) AddProperty(ctx context.Context, boardID, name string, typ models.PropertyType) (models.PropertyTemplate, error) {
	name, err := ValidateName(name)
	if err != nil {
		return models.PropertyTemplate{}, err
	}
	if !typ.Valid() {
		return models.PropertyTemplate{}, fmt.Errorf("unknown property type %q", typ)
	}
	before, err := s.board(boardID)
	if err != nil {
		return models.PropertyTemplate{}, err
	}

	prop := models.PropertyTemplate{ID: s.Engine.NextID(), Name: name, Type: typ, Options: []models.PropertyOption{}}
	after := before.Clone()
	after.CardProperties = append(after.CardProperties, prop)

	g := undo.NewGroup("add property")
	g.Add(s.boardStep(before, after))
	for _, v := range s.store().ViewsForBoard(boardID) {
		if v.ViewType != models.ViewTypeTable {
			continue
		}
		nv := v.Clone()
		nv.VisiblePropertyIDs = append(nv.VisiblePropertyIDs, prop.ID)
		g.Add(s.viewStep(v, nv))
	}
	if err := s.run(ctx, g, notify.Event{Kind: notify.BoardUpdated, BoardID: boardID}); err != nil {
		return models.PropertyTemplate{}, err
	}
	return prop, nil
}

// RemoveProperty deletes a property, clears its value from every card of the
// board and strips it from every view's sort, group, filter and columns.
func (s *Service) RemoveProperty(ctx context.Context, boardID, propertyID string) error {
	before, err := s.board(boardID)
	if err != nil {
		return err
	}
	if before.Property(propertyID) == nil {
		return fmt.Errorf("property %s: %w", propertyID, models.ErrNotFound)
	}

	after := before.Clone()
	after.CardProperties = removeProperty(after.CardProperties, propertyID)
	delete(after.ColumnCalculations, propertyID)

	g := undo.NewGroup("delete property")
	for _, v := range s.store().ViewsForBoard(boardID) {
		if nv, changed := stripPropertyFromView(v, propertyID); changed {
			g.Add(s.viewStep(v, nv))
		}
	}
	for _, c := range s.store().CardsForBoard(boardID) {
		if _, ok := c.Properties[propertyID]; !ok {
			continue
		}
		nc := c.Clone()
		delete(nc.Properties, propertyID)
		g.Add(s.cardStep(c, nc))
	}
	g.Add(s.boardStep(before, after))
	return s.run(ctx, g, notify.Event{Kind: notify.BoardUpdated, BoardID: boardID})
}

func removeProperty(props []models.PropertyTemplate, id string) []models.PropertyTemplate {
	out := make([]models.PropertyTemplate, 0, len(props))
	for _, p := range props {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func stripPropertyFromView(v models.BoardView, propertyID string) (models.BoardView, bool) {
	nv := v.Clone()
	changed := false

	if nv.GroupByID == propertyID {
		nv.GroupByID = ""
		nv.VisibleOptionIDs = []string{}
		nv.HiddenOptionIDs = []string{}
		changed = true
	}
	if nv.DateDisplayPropertyID == propertyID {
		nv.DateDisplayPropertyID = ""
		changed = true
	}

	sorts := nv.SortOptions[:0:0]
	for _, so := range nv.SortOptions {
		if so.PropertyID != propertyID {
			sorts = append(sorts, so)
		}
	}
	if len(sorts) != len(nv.SortOptions) {
		nv.SortOptions = sorts
		changed = true
	}

	if visible := without(nv.VisiblePropertyIDs, propertyID); len(visible) != len(nv.VisiblePropertyIDs) {
		nv.VisiblePropertyIDs = visible
		changed = true
	}
	if _, ok := nv.ColumnWidths[propertyID]; ok {
		delete(nv.ColumnWidths, propertyID)
		changed = true
	}

	if stripped := nv.Filter.WithoutProperty(propertyID); clauseCount(stripped) != clauseCount(nv.Filter) {
		nv.Filter = stripped
		changed = true
	}
	return nv, changed
}

func clauseCount(g models.FilterGroup) int {
	n := 0
	for _, item := range g.Filters {
		if item.IsGroup() {
			n += clauseCount(item.Group())
			continue
		}
		n++
	}
	return n
}

// RenameProperty changes a property's display name.
func (s *Service) RenameProperty(ctx context.Context, boardID, propertyID, name string) error {
	name, err := ValidateName(name)
	if err != nil {
		return err
	}
	before, err := s.board(boardID)
	if err != nil {
		return err
	}
	after := before.Clone()
	p := after.Property(propertyID)
	if p == nil {
		return fmt.Errorf("property %s: %w", propertyID, models.ErrNotFound)
	}
	for _, other := range after.CardProperties {
		if other.ID != propertyID && strings.EqualFold(other.Name, name) {
			return fmt.Errorf("property name already exists")
		}
	}
	p.Name = name

	g := undo.NewGroup("rename property")
	g.Add(s.boardStep(before, after))
	return s.run(ctx, g, notify.Event{Kind: notify.BoardUpdated, BoardID: boardID})
}

// ReorderProperty moves a property from one position to another.
func (s *Service) ReorderProperty(ctx context.Context, boardID string, fromIndex, toIndex int) error {
	before, err := s.board(boardID)
	if err != nil {
		return err
	}
	if fromIndex == toIndex {
		return nil
	}
	after := before.Clone()
	after.CardProperties, err = move(after.CardProperties, fromIndex, toIndex)
	if err != nil {
		return err
	}

	g := undo.NewGroup("reorder property")
	g.Add(s.boardStep(before, after))
	return s.run(ctx, g, notify.Event{Kind: notify.BoardUpdated, BoardID: boardID})
}

func optionProperty(board *models.Board, propertyID string) (*models.PropertyTemplate, error) {
	p := board.Property(propertyID)
	if p == nil {
		return nil, fmt.Errorf("property %s: %w", propertyID, models.ErrNotFound)
	}
	if !p.Type.HasOptions() {
		return nil, fmt.Errorf("property %s has no options", p.Name)
	}
	return p, nil
}

// AddOption appends an option to a select-like property.
func (s *Service) AddOption(ctx context.Context, boardID, propertyID, value, color string) (models.PropertyOption, error) {
	value, err := ValidateName(value)
	if err != nil {
		return models.PropertyOption{}, err
	}
	before, err := s.board(boardID)
	if err != nil {
		return models.PropertyOption{}, err
	}
	after := before.Clone()
	p, err := optionProperty(&after, propertyID)
	if err != nil {
		return models.PropertyOption{}, err
	}
	for _, o := range p.Options {
		if strings.EqualFold(o.Value, value) {
			return models.PropertyOption{}, fmt.Errorf("option already exists")
		}
	}
	if color == "" {
		color = "propColorDefault"
	}
	opt := models.PropertyOption{ID: s.Engine.NextID(), Value: value, Color: color}
	p.Options = append(p.Options, opt)

	g := undo.NewGroup("add option")
	g.Add(s.boardStep(before, after))
	if err := s.run(ctx, g, notify.Event{Kind: notify.BoardUpdated, BoardID: boardID}); err != nil {
		return models.PropertyOption{}, err
	}
	return opt, nil
}

// RenameOption changes an option's label.
func (s *Service) RenameOption(ctx context.Context, boardID, propertyID, optionID, value string) error {
	value, err := ValidateName(value)
	if err != nil {
		return err
	}
	before, err := s.board(boardID)
	if err != nil {
		return err
	}
	after := before.Clone()
	p, err := optionProperty(&after, propertyID)
	if err != nil {
		return err
	}
	i := p.OptionIndex(optionID)
	if i < 0 {
		return fmt.Errorf("option %s: %w", optionID, models.ErrNotFound)
	}
	p.Options[i].Value = value

	g := undo.NewGroup("rename option")
	g.Add(s.boardStep(before, after))
	return s.run(ctx, g, notify.Event{Kind: notify.BoardUpdated, BoardID: boardID})
}

// RemoveOption deletes an option, clears it from card values and drops it
// from the views' visible and hidden group lists and filter values.
func (s *Service) RemoveOption(ctx context.Context, boardID, propertyID, optionID string) error {
	before, err := s.board(boardID)
	if err != nil {
		return err
	}
	after := before.Clone()
	p, err := optionProperty(&after, propertyID)
	if err != nil {
		return err
	}
	if p.OptionIndex(optionID) < 0 {
		return fmt.Errorf("option %s: %w", optionID, models.ErrNotFound)
	}
	opts := make([]models.PropertyOption, 0, len(p.Options)-1)
	for _, o := range p.Options {
		if o.ID != optionID {
			opts = append(opts, o)
		}
	}
	p.Options = opts

	g := undo.NewGroup("delete option")
	for _, c := range s.store().CardsForBoard(boardID) {
		if nc, changed := clearOption(c, propertyID, optionID); changed {
			g.Add(s.cardStep(c, nc))
		}
	}
	for _, v := range s.store().ViewsForBoard(boardID) {
		nv := v.Clone()
		nv.VisibleOptionIDs = without(nv.VisibleOptionIDs, optionID)
		nv.HiddenOptionIDs = without(nv.HiddenOptionIDs, optionID)
		valuesChanged := stripFilterValue(nv.Filter.Filters, propertyID, optionID)
		if valuesChanged || len(nv.VisibleOptionIDs) != len(v.VisibleOptionIDs) || len(nv.HiddenOptionIDs) != len(v.HiddenOptionIDs) {
			g.Add(s.viewStep(v, nv))
		}
	}
	g.Add(s.boardStep(before, after))
	return s.run(ctx, g, notify.Event{Kind: notify.BoardUpdated, BoardID: boardID})
}

func clearOption(c models.Card, propertyID, optionID string) (models.Card, bool) {
	raw, ok := c.Properties[propertyID]
	if !ok {
		return c, false
	}
	values := models.ValueOf(raw).Strings()
	kept := without(values, optionID)
	if len(kept) == len(values) {
		return c, false
	}
	nc := c.Clone()
	switch {
	case len(kept) == 0:
		delete(nc.Properties, propertyID)
	case isList(raw):
		nc.Properties[propertyID] = kept
	default:
		nc.Properties[propertyID] = kept[0]
	}
	return nc, true
}

func isList(raw any) bool {
	switch raw.(type) {
	case []string, []any:
		return true
	}
	return false
}

// stripFilterValue removes optionID from the values of clauses on
// propertyID, in place. Filters were cloned by the caller.
func stripFilterValue(items []models.FilterItem, propertyID, optionID string) bool {
	changed := false
	for i := range items {
		if items[i].IsGroup() {
			if stripFilterValue(items[i].Filters, propertyID, optionID) {
				changed = true
			}
			continue
		}
		if items[i].PropertyID != propertyID {
			continue
		}
		if kept := without(items[i].Values, optionID); len(kept) != len(items[i].Values) {
			items[i].Values = kept
			changed = true
		}
	}
	return changed
}

// ReorderOption moves an option, which also reorders the groups of views
// that have not been arranged by hand.
func (s *Service) ReorderOption(ctx context.Context, boardID, propertyID string, fromIndex, toIndex int) error {
	before, err := s.board(boardID)
	if err != nil {
		return err
	}
	after := before.Clone()
	p, err := optionProperty(&after, propertyID)
	if err != nil {
		return err
	}
	if fromIndex == toIndex {
		return nil
	}
	p.Options, err = move(p.Options, fromIndex, toIndex)
	if err != nil {
		return err
	}

	g := undo.NewGroup("reorder option")
	g.Add(s.boardStep(before, after))
	return s.run(ctx, g, notify.Event{Kind: notify.BoardUpdated, BoardID: boardID})
}
