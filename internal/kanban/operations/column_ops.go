package operations

import (
	"context"
	"fmt"
	"strings"

	"cardview/internal/grouping"
	"cardview/internal/kanban/models"
	"cardview/internal/notify"
	"cardview/internal/projection"
	"cardview/internal/undo"
)

// groupedView loads a view together with the property it groups by.
func (s *Service) groupedView(viewID string) (models.BoardView, models.PropertyTemplate, error) {
	view, err := s.view(viewID)
	if err != nil {
		return models.BoardView{}, models.PropertyTemplate{}, err
	}
	board, err := s.board(view.ActiveBoardID())
	if err != nil {
		return models.BoardView{}, models.PropertyTemplate{}, err
	}
	groupBy := projection.ResolveGroupBy(&board, view)
	if groupBy == nil {
		return models.BoardView{}, models.PropertyTemplate{}, fmt.Errorf("view %s is not grouped", view.Title)
	}
	return view, *groupBy, nil
}

// HideGroup moves a group column from the visible to the hidden list.
func (s *Service) HideGroup(ctx context.Context, viewID, optionID string) error {
	before, groupBy, err := s.groupedView(viewID)
	if err != nil {
		return err
	}
	visible, hidden := grouping.NormalizeOptionIDs(before.VisibleOptionIDs, before.HiddenOptionIDs, groupBy)
	if !contains(visible, optionID) {
		return nil
	}

	after := before.Clone()
	after.VisibleOptionIDs = without(visible, optionID)
	after.HiddenOptionIDs = append(without(hidden, optionID), optionID)

	g := undo.NewGroup("hide column")
	g.Add(s.viewStep(before, after))
	return s.run(ctx, g, notify.Event{Kind: notify.ViewUpdated, BoardID: after.ParentID, ViewID: viewID})
}

// UnhideGroup moves a hidden group column back to the end of the visible list.
func (s *Service) UnhideGroup(ctx context.Context, viewID, optionID string) error {
	before, groupBy, err := s.groupedView(viewID)
	if err != nil {
		return err
	}
	visible, hidden := grouping.NormalizeOptionIDs(before.VisibleOptionIDs, before.HiddenOptionIDs, groupBy)
	if !contains(hidden, optionID) {
		return nil
	}

	after := before.Clone()
	after.HiddenOptionIDs = without(hidden, optionID)
	after.VisibleOptionIDs = append(visible, optionID)

	g := undo.NewGroup("show column")
	g.Add(s.viewStep(before, after))
	return s.run(ctx, g, notify.Event{Kind: notify.ViewUpdated, BoardID: after.ParentID, ViewID: viewID})
}

// ReorderGroup moves a visible group column to a new position.
func (s *Service) ReorderGroup(ctx context.Context, viewID string, fromIndex, toIndex int) error {
	before, groupBy, err := s.groupedView(viewID)
	if err != nil {
		return err
	}
	if fromIndex == toIndex {
		return nil
	}
	visible, hidden := grouping.NormalizeOptionIDs(before.VisibleOptionIDs, before.HiddenOptionIDs, groupBy)

	after := before.Clone()
	after.VisibleOptionIDs, err = move(visible, fromIndex, toIndex)
	if err != nil {
		return err
	}
	after.HiddenOptionIDs = hidden

	g := undo.NewGroup("reorder column")
	g.Add(s.viewStep(before, after))
	return s.run(ctx, g, notify.Event{Kind: notify.ViewUpdated, BoardID: after.ParentID, ViewID: viewID})
}

func contains(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

// ValidateName checks if a board, view, property or option name is valid
// (trim, length check)
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return "", fmt.Errorf("name cannot be empty")
	}

	if len(trimmed) > 100 {
		return "", fmt.Errorf("name too long (max 100 characters)")
	}

	return trimmed, nil
}
