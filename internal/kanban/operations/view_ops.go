package operations

import (
	"context"
	"fmt"

	"cardview/internal/kanban/models"
	"cardview/internal/notify"
	"cardview/internal/undo"
)

func (s *Service) changeView(ctx context.Context, viewID, desc string, edit func(board models.Board, v *models.BoardView) error) error {
	before, err := s.view(viewID)
	if err != nil {
		return err
	}
	board, err := s.board(before.ActiveBoardID())
	if err != nil {
		return err
	}
	after := before.Clone()
	if err := edit(board, &after); err != nil {
		return err
	}

	g := undo.NewGroup(desc)
	g.Add(s.viewStep(before, after))
	return s.run(ctx, g, notify.Event{Kind: notify.ViewUpdated, BoardID: before.ParentID, ViewID: viewID})
}

// RenameView changes a view's title.
func (s *Service) RenameView(ctx context.Context, viewID, title string) error {
	title, err := ValidateName(title)
	if err != nil {
		return err
	}
	return s.changeView(ctx, viewID, "rename view", func(_ models.Board, v *models.BoardView) error {
		v.Title = title
		return nil
	})
}

// ChangeViewType switches a view between board, table, gallery and calendar.
func (s *Service) ChangeViewType(ctx context.Context, viewID string, viewType models.ViewType) error {
	if !viewType.Valid() {
		return fmt.Errorf("unknown view type %q", viewType)
	}
	return s.changeView(ctx, viewID, "change view type", func(_ models.Board, v *models.BoardView) error {
		v.ViewType = viewType
		return nil
	})
}

// ChangeGroupBy groups a view by another property. The column order and
// hidden columns of the old property are dropped.
func (s *Service) ChangeGroupBy(ctx context.Context, viewID, propertyID string) error {
	return s.changeView(ctx, viewID, "group by", func(board models.Board, v *models.BoardView) error {
		if propertyID != "" {
			p := board.Property(propertyID)
			if p == nil {
				return fmt.Errorf("property %s: %w", propertyID, models.ErrNotFound)
			}
			if !p.Type.HasOptions() {
				return fmt.Errorf("cannot group by %s property %s", p.Type, p.Name)
			}
		}
		if v.GroupByID == propertyID {
			return nil
		}
		v.GroupByID = propertyID
		v.VisibleOptionIDs = []string{}
		v.HiddenOptionIDs = []string{}
		return nil
	})
}

// ChangeSortOptions replaces a view's sort keys. Keys on unknown properties
// are rejected; the title key is always allowed.
func (s *Service) ChangeSortOptions(ctx context.Context, viewID string, sorts []models.SortOption) error {
	return s.changeView(ctx, viewID, "sort", func(board models.Board, v *models.BoardView) error {
		for _, so := range sorts {
			if so.PropertyID != models.TitlePropertyID && board.Property(so.PropertyID) == nil {
				return fmt.Errorf("sort property %s: %w", so.PropertyID, models.ErrNotFound)
			}
		}
		v.SortOptions = append([]models.SortOption{}, sorts...)
		return nil
	})
}

// ChangeFilter replaces a view's filter.
func (s *Service) ChangeFilter(ctx context.Context, viewID string, filter models.FilterGroup) error {
	if filter.Operation == "" {
		filter.Operation = models.FilterAnd
	}
	return s.changeView(ctx, viewID, "filter", func(_ models.Board, v *models.BoardView) error {
		v.Filter = filter.Clone()
		return nil
	})
}

// ReorderCard moves a card to position toIndex in the view's manual order.
// Cards missing from the order are placed after it in their current
// projected order first, so the move lands where the user sees it.
func (s *Service) ReorderCard(ctx context.Context, viewID, cardID string, toIndex int) error {
	res, err := s.Engine.Project(viewID)
	if err != nil {
		return err
	}
	order := append([]string{}, res.View.CardOrder...)
	for _, c := range res.Cards() {
		if !contains(order, c.ID) {
			order = append(order, c.ID)
		}
	}
	from := -1
	for i, id := range order {
		if id == cardID {
			from = i
			break
		}
	}
	if from < 0 {
		return fmt.Errorf("card %s: %w", cardID, models.ErrNotFound)
	}
	if toIndex >= len(order) {
		toIndex = len(order) - 1
	}
	reordered, err := move(order, from, toIndex)
	if err != nil {
		return err
	}

	return s.changeView(ctx, viewID, "reorder card", func(_ models.Board, v *models.BoardView) error {
		v.CardOrder = reordered
		return nil
	})
}
