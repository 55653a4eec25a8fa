package operations

import (
	"context"
	"fmt"

	"cardview/internal/kanban/models"
	"cardview/internal/notify"
	"cardview/internal/undo"
)

// Default status options of a new board, in display order.
var defaultStatusOptions = []struct{ value, color string }{
	{"Not started", "propColorGray"},
	{"In progress", "propColorYellow"},
	{"Completed", "propColorGreen"},
}

// CreateBoard creates a board with one board view. With addDefaultProperty
// the board starts with a Status select the view groups by.
func (s *Service) CreateBoard(ctx context.Context, title string, addDefaultProperty bool) (models.Board, models.BoardView, error) {
	title, err := ValidateName(title)
	if err != nil {
		return models.Board{}, models.BoardView{}, err
	}

	board := models.Board{
		ID:             s.Engine.NextID(),
		Title:          title,
		CardProperties: []models.PropertyTemplate{},
	}
	board.RootID = board.ID

	if addDefaultProperty {
		status := models.PropertyTemplate{
			ID:      s.Engine.NextID(),
			Name:    "Status",
			Type:    models.PropertyTypeSelect,
			Options: []models.PropertyOption{},
		}
		for _, o := range defaultStatusOptions {
			status.Options = append(status.Options, models.PropertyOption{ID: s.Engine.NextID(), Value: o.value, Color: o.color})
		}
		board.CardProperties = append(board.CardProperties, status)
	}

	view := newView(board, models.ViewTypeBoard, "Board view", s.Engine.NextID())
	board.ViewIDs = []string{view.ID}

	// not recorded on the history
	g := undo.NewGroup("add board")
	g.Add(undo.Step{Name: "save board", Do: s.saveBoard(board)})
	g.Add(undo.Step{Name: "save view", Do: s.saveView(view)})
	if err := g.Run(ctx); err != nil {
		return models.Board{}, models.BoardView{}, err
	}

	s.Engine.Logger().Infow("board created", "board", board.ID, "title", title)
	s.Engine.Notify(ctx, notify.Event{Kind: notify.BoardUpdated, BoardID: board.ID})
	return board, view, nil
}

// RenameBoard changes a board's title.
func (s *Service) RenameBoard(ctx context.Context, boardID, title string) error {
	title, err := ValidateName(title)
	if err != nil {
		return err
	}
	before, err := s.board(boardID)
	if err != nil {
		return err
	}
	after := before.Clone()
	after.Title = title

	g := undo.NewGroup("rename board")
	g.Add(s.boardStep(before, after))
	return s.run(ctx, g, notify.Event{Kind: notify.BoardUpdated, BoardID: boardID})
}

// newView builds a view with the defaults each view type needs.
func newView(board models.Board, viewType models.ViewType, title, id string) models.BoardView {
	view := models.BoardView{
		ID:                 id,
		ParentID:           board.ID,
		RootID:             board.RootID,
		Title:              title,
		ViewType:           viewType,
		CardOrder:          []string{},
		Filter:             models.FilterGroup{Operation: models.FilterAnd, Filters: []models.FilterItem{}},
		SortOptions:        []models.SortOption{},
		VisibleOptionIDs:   []string{},
		HiddenOptionIDs:    []string{},
		VisiblePropertyIDs: []string{},
	}

	switch viewType {
	case models.ViewTypeBoard:
		if p := board.FirstPropertyOfType(models.PropertyTypeSelect); p != nil {
			view.GroupByID = p.ID
		}
	case models.ViewTypeTable:
		for _, p := range board.CardProperties {
			view.VisiblePropertyIDs = append(view.VisiblePropertyIDs, p.ID)
		}
	case models.ViewTypeCalendar:
		if p := board.FirstPropertyOfType(models.PropertyTypeDate); p != nil {
			view.DateDisplayPropertyID = p.ID
		}
	}
	return view
}

// CreateView adds a view to a board and appends it to the board's view list.
func (s *Service) CreateView(ctx context.Context, boardID string, viewType models.ViewType, title string) (models.BoardView, error) {
	if !viewType.Valid() {
		return models.BoardView{}, fmt.Errorf("unknown view type %q", viewType)
	}
	if title == "" {
		title = string(viewType) + " view"
	}
	title, err := ValidateName(title)
	if err != nil {
		return models.BoardView{}, err
	}
	before, err := s.board(boardID)
	if err != nil {
		return models.BoardView{}, err
	}

	view := newView(before, viewType, title, s.Engine.NextID())
	after := before.Clone()
	after.ViewIDs = append(after.ViewIDs, view.ID)

	g := undo.NewGroup("add view")
	g.Add(undo.Step{Name: "save view", Do: s.saveView(view), Undo: s.removeView(view)})
	g.Add(s.boardStep(before, after))
	if err := s.run(ctx, g, notify.Event{Kind: notify.ViewUpdated, BoardID: boardID, ViewID: view.ID}); err != nil {
		return models.BoardView{}, err
	}
	return view, nil
}

// DeleteView removes a view. The last view of a board cannot be deleted.
func (s *Service) DeleteView(ctx context.Context, viewID string) error {
	view, err := s.view(viewID)
	if err != nil {
		return err
	}
	before, err := s.board(view.ParentID)
	if err != nil {
		return err
	}
	if len(s.store().ViewsForBoard(before.ID)) <= 1 {
		return fmt.Errorf("cannot delete the last view of a board")
	}
	after := before.Clone()
	after.ViewIDs = without(after.ViewIDs, viewID)

	g := undo.NewGroup("delete view")
	g.Add(s.boardStep(before, after))
	g.Add(undo.Step{Name: "delete view", Do: s.removeView(view), Undo: s.saveView(view)})
	return s.run(ctx, g, notify.Event{Kind: notify.ViewUpdated, BoardID: before.ID, ViewID: viewID})
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// move returns a copy of items with the element at from moved to to.
func move[T any](items []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(items) {
		return nil, fmt.Errorf("invalid source index")
	}
	if to < 0 || to >= len(items) {
		return nil, fmt.Errorf("invalid destination index")
	}
	out := append([]T(nil), items...)
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return out, nil
}
