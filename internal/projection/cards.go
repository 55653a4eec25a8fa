package projection

import (
	"context"
	"errors"
	"fmt"

	"cardview/internal/kanban/models"
	"cardview/internal/notify"
	"cardview/internal/undo"
)

// AddCardOptions control AddCard.
type AddCardOptions struct {
	Title string
	// GroupOptionID places the card in a group of a grouped view. Nil keeps
	// whatever the filter implies; an empty string clears the group value.
	GroupOptionID *string
	// Properties are merged over the filter-implied values.
	Properties map[string]any
	// InsertFirst puts the card at the top of the view's card order instead
	// of the bottom.
	InsertFirst bool
	IsTemplate  bool
	// Show asks the UI to open the card once it exists. It travels on the
	// CardsCreated event.
	Show bool
}

// BuildCard assembles a new card for view: filter-implied values first, the
// group option next, caller properties last. Nil values are dropped.
func BuildCard(board models.Board, view models.BoardView, implied map[string]any, opts AddCardOptions) models.Card {
	props := make(map[string]any, len(implied)+len(opts.Properties)+1)
	for k, v := range implied {
		props[k] = v
	}

	if view.ViewType.IsGrouped() && opts.GroupOptionID != nil {
		if groupBy := ResolveGroupBy(&board, view); groupBy != nil {
			if *opts.GroupOptionID == models.EmptyGroupID {
				props[groupBy.ID] = nil
			} else if groupBy.Type == models.PropertyTypeMultiSelect {
				props[groupBy.ID] = []string{*opts.GroupOptionID}
			} else {
				props[groupBy.ID] = *opts.GroupOptionID
			}
		}
	}

	for k, v := range opts.Properties {
		props[k] = v
	}
	for k, v := range props {
		if v == nil {
			delete(props, k)
		}
	}

	rootID := board.RootID
	if rootID == "" {
		rootID = board.ID
	}
	return models.Card{
		ParentID:     board.ID,
		RootID:       rootID,
		Title:        opts.Title,
		Properties:   props,
		ContentOrder: []string{},
		IsTemplate:   opts.IsTemplate,
	}
}

// insertOrder returns order with id added at the front or the back.
func insertOrder(order []string, id string, first bool) []string {
	out := make([]string, 0, len(order)+1)
	if first {
		out = append(out, id)
	}
	for _, existing := range order {
		if existing != id {
			out = append(out, existing)
		}
	}
	if !first {
		out = append(out, id)
	}
	return out
}

// AddCard creates a card on the view's active board. The view's card order is
// persisted before the card itself, both as one undo group.
func (e *Engine) AddCard(ctx context.Context, viewID string, opts AddCardOptions) (models.Card, error) {
	view, ok := e.Store.View(viewID)
	if !ok {
		return models.Card{}, fmt.Errorf("add card to view %s: %w", viewID, models.ErrMissingContext)
	}
	boardID := view.ActiveBoardID()
	board, ok := e.Store.Board(boardID)
	if !ok {
		return models.Card{}, fmt.Errorf("add card to board %s: %w", boardID, models.ErrMissingContext)
	}
	if board.IsReadOnlySource() || view.SourceType == models.SourceTypeProposals {
		return models.Card{}, models.ErrReadOnlySource
	}

	implied := e.Filter.PropertiesThatMeetFilterGroup(view.Filter, board.CardProperties)
	card := BuildCard(board, view, implied, opts)
	card.ID = e.NextID()
	now := e.now()
	card.CreatedAt, card.UpdatedAt = now, now
	card.CreatedBy, card.UpdatedBy = e.UserID, e.UserID

	order := insertOrder(view.CardOrder, card.ID, opts.InsertFirst)

	var stored models.Card
	g := undo.NewGroup("add card")
	g.Add(e.orderStep(view, order))
	g.Add(e.insertStep(card, &stored))
	if err := e.Perform(ctx, g); err != nil {
		return models.Card{}, err
	}

	e.Logger().Infow("card added", "card", stored.ID, "board", boardID, "view", viewID)
	e.Notify(ctx, notify.Event{Kind: notify.CardsCreated, BoardID: boardID, ViewID: viewID, CardIDs: []string{stored.ID}, Show: opts.Show})
	return stored, nil
}

// DeleteCards deletes the given cards as one undo group. Each delete runs
// independently: ids missing from the store are logged and skipped, and a
// failing delete does not stop the others. The returned error combines
// every persistence failure.
func (e *Engine) DeleteCards(ctx context.Context, cardIDs []string) error {
	if len(cardIDs) == 0 {
		return nil
	}

	desc := "delete card"
	if len(cardIDs) > 1 {
		desc = fmt.Sprintf("delete %d cards", len(cardIDs))
	}
	g := undo.NewGroup(desc)
	g.ContinueOnError = true

	var attempted []models.Card
	for _, id := range cardIDs {
		card, ok := e.Store.Card(id)
		if !ok {
			e.Logger().Warnw("delete: card not in snapshot", "card", id)
			continue
		}
		page, hadPage := e.Store.Page(id)
		g.Add(e.deleteStep(card, page, hadPage))
		attempted = append(attempted, card)
	}
	if g.Len() == 0 {
		return nil
	}

	err := e.Perform(ctx, g)
	if err != nil {
		e.Logger().Errorw("delete cards", "cards", len(attempted), "error", err)
	}

	// A failed delete leaves its card in the store.
	var boards []string
	deleted := make(map[string][]string)
	for _, card := range attempted {
		if _, ok := e.Store.Card(card.ID); ok {
			continue
		}
		if _, seen := deleted[card.ParentID]; !seen {
			boards = append(boards, card.ParentID)
		}
		deleted[card.ParentID] = append(deleted[card.ParentID], card.ID)
	}
	for _, boardID := range boards {
		e.Notify(ctx, notify.Event{Kind: notify.CardsDeleted, BoardID: boardID, CardIDs: deleted[boardID]})
	}
	return err
}

type cardSaver interface {
	SaveCard(ctx context.Context, card models.Card) error
}

// UpdateCard replaces a card's title and properties in place. The
// persistence collaborator must be able to save cards.
func (e *Engine) UpdateCard(ctx context.Context, card models.Card) error {
	saver, ok := e.Persistence.(cardSaver)
	if !ok {
		return errors.New("persistence cannot update cards")
	}
	before, ok := e.Store.Card(card.ID)
	if !ok {
		e.Logger().Warnw("update: card not in snapshot", "card", card.ID)
		return nil
	}
	card.UpdatedAt = e.now()
	card.UpdatedBy = e.UserID

	save := func(c models.Card) func(context.Context) error {
		return func(ctx context.Context) error {
			if err := saver.SaveCard(ctx, c); err != nil {
				return &models.PersistenceError{Op: "save", ID: c.ID, Err: err}
			}
			e.Store.PutCard(c)
			if p, ok := e.Store.Page(c.ID); ok {
				p.Title = c.Title
				e.Store.PutPage(p)
			}
			return nil
		}
	}

	g := undo.NewGroup("edit card")
	g.Add(undo.Step{Name: "save card", Do: save(card), Undo: save(before)})
	if err := e.Perform(ctx, g); err != nil {
		return err
	}
	e.Notify(ctx, notify.Event{Kind: notify.CardsUpdated, BoardID: card.ParentID, CardIDs: []string{card.ID}})
	return nil
}
