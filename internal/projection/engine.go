package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardview/internal/filter"
	"cardview/internal/kanban/models"
	"cardview/internal/kanban/store"
	"cardview/internal/logs"
	"cardview/internal/notify"
	"cardview/internal/undo"
)

// Engine runs projections against a store and performs the card mutations
// that go with them. Every mutation is an undo group on History.
type Engine struct {
	Store       *store.Store
	Persistence store.Persistence
	Notifier    notify.Notifier
	History     *undo.Stack
	Filter      filter.Evaluator
	UserID      string

	NewID func() string
	Now   func() time.Time

	log *zap.SugaredLogger
}

// NewEngine wires an engine with default id generation, clock and history.
func NewEngine(s *store.Store, p store.Persistence, n notify.Notifier) *Engine {
	if n == nil {
		n = notify.Nop{}
	}
	return &Engine{
		Store:       s,
		Persistence: p,
		Notifier:    n,
		History:     undo.NewStack(100),
		NewID:       uuid.NewString,
		Now:         time.Now,
		log:         logs.Named("projection"),
	}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// NextID returns a fresh block id.
func (e *Engine) NextID() string {
	if e.NewID == nil {
		return uuid.NewString()
	}
	return e.NewID()
}

// Logger returns the engine's component logger.
func (e *Engine) Logger() *zap.SugaredLogger {
	if e.log == nil {
		e.log = logs.Named("projection")
	}
	return e.log
}

// Project computes the projection of a stored view.
func (e *Engine) Project(viewID string) (Result, error) {
	view, ok := e.Store.View(viewID)
	if !ok {
		return Result{}, fmt.Errorf("view %s: %w", viewID, models.ErrMissingContext)
	}
	return Project(e.Store, view, e.Filter)
}

// Notify tells other views and processes that something changed. Failures
// are logged, not returned.
func (e *Engine) Notify(ctx context.Context, event notify.Event) {
	if e.Notifier == nil {
		return
	}
	event.At = e.now()
	if err := e.Notifier.Notify(ctx, event); err != nil {
		e.Logger().Warnw("refresh notification failed", "kind", event.Kind, "board", event.BoardID, "error", err)
	}
}

// Undo reverts the last card or view mutation.
func (e *Engine) Undo(ctx context.Context) (string, error) {
	desc, err := e.History.Undo(ctx)
	if desc != "" {
		e.Notify(ctx, notify.Event{Kind: notify.CardsUpdated})
	}
	return desc, err
}

// Redo performs the last undone mutation again.
func (e *Engine) Redo(ctx context.Context) (string, error) {
	desc, err := e.History.Redo(ctx)
	if desc != "" {
		e.Notify(ctx, notify.Event{Kind: notify.CardsUpdated})
	}
	return desc, err
}

// Perform runs g and records it on History.
func (e *Engine) Perform(ctx context.Context, g *undo.Group) error {
	if e.History == nil {
		return g.Run(ctx)
	}
	return e.History.Perform(ctx, g)
}

// orderStep persists a new card order for view and mirrors it in the store.
func (e *Engine) orderStep(view models.BoardView, order []string) undo.Step {
	before := view.Clone()
	after := view.Clone()
	after.CardOrder = order

	apply := func(ctx context.Context, v models.BoardView) error {
		if err := e.Persistence.ChangeViewCardOrder(ctx, before, v.CardOrder); err != nil {
			return &models.PersistenceError{Op: "change card order", ID: v.ID, Err: err}
		}
		e.Store.PutView(v)
		return nil
	}
	return undo.Step{
		Name: "change card order",
		Do:   func(ctx context.Context) error { return apply(ctx, after) },
		Undo: func(ctx context.Context) error { return apply(ctx, before) },
	}
}

// insertStep persists card and mirrors it, with its page, in the store.
func (e *Engine) insertStep(card models.Card, stored *models.Card) undo.Step {
	insert := func(ctx context.Context) error {
		out, err := e.Persistence.InsertBlock(ctx, card)
		if err != nil {
			return &models.PersistenceError{Op: "insert", ID: card.ID, Err: err}
		}
		*stored = out
		e.Store.PutCard(out)
		e.Store.PutPage(models.PageMeta{ID: out.ID, Title: out.Title})
		return nil
	}
	return undo.Step{
		Name: "insert card",
		Do:   insert,
		Undo: func(ctx context.Context) error {
			if err := e.Persistence.DeleteBlock(ctx, *stored); err != nil {
				return &models.PersistenceError{Op: "delete", ID: card.ID, Err: err}
			}
			e.Store.RemoveCard(card.ID)
			return nil
		},
	}
}

// deleteStep removes card and restores it, with its page, on undo.
func (e *Engine) deleteStep(card models.Card, page models.PageMeta, hadPage bool) undo.Step {
	return undo.Step{
		Name: "delete card",
		Do: func(ctx context.Context) error {
			if err := e.Persistence.DeleteBlock(ctx, card); err != nil {
				return &models.PersistenceError{Op: "delete", ID: card.ID, Err: err}
			}
			e.Store.RemoveCard(card.ID)
			return nil
		},
		Undo: func(ctx context.Context) error {
			restored, err := e.Persistence.InsertBlock(ctx, card)
			if err != nil {
				return &models.PersistenceError{Op: "insert", ID: card.ID, Err: err}
			}
			e.Store.PutCard(restored)
			if hadPage {
				e.Store.PutPage(page)
			}
			return nil
		},
	}
}
