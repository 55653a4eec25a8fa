package operations

import (
	"context"
	"fmt"

	"cardview/internal/kanban/models"
	"cardview/internal/kanban/store"
	"cardview/internal/notify"
	"cardview/internal/projection"
	"cardview/internal/undo"
)

// Service performs schema and view edits. Each edit saves through Repo,
// mirrors the result in the engine's store and is one undo group on the
// engine's history.
type Service struct {
	Engine *projection.Engine
	Repo   store.Repository
}

// New wires a service around an engine and its repository.
func New(engine *projection.Engine, repo store.Repository) *Service {
	return &Service{Engine: engine, Repo: repo}
}

func (s *Service) store() *store.Store {
	return s.Engine.Store
}

func (s *Service) board(id string) (models.Board, error) {
	b, ok := s.store().Board(id)
	if !ok {
		return models.Board{}, fmt.Errorf("board %s: %w", id, models.ErrNotFound)
	}
	return b, nil
}

func (s *Service) view(id string) (models.BoardView, error) {
	v, ok := s.store().View(id)
	if !ok {
		return models.BoardView{}, fmt.Errorf("view %s: %w", id, models.ErrNotFound)
	}
	return v, nil
}

func (s *Service) saveBoard(b models.Board) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := s.Repo.SaveBoard(ctx, b); err != nil {
			return &models.PersistenceError{Op: "save board", ID: b.ID, Err: err}
		}
		s.store().PutBoard(b)
		return nil
	}
}

func (s *Service) saveView(v models.BoardView) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := s.Repo.SaveView(ctx, v); err != nil {
			return &models.PersistenceError{Op: "save view", ID: v.ID, Err: err}
		}
		s.store().PutView(v)
		return nil
	}
}

func (s *Service) removeView(v models.BoardView) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := s.Repo.DeleteView(ctx, v); err != nil {
			return &models.PersistenceError{Op: "delete view", ID: v.ID, Err: err}
		}
		s.store().RemoveView(v.ID)
		return nil
	}
}

func (s *Service) saveCard(c models.Card) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := s.Repo.SaveCard(ctx, c); err != nil {
			return &models.PersistenceError{Op: "save card", ID: c.ID, Err: err}
		}
		s.store().PutCard(c)
		return nil
	}
}

func (s *Service) boardStep(before, after models.Board) undo.Step {
	return undo.Step{Name: "save board", Do: s.saveBoard(after), Undo: s.saveBoard(before)}
}

func (s *Service) viewStep(before, after models.BoardView) undo.Step {
	return undo.Step{Name: "save view", Do: s.saveView(after), Undo: s.saveView(before)}
}

func (s *Service) cardStep(before, after models.Card) undo.Step {
	return undo.Step{Name: "save card", Do: s.saveCard(after), Undo: s.saveCard(before)}
}

// run performs g and sends one refresh event for the board.
func (s *Service) run(ctx context.Context, g *undo.Group, event notify.Event) error {
	if err := s.Engine.Perform(ctx, g); err != nil {
		s.Engine.Logger().Errorw(g.Description, "board", event.BoardID, "view", event.ViewID, "error", err)
		return err
	}
	s.Engine.Notify(ctx, event)
	return nil
}
