package undo

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/multierr"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Step is one persistence call and its inverse. Undo may be nil for steps
// that cannot be reverted.
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// Group is a batch of steps performed and undone as one user action.
type Group struct {
	Description string
	// ContinueOnError runs every step even when earlier ones fail. Otherwise
	// the first failure stops the batch and reverts the steps already done.
	ContinueOnError bool

	steps []Step
	done  []Step
}

// NewGroup starts an empty group.
func NewGroup(description string) *Group {
	return &Group{Description: description}
}

// Add appends a step.
func (g *Group) Add(step Step) {
	g.steps = append(g.steps, step)
}

// Len returns the number of steps in the group.
func (g *Group) Len() int {
	return len(g.steps)
}

// Run performs the steps in order. Failures are combined into one error.
func (g *Group) Run(ctx context.Context) error {
	g.done = g.done[:0]
	var errs error
	for _, s := range g.steps {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		if err := s.Do(ctx); err != nil {
			errs = multierr.Append(errs, err)
			if !g.ContinueOnError {
				errs = multierr.Append(errs, g.Revert(ctx))
				g.done = g.done[:0]
				return errs
			}
			continue
		}
		g.done = append(g.done, s)
	}
	return errs
}

// Revert undoes the steps that succeeded, newest first.
func (g *Group) Revert(ctx context.Context) error {
	var errs error
	for i := len(g.done) - 1; i >= 0; i-- {
		s := g.done[i]
		if s.Undo == nil {
			continue
		}
		errs = multierr.Append(errs, s.Undo(ctx))
	}
	return errs
}

// performed reports whether any step took effect.
func (g *Group) performed() bool {
	return len(g.done) > 0
}

// Stack is a caller-held undo/redo history.
type Stack struct {
	mu    sync.Mutex
	limit int
	undo  []*Group
	redo  []*Group
}

// NewStack returns a stack that keeps at most limit groups (0 means no limit).
func NewStack(limit int) *Stack {
	return &Stack{limit: limit}
}

// Perform runs g and records it when any step took effect. The returned error
// carries every step failure.
func (s *Stack) Perform(ctx context.Context, g *Group) error {
	err := g.Run(ctx)
	if !g.performed() {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.push(g)
	s.redo = nil
	return err
}

// push records g as undoable, dropping the oldest groups past the limit.
// Callers hold s.mu.
func (s *Stack) push(g *Group) {
	s.undo = append(s.undo, g)
	if s.limit > 0 && len(s.undo) > s.limit {
		s.undo = s.undo[len(s.undo)-s.limit:]
	}
}

// Undo reverts the most recent group.
func (s *Stack) Undo(ctx context.Context) (string, error) {
	s.mu.Lock()
	if len(s.undo) == 0 {
		s.mu.Unlock()
		return "", ErrNothingToUndo
	}
	g := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, g)
	s.mu.Unlock()

	return g.Description, g.Revert(ctx)
}

// Redo performs the most recently undone group again. A group that fails
// and rolls back entirely is not recorded.
func (s *Stack) Redo(ctx context.Context) (string, error) {
	s.mu.Lock()
	if len(s.redo) == 0 {
		s.mu.Unlock()
		return "", ErrNothingToRedo
	}
	g := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.mu.Unlock()

	err := g.Run(ctx)
	if !g.performed() {
		return g.Description, err
	}

	s.mu.Lock()
	s.push(g)
	s.mu.Unlock()
	return g.Description, err
}

// CanUndo reports whether there is anything to undo.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// CanRedo reports whether there is anything to redo.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}
