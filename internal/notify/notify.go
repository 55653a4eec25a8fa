package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// Kind names what changed.
type Kind string

const (
	CardsCreated Kind = "cards.created"
	CardsDeleted Kind = "cards.deleted"
	CardsUpdated Kind = "cards.updated"
	ViewUpdated  Kind = "view.updated"
	BoardUpdated Kind = "board.updated"
	Reloaded     Kind = "workspace.reloaded"
)

// Event tells listeners that a board's projection is stale.
type Event struct {
	Kind    Kind      `json:"kind"`
	BoardID string    `json:"boardId,omitempty"`
	ViewID  string    `json:"viewId,omitempty"`
	CardIDs []string  `json:"cardIds,omitempty"`
	Origin  string    `json:"origin,omitempty"`
	Show    bool      `json:"show,omitempty"` // open the created cards
	At      time.Time `json:"at"`
}

// Encode renders the event as JSON.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses an event published by Encode.
func Decode(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// Notifier delivers refresh events.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, event Event) error

func (f Func) Notify(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Multi fans an event out to several notifiers. A failing notifier does not
// stop delivery to the rest.
type Multi struct {
	mu        sync.RWMutex
	notifiers []Notifier
}

// NewMulti returns a fan-out over ns.
func NewMulti(ns ...Notifier) *Multi {
	return &Multi{notifiers: ns}
}

// Add registers another notifier.
func (m *Multi) Add(n Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifiers = append(m.notifiers, n)
}

func (m *Multi) Notify(ctx context.Context, event Event) error {
	m.mu.RLock()
	ns := append([]Notifier(nil), m.notifiers...)
	m.mu.RUnlock()

	var errs error
	for _, n := range ns {
		errs = multierr.Append(errs, n.Notify(ctx, event))
	}
	return errs
}
