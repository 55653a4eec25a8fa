package store

import (
	"context"
	"sort"
	"sync"

	"cardview/internal/kanban/models"
)

// Snapshot is everything a backend loads in one pass.
type Snapshot struct {
	Boards  []models.Board
	Views   []models.BoardView
	Cards   []models.Card
	Pages   []models.PageMeta
	Members []models.Member
}

// Persistence is the storage contract the projection writes through.
type Persistence interface {
	InsertBlock(ctx context.Context, card models.Card) (models.Card, error)
	DeleteBlock(ctx context.Context, card models.Card) error
	ChangeViewCardOrder(ctx context.Context, view models.BoardView, order []string) error
}

// Repository is a full storage backend.
type Repository interface {
	Persistence
	Load(ctx context.Context) (Snapshot, error)
	SaveBoard(ctx context.Context, board models.Board) error
	SaveView(ctx context.Context, view models.BoardView) error
	SaveCard(ctx context.Context, card models.Card) error
	DeleteView(ctx context.Context, view models.BoardView) error
	Close() error
}

// Store is an in-memory snapshot of boards, views, cards and pages with a
// cards-by-board index. Cards keep their insertion order within a board.
type Store struct {
	mu      sync.RWMutex
	boards  map[string]models.Board
	order   []string // board ids in load order
	views   map[string]models.BoardView
	cards   map[string]models.Card
	byBoard map[string][]string
	pages   map[string]models.PageMeta
	members []models.Member
}

// New builds a store from a snapshot.
func New(snap Snapshot) *Store {
	s := &Store{}
	s.Replace(snap)
	return s
}

// Replace swaps the whole snapshot, e.g. after a reload.
func (s *Store) Replace(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.boards = make(map[string]models.Board, len(snap.Boards))
	s.order = s.order[:0]
	for _, b := range snap.Boards {
		if _, seen := s.boards[b.ID]; !seen {
			s.order = append(s.order, b.ID)
		}
		s.boards[b.ID] = b
	}

	s.views = make(map[string]models.BoardView, len(snap.Views))
	for _, v := range snap.Views {
		s.views[v.ID] = v
	}

	s.cards = make(map[string]models.Card, len(snap.Cards))
	s.byBoard = make(map[string][]string)
	for _, c := range snap.Cards {
		s.putCardLocked(c)
	}

	s.pages = make(map[string]models.PageMeta, len(snap.Pages))
	for _, p := range snap.Pages {
		s.pages[p.ID] = p
	}

	s.members = append([]models.Member(nil), snap.Members...)
}

// Boards returns every board in load order.
func (s *Store) Boards() []models.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Board, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.boards[id])
	}
	return out
}

// Board looks up a board by id.
func (s *Store) Board(id string) (models.Board, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.boards[id]
	return b, ok
}

// View looks up a view by id.
func (s *Store) View(id string) (models.BoardView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.views[id]
	return v, ok
}

// ViewsForBoard returns the views of a board, ordered by the board's ViewIDs
// with any views missing from that list appended.
func (s *Store) ViewsForBoard(boardID string) []models.BoardView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.BoardView
	seen := make(map[string]bool)
	if b, ok := s.boards[boardID]; ok {
		for _, id := range b.ViewIDs {
			if v, ok := s.views[id]; ok && v.ParentID == boardID {
				out = append(out, v)
				seen[id] = true
			}
		}
	}
	var rest []models.BoardView
	for id, v := range s.views {
		if v.ParentID == boardID && !seen[id] {
			rest = append(rest, v)
		}
	}
	sortViewsByTitle(rest)
	return append(out, rest...)
}

// Card looks up a card by id.
func (s *Store) Card(id string) (models.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cards[id]
	return c, ok
}

// CardsForBoard returns the cards whose parent is boardID, in store order.
func (s *Store) CardsForBoard(boardID string) []models.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byBoard[boardID]
	out := make([]models.Card, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.cards[id])
	}
	return out
}

// Page looks up the page backing a card.
func (s *Store) Page(id string) (models.PageMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[id]
	return p, ok
}

// Pages returns a copy of the page map.
func (s *Store) Pages() map[string]models.PageMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.PageMeta, len(s.pages))
	for k, v := range s.pages {
		out[k] = v
	}
	return out
}

// Members returns the workspace members.
func (s *Store) Members() []models.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Member(nil), s.members...)
}

// PutBoard inserts or replaces a board.
func (s *Store) PutBoard(b models.Board) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.boards[b.ID]; !ok {
		s.order = append(s.order, b.ID)
	}
	s.boards[b.ID] = b
}

// PutView inserts or replaces a view.
func (s *Store) PutView(v models.BoardView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[v.ID] = v
}

// RemoveView drops a view.
func (s *Store) RemoveView(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views, id)
}

// PutCard inserts or replaces a card. A new card, or one whose parent
// changed, goes to the end of its board's order.
func (s *Store) PutCard(c models.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putCardLocked(c)
}

func (s *Store) putCardLocked(c models.Card) {
	if old, ok := s.cards[c.ID]; ok {
		if old.ParentID == c.ParentID {
			s.cards[c.ID] = c
			return
		}
		s.byBoard[old.ParentID] = without(s.byBoard[old.ParentID], c.ID)
	}
	s.cards[c.ID] = c
	s.byBoard[c.ParentID] = append(s.byBoard[c.ParentID], c.ID)
}

// RemoveCard drops a card and its page.
func (s *Store) RemoveCard(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cards[id]
	if !ok {
		return
	}
	delete(s.cards, id)
	delete(s.pages, id)
	s.byBoard[c.ParentID] = without(s.byBoard[c.ParentID], id)
}

// PutPage inserts or replaces a page.
func (s *Store) PutPage(p models.PageMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[p.ID] = p
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// Snapshot exports the current contents.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap Snapshot
	for _, id := range s.order {
		snap.Boards = append(snap.Boards, s.boards[id])
		for _, cid := range s.byBoard[id] {
			snap.Cards = append(snap.Cards, s.cards[cid])
		}
	}
	for _, v := range s.views {
		snap.Views = append(snap.Views, v)
	}
	sortViewsByTitle(snap.Views)
	for _, p := range s.pages {
		snap.Pages = append(snap.Pages, p)
	}
	sort.Slice(snap.Pages, func(i, j int) bool { return snap.Pages[i].ID < snap.Pages[j].ID })
	snap.Members = append(snap.Members, s.members...)
	return snap
}

func sortViewsByTitle(views []models.BoardView) {
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].Title != views[j].Title {
			return views[i].Title < views[j].Title
		}
		return views[i].ID < views[j].ID
	})
}
