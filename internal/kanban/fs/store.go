package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"cardview/internal/kanban/models"
	"cardview/internal/kanban/store"
	"cardview/internal/logs"
	"cardview/internal/scanner"

	"go.uber.org/zap"
)

// Store keeps boards as markdown directories inside a workspace:
//
//	boards/<slug>/board.md
//	boards/<slug>/views/<view-id>.yaml
//	boards/<slug>/cards/<card-id>.md
//	members.yaml
//
// Deleting a card removes its file.
type Store struct {
	root string
	log  *zap.SugaredLogger

	mu     sync.Mutex
	boards map[string]string // board id -> board dir
	cards  map[string]string // card id -> card file
}

var _ store.Repository = (*Store)(nil)

// NewStore opens a workspace directory. Nothing is read until Load.
func NewStore(root string) *Store {
	return &Store{
		root:   root,
		log:    logs.Named("fs"),
		boards: make(map[string]string),
		cards:  make(map[string]string),
	}
}

// Root returns the workspace directory.
func (s *Store) Root() string {
	return s.root
}

// Load scans the workspace and reads every board, view, card and member.
// Unreadable cards are logged and skipped.
func (s *Store) Load(ctx context.Context) (store.Snapshot, error) {
	scan, err := scanner.ScanWorkspace(s.root)
	if err != nil {
		return store.Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards = make(map[string]string)
	s.cards = make(map[string]string)

	var snap store.Snapshot
	for _, info := range scan.Boards {
		if err := ctx.Err(); err != nil {
			return store.Snapshot{}, err
		}
		board, err := ReadBoard(info.Path)
		if err != nil {
			return store.Snapshot{}, err
		}
		s.boards[board.ID] = info.Path
		snap.Boards = append(snap.Boards, board)

		views, err := ReadViews(info.Path, board.ID)
		if err != nil {
			return store.Snapshot{}, fmt.Errorf("read views of %s: %w", board.ID, err)
		}
		snap.Views = append(snap.Views, views...)

		cards, err := s.readCards(info.Path, board.ID)
		if err != nil {
			return store.Snapshot{}, err
		}
		for _, c := range cards {
			snap.Cards = append(snap.Cards, c)
			snap.Pages = append(snap.Pages, models.PageMeta{
				ID:    c.ID,
				Title: c.Title,
				Path:  s.cards[c.ID],
			})
		}
	}

	members, err := ReadMembers(scan.MembersPath)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("read members: %w", err)
	}
	snap.Members = members

	s.log.Debugw("workspace loaded",
		"root", s.root,
		"boards", len(snap.Boards),
		"cards", len(snap.Cards),
	)
	return snap, nil
}

func (s *Store) readCards(boardPath, boardID string) ([]models.Card, error) {
	dir := filepath.Join(boardPath, "cards")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cards []models.Card
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		card, err := ReadCard(path, boardID)
		if err != nil {
			s.log.Warnw("skipping unreadable card", "path", path, "error", err)
			continue
		}
		s.cards[card.ID] = path
		cards = append(cards, card)
	}

	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].CreatedAt.Before(cards[j].CreatedAt)
	})
	return cards, nil
}

func (s *Store) boardDir(boardID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dir, ok := s.boards[boardID]
	if !ok {
		return "", fmt.Errorf("board %s: %w", boardID, models.ErrNotFound)
	}
	return dir, nil
}

// InsertBlock writes a new card file under its parent board.
func (s *Store) InsertBlock(ctx context.Context, card models.Card) (models.Card, error) {
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now()
	}
	if card.UpdatedAt.IsZero() {
		card.UpdatedAt = card.CreatedAt
	}
	if err := s.SaveCard(ctx, card); err != nil {
		return models.Card{}, err
	}
	return card, nil
}

// SaveCard writes a card file, creating it if needed.
func (s *Store) SaveCard(ctx context.Context, card models.Card) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := s.boardDir(card.ParentID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	path, ok := s.cards[card.ID]
	if !ok {
		path = filepath.Join(dir, "cards", card.ID+".md")
	}
	s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := WriteCard(card, path); err != nil {
		return err
	}

	s.mu.Lock()
	s.cards[card.ID] = path
	s.mu.Unlock()
	return nil
}

// DeleteBlock removes a card file. Deleting a card that is already gone is
// not an error.
func (s *Store) DeleteBlock(ctx context.Context, card models.Card) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	path, ok := s.cards[card.ID]
	delete(s.cards, card.ID)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ChangeViewCardOrder persists a view's manual card order.
func (s *Store) ChangeViewCardOrder(ctx context.Context, view models.BoardView, order []string) error {
	view.CardOrder = append([]string(nil), order...)
	return s.SaveView(ctx, view)
}

// SaveBoard writes board.md. A board without a directory gets one under
// boards/, named after its title.
func (s *Store) SaveBoard(ctx context.Context, board models.Board) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if board.Path == "" {
		board.Path = s.boards[board.ID]
	}
	if board.Path == "" {
		board.Path = s.newBoardDirLocked(board)
	}
	s.boards[board.ID] = board.Path
	s.mu.Unlock()

	return WriteBoard(board)
}

func (s *Store) newBoardDirLocked(board models.Board) string {
	name := slugify(board.Title)
	if name == "" {
		name = board.ID
	}
	path := filepath.Join(s.root, "boards", name)
	if fileExistsAt(path) {
		path = filepath.Join(s.root, "boards", name+"-"+board.ID)
	}
	return path
}

// BoardPath returns the directory of a loaded or saved board.
func (s *Store) BoardPath(boardID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.boards[boardID]
	return p, ok
}

// SaveView writes views/<id>.yaml under the view's board.
func (s *Store) SaveView(ctx context.Context, view models.BoardView) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := s.boardDir(view.ParentID)
	if err != nil {
		return err
	}
	return WriteView(dir, view)
}

// DeleteView removes a view file.
func (s *Store) DeleteView(ctx context.Context, view models.BoardView) error {
	dir, err := s.boardDir(view.ParentID)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(dir, "views", view.ID+".yaml"))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SaveMembers replaces the workspace members.yaml.
func (s *Store) SaveMembers(ctx context.Context, members []models.Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteMembers(filepath.Join(s.root, scanner.MembersFile), members)
}

// Close is a no-op; files are written eagerly.
func (s *Store) Close() error {
	return nil
}
