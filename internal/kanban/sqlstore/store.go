package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cardview/internal/kanban/models"
	"cardview/internal/kanban/store"

	"go.uber.org/zap"
)

// Store persists boards, views and cards as rows of a single blocks table.
// Deleting a card sets deleted_at; the row stays so its page reads as deleted.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

var _ store.Repository = (*Store)(nil)

// New wraps an open database. The caller owns driver registration.
func New(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Open connects with the named driver ("sqlite" or "postgres") and migrates.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	s := New(db, logger)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

type boardFields struct {
	Description        string                    `json:"description,omitempty"`
	Icon               string                    `json:"icon,omitempty"`
	CardProperties     []models.PropertyTemplate `json:"cardProperties"`
	ColumnCalculations map[string]string         `json:"columnCalculations,omitempty"`
	ViewIDs            []string                  `json:"viewIds"`
	SourceType         string                    `json:"sourceType,omitempty"`
	IsTemplate         bool                      `json:"isTemplate,omitempty"`
}

type cardFields struct {
	Content      string         `json:"content,omitempty"`
	Properties   map[string]any `json:"properties"`
	ContentOrder []string       `json:"contentOrder"`
	IsTemplate   bool           `json:"isTemplate,omitempty"`
}

type blockRow struct {
	ID        string
	ParentID  string
	RootID    string
	Type      string
	Title     string
	Fields    string
	CreatedBy string
	UpdatedBy string
	CreatedAt int64
	UpdatedAt int64
	DeletedAt sql.NullInt64
}

const selectBlocks = `
	SELECT id, parent_id, root_id, type, title, fields, created_by, updated_by, created_at, updated_at, deleted_at
	FROM blocks
	ORDER BY created_at, id
`

// Load reads every block and member. Deleted boards and views are skipped;
// deleted cards come back with a deleted page.
func (s *Store) Load(ctx context.Context) (store.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, selectBlocks)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to query blocks: %w", err)
	}
	defer rows.Close()

	var snap store.Snapshot
	for rows.Next() {
		var r blockRow
		if err := rows.Scan(
			&r.ID,
			&r.ParentID,
			&r.RootID,
			&r.Type,
			&r.Title,
			&r.Fields,
			&r.CreatedBy,
			&r.UpdatedBy,
			&r.CreatedAt,
			&r.UpdatedAt,
			&r.DeletedAt,
		); err != nil {
			return store.Snapshot{}, fmt.Errorf("failed to scan block: %w", err)
		}
		if err := s.appendBlock(&snap, r); err != nil {
			s.logger.Warn("skipping malformed block",
				zap.String("id", r.ID),
				zap.String("type", r.Type),
				zap.Error(err),
			)
		}
	}
	if err := rows.Err(); err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to iterate blocks: %w", err)
	}

	members, err := s.loadMembers(ctx)
	if err != nil {
		return store.Snapshot{}, err
	}
	snap.Members = members

	s.logger.Debug("blocks loaded",
		zap.Int("boards", len(snap.Boards)),
		zap.Int("views", len(snap.Views)),
		zap.Int("cards", len(snap.Cards)),
	)
	return snap, nil
}

func (s *Store) appendBlock(snap *store.Snapshot, r blockRow) error {
	switch r.Type {
	case blockBoard:
		if r.DeletedAt.Valid {
			return nil
		}
		var f boardFields
		if err := json.Unmarshal([]byte(r.Fields), &f); err != nil {
			return err
		}
		if f.CardProperties == nil {
			f.CardProperties = []models.PropertyTemplate{}
		}
		snap.Boards = append(snap.Boards, models.Board{
			ID:                 r.ID,
			RootID:             r.RootID,
			Title:              r.Title,
			Description:        f.Description,
			Icon:               f.Icon,
			CardProperties:     f.CardProperties,
			ColumnCalculations: f.ColumnCalculations,
			ViewIDs:            f.ViewIDs,
			SourceType:         f.SourceType,
			IsTemplate:         f.IsTemplate,
		})
	case blockView:
		if r.DeletedAt.Valid {
			return nil
		}
		var v models.BoardView
		if err := json.Unmarshal([]byte(r.Fields), &v); err != nil {
			return err
		}
		v.ID, v.ParentID, v.RootID, v.Title = r.ID, r.ParentID, r.RootID, r.Title
		snap.Views = append(snap.Views, v)
	case blockCard:
		var f cardFields
		if err := json.Unmarshal([]byte(r.Fields), &f); err != nil {
			return err
		}
		if f.Properties == nil {
			f.Properties = map[string]any{}
		}
		if f.ContentOrder == nil {
			f.ContentOrder = []string{}
		}
		snap.Cards = append(snap.Cards, models.Card{
			ID:           r.ID,
			ParentID:     r.ParentID,
			RootID:       r.RootID,
			Title:        r.Title,
			Content:      f.Content,
			CreatedBy:    r.CreatedBy,
			UpdatedBy:    r.UpdatedBy,
			CreatedAt:    time.UnixMilli(r.CreatedAt),
			UpdatedAt:    time.UnixMilli(r.UpdatedAt),
			Properties:   f.Properties,
			ContentOrder: f.ContentOrder,
			IsTemplate:   f.IsTemplate,
		})
		page := models.PageMeta{ID: r.ID, Title: r.Title}
		if r.DeletedAt.Valid {
			t := time.UnixMilli(r.DeletedAt.Int64)
			page.DeletedAt = &t
		}
		snap.Pages = append(snap.Pages, page)
	default:
		return fmt.Errorf("unknown block type %q", r.Type)
	}
	return nil
}

func (s *Store) loadMembers(ctx context.Context) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username FROM members ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.Username); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

const upsertBlock = `
	INSERT INTO blocks (id, parent_id, root_id, type, title, fields, created_by, updated_by, created_at, updated_at, deleted_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULL)
	ON CONFLICT (id) DO UPDATE SET
		parent_id  = excluded.parent_id,
		root_id    = excluded.root_id,
		title      = excluded.title,
		fields     = excluded.fields,
		updated_by = excluded.updated_by,
		updated_at = excluded.updated_at,
		deleted_at = NULL
`

func (s *Store) upsert(ctx context.Context, r blockRow, fields any) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode %s %s: %w", r.Type, r.ID, err)
	}
	_, err = s.db.ExecContext(ctx, upsertBlock,
		r.ID,
		r.ParentID,
		r.RootID,
		r.Type,
		r.Title,
		string(data),
		r.CreatedBy,
		r.UpdatedBy,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save %s %s: %w", r.Type, r.ID, err)
	}
	return nil
}

// InsertBlock stores a new card, filling in missing timestamps.
func (s *Store) InsertBlock(ctx context.Context, card models.Card) (models.Card, error) {
	if card.CreatedAt.IsZero() {
		card.CreatedAt = s.now()
	}
	if card.UpdatedAt.IsZero() {
		card.UpdatedAt = card.CreatedAt
	}
	if err := s.SaveCard(ctx, card); err != nil {
		return models.Card{}, err
	}
	return card, nil
}

// SaveCard inserts or updates a card row.
func (s *Store) SaveCard(ctx context.Context, card models.Card) error {
	updated := card.UpdatedAt
	if updated.IsZero() {
		updated = s.now()
	}
	created := card.CreatedAt
	if created.IsZero() {
		created = updated
	}
	return s.upsert(ctx, blockRow{
		ID:        card.ID,
		ParentID:  card.ParentID,
		RootID:    card.RootID,
		Type:      blockCard,
		Title:     card.Title,
		CreatedBy: card.CreatedBy,
		UpdatedBy: card.UpdatedBy,
		CreatedAt: created.UnixMilli(),
		UpdatedAt: updated.UnixMilli(),
	}, cardFields{
		Content:      card.Content,
		Properties:   card.Properties,
		ContentOrder: card.ContentOrder,
		IsTemplate:   card.IsTemplate,
	})
}

// DeleteBlock soft-deletes a card.
func (s *Store) DeleteBlock(ctx context.Context, card models.Card) error {
	return s.softDelete(ctx, card.ID)
}

func (s *Store) softDelete(ctx context.Context, id string) error {
	ts := s.now().UnixMilli()
	_, err := s.db.ExecContext(ctx,
		`UPDATE blocks SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id, ts,
	)
	if err != nil {
		return fmt.Errorf("failed to delete block %s: %w", id, err)
	}
	return nil
}

// ChangeViewCardOrder persists a view's manual card order.
func (s *Store) ChangeViewCardOrder(ctx context.Context, view models.BoardView, order []string) error {
	view.CardOrder = append([]string(nil), order...)
	return s.SaveView(ctx, view)
}

// SaveBoard inserts or updates a board row.
func (s *Store) SaveBoard(ctx context.Context, board models.Board) error {
	ts := s.now().UnixMilli()
	return s.upsert(ctx, blockRow{
		ID:        board.ID,
		ParentID:  "",
		RootID:    board.RootID,
		Type:      blockBoard,
		Title:     board.Title,
		CreatedAt: ts,
		UpdatedAt: ts,
	}, boardFields{
		Description:        board.Description,
		Icon:               board.Icon,
		CardProperties:     board.CardProperties,
		ColumnCalculations: board.ColumnCalculations,
		ViewIDs:            board.ViewIDs,
		SourceType:         board.SourceType,
		IsTemplate:         board.IsTemplate,
	})
}

// SaveView inserts or updates a view row. The whole view is kept in fields.
func (s *Store) SaveView(ctx context.Context, view models.BoardView) error {
	ts := s.now().UnixMilli()
	return s.upsert(ctx, blockRow{
		ID:        view.ID,
		ParentID:  view.ParentID,
		RootID:    view.RootID,
		Type:      blockView,
		Title:     view.Title,
		CreatedAt: ts,
		UpdatedAt: ts,
	}, view)
}

// DeleteView soft-deletes a view.
func (s *Store) DeleteView(ctx context.Context, view models.BoardView) error {
	return s.softDelete(ctx, view.ID)
}

// SaveMembers replaces the member list in one transaction.
func (s *Store) SaveMembers(ctx context.Context, members []models.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM members`); err != nil {
		return fmt.Errorf("failed to clear members: %w", err)
	}
	for _, m := range members {
		if _, err := tx.ExecContext(ctx, `INSERT INTO members (id, username) VALUES ($1, $2)`, m.ID, m.Username); err != nil {
			return fmt.Errorf("failed to insert member %s: %w", m.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit members: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
