// Package workspace opens a configured storage backend and wires the card
// store, projection engine, operations and refresh notifiers around it.
package workspace

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cardview/internal/config"
	"cardview/internal/kanban/fs"
	"cardview/internal/kanban/models"
	"cardview/internal/kanban/operations"
	"cardview/internal/kanban/sqlstore"
	"cardview/internal/kanban/store"
	"cardview/internal/logs"
	"cardview/internal/notify"
	"cardview/internal/projection"
	"cardview/internal/watch"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Workspace holds all loaded data for one workspace
type Workspace struct {
	Config   *config.Config
	Repo     store.Repository
	Store    *store.Store
	Engine   *projection.Engine
	Ops      *operations.Service
	Notifier *notify.Multi

	// Origin tags events this process publishes to other processes.
	Origin string

	redis *notify.Redis
	mqtt  *notify.MQTT
	log   *zap.SugaredLogger

	closeOnce sync.Once
}

// Open connects the configured backend, loads it and wires the engine.
// Remote notifiers that cannot connect are logged and skipped.
func Open(ctx context.Context, cfg *config.Config) (*Workspace, error) {
	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ws, err := New(ctx, cfg, repo)
	if err != nil {
		repo.Close()
		return nil, err
	}
	ws.connectRemote(ctx)
	return ws, nil
}

// New wires a workspace over an already opened repository and loads it.
func New(ctx context.Context, cfg *config.Config, repo store.Repository) (*Workspace, error) {
	snap, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}

	ws := &Workspace{
		Config:   cfg,
		Repo:     repo,
		Store:    store.New(snap),
		Notifier: notify.NewMulti(),
		Origin:   uuid.NewString(),
		log:      logs.Named("workspace"),
	}
	ws.Engine = projection.NewEngine(ws.Store, repo, ws.Notifier)
	ws.Engine.UserID = cfg.UserID
	ws.Ops = operations.New(ws.Engine, repo)

	ws.log.Infow("workspace loaded", "backend", cfg.Backend, "boards", len(snap.Boards), "cards", len(snap.Cards))
	return ws, nil
}

func openRepository(ctx context.Context, cfg *config.Config) (store.Repository, error) {
	switch cfg.Backend {
	case config.BackendFS:
		return fs.NewStore(cfg.Workspace), nil
	case config.BackendSQLite, config.BackendPostgres:
		return sqlstore.Open(ctx, cfg.Backend, cfg.DSN, logs.Base().Named("sqlstore"))
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func (ws *Workspace) connectRemote(ctx context.Context) {
	if addr := ws.Config.RedisAddr; addr != "" {
		r, err := notify.NewRedis(ctx, addr, ws.Config.RedisChannel, ws.Origin, logs.Named("redis"))
		if err != nil {
			ws.log.Warnw("redis notifier disabled", "addr", addr, "error", err)
		} else {
			ws.redis = r
			ws.Notifier.Add(r)
		}
	}
	if broker := ws.Config.MQTTBroker; broker != "" {
		m, err := notify.NewMQTT(broker, "cardview-"+ws.Origin, ws.Config.MQTTTopic, logs.Named("mqtt"))
		if err != nil {
			ws.log.Warnw("mqtt notifier disabled", "broker", broker, "error", err)
		} else {
			ws.mqtt = m
			ws.Notifier.Add(m)
		}
	}
}

// Reload re-reads the backend into the store and tells listeners.
func (ws *Workspace) Reload(ctx context.Context) error {
	snap, err := ws.Repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload workspace: %w", err)
	}
	ws.Store.Replace(snap)
	ws.log.Debugw("workspace reloaded", "boards", len(snap.Boards), "cards", len(snap.Cards))
	ws.Engine.Notify(ctx, notify.Event{Kind: notify.Reloaded})
	return nil
}

// reloadLocal re-reads the backend without publishing, for changes that
// other processes already announced.
func (ws *Workspace) reloadLocal(ctx context.Context) error {
	snap, err := ws.Repo.Load(ctx)
	if err != nil {
		return err
	}
	ws.Store.Replace(snap)
	return nil
}

// Follow blocks until ctx is done, keeping the store in sync with changes
// made outside this process: file edits for the fs backend, and events from
// other processes on redis or mqtt. local is called after each such reload.
func (ws *Workspace) Follow(ctx context.Context, local notify.Notifier) error {
	if local == nil {
		local = notify.Nop{}
	}
	remote := func(ev notify.Event) {
		if err := ws.reloadLocal(ctx); err != nil {
			ws.log.Errorw("reload after remote event", "kind", ev.Kind, "origin", ev.Origin, "error", err)
			return
		}
		local.Notify(ctx, ev)
	}

	var errs error
	var wg sync.WaitGroup
	var mu sync.Mutex
	run := func(f func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f(); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}()
	}

	if ws.mqtt != nil {
		if err := ws.mqtt.Subscribe(remote); err != nil {
			ws.log.Warnw("mqtt subscribe", "error", err)
		}
	}
	if ws.redis != nil {
		run(func() error { return ws.redis.Subscribe(ctx, remote) })
	}
	if fsStore, ok := ws.Repo.(*fs.Store); ok {
		w, err := watch.New(fsStore.Root(), ws.Reload, logs.Named("watch"))
		if err != nil {
			return err
		}
		run(func() error { return w.Run(ctx) })
	}

	<-ctx.Done()
	wg.Wait()
	return errs
}

// ResolveView finds a board and one of its views by id or title, ignoring
// case. An empty board picks the first board; an empty view picks the
// board's first view.
func (ws *Workspace) ResolveView(boardRef, viewRef string) (models.Board, models.BoardView, error) {
	boards := ws.Store.Boards()
	if len(boards) == 0 {
		return models.Board{}, models.BoardView{}, fmt.Errorf("no boards in workspace: %w", models.ErrMissingContext)
	}

	var board *models.Board
	for i := range boards {
		if boardRef == "" || boards[i].ID == boardRef || strings.EqualFold(boards[i].Title, boardRef) {
			board = &boards[i]
			break
		}
	}
	if board == nil {
		return models.Board{}, models.BoardView{}, fmt.Errorf("board %q: %w", boardRef, models.ErrNotFound)
	}

	views := ws.Store.ViewsForBoard(board.ID)
	for _, v := range views {
		if viewRef == "" || v.ID == viewRef || strings.EqualFold(v.Title, viewRef) {
			return *board, v, nil
		}
	}
	if viewRef == "" {
		return *board, models.BoardView{}, fmt.Errorf("board %s has no views: %w", board.Title, models.ErrMissingContext)
	}
	return *board, models.BoardView{}, fmt.Errorf("view %q: %w", viewRef, models.ErrNotFound)
}

// Close releases the backend and remote notifiers.
func (ws *Workspace) Close() error {
	var err error
	ws.closeOnce.Do(func() {
		if ws.redis != nil {
			err = multierr.Append(err, ws.redis.Close())
		}
		if ws.mqtt != nil {
			err = multierr.Append(err, ws.mqtt.Close())
		}
		err = multierr.Append(err, ws.Repo.Close())
	})
	return err
}
