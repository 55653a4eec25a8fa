// Package cli is the cardview command line. Without a subcommand it starts
// the terminal UI; subcommands script the same operations.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cardview/internal/config"
	"cardview/internal/kanban/models"
	"cardview/internal/logs"
	"cardview/internal/projection"
	"cardview/internal/tui"
	"cardview/internal/workspace"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

// app carries what every command shares: parsed flags, the loaded config
// and, once opened, the workspace.
type app struct {
	flags    config.CLIFlags
	logLevel string

	cfg *config.Config
	ws  *workspace.Workspace
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "cardview",
		Short: "Boards of cards, seen through filtered, sorted and grouped views",
		Long: `cardview keeps boards of cards in a workspace directory or a SQL database
and shows them through views: each view filters, sorts and groups the cards
of one board.

Run without arguments to start the interactive board UI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.Workspace, "workspace", "w", "", "workspace directory")
	pf.StringVar(&a.flags.Backend, "backend", "", "storage backend: fs, sqlite or postgres")
	pf.StringVar(&a.flags.DSN, "dsn", "", "database connection string for sql backends")
	pf.StringVarP(&a.flags.Board, "board", "b", "", "board id or title")
	pf.StringVar(&a.flags.View, "view", "", "view id or title")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		a.initCmd(),
		a.boardsCmd(),
		a.newBoardCmd(),
		a.newViewCmd(),
		a.cardsCmd(),
		a.addCmd(),
		a.setCmd(),
		a.deleteCmd(),
		a.hideCmd(),
		a.showCmd(),
		a.groupByCmd(),
		a.sortCmd(),
		a.exportCmd(),
		a.serveCmd(),
	)
	return root, a
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root, a := newRoot()
	// post-run hooks are skipped when a command fails
	defer a.teardown()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) setup() error {
	cfg, err := config.Load(a.flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg

	if err := config.EnsureConfigFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create config file: %v\n", err)
	}

	logDir := cfg.LogDir
	if logDir == "" {
		logDir = cfg.Workspace
	}
	if err := logs.Initialize(logDir, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not initialize logger: %v\n", err)
	}
	return nil
}

func (a *app) teardown() error {
	var err error
	if a.ws != nil {
		err = multierr.Append(err, a.ws.Close())
		a.ws = nil
	}
	return multierr.Append(err, logs.Close())
}

// open loads the workspace, creating the directory for the fs backend.
func (a *app) open(ctx context.Context) (*workspace.Workspace, error) {
	if a.ws != nil {
		return a.ws, nil
	}
	if a.cfg.Backend == config.BackendFS {
		if err := os.MkdirAll(a.cfg.Workspace, 0755); err != nil {
			return nil, err
		}
	}
	ws, err := workspace.Open(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	a.ws = ws
	return ws, nil
}

// project opens the workspace and projects the view picked by --board and
// --view.
func (a *app) project(ctx context.Context) (*workspace.Workspace, projection.Result, error) {
	ws, err := a.open(ctx)
	if err != nil {
		return nil, projection.Result{}, err
	}
	_, view, err := ws.ResolveView(a.cfg.DefaultBoard, a.cfg.DefaultView)
	if err != nil {
		return nil, projection.Result{}, err
	}
	res, err := ws.Engine.Project(view.ID)
	if err != nil {
		return nil, projection.Result{}, err
	}
	return ws, res, nil
}

func (a *app) runTUI(ctx context.Context) error {
	ws, err := a.open(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	feed := tui.NewFeed()
	ws.Notifier.Add(feed)
	done := make(chan error, 1)
	go func() {
		done <- ws.Follow(ctx, feed)
	}()

	logs.Logger.Infow("starting app in TUI mode", "workspace", a.cfg.Workspace, "backend", a.cfg.Backend)
	model := tui.NewAppModel(ws, feed, a.cfg.DefaultBoard, a.cfg.DefaultView)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := p.Run()

	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		logs.Logger.Warnw("follow stopped", "error", err)
	}
	return runErr
}

func (a *app) initCmd() *cobra.Command {
	var sample bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the workspace and config file",
		Long: `Creates the workspace directory (or database tables) and the config file.
With --sample a "Getting started" board is added when the workspace is empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Workspace: %s (%s)\n", a.cfg.Workspace, a.cfg.Backend)
			if path, err := config.ConfigPath(); err == nil {
				fmt.Fprintf(out, "Config: %s\n", path)
			}
			if !sample || len(ws.Store.Boards()) > 0 {
				return nil
			}
			board, view, err := ws.Ops.CreateBoard(cmd.Context(), "Getting started", true)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Created board %s with view %s\n", board.Title, view.Title)
			return nil
		},
	}
	cmd.Flags().BoolVar(&sample, "sample", false, "add a sample board to an empty workspace")
	return cmd
}

// refError reports a board, view, property or option reference that does
// not resolve.
func refError(kind, ref string) error {
	return fmt.Errorf("%s %q: %w", kind, ref, models.ErrNotFound)
}
