package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"cardview/internal/export"
	"cardview/internal/kanban/models"

	"github.com/spf13/cobra"
)

func (a *app) boardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "List boards and their views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			boards := ws.Store.Boards()
			out := cmd.OutOrStdout()
			if len(boards) == 0 {
				fmt.Fprintln(out, `No boards found. Create one with "cardview new-board <title>".`)
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, b := range boards {
				kind := ""
				if b.IsTemplate {
					kind = "template"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", b.ID, b.Title, kind)
				for _, v := range ws.Store.ViewsForBoard(b.ID) {
					fmt.Fprintf(tw, "  %s\t%s\t%s\n", v.ID, v.Title, v.ViewType)
				}
			}
			return tw.Flush()
		},
	}
}

func (a *app) newBoardCmd() *cobra.Command {
	var bare bool
	cmd := &cobra.Command{
		Use:   "new-board <title>",
		Short: "Create a board with a board view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			board, view, err := ws.Ops.CreateBoard(cmd.Context(), args[0], !bare)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created board %s (%s), view %s\n", board.Title, board.ID, view.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&bare, "bare", false, "skip the default Status property")
	return cmd
}

func (a *app) newViewCmd() *cobra.Command {
	var viewType string
	cmd := &cobra.Command{
		Use:   "new-view <title>",
		Short: "Add a view to the board picked by --board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			t := models.ViewType(viewType)
			if !t.Valid() {
				return fmt.Errorf("unknown view type %q", viewType)
			}
			board, _, err := ws.ResolveView(a.cfg.DefaultBoard, "")
			if err != nil {
				return err
			}
			view, err := ws.Ops.CreateView(cmd.Context(), board.ID, t, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s view %s (%s)\n", view.ViewType, view.Title, view.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&viewType, "type", "t", string(models.ViewTypeBoard), "board, table, gallery or calendar")
	return cmd
}

// groupCmd builds hide and show, which differ only in the operation.
func (a *app) groupCmd(use, short string, hide bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <option>",
		Short: short,
		Long:  short + `. The option is an id or label of the view's group-by property; "none" is the empty group.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, res, err := a.project(cmd.Context())
			if err != nil {
				return err
			}
			if res.GroupByProperty == nil {
				return fmt.Errorf("view %s is not grouped", res.View.Title)
			}
			id, err := findOption(*res.GroupByProperty, args[0])
			if err != nil {
				return err
			}
			if hide {
				return ws.Ops.HideGroup(cmd.Context(), res.View.ID, id)
			}
			return ws.Ops.UnhideGroup(cmd.Context(), res.View.ID, id)
		},
	}
}

func (a *app) hideCmd() *cobra.Command {
	return a.groupCmd("hide", "Hide a group of the view", true)
}

func (a *app) showCmd() *cobra.Command {
	return a.groupCmd("show", "Show a hidden group of the view", false)
}

func (a *app) groupByCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "group-by <property>",
		Short: "Group the view by a select, multi-select or person property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, res, err := a.project(cmd.Context())
			if err != nil {
				return err
			}
			p, err := findProperty(res.Board, args[0])
			if err != nil {
				return err
			}
			return ws.Ops.ChangeGroupBy(cmd.Context(), res.View.ID, p.ID)
		},
	}
}

func (a *app) sortCmd() *cobra.Command {
	var clear bool
	cmd := &cobra.Command{
		Use:   "sort [property[:desc]]...",
		Short: "Set the view's sort keys",
		Long: `Replaces the view's sort keys. Each key is a property id or name, with
":desc" to reverse it. --clear goes back to manual card order.

Example:
  cardview sort -b Roadmap Priority:desc Name`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clear == (len(args) > 0) {
				return fmt.Errorf("give sort keys or --clear")
			}
			ws, res, err := a.project(cmd.Context())
			if err != nil {
				return err
			}
			var sorts []models.SortOption
			for _, arg := range args {
				ref, dir, _ := strings.Cut(arg, ":")
				p, err := findProperty(res.Board, ref)
				if err != nil {
					return err
				}
				sorts = append(sorts, models.SortOption{PropertyID: p.ID, Reversed: strings.EqualFold(dir, "desc")})
			}
			return ws.Ops.ChangeSortOptions(cmd.Context(), res.View.ID, sorts)
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "remove all sort keys")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var output, formatName string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a view as CSV or XLSX",
		Long: `Writes the cards of a view, in view order, one row per card. The format
follows --format, or the extension of --output. Without --output CSV goes
to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, res, err := a.project(cmd.Context())
			if err != nil {
				return err
			}
			if formatName == "" {
				formatName = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
			}
			if formatName == "" {
				formatName = "csv"
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			t := export.BuildTable(res, ws.Store.Members())
			switch formatName {
			case "csv":
				return export.WriteCSV(out, t)
			case "xlsx":
				if output == "" {
					return fmt.Errorf("xlsx needs --output")
				}
				return export.WriteXLSX(out, t)
			default:
				return fmt.Errorf("unknown export format %q", formatName)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write")
	cmd.Flags().StringVarP(&formatName, "format", "f", "", "csv or xlsx")
	return cmd
}
