package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"cardview/internal/filter"
	"cardview/internal/kanban/format"
	"cardview/internal/kanban/models"
	"cardview/internal/projection"

	"github.com/spf13/cobra"
)

func (a *app) cardsCmd() *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:     "cards",
		Aliases: []string{"ls"},
		Short:   "List the cards of a view, by group",
		Long: `Projects the view picked by --board and --view and prints its cards in
view order, under their group headings for grouped views.

Examples:
  cardview cards -b Roadmap
  cardview cards -b Roadmap --view "By owner" --search launch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, res, err := a.project(cmd.Context())
			if err != nil {
				return err
			}
			printCards(cmd.OutOrStdout(), res, search, ws.Store.Members())
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "fuzzy search over card titles and values")
	return cmd
}

func printCards(out io.Writer, res projection.Result, search string, members []models.Member) {
	fmt.Fprintf(out, "%s / %s (%s)\n", res.Board.Title, res.View.Title, res.View.ViewType)

	templates := res.Board.CardProperties
	printList := func(cps []models.CardPage) {
		cps = filter.Search(cps, search, templates)
		if len(cps) == 0 {
			fmt.Fprintln(out, "  (no cards)")
			return
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, cp := range cps {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", cp.Card.ID, cp.DisplayTitle(), cardSummary(cp.Card, res, members))
		}
		tw.Flush()
	}

	if !res.IsGrouped() {
		printList(res.CardPages)
		return
	}
	for _, g := range res.Visible {
		fmt.Fprintf(out, "\n%s\n", g.Option.Value)
		printList(g.CardPages)
	}
	if len(res.Hidden) > 0 {
		names := make([]string, 0, len(res.Hidden))
		for _, g := range res.Hidden {
			names = append(names, fmt.Sprintf("%s (%d)", g.Option.Value, len(g.CardPages)))
		}
		fmt.Fprintf(out, "\nhidden: %s\n", strings.Join(names, ", "))
	}
}

// cardSummary lists a card's non-empty values, leaving out the group-by
// property its heading already shows.
func cardSummary(card models.Card, res projection.Result, members []models.Member) string {
	var parts []string
	for _, p := range res.Board.CardProperties {
		if res.GroupByProperty != nil && p.ID == res.GroupByProperty.ID && res.IsGrouped() {
			continue
		}
		if v := format.Value(card, p, members); v != "" {
			parts = append(parts, p.Name+": "+v)
		}
	}
	return strings.Join(parts, "  ")
}

func (a *app) addCmd() *cobra.Command {
	var (
		group    string
		props    []string
		first    bool
		template bool
	)
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a card to a view",
		Long: `Adds a card through a view. The card takes the values the view's filter
implies, the --group option of the view's group-by property, then --prop
values, so it shows up in the view it was added to.

Examples:
  cardview add -b Roadmap "Write launch post" --group "In progress"
  cardview add -b Roadmap "Fix login" --prop Priority=High --prop Due=2024-06-01`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, res, err := a.project(cmd.Context())
			if err != nil {
				return err
			}

			opts := projection.AddCardOptions{InsertFirst: first, IsTemplate: template}
			if len(args) > 0 {
				opts.Title = args[0]
			}
			if cmd.Flags().Changed("group") {
				if res.GroupByProperty == nil {
					return fmt.Errorf("view %s is not grouped", res.View.Title)
				}
				id, err := findOption(*res.GroupByProperty, group)
				if err != nil {
					return err
				}
				opts.GroupOptionID = &id
			}
			if opts.Properties, err = parseAssignments(res.Board, props); err != nil {
				return err
			}

			card, err := ws.Engine.AddCard(cmd.Context(), res.View.ID, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", card.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&group, "group", "g", "", `group option id or label ("none" for the empty group)`)
	cmd.Flags().StringArrayVarP(&props, "prop", "p", nil, "property value as name=value (repeatable)")
	cmd.Flags().BoolVar(&first, "first", false, "insert at the top of the view's card order")
	cmd.Flags().BoolVar(&template, "template", false, "add as a card template")
	return cmd
}

func (a *app) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <card-id> <property> [value]",
		Short: "Set or clear a card property",
		Long: `Sets a property of a card by property id or name. Select values take an
option id or label, multi-select values a comma separated list, dates
YYYY-MM-DD or YYYY-MM-DD..YYYY-MM-DD. Leaving out the value clears it.
The property "name" renames the card.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			card, ok := ws.Store.Card(args[0])
			if !ok {
				return refError("card", args[0])
			}
			board, ok := ws.Store.Board(card.ParentID)
			if !ok {
				return refError("board", card.ParentID)
			}
			p, err := findProperty(board, args[1])
			if err != nil {
				return err
			}
			raw := ""
			if len(args) == 3 {
				raw = args[2]
			}
			if p.ID == models.TitlePropertyID {
				return ws.Ops.RenameCard(cmd.Context(), card.ID, raw)
			}
			v, err := parseValue(p, raw)
			if err != nil {
				return err
			}
			return ws.Ops.SetCardProperty(cmd.Context(), card.ID, p.ID, v)
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <card-id>...",
		Aliases: []string{"rm"},
		Short:   "Delete cards",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			found := 0
			for _, id := range args {
				if _, ok := ws.Store.Card(id); ok {
					found++
				} else {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: no card %s\n", id)
				}
			}
			if err := ws.Engine.DeleteCards(cmd.Context(), args); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d card(s)\n", found)
			return nil
		},
	}
}
