package projection

import (
	"cardview/internal/cardsort"
	"cardview/internal/filter"
	"cardview/internal/grouping"
	"cardview/internal/kanban/models"
)

// Source is the read side of the card store a projection draws from.
type Source interface {
	Board(id string) (models.Board, bool)
	CardsForBoard(boardID string) []models.Card
	Page(id string) (models.PageMeta, bool)
	Members() []models.Member
}

// Result is everything a renderer needs for one view.
type Result struct {
	BoardID string
	Board   models.Board
	View    models.BoardView

	// CardPages is the filtered and sorted flat list.
	CardPages []models.CardPage
	// Templates are the board's card templates, excluded from CardPages.
	Templates []models.Card

	GroupByProperty     *models.PropertyTemplate
	DateDisplayProperty *models.PropertyTemplate
	Visible             []models.BoardGroup
	Hidden              []models.BoardGroup

	// ReadOnly is set when cards cannot be added by hand.
	ReadOnly bool
}

// Cards returns the flat card list.
func (r Result) Cards() []models.Card {
	return models.Cards(r.CardPages)
}

// IsGrouped reports whether the view renders as groups.
func (r Result) IsGrouped() bool {
	return r.GroupByProperty != nil && r.View.ViewType.IsGrouped()
}

// ResolveGroupBy returns the property a view groups by. Board views need a
// select-like property and fall back to the first select when the configured
// one is missing or is not one. Other views keep any configured option
// property, multiSelect included.
func ResolveGroupBy(board *models.Board, view models.BoardView) *models.PropertyTemplate {
	p := board.Property(view.GroupByID)
	if view.ViewType == models.ViewTypeBoard {
		if p != nil && p.Type.IsGroupable() {
			return p
		}
		return board.FirstPropertyOfType(models.PropertyTypeSelect)
	}
	if p != nil && p.Type.HasOptions() {
		return p
	}
	return nil
}

// ResolveDateDisplay returns the date property a calendar view lays cards
// out by, falling back to the first date property.
func ResolveDateDisplay(board *models.Board, view models.BoardView) *models.PropertyTemplate {
	if p := board.Property(view.DateDisplayPropertyID); p != nil {
		return p
	}
	if view.ViewType == models.ViewTypeCalendar {
		return board.FirstPropertyOfType(models.PropertyTypeDate)
	}
	return nil
}

// Project derives the render-ready structure of view from src. The active
// board must exist in src; missing pages, soft-deleted pages and dangling
// property references are tolerated.
func Project(src Source, view models.BoardView, ev filter.Evaluator) (Result, error) {
	boardID := view.ActiveBoardID()
	board, ok := src.Board(boardID)
	if !ok {
		return Result{}, models.ErrMissingContext
	}

	res := Result{
		BoardID:   boardID,
		Board:     board,
		View:      view,
		ReadOnly:  board.IsReadOnlySource() || view.SourceType == models.SourceTypeProposals,
		CardPages: []models.CardPage{},
		Visible:   []models.BoardGroup{},
		Hidden:    []models.BoardGroup{},
	}

	var cardPages []models.CardPage
	for _, card := range src.CardsForBoard(boardID) {
		if card.IsTemplate {
			res.Templates = append(res.Templates, card)
			continue
		}
		page, ok := src.Page(card.ID)
		if !ok || !page.IsLive() {
			continue
		}
		cardPages = append(cardPages, models.CardPage{Card: card, Page: page})
	}

	cardPages = ev.FilterCardPages(cardPages, view.Filter, board.CardProperties)
	res.CardPages = cardsort.SortCards(cardPages, board, view, src.Members())

	res.DateDisplayProperty = ResolveDateDisplay(&res.Board, view)
	if view.ViewType.IsGrouped() {
		res.GroupByProperty = ResolveGroupBy(&res.Board, view)
		groups := grouping.GetVisibleAndHiddenGroups(res.CardPages, view.VisibleOptionIDs, view.HiddenOptionIDs, res.GroupByProperty)
		res.Visible, res.Hidden = groups.Visible, groups.Hidden
	}
	return res, nil
}
