// Package export writes a projected view as a table, to CSV or XLSX.
package export

import (
	"cardview/internal/calculations"
	"cardview/internal/kanban/format"
	"cardview/internal/kanban/models"
	"cardview/internal/logs"
	"cardview/internal/projection"
)

// Table is a rendered view: one row per card, in projection order.
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
	// Footer holds column calculations; nil when the board has none.
	Footer []string
}

// Columns returns the properties a view shows as columns: its visible
// properties, or every property when none are chosen.
func Columns(board models.Board, view models.BoardView) []models.PropertyTemplate {
	if len(view.VisiblePropertyIDs) == 0 {
		return append([]models.PropertyTemplate(nil), board.CardProperties...)
	}
	var cols []models.PropertyTemplate
	for _, id := range view.VisiblePropertyIDs {
		if p := board.Property(id); p != nil {
			cols = append(cols, *p)
		}
	}
	return cols
}

// BuildTable renders a projection. The first column is always the card title.
func BuildTable(res projection.Result, members []models.Member) Table {
	cols := Columns(res.Board, res.View)

	t := Table{Title: res.View.Title, Header: make([]string, 0, len(cols)+1)}
	t.Header = append(t.Header, "Name")
	for _, p := range cols {
		t.Header = append(t.Header, p.Name)
	}

	for _, cp := range res.CardPages {
		row := make([]string, 0, len(cols)+1)
		row = append(row, cp.DisplayTitle())
		for _, p := range cols {
			row = append(row, format.Value(cp.Card, p, members))
		}
		t.Rows = append(t.Rows, row)
	}

	if len(res.Board.ColumnCalculations) == 0 {
		return t
	}
	cards := res.Cards()
	t.Footer = make([]string, len(cols)+1)
	title := models.PropertyTemplate{ID: models.TitlePropertyID, Name: "Name", Type: models.PropertyTypeText}
	for i, p := range append([]models.PropertyTemplate{title}, cols...) {
		calc, ok := res.Board.ColumnCalculations[p.ID]
		if !ok {
			continue
		}
		v, err := calculations.Calculate(calc, cards, p)
		if err != nil {
			logs.Logger.Warnw("skipping column calculation", "property", p.ID, "calculation", calc, "error", err)
			continue
		}
		t.Footer[i] = v
	}
	return t
}
