package export

import (
	"bytes"
	"testing"

	"cardview/internal/kanban/models"
	"cardview/internal/projection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testResult() projection.Result {
	board := models.Board{
		ID:    "b1",
		Title: "Roadmap",
		CardProperties: []models.PropertyTemplate{
			{ID: "status", Name: "Status", Type: models.PropertyTypeSelect, Options: []models.PropertyOption{{ID: "todo", Value: "To Do"}, {ID: "done", Value: "Done"}}},
			{ID: "est", Name: "Estimate", Type: models.PropertyTypeNumber},
			{ID: "owner", Name: "Owner", Type: models.PropertyTypePerson},
		},
		ColumnCalculations: map[string]string{
			models.TitlePropertyID: "count",
			"est":                  "sum",
			"status":               "sum", // not valid for selects, left blank
		},
	}
	view := models.BoardView{ID: "v1", Title: "Q3 / Plan", ViewType: models.ViewTypeTable, VisiblePropertyIDs: []string{"status", "est", "gone"}}
	cards := []models.CardPage{
		{Card: models.Card{ID: "c1", Title: "stale", Properties: map[string]any{"status": "done", "est": 3, "owner": "u1"}}, Page: models.PageMeta{ID: "c1", Title: "Ship API"}},
		{Card: models.Card{ID: "c2", Title: "Write docs", Properties: map[string]any{"est": "2"}}},
	}
	return projection.Result{BoardID: "b1", Board: board, View: view, CardPages: cards}
}

func TestBuildTable(t *testing.T) {
	table := BuildTable(testResult(), nil)

	assert.Equal(t, "Q3 / Plan", table.Title)
	assert.Equal(t, []string{"Name", "Status", "Estimate"}, table.Header)
	assert.Equal(t, [][]string{
		{"Ship API", "Done", "3"},
		{"Write docs", "", "2"},
	}, table.Rows)
	assert.Equal(t, []string{"2", "", "5"}, table.Footer)
}

func TestColumns_AllWhenNoneVisible(t *testing.T) {
	res := testResult()
	res.View.VisiblePropertyIDs = nil
	assert.Len(t, Columns(res.Board, res.View), 3)
}

func TestWriteCSV(t *testing.T) {
	res := testResult()
	res.Board.ColumnCalculations = nil

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, BuildTable(res, nil)))
	assert.Equal(t, "Name,Status,Estimate\nShip API,Done,3\nWrite docs,,2\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, BuildTable(testResult(), nil)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Q3 - Plan"}, f.GetSheetList())
	rows, err := f.GetRows("Q3 - Plan")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Name", "Status", "Estimate"}, rows[0])
	assert.Equal(t, []string{"Ship API", "Done", "3"}, rows[1])
	assert.Equal(t, "5", rows[3][2])
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Cards", sheetName(""))
	assert.Equal(t, "a-b", sheetName("a:b"))
	assert.Len(t, []rune(sheetName("an extremely long view title that overflows")), maxSheetName)
}
