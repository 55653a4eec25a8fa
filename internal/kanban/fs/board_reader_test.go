package fs

import (
	"os"
	"path/filepath"
	"testing"

	"cardview/internal/kanban/models"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestReadBoard_Frontmatter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dev-work")
	writeTestFile(t, filepath.Join(dir, "board.md"), `---
id: b1
icon: "🛠"
cardProperties:
  - id: status
    name: Status
    type: select
    options:
      - {id: todo, value: To Do, color: propColorGray}
      - {id: done, value: Done, color: propColorGreen}
  - id: est
    name: Estimate
    type: number
viewIds: [v1]
---

# Dev Work

Tracks the platform team.
`)

	board, err := ReadBoard(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if board.ID != "b1" {
		t.Errorf("expected id 'b1', got %q", board.ID)
	}
	if board.RootID != "b1" {
		t.Errorf("expected root id to default to board id, got %q", board.RootID)
	}
	if board.Title != "Dev Work" {
		t.Errorf("expected title 'Dev Work', got %q", board.Title)
	}
	if board.Description != "Tracks the platform team." {
		t.Errorf("unexpected description %q", board.Description)
	}
	if len(board.CardProperties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(board.CardProperties))
	}
	status := board.CardProperties[0]
	if status.Type != models.PropertyTypeSelect || len(status.Options) != 2 {
		t.Errorf("unexpected status property %+v", status)
	}
	if status.Options[1].Value != "Done" {
		t.Errorf("expected second option 'Done', got %q", status.Options[1].Value)
	}
}

func TestReadBoard_NoFrontmatter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scratch")
	writeTestFile(t, filepath.Join(dir, "board.md"), "just some notes\n")

	board, err := ReadBoard(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if board.ID != "scratch" {
		t.Errorf("expected id from directory name, got %q", board.ID)
	}
	if board.Title != "Untitled" {
		t.Errorf("expected 'Untitled', got %q", board.Title)
	}
	if board.CardProperties == nil {
		t.Error("expected empty, non-nil properties")
	}
}

func TestWriteBoard_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "home-reno")
	in := models.Board{
		ID:     "b2",
		RootID: "b2",
		Title:  "Home Reno",
		Path:   dir,
		CardProperties: []models.PropertyTemplate{
			{ID: "room", Name: "Room", Type: models.PropertyTypeMultiSelect, Options: []models.PropertyOption{{ID: "k", Value: "Kitchen"}}},
		},
		ViewIDs: []string{"v1", "v2"},
	}
	if err := WriteBoard(in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fileExistsAt(filepath.Join(dir, "cards")) || !fileExistsAt(filepath.Join(dir, "views")) {
		t.Error("expected cards/ and views/ to be created")
	}

	out, err := ReadBoard(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Title != in.Title || out.ID != in.ID {
		t.Errorf("expected %q/%q, got %q/%q", in.ID, in.Title, out.ID, out.Title)
	}
	if len(out.ViewIDs) != 2 || out.ViewIDs[1] != "v2" {
		t.Errorf("unexpected view ids %v", out.ViewIDs)
	}
	if out.CardProperties[0].Options[0].Value != "Kitchen" {
		t.Errorf("unexpected options %+v", out.CardProperties[0].Options)
	}
}

func TestSplitFrontmatter_Unterminated(t *testing.T) {
	content := []byte("---\nid: x\n# Title\n")
	_, body, ok := splitFrontmatter(content)
	if ok {
		t.Fatal("expected no frontmatter")
	}
	if string(body) != string(content) {
		t.Errorf("expected body to be the whole file, got %q", body)
	}
}
