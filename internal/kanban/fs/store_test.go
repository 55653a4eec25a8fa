package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cardview/internal/kanban/models"
)

func seedWorkspace(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	s := NewStore(root)
	ctx := context.Background()

	board := models.Board{
		ID:     "b1",
		RootID: "b1",
		Title:  "Dev Work",
		CardProperties: []models.PropertyTemplate{
			{ID: "status", Name: "Status", Type: models.PropertyTypeSelect, Options: []models.PropertyOption{{ID: "todo", Value: "To Do"}}},
		},
		ViewIDs: []string{"v1"},
	}
	if err := s.SaveBoard(ctx, board); err != nil {
		t.Fatalf("save board: %v", err)
	}
	view := models.BoardView{ID: "v1", ParentID: "b1", RootID: "b1", Title: "Board", ViewType: models.ViewTypeBoard}
	if err := s.SaveView(ctx, view); err != nil {
		t.Fatalf("save view: %v", err)
	}
	if err := s.SaveMembers(ctx, []models.Member{{ID: "u1", Username: "ada"}}); err != nil {
		t.Fatalf("save members: %v", err)
	}
	return s, root
}

func TestStore_SaveAndLoad(t *testing.T) {
	s, root := seedWorkspace(t)
	ctx := context.Background()

	if !fileExistsAt(filepath.Join(root, "boards", "dev-work", "board.md")) {
		t.Fatal("expected board under boards/dev-work")
	}

	first := models.Card{ID: "c1", ParentID: "b1", Title: "First", Properties: map[string]any{"status": "todo"}, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	second := models.Card{ID: "c2", ParentID: "b1", Title: "Second", CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	for _, c := range []models.Card{second, first} {
		if _, err := s.InsertBlock(ctx, c); err != nil {
			t.Fatalf("insert %s: %v", c.ID, err)
		}
	}

	reloaded := NewStore(root)
	snap, err := reloaded.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Boards) != 1 || snap.Boards[0].Title != "Dev Work" {
		t.Fatalf("unexpected boards %+v", snap.Boards)
	}
	if len(snap.Views) != 1 || snap.Views[0].ID != "v1" {
		t.Fatalf("unexpected views %+v", snap.Views)
	}
	if len(snap.Cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(snap.Cards))
	}
	// ordered by creation time
	if snap.Cards[0].ID != "c1" || snap.Cards[1].ID != "c2" {
		t.Errorf("expected c1, c2 got %s, %s", snap.Cards[0].ID, snap.Cards[1].ID)
	}
	if len(snap.Pages) != 2 || snap.Pages[0].Title != "First" {
		t.Errorf("unexpected pages %+v", snap.Pages)
	}
	if len(snap.Members) != 1 || snap.Members[0].Username != "ada" {
		t.Errorf("unexpected members %+v", snap.Members)
	}
}

func TestStore_DeleteBlock(t *testing.T) {
	s, root := seedWorkspace(t)
	ctx := context.Background()

	card := models.Card{ID: "c1", ParentID: "b1", Title: "Doomed"}
	if _, err := s.InsertBlock(ctx, card); err != nil {
		t.Fatalf("insert: %v", err)
	}
	path := filepath.Join(root, "boards", "dev-work", "cards", "c1.md")
	if !fileExistsAt(path) {
		t.Fatal("expected card file")
	}

	if err := s.DeleteBlock(ctx, card); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if fileExistsAt(path) {
		t.Error("expected card file to be removed")
	}
	// second delete is a no-op
	if err := s.DeleteBlock(ctx, card); err != nil {
		t.Errorf("expected no error deleting twice, got %v", err)
	}
}

func TestStore_ChangeViewCardOrder(t *testing.T) {
	s, root := seedWorkspace(t)
	ctx := context.Background()
	view := models.BoardView{ID: "v1", ParentID: "b1", Title: "Board", ViewType: models.ViewTypeBoard}

	if err := s.ChangeViewCardOrder(ctx, view, []string{"c2", "c1"}); err != nil {
		t.Fatalf("change order: %v", err)
	}

	views, err := ReadViews(filepath.Join(root, "boards", "dev-work"), "b1")
	if err != nil {
		t.Fatalf("read views: %v", err)
	}
	if len(views) != 1 || len(views[0].CardOrder) != 2 || views[0].CardOrder[0] != "c2" {
		t.Errorf("unexpected views %+v", views)
	}
}

func TestStore_UnknownBoard(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.InsertBlock(context.Background(), models.Card{ID: "c1", ParentID: "nope"})
	if err == nil {
		t.Fatal("expected error for unknown board")
	}
}

func TestStore_SkipsUnreadableCard(t *testing.T) {
	s, root := seedWorkspace(t)
	bad := filepath.Join(root, "boards", "dev-work", "cards", "bad.md")
	if err := os.WriteFile(bad, []byte("---\nproperties: [unclosed\n---\n# Bad\n"), 0644); err != nil {
		t.Fatal(err)
	}
	snap, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snap.Cards) != 0 {
		t.Errorf("expected unreadable card to be skipped, got %d cards", len(snap.Cards))
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Dev Work":         "dev-work",
		"  Q3 / Roadmap! ": "q3-roadmap",
		"":                 "",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
