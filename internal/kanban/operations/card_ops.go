package operations

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"cardview/internal/kanban/models"
)

// SetCardProperty sets one property value on a card. A nil or empty value
// clears it. Read-only properties cannot be set.
func (s *Service) SetCardProperty(ctx context.Context, cardID, propertyID string, value any) error {
	card, ok := s.store().Card(cardID)
	if !ok {
		return fmt.Errorf("card %s: %w", cardID, models.ErrNotFound)
	}
	board, err := s.board(card.ParentID)
	if err != nil {
		return err
	}
	p := board.Property(propertyID)
	if p == nil {
		return fmt.Errorf("property %s: %w", propertyID, models.ErrNotFound)
	}
	if p.Type.IsReadOnly() {
		return fmt.Errorf("property %s is read-only", p.Name)
	}
	if p.Type.HasOptions() {
		for _, id := range models.ValueOf(value).Strings() {
			if _, ok := p.Option(id); !ok {
				return fmt.Errorf("option %s of %s: %w", id, p.Name, models.ErrNotFound)
			}
		}
	}

	updated := card.Clone()
	if value == nil || models.ValueOf(value).IsEmpty() {
		delete(updated.Properties, propertyID)
	} else {
		updated.Properties[propertyID] = value
	}
	return s.Engine.UpdateCard(ctx, updated)
}

// RenameCard changes a card's title.
func (s *Service) RenameCard(ctx context.Context, cardID, title string) error {
	card, ok := s.store().Card(cardID)
	if !ok {
		return fmt.Errorf("card %s: %w", cardID, models.ErrNotFound)
	}
	updated := card.Clone()
	updated.Title = title
	return s.Engine.UpdateCard(ctx, updated)
}

// EditCard opens a card file in the user's editor
func EditCard(cardPath string) error {
	cmd := EditorCommand(cardPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// EditorCommand builds the $EDITOR command for a card file, falling back to
// vim.
func EditorCommand(cardPath string) *exec.Cmd {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}
	return exec.Command(editor, cardPath)
}

// OpenURL opens a URL in the default browser
func OpenURL(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform")
	}

	return cmd.Start()
}
