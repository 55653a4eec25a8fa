package fs

import (
	"bytes"
	"os"
	"path/filepath"

	"cardview/internal/kanban/models"

	"gopkg.in/yaml.v3"
)

// WriteBoard writes a Board struct to board.md, creating the board directory
// and its cards/ and views/ subdirectories.
func WriteBoard(board models.Board) error {
	for _, dir := range []string{board.Path, filepath.Join(board.Path, "cards"), filepath.Join(board.Path, "views")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	fm := boardFrontmatter{
		ID:                 board.ID,
		RootID:             board.RootID,
		Icon:               board.Icon,
		CardProperties:     board.CardProperties,
		ColumnCalculations: board.ColumnCalculations,
		ViewIDs:            board.ViewIDs,
		SourceType:         board.SourceType,
		IsTemplate:         board.IsTemplate,
	}

	var buf bytes.Buffer
	if err := writeFrontmatter(&buf, fm); err != nil {
		return err
	}

	buf.WriteString("# ")
	buf.WriteString(board.Title)
	buf.WriteString("\n")
	if board.Description != "" {
		buf.WriteString("\n")
		buf.WriteString(board.Description)
		buf.WriteString("\n")
	}

	return writeFileAtomic(filepath.Join(board.Path, "board.md"), buf.Bytes())
}

func writeFrontmatter(buf *bytes.Buffer, v any) error {
	yamlBytes, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	buf.WriteString("---\n")
	buf.Write(yamlBytes)
	buf.WriteString("---\n\n")
	return nil
}

// writeFileAtomic writes through a temp file so a watcher never sees a
// half-written file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
