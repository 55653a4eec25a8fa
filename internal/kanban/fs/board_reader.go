package fs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cardview/internal/kanban/models"

	"gopkg.in/yaml.v3"
)

// boardFrontmatter is the schema part of board.md. The title and description
// live in the markdown body.
type boardFrontmatter struct {
	ID                 string                    `yaml:"id"`
	RootID             string                    `yaml:"rootId,omitempty"`
	Icon               string                    `yaml:"icon,omitempty"`
	CardProperties     []models.PropertyTemplate `yaml:"cardProperties"`
	ColumnCalculations map[string]string         `yaml:"columnCalculations,omitempty"`
	ViewIDs            []string                  `yaml:"viewIds,omitempty"`
	SourceType         string                    `yaml:"sourceType,omitempty"`
	IsTemplate         bool                      `yaml:"isTemplate,omitempty"`
}

// ReadBoard reads a board.md file and parses it into a Board struct
func ReadBoard(boardPath string) (models.Board, error) {
	boardFilePath := filepath.Join(boardPath, "board.md")

	content, err := os.ReadFile(boardFilePath)
	if err != nil {
		return models.Board{}, err
	}

	fmBytes, body, ok := splitFrontmatter(content)
	var fm boardFrontmatter
	if ok {
		if err := yaml.Unmarshal(fmBytes, &fm); err != nil {
			return models.Board{}, fmt.Errorf("parse %s: %w", boardFilePath, err)
		}
	}
	if fm.ID == "" {
		fm.ID = filepath.Base(boardPath)
	}

	title := extractTitle(string(body))
	if title == "" {
		title = "Untitled"
	}
	board := models.Board{
		ID:                 fm.ID,
		RootID:             fm.RootID,
		Title:              title,
		Description:        extractDescription(string(body)),
		Icon:               fm.Icon,
		Path:               boardPath,
		CardProperties:     fm.CardProperties,
		ColumnCalculations: fm.ColumnCalculations,
		ViewIDs:            fm.ViewIDs,
		SourceType:         fm.SourceType,
		IsTemplate:         fm.IsTemplate,
	}
	if board.RootID == "" {
		board.RootID = board.ID
	}
	if board.CardProperties == nil {
		board.CardProperties = []models.PropertyTemplate{}
	}

	return board, nil
}

// splitFrontmatter separates optional YAML frontmatter from markdown content.
// ok is false when the content has no complete frontmatter block.
func splitFrontmatter(content []byte) (frontmatter, body []byte, ok bool) {
	lines := bytes.Split(content, []byte("\n"))
	if len(lines) == 0 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return nil, content, false
	}

	var frontmatterEnd int
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			frontmatterEnd = i
			break
		}
	}

	if frontmatterEnd == 0 {
		return nil, content, false
	}

	frontmatter = bytes.Join(lines[1:frontmatterEnd], []byte("\n"))
	body = bytes.TrimLeft(bytes.Join(lines[frontmatterEnd+1:], []byte("\n")), "\n")
	return frontmatter, body, true
}

// extractDescription returns the body after the first H1, trimmed.
func extractDescription(markdown string) string {
	lines := strings.Split(markdown, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		}
	}
	return strings.TrimSpace(markdown)
}
