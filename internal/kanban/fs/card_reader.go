package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cardview/internal/kanban/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

type cardFrontmatter struct {
	ID           string         `yaml:"id"`
	ParentID     string         `yaml:"parentId"`
	RootID       string         `yaml:"rootId,omitempty"`
	Properties   map[string]any `yaml:"properties,omitempty"`
	ContentOrder []string       `yaml:"contentOrder,omitempty"`
	IsTemplate   bool           `yaml:"isTemplate,omitempty"`
	CreatedBy    string         `yaml:"createdBy,omitempty"`
	UpdatedBy    string         `yaml:"updatedBy,omitempty"`
	CreatedAt    time.Time      `yaml:"createdAt,omitempty"`
	UpdatedAt    time.Time      `yaml:"updatedAt,omitempty"`
}

// ReadCard reads a card file and parses its frontmatter and content.
// boardID is used when the frontmatter does not name a parent.
func ReadCard(cardPath, boardID string) (models.Card, error) {
	content, err := os.ReadFile(cardPath)
	if err != nil {
		return models.Card{}, err
	}

	fmBytes, body, ok := splitFrontmatter(content)
	var fm cardFrontmatter
	if ok {
		if err := yaml.Unmarshal(fmBytes, &fm); err != nil {
			return models.Card{}, fmt.Errorf("parse %s: %w", cardPath, err)
		}
	}
	if fm.ID == "" {
		fm.ID = strings.TrimSuffix(filepath.Base(cardPath), filepath.Ext(cardPath))
	}
	if fm.ParentID == "" {
		fm.ParentID = boardID
	}
	if fm.RootID == "" {
		fm.RootID = fm.ParentID
	}
	if fm.Properties == nil {
		fm.Properties = map[string]any{}
	}
	if fm.ContentOrder == nil {
		fm.ContentOrder = []string{}
	}

	markdown := string(body)
	card := models.Card{
		ID:           fm.ID,
		ParentID:     fm.ParentID,
		RootID:       fm.RootID,
		Title:        extractTitle(markdown),
		Content:      extractDescription(markdown),
		Preview:      extractPreview(markdown),
		CreatedBy:    fm.CreatedBy,
		UpdatedBy:    fm.UpdatedBy,
		CreatedAt:    fm.CreatedAt,
		UpdatedAt:    fm.UpdatedAt,
		Properties:   fm.Properties,
		ContentOrder: fm.ContentOrder,
		IsTemplate:   fm.IsTemplate,
	}
	return card, nil
}

// extractTitle returns the text of the first H1, or "" when there is none.
func extractTitle(markdown string) string {
	reader := text.NewReader([]byte(markdown))
	parser := goldmark.DefaultParser()
	doc := parser.Parse(reader)

	var title string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			heading := n.(*ast.Heading)
			if heading.Level == 1 {
				title = string(n.Text([]byte(markdown)))
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})

	return title
}

func extractPreview(markdown string) string {
	reader := text.NewReader([]byte(markdown))
	parser := goldmark.DefaultParser()
	doc := parser.Parse(reader)

	var preview strings.Builder
	lineCount := 0
	maxLines := 2

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if n.Kind() == ast.KindHeading {
			return ast.WalkSkipChildren, nil
		}

		if n.Kind() == ast.KindParagraph {
			if lineCount >= maxLines {
				return ast.WalkStop, nil
			}

			text := string(n.Text([]byte(markdown)))
			if text != "" {
				if preview.Len() > 0 {
					preview.WriteString(" ")
				}
				preview.WriteString(text)
				lineCount++
			}

			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})

	previewText := preview.String()
	if len(previewText) > 60 {
		previewText = previewText[:57] + "..."
	}

	return previewText
}
