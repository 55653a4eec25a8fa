package fs

import (
	"bytes"

	"cardview/internal/kanban/models"
)

// WriteCard writes a Card to a markdown file with frontmatter
func WriteCard(card models.Card, path string) error {
	var buf bytes.Buffer

	fm := cardFrontmatter{
		ID:           card.ID,
		ParentID:     card.ParentID,
		RootID:       card.RootID,
		Properties:   card.Properties,
		ContentOrder: card.ContentOrder,
		IsTemplate:   card.IsTemplate,
		CreatedBy:    card.CreatedBy,
		UpdatedBy:    card.UpdatedBy,
		CreatedAt:    card.CreatedAt.UTC(),
		UpdatedAt:    card.UpdatedAt.UTC(),
	}
	if err := writeFrontmatter(&buf, fm); err != nil {
		return err
	}

	if card.Title != "" {
		buf.WriteString("# ")
		buf.WriteString(card.Title)
		buf.WriteString("\n")
	}
	if card.Content != "" {
		if card.Title != "" {
			buf.WriteString("\n")
		}
		buf.WriteString(card.Content)
		buf.WriteString("\n")
	}

	return writeFileAtomic(path, buf.Bytes())
}
