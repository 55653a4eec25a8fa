package filter

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"cardview/internal/kanban/models"
)

// searchString builds the text a card is fuzzy-matched against: its title
// followed by text values and option labels.
func searchString(cp models.CardPage, templates []models.PropertyTemplate) string {
	parts := []string{cp.DisplayTitle()}
	for _, tmpl := range templates {
		value := cp.Card.Value(tmpl.ID)
		if value.IsEmpty() {
			continue
		}
		switch {
		case tmpl.Type.HasOptions():
			for _, id := range value.Strings() {
				if o, ok := tmpl.Option(id); ok {
					parts = append(parts, o.Value)
				}
			}
		case tmpl.Type.IsText(), tmpl.Type == models.PropertyTypeNumber:
			parts = append(parts, value.String())
		}
	}
	return strings.Join(parts, " ")
}

// Search keeps the card pages that fuzzy-match query. Matches keep their
// input order so a sorted list stays sorted. An empty query matches all.
func Search(cardPages []models.CardPage, query string, templates []models.PropertyTemplate) []models.CardPage {
	query = strings.TrimSpace(query)
	if query == "" {
		return cardPages
	}

	searchStrings := make([]string, len(cardPages))
	for i, cp := range cardPages {
		searchStrings[i] = searchString(cp, templates)
	}

	matches := fuzzy.Find(query, searchStrings)
	hit := make(map[int]bool, len(matches))
	for _, match := range matches {
		hit[match.Index] = true
	}

	out := make([]models.CardPage, 0, len(matches))
	for i, cp := range cardPages {
		if hit[i] {
			out = append(out, cp)
		}
	}
	return out
}
