package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cardview/internal/kanban/models"
)

// findProperty resolves a property by id or name, ignoring case.
func findProperty(board models.Board, ref string) (models.PropertyTemplate, error) {
	for _, p := range board.CardProperties {
		if p.ID == ref || strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	if strings.EqualFold(ref, "name") || strings.EqualFold(ref, "title") {
		return models.PropertyTemplate{ID: models.TitlePropertyID, Name: "Name", Type: models.PropertyTypeText}, nil
	}
	return models.PropertyTemplate{}, refError("property", ref)
}

// findOption resolves an option by id or label, ignoring case. An empty ref
// or "none" names the empty group.
func findOption(p models.PropertyTemplate, ref string) (string, error) {
	if ref == "" || strings.EqualFold(ref, "none") {
		return models.EmptyGroupID, nil
	}
	for _, o := range p.Options {
		if o.ID == ref || strings.EqualFold(o.Value, ref) {
			return o.ID, nil
		}
	}
	return "", refError("option", ref)
}

// parseValue turns command line text into a stored property value. An
// empty string clears the value.
func parseValue(p models.PropertyTemplate, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	switch p.Type {
	case models.PropertyTypeSelect, models.PropertyTypeProposalStatus, models.PropertyTypeProposalCategory:
		return findOption(p, raw)
	case models.PropertyTypeMultiSelect:
		var ids []string
		for _, part := range strings.Split(raw, ",") {
			id, err := findOption(p, strings.TrimSpace(part))
			if err != nil {
				return nil, err
			}
			if id != models.EmptyGroupID {
				ids = append(ids, id)
			}
		}
		return ids, nil
	case models.PropertyTypeNumber:
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", p.Name, raw)
		}
		return raw, nil
	case models.PropertyTypeCheckbox:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not true or false", p.Name, raw)
		}
		return strconv.FormatBool(b), nil
	case models.PropertyTypeDate:
		from, to, _ := strings.Cut(raw, "..")
		f, err := time.ParseInLocation("2006-01-02", from, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%s: want YYYY-MM-DD or YYYY-MM-DD..YYYY-MM-DD", p.Name)
		}
		if to == "" {
			return models.EncodeDate(f, nil), nil
		}
		t, err := time.ParseInLocation("2006-01-02", to, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%s: want YYYY-MM-DD or YYYY-MM-DD..YYYY-MM-DD", p.Name)
		}
		return models.EncodeDate(f, &t), nil
	}
	return raw, nil
}

// parseAssignments parses name=value pairs against a board's properties.
func parseAssignments(board models.Board, pairs []string) (map[string]any, error) {
	props := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%q: want name=value", pair)
		}
		p, err := findProperty(board, strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		v, err := parseValue(p, raw)
		if err != nil {
			return nil, err
		}
		props[p.ID] = v
	}
	return props, nil
}
