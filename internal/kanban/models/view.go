package models

// ViewType selects how a view is presented.
type ViewType string

const (
	ViewTypeBoard    ViewType = "board"
	ViewTypeTable    ViewType = "table"
	ViewTypeGallery  ViewType = "gallery"
	ViewTypeCalendar ViewType = "calendar"
)

// Valid reports whether t is a known view type.
func (t ViewType) Valid() bool {
	switch t {
	case ViewTypeBoard, ViewTypeTable, ViewTypeGallery, ViewTypeCalendar:
		return true
	}
	return false
}

// IsGrouped reports whether this view type renders card groups.
func (t ViewType) IsGrouped() bool {
	return t == ViewTypeBoard || t == ViewTypeTable
}

const (
	SourceTypeBoardPage  = "board_page"
	SourceTypeGoogleForm = "google_form"
	SourceTypeProposals  = "proposals"
)

// SortOption is one key of a view's sort.
type SortOption struct {
	PropertyID string `json:"propertyId" yaml:"propertyId"`
	Reversed   bool   `json:"reversed" yaml:"reversed"`
}

// SourceData describes an external card source such as a Google form.
type SourceData struct {
	BoardID  string `json:"boardId,omitempty" yaml:"boardId,omitempty"`
	FormID   string `json:"formId,omitempty" yaml:"formId,omitempty"`
	FormURL  string `json:"formUrl,omitempty" yaml:"formUrl,omitempty"`
	FormName string `json:"formName,omitempty" yaml:"formName,omitempty"`
}

// BoardView is a named, persisted projection configuration over one board.
type BoardView struct {
	ID                    string         `json:"id" yaml:"id"`
	ParentID              string         `json:"parentId" yaml:"parentId"`
	RootID                string         `json:"rootId" yaml:"rootId"`
	Title                 string         `json:"title" yaml:"title"`
	ViewType              ViewType       `json:"viewType" yaml:"viewType"`
	CardOrder             []string       `json:"cardOrder" yaml:"cardOrder"`
	Filter                FilterGroup    `json:"filter" yaml:"filter"`
	SortOptions           []SortOption   `json:"sortOptions" yaml:"sortOptions"`
	GroupByID             string         `json:"groupById,omitempty" yaml:"groupById,omitempty"`
	VisibleOptionIDs      []string       `json:"visibleOptionIds" yaml:"visibleOptionIds"`
	HiddenOptionIDs       []string       `json:"hiddenOptionIds" yaml:"hiddenOptionIds"`
	DateDisplayPropertyID string         `json:"dateDisplayPropertyId,omitempty" yaml:"dateDisplayPropertyId,omitempty"`
	VisiblePropertyIDs    []string       `json:"visiblePropertyIds" yaml:"visiblePropertyIds"`
	ColumnWidths          map[string]int `json:"columnWidths,omitempty" yaml:"columnWidths,omitempty"`
	LinkedSourceID        string         `json:"linkedSourceId,omitempty" yaml:"linkedSourceId,omitempty"`
	SourceType            string         `json:"sourceType,omitempty" yaml:"sourceType,omitempty"`
	SourceData            *SourceData    `json:"sourceData,omitempty" yaml:"sourceData,omitempty"`
}

// ActiveBoardID returns the board whose cards the view shows: a linked source
// first, then a google form's board, then the board the view belongs to.
func (v *BoardView) ActiveBoardID() string {
	if v.LinkedSourceID != "" {
		return v.LinkedSourceID
	}
	if v.SourceType == SourceTypeGoogleForm {
		if v.SourceData != nil {
			return v.SourceData.BoardID
		}
		return ""
	}
	return v.ParentID
}

// Clone returns a deep copy of the view.
func (v BoardView) Clone() BoardView {
	c := v
	c.CardOrder = append([]string(nil), v.CardOrder...)
	c.SortOptions = append([]SortOption(nil), v.SortOptions...)
	c.VisibleOptionIDs = append([]string(nil), v.VisibleOptionIDs...)
	c.HiddenOptionIDs = append([]string(nil), v.HiddenOptionIDs...)
	c.VisiblePropertyIDs = append([]string(nil), v.VisiblePropertyIDs...)
	c.Filter = v.Filter.Clone()
	if v.ColumnWidths != nil {
		c.ColumnWidths = make(map[string]int, len(v.ColumnWidths))
		for k, w := range v.ColumnWidths {
			c.ColumnWidths[k] = w
		}
	}
	if v.SourceData != nil {
		sd := *v.SourceData
		c.SourceData = &sd
	}
	return c
}
