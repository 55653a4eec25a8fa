package models

// PropertyType identifies how a card property value is stored and compared.
type PropertyType string

const (
	PropertyTypeText        PropertyType = "text"
	PropertyTypeNumber      PropertyType = "number"
	PropertyTypeSelect      PropertyType = "select"
	PropertyTypeMultiSelect PropertyType = "multiSelect"
	PropertyTypeDate        PropertyType = "date"
	PropertyTypePerson      PropertyType = "person"
	PropertyTypeFile        PropertyType = "file"
	PropertyTypeCheckbox    PropertyType = "checkbox"
	PropertyTypeURL         PropertyType = "url"
	PropertyTypeEmail       PropertyType = "email"
	PropertyTypePhone       PropertyType = "phone"
	PropertyTypeCreatedTime PropertyType = "createdTime"
	PropertyTypeCreatedBy   PropertyType = "createdBy"
	PropertyTypeUpdatedTime PropertyType = "updatedTime"
	PropertyTypeUpdatedBy   PropertyType = "updatedBy"

	// Proposal-backed databases
	PropertyTypeProposalURL      PropertyType = "proposalUrl"
	PropertyTypeProposalStatus   PropertyType = "proposalStatus"
	PropertyTypeProposalCategory PropertyType = "proposalCategory"
)

// TitlePropertyID addresses the card's page title in filters and sorts.
const TitlePropertyID = "__title"

// PropertyTypes lists every type in the order the property menu shows them.
var PropertyTypes = []PropertyType{
	PropertyTypeText,
	PropertyTypeNumber,
	PropertyTypeEmail,
	PropertyTypePhone,
	PropertyTypeURL,
	PropertyTypeSelect,
	PropertyTypeMultiSelect,
	PropertyTypeDate,
	PropertyTypePerson,
	PropertyTypeCheckbox,
	PropertyTypeCreatedTime,
	PropertyTypeCreatedBy,
	PropertyTypeUpdatedTime,
	PropertyTypeUpdatedBy,
	PropertyTypeProposalURL,
	PropertyTypeProposalStatus,
	PropertyTypeProposalCategory,
}

// Valid reports whether t is a known property type.
func (t PropertyType) Valid() bool {
	for _, known := range PropertyTypes {
		if t == known {
			return true
		}
	}
	return t == PropertyTypeFile
}

// HasOptions reports whether values of this type are option ids.
func (t PropertyType) HasOptions() bool {
	switch t {
	case PropertyTypeSelect, PropertyTypeMultiSelect, PropertyTypeProposalStatus, PropertyTypeProposalCategory:
		return true
	}
	return false
}

// IsGroupable reports whether a board view can use this type as its columns.
func (t PropertyType) IsGroupable() bool {
	switch t {
	case PropertyTypeSelect, PropertyTypeProposalStatus, PropertyTypeProposalCategory:
		return true
	}
	return false
}

// IsText reports whether values of this type are free-form strings.
func (t PropertyType) IsText() bool {
	switch t {
	case PropertyTypeText, PropertyTypeURL, PropertyTypeEmail, PropertyTypePhone, PropertyTypeProposalURL, PropertyTypeFile:
		return true
	}
	return false
}

// IsPerson reports whether values of this type are member ids.
func (t PropertyType) IsPerson() bool {
	switch t {
	case PropertyTypePerson, PropertyTypeCreatedBy, PropertyTypeUpdatedBy:
		return true
	}
	return false
}

// IsDate reports whether values of this type resolve to a point in time.
func (t PropertyType) IsDate() bool {
	switch t {
	case PropertyTypeDate, PropertyTypeCreatedTime, PropertyTypeUpdatedTime:
		return true
	}
	return false
}

// IsReadOnly reports whether the value is derived from card metadata.
func (t PropertyType) IsReadOnly() bool {
	switch t {
	case PropertyTypeCreatedTime, PropertyTypeCreatedBy, PropertyTypeUpdatedTime, PropertyTypeUpdatedBy:
		return true
	}
	return false
}

// PropertyOption is one choice of a select-like property.
type PropertyOption struct {
	ID    string `json:"id" yaml:"id"`
	Value string `json:"value" yaml:"value"`
	Color string `json:"color" yaml:"color"`
}

// PropertyTemplate is a typed column definition on a board.
type PropertyTemplate struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	Type        PropertyType     `json:"type" yaml:"type"`
	Options     []PropertyOption `json:"options" yaml:"options"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
}

// Option returns the option with the given id.
func (p PropertyTemplate) Option(id string) (PropertyOption, bool) {
	for _, o := range p.Options {
		if o.ID == id {
			return o, true
		}
	}
	return PropertyOption{}, false
}

// OptionIndex returns the display position of an option, or -1.
func (p PropertyTemplate) OptionIndex(id string) int {
	for i, o := range p.Options {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// OptionIDs returns the option ids in display order.
func (p PropertyTemplate) OptionIDs() []string {
	ids := make([]string, len(p.Options))
	for i, o := range p.Options {
		ids[i] = o.ID
	}
	return ids
}

// Clone returns a deep copy so option slices are not shared.
func (p PropertyTemplate) Clone() PropertyTemplate {
	c := p
	c.Options = append([]PropertyOption(nil), p.Options...)
	return c
}

// FindTemplate looks up a template by id.
func FindTemplate(templates []PropertyTemplate, id string) (PropertyTemplate, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return PropertyTemplate{}, false
}
