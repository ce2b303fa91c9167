package listing

import "fmt"

// OnMissing says what happens to a card when a field cannot be found.
type OnMissing string

const (
	DropRecord        OnMissing = "drop-record"
	SubstituteDefault OnMissing = "substitute-default"
)

// Field names used by the default karkidi policy.
const (
	FieldTitle   = "title"
	FieldLink    = "link"
	FieldCompany = "company"
)

// FieldPolicy describes where one field lives inside a job card and how a
// missing element is handled. Attr empty means the element text is used.
type FieldPolicy struct {
	Field     string    `yaml:"field"`
	Selector  string    `yaml:"selector"`
	Attr      string    `yaml:"attr,omitempty"`
	Required  bool      `yaml:"required"`
	OnMissing OnMissing `yaml:"on_missing"`
	Default   string    `yaml:"default,omitempty"`
}

// Policy is the per-field extraction table applied to every card.
type Policy struct {
	CardSelector string        `yaml:"card_selector"`
	Fields       []FieldPolicy `yaml:"fields"`
}

// DefaultPolicy matches the karkidi.com job-search markup.
func DefaultPolicy() Policy {
	return Policy{
		CardSelector: ".ads-details",
		Fields: []FieldPolicy{
			{Field: FieldTitle, Selector: "h4", Required: true, OnMissing: DropRecord},
			// the link is only checked for presence, never stored
			{Field: FieldLink, Selector: "a", Attr: "href", Required: true, OnMissing: DropRecord},
			{Field: FieldCompany, Selector: ".cmp-info", Required: false, OnMissing: SubstituteDefault, Default: ""},
		},
	}
}

// Validate checks the table is usable before any page is loaded.
func (p Policy) Validate() error {
	if p.CardSelector == "" {
		return fmt.Errorf("policy: card selector is required")
	}
	seen := make(map[string]bool, len(p.Fields))
	for i, f := range p.Fields {
		if f.Field == "" {
			return fmt.Errorf("policy: fields[%d].field is required", i)
		}
		if f.Selector == "" {
			return fmt.Errorf("policy: fields[%d].selector is required", i)
		}
		if seen[f.Field] {
			return fmt.Errorf("policy: field %q listed twice", f.Field)
		}
		seen[f.Field] = true
		switch f.OnMissing {
		case DropRecord, SubstituteDefault:
		default:
			return fmt.Errorf("policy: field %q has unknown on_missing %q", f.Field, f.OnMissing)
		}
		if f.Required && f.OnMissing != DropRecord {
			return fmt.Errorf("policy: required field %q must use %s", f.Field, DropRecord)
		}
	}
	if !seen[FieldTitle] {
		return fmt.Errorf("policy: a %q field is required", FieldTitle)
	}
	return nil
}

// MissingFieldError reports the field that made a card unusable.
type MissingFieldError struct {
	Field    string
	Selector string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("no element matches %q for field %s", e.Selector, e.Field)
}
