package tune

import (
	"sort"
	"strings"
)

// FieldsPreset selects a subset of a report's fields. Presets combine as a union:
// FieldsDefault|FieldsRelated returns default fields plus all related fields.
// The zero value selects every field, like FieldsAll.
type FieldsPreset int

// Field presets.
const (
	// FieldsEndpoint returns the report's own (non-related) fields.
	FieldsEndpoint FieldsPreset = 1 << iota
	// FieldsDefault returns fields the API marks as default.
	FieldsDefault
	// FieldsRelated returns fields of related entities, named "entity.field".
	FieldsRelated
	// FieldsMinimal returns default fields that are not related.
	FieldsMinimal
	// FieldsRecommended returns the report's curated field list without calling the API.
	FieldsRecommended
	// FieldsAll returns every field the report defines.
	FieldsAll
)

// FieldDefinition describes one field returned by a report's define action.
type FieldDefinition struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Default     bool   `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// Related reports whether the field belongs to a related entity.
func (d FieldDefinition) Related() bool {
	return strings.Contains(d.Name, ".")
}

func (p FieldsPreset) resolve() FieldsPreset {
	if p == 0 {
		return FieldsAll
	}
	return p
}

func (p FieldsPreset) has(flag FieldsPreset) bool {
	return p.resolve()&flag != 0
}

// needsDefinitions reports whether the preset can only be resolved from the API.
func (p FieldsPreset) needsDefinitions() bool {
	return p.resolve() != FieldsRecommended
}

// match reports whether a field definition belongs to the preset.
func (p FieldsPreset) match(d FieldDefinition) bool {
	if p.has(FieldsAll) {
		return true
	}
	related := d.Related()
	switch {
	case p.has(FieldsEndpoint) && !related:
		return true
	case p.has(FieldsRelated) && related:
		return true
	case p.has(FieldsDefault) && d.Default:
		return true
	case p.has(FieldsMinimal) && d.Default && !related:
		return true
	}
	return false
}

// selectFields applies the preset to definitions and merges the recommended list
// when requested. The result is sorted and free of duplicates.
func selectFields(preset FieldsPreset, defs []FieldDefinition, recommended []string) []string {
	set := make(map[string]struct{})
	if preset.needsDefinitions() {
		for _, d := range defs {
			if d.Name != "" && preset.match(d) {
				set[d.Name] = struct{}{}
			}
		}
	}
	if preset.has(FieldsRecommended) {
		for _, name := range recommended {
			set[name] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
