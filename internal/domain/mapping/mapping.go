package mapping

import (
	"fmt"
	"sort"
	"strconv"
)

// Mapping is the read-only set of fields of one entity type.
type Mapping struct {
	fields []Field
	byName map[string]int
}

// New validates and creates a Mapping. Field names must be unique.
func New(fields ...Field) (Mapping, error) {
	m := Mapping{
		fields: make([]Field, 0, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.name == "" {
			return Mapping{}, fmt.Errorf("mapping contains a field without name")
		}
		if _, dup := m.byName[f.name]; dup {
			return Mapping{}, fmt.Errorf("duplicate field %q", f.name)
		}
		m.byName[f.name] = len(m.fields)
		m.fields = append(m.fields, f)
	}
	return m, nil
}

// MustNew is New that panics on error. For static mappings and tests.
func MustNew(fields ...Field) Mapping {
	m, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return m
}

// Field looks up a field by name.
func (m Mapping) Field(name string) (Field, bool) {
	i, ok := m.byName[name]
	if !ok {
		return Field{}, false
	}
	return m.fields[i], true
}

// Fields returns the fields in declaration order.
func (m Mapping) Fields() []Field {
	out := make([]Field, len(m.fields))
	copy(out, m.fields)
	return out
}

// Len returns the number of fields.
func (m Mapping) Len() int { return len(m.fields) }

// SearchableFields returns searchable fields sorted by name.
func (m Mapping) SearchableFields() []Field {
	var out []Field
	for _, f := range m.fields {
		if f.searchable {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// WeightedSearchProperties returns the catch-all search property for analyzer followed by
// "property^weight" for every searchable field whose weight differs from the default.
func (m Mapping) WeightedSearchProperties(analyzer string) []string {
	base := DefaultSearchField
	if analyzer != "" && analyzer != AnalyzerStandard {
		base += "." + analyzer
	}
	props := []string{base}
	for _, f := range m.SearchableFields() {
		if f.weight == DefaultWeight {
			continue
		}
		props = append(props, f.SearchProperty(analyzer)+"^"+strconv.FormatFloat(f.weight, 'f', -1, 64))
	}
	return props
}
