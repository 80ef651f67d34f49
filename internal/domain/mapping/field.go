package mapping

import (
	"fmt"
	"strings"
)

// Type is the type of a mapped field. The set is closed: every switch over Type is exhaustive.
type Type string

// Field type constants.
const (
	Keyword   Type = "keyword"
	Text      Type = "text"
	Integer   Type = "integer"
	Float     Type = "float"
	Boolean   Type = "boolean"
	Date      Type = "date"
	GeoPoint  Type = "geo_point"
	Nested    Type = "nested"
	Price     Type = "price"
	Category  Type = "category"
	Stock     Type = "stock"
	Select    Type = "select"
	Reference Type = "reference"
	Location  Type = "location"
)

// Types lists every field type in declaration order.
var Types = []Type{
	Keyword, Text, Integer, Float, Boolean, Date, GeoPoint,
	Nested, Price, Category, Stock, Select, Reference, Location,
}

// Valid reports whether t is a known field type.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Analyzer names used for search sub-properties.
const (
	AnalyzerStandard   = "standard"
	AnalyzerWhitespace = "whitespace"
	AnalyzerShingle    = "shingle"
	AnalyzerPhonetic   = "phonetic"
)

// Property names of the catch-all fields every indexed document carries.
const (
	DefaultSearchField   = "search"
	DefaultSpellingField = "spelling"
)

// DefaultWeight is the search weight of a field without explicit boost.
const DefaultWeight = 1.0

// DefaultDateFormat is the format of date fields that declare none, the engine's own default.
const DefaultDateFormat = "strict_date_optional_time||epoch_millis"

// Field is an immutable description of one mapped field.
type Field struct {
	name         string
	fieldType    Type
	nestedPath   string
	searchable   bool
	filterable   bool
	sortable     bool
	spellchecked bool
	weight       float64
	dateFormat   string
}

// Option customizes a Field at construction.
type Option func(*Field)

// WithNestedPath places the field under a nested document path.
func WithNestedPath(path string) Option {
	return func(f *Field) { f.nestedPath = path }
}

// Searchable marks the field as fulltext searchable with the given weight.
func Searchable(weight float64) Option {
	return func(f *Field) {
		f.searchable = true
		f.weight = weight
	}
}

// Filterable marks the field as usable in filters and facets.
func Filterable() Option {
	return func(f *Field) { f.filterable = true }
}

// Sortable marks the field as usable in sort orders.
func Sortable() Option {
	return func(f *Field) { f.sortable = true }
}

// Spellchecked marks the field as feeding the spelling property.
func Spellchecked() Option {
	return func(f *Field) { f.spellchecked = true }
}

// WithDateFormat sets the engine date format used in date ranges.
func WithDateFormat(format string) Option {
	return func(f *Field) { f.dateFormat = format }
}

// NewField validates and creates a Field.
func NewField(name string, t Type, opts ...Option) (Field, error) {
	f := Field{name: name, fieldType: t, weight: DefaultWeight}
	for _, opt := range opts {
		opt(&f)
	}

	if name == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if !t.Valid() {
		return Field{}, fmt.Errorf("invalid field type %q for %q", t, name)
	}
	if f.weight <= 0 {
		return Field{}, fmt.Errorf("field %q: weight must be positive, got %v", name, f.weight)
	}

	switch t {
	case Price, Category:
		// Both live in a sub-document named after the field.
		if f.nestedPath == "" {
			f.nestedPath = name
		}
		if f.nestedPath != name {
			return Field{}, fmt.Errorf("field %q: %s fields are nested at their own name, got %q", name, t, f.nestedPath)
		}
	case Date:
		if f.dateFormat == "" {
			f.dateFormat = DefaultDateFormat
		}
	case Nested:
		if f.nestedPath == "" {
			return Field{}, fmt.Errorf("field %q: nested field requires a nested path", name)
		}
	}

	if f.nestedPath != "" && f.nestedPath != name && !strings.HasPrefix(name, f.nestedPath+".") {
		return Field{}, fmt.Errorf("field %q is not under nested path %q", name, f.nestedPath)
	}
	return f, nil
}

// Name returns the field code.
func (f Field) Name() string { return f.name }

// Type returns the field type.
func (f Field) Type() Type { return f.fieldType }

// NestedPath returns the nested document path, empty when the field is not nested.
func (f Field) NestedPath() string { return f.nestedPath }

// IsNested reports whether the field lives in a nested sub-document.
func (f Field) IsNested() bool { return f.nestedPath != "" }

// IsSearchable reports whether the field takes part in fulltext search.
func (f Field) IsSearchable() bool { return f.searchable }

// IsFilterable reports whether the field can be filtered or aggregated.
func (f Field) IsFilterable() bool { return f.filterable }

// IsSortable reports whether the field can be sorted on.
func (f Field) IsSortable() bool { return f.sortable }

// IsSpellchecked reports whether the field feeds the spelling property.
func (f Field) IsSpellchecked() bool { return f.spellchecked }

// Weight returns the search boost weight.
func (f Field) Weight() float64 { return f.weight }

// DateFormat returns the engine date format of a date field.
func (f Field) DateFormat() string { return f.dateFormat }

// IsNumeric reports whether range operators compile to a numeric range.
func (f Field) IsNumeric() bool {
	switch f.fieldType {
	case Integer, Float, Price:
		return true
	case Keyword, Text, Boolean, Date, GeoPoint, Nested, Category, Stock, Select, Reference, Location:
		return false
	}
	return false
}

// IsDate reports whether the field holds dates.
func (f Field) IsDate() bool { return f.fieldType == Date }

// IsGeo reports whether the field holds geo points.
func (f Field) IsGeo() bool { return f.fieldType == GeoPoint || f.fieldType == Location }

// FilterProperty returns the engine property that filters and facets target.
func (f Field) FilterProperty() string {
	switch f.fieldType {
	case Select:
		return f.name + ".value"
	case Stock:
		return f.name + ".status"
	case Price:
		return f.name + ".price"
	case Category:
		return f.name + ".id"
	case Keyword, Text, Integer, Float, Boolean, Date, GeoPoint, Nested, Reference, Location:
		return f.name
	}
	return f.name
}

// SortProperty returns the engine property sort orders target.
func (f Field) SortProperty() string {
	switch f.fieldType {
	case Text, Keyword, Reference, Select:
		return f.name + ".sortable"
	case Price:
		return f.name + ".price"
	case Category:
		return f.name + ".position"
	case Integer, Float, Boolean, Date, GeoPoint, Nested, Stock, Location:
		return f.name
	}
	return f.name
}

// SearchProperty returns the sub-property analyzed with analyzer.
func (f Field) SearchProperty(analyzer string) string {
	if analyzer == "" || analyzer == AnalyzerStandard {
		return f.name
	}
	return f.name + "." + analyzer
}
