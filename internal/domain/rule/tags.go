package rule

// GlobalTag tags every cached rule compilation.
const GlobalTag = "rule_engine"

// CatalogTag tags the cached compilations of one catalog.
func CatalogTag(catalog string) string { return GlobalTag + "_" + catalog }

// Tags returns the cache tags of a compilation for catalog.
func Tags(catalog string) []string {
	return []string{GlobalTag, CatalogTag(catalog)}
}

// ChangeKind is the kind of a source field change.
type ChangeKind string

// Field change kinds.
const (
	FieldCreated     ChangeKind = "field_created"
	FieldDeleted     ChangeKind = "field_deleted"
	FieldTypeChanged ChangeKind = "field_type_changed"
	FieldUpdated     ChangeKind = "field_updated"
	OptionChanged    ChangeKind = "option_changed"
	LabelChanged     ChangeKind = "label_changed"
)

// IsStructural reports whether the change alters what fields exist or their types.
func (k ChangeKind) IsStructural() bool {
	switch k {
	case FieldCreated, FieldDeleted, FieldTypeChanged:
		return true
	}
	return false
}

// FieldChange describes an edit of a source field, as emitted by the catalog back office.
type FieldChange struct {
	EntityType string
	Kind       ChangeKind
	Field      string
	Catalog    string // set when the change only concerns one catalog
}

// ProductEntity is the only entity type rules target.
const ProductEntity = "product"

// InvalidationTags returns the cache tags a field change must invalidate.
func InvalidationTags(c FieldChange) []string {
	if c.EntityType != ProductEntity {
		return nil
	}
	if c.Kind.IsStructural() {
		return []string{GlobalTag}
	}
	if (c.Kind == OptionChanged || c.Kind == LabelChanged) && c.Catalog != "" {
		return []string{CatalogTag(c.Catalog)}
	}
	return []string{GlobalTag}
}
