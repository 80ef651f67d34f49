package searchc

// Point is a geographic location in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Context carries the shopper-dependent values some fields need: the price group of price
// filters and sorts, the reference location of distance facets, the category being browsed.
type Context struct {
	PriceGroup      string
	Location        *Point
	CurrentCategory string
}

// Range is one bucket of a range facet. Nil bounds are open.
type Range struct {
	Key  string
	From any
	To   any
}

// Facet asks for an aggregation on top of the container defaults.
// A facet named like a default replaces it.
type Facet struct {
	Name             string
	Field            string // defaults to Name
	Type             string // "terms", "range", "histogram", ...; empty picks one from the field type
	Size             int
	Order            string // "count" or "key"
	MinDocCount      *int
	Interval         float64
	CalendarInterval string
	Format           string
	Ranges           []Range
	Fields           []string
	Origin           *Point
	Unit             string
	Metric           string
}

// Sort is a requested sort order. Direction is "asc" (default) or "desc".
type Sort struct {
	Field     string
	Direction string
}

// Query is one search before compilation.
type Query struct {
	Text string
	// Filters maps field codes or facet names to conditions: a value, a list of values,
	// or an operator object such as {"gte": 10}.
	Filters map[string]any
	Facets  []Facet
	Sort    []Sort
	From    int
	Size    int
	// TrackTotalHits is true, false or a count limit. Nil keeps the container setting.
	TrackTotalHits any
	// Rule is a serialized rule tree restricting the result set.
	Rule    map[string]any
	Context Context
}

// Compiled is a search compiled into an engine request.
type Compiled struct {
	Container    string
	Index        string
	SpellingType string
	Body         map[string]any
}

// Hit is one matching document.
type Hit struct {
	ID     string
	Index  string
	Score  float64
	Source map[string]any
	Sort   []any
}

// Bucket is one aggregation bucket. RootCount is the parent document count of nested facets.
type Bucket struct {
	Key          string
	Keys         []string
	DocCount     int64
	RootCount    int64
	Aggregations map[string]Aggregation
}

// Aggregation is one unwrapped aggregation result.
type Aggregation struct {
	Buckets      []Bucket
	DocCount     *int64
	Value        *float64
	Stats        map[string]any
	Aggregations map[string]Aggregation
}

// Result is an executed search.
type Result struct {
	Total        int64
	Exact        bool
	Took         int64
	Hits         []Hit
	Aggregations map[string]Aggregation
}

// FieldChange describes an edit of a source field. Kind is one of "field_created",
// "field_deleted", "field_type_changed", "field_updated", "option_changed", "label_changed".
type FieldChange struct {
	EntityType string
	Kind       string
	Field      string
	Catalog    string
}
