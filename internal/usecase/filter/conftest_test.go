package filter

import (
	"testing"

	"github.com/kailas-cloud/searchc/internal/domain/geo"
	"github.com/kailas-cloud/searchc/internal/domain/mapping"
)

func mustField(t *testing.T, name string, typ mapping.Type, opts ...mapping.Option) mapping.Field {
	t.Helper()
	f, err := mapping.NewField(name, typ, opts...)
	if err != nil {
		t.Fatalf("NewField(%q): %v", name, err)
	}
	return f
}

// catalogMapping mirrors a small product index.
func catalogMapping(t *testing.T) mapping.Mapping {
	t.Helper()
	m, err := mapping.New(
		mustField(t, "sku", mapping.Keyword, mapping.Filterable()),
		mustField(t, "name", mapping.Text, mapping.Searchable(2), mapping.Filterable()),
		mustField(t, "color", mapping.Select, mapping.Filterable()),
		mustField(t, "qty", mapping.Integer, mapping.Filterable()),
		mustField(t, "price", mapping.Price, mapping.Filterable()),
		mustField(t, "category", mapping.Category, mapping.Filterable()),
		mustField(t, "stock", mapping.Stock, mapping.Filterable()),
		mustField(t, "created_at", mapping.Date, mapping.Filterable(), mapping.WithDateFormat("yyyy-MM-dd")),
		mustField(t, "store", mapping.GeoPoint, mapping.Filterable()),
		mustField(t, "variants.size", mapping.Keyword, mapping.WithNestedPath("variants")),
		mustField(t, "variants.color", mapping.Keyword, mapping.WithNestedPath("variants")),
		mustField(t, "options.code", mapping.Keyword, mapping.WithNestedPath("options")),
	)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func paris(t *testing.T) *geo.Point {
	t.Helper()
	p, err := geo.NewPoint(48.8566, 2.3522)
	if err != nil {
		t.Fatal(err)
	}
	return &p
}
