package rule

import (
	"testing"

	"github.com/kailas-cloud/searchc/internal/domain/container"
	"github.com/kailas-cloud/searchc/internal/domain/mapping"
	"github.com/kailas-cloud/searchc/internal/domain/relevance"
)

func mustField(t *testing.T, name string, typ mapping.Type, opts ...mapping.Option) mapping.Field {
	t.Helper()
	f, err := mapping.NewField(name, typ, opts...)
	if err != nil {
		t.Fatalf("NewField(%q): %v", name, err)
	}
	return f
}

func productContainer(t *testing.T) container.Configuration {
	t.Helper()
	m, err := mapping.New(
		mustField(t, "sku", mapping.Keyword, mapping.Filterable()),
		mustField(t, "name", mapping.Text, mapping.Searchable(1), mapping.Filterable()),
		mustField(t, "color", mapping.Select, mapping.Filterable()),
		mustField(t, "qty", mapping.Integer, mapping.Filterable()),
		mustField(t, "price", mapping.Price, mapping.Filterable()),
		mustField(t, "stock", mapping.Stock, mapping.Filterable()),
		mustField(t, "is_new", mapping.Boolean, mapping.Filterable()),
		mustField(t, "created_at", mapping.Date, mapping.Filterable(), mapping.WithDateFormat("yyyy-MM-dd")),
		mustField(t, "store", mapping.GeoPoint, mapping.Filterable()),
		mustField(t, "variants.size", mapping.Keyword, mapping.WithNestedPath("variants")),
	)
	if err != nil {
		t.Fatal(err)
	}
	c, err := container.New(container.Params{
		Name:      "product_catalog",
		Index:     "gally_{catalog}_product",
		Mapping:   m,
		Relevance: relevance.Default(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}
