package sortorder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchc/internal/domain"
	"github.com/kailas-cloud/searchc/internal/domain/container"
	"github.com/kailas-cloud/searchc/internal/domain/geo"
	"github.com/kailas-cloud/searchc/internal/domain/mapping"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
	"github.com/kailas-cloud/searchc/internal/domain/search/sort"
)

func testMapping(t *testing.T) mapping.Mapping {
	t.Helper()
	field := func(name string, typ mapping.Type, opts ...mapping.Option) mapping.Field {
		f, err := mapping.NewField(name, typ, opts...)
		require.NoError(t, err)
		return f
	}
	m, err := mapping.New(
		field("name", mapping.Text, mapping.Sortable()),
		field("qty", mapping.Integer, mapping.Sortable()),
		field("sku", mapping.Keyword),
		field("price", mapping.Price, mapping.Sortable()),
		field("category", mapping.Category, mapping.Sortable()),
		field("store", mapping.GeoPoint, mapping.Sortable()),
		field("variants.size", mapping.Keyword, mapping.WithNestedPath("variants"), mapping.Sortable()),
	)
	require.NoError(t, err)
	return m
}

func TestBuild_MultiFieldRejected(t *testing.T) {
	_, err := NewBuilder().Build(testMapping(t), []sort.Spec{{Field: "name"}, {Field: "qty"}}, nil, container.Context{})
	assert.True(t, errors.Is(err, domain.ErrMultiFieldSortNotSupported))
}

func TestBuild_Defaults(t *testing.T) {
	b := NewBuilder()
	m := testMapping(t)

	got, err := b.Build(m, nil, nil, container.Context{})
	require.NoError(t, err)
	assert.Equal(t, []sort.Order{sort.NewStandard(sort.ScoreField, sort.Desc)}, got)

	got, err = b.Build(m, nil, []sort.Spec{{Field: "qty", Direction: sort.Desc}, {Field: sort.ScoreField}}, container.Context{})
	require.NoError(t, err)
	assert.Equal(t, []sort.Order{
		sort.NewStandard("qty", sort.Desc),
		sort.NewStandard(sort.ScoreField, sort.Desc),
	}, got)
}

func TestBuild_Standard(t *testing.T) {
	got, err := NewBuilder().Build(testMapping(t), []sort.Spec{{Field: "name"}}, nil, container.Context{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"name.sortable":{"order":"asc","missing":"_last"}}`, jsonOf(t, got[0]))
}

func TestBuild_Price(t *testing.T) {
	got, err := NewBuilder().Build(testMapping(t), []sort.Spec{{Field: "price", Direction: sort.Desc}}, nil,
		container.Context{PriceGroup: "2"})
	require.NoError(t, err)
	assert.Equal(t, []sort.Order{sort.Nested{
		Name:   "price.price",
		Dir:    sort.Desc,
		Path:   "price",
		Filter: query.Term{Field: "price.group_id", Value: "2"},
		Mode:   sort.ModeMax,
	}}, got)
}

func TestBuild_Category(t *testing.T) {
	b := NewBuilder()
	m := testMapping(t)

	_, err := b.Build(m, []sort.Spec{{Field: "category"}}, nil, container.Context{})
	assert.True(t, errors.Is(err, domain.ErrMissingContext))

	got, err := b.Build(m, []sort.Spec{{Field: "category"}}, nil, container.Context{CurrentCategory: "12"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"category.position":{"order":"asc","missing":"_last","mode":"min",
		"nested":{"path":"category","filter":{"term":{"category.id":{"value":"12","boost":1}}}}}}`, jsonOf(t, got[0]))
}

func TestBuild_Distance(t *testing.T) {
	b := NewBuilder()
	m := testMapping(t)

	_, err := b.Build(m, []sort.Spec{{Field: "store"}}, nil, container.Context{})
	assert.True(t, errors.Is(err, domain.ErrMissingContext))

	p, err := geo.NewPoint(1, 2)
	require.NoError(t, err)
	got, err := b.Build(m, []sort.Spec{{Field: "store"}}, nil, container.Context{ReferenceLocation: &p})
	require.NoError(t, err)
	assert.Equal(t, sort.Distance{Name: "store", Location: p, Mode: sort.ModeMin, Dir: sort.Asc}, got[0])
}

func TestBuild_Nested(t *testing.T) {
	got, err := NewBuilder().Build(testMapping(t), []sort.Spec{{Field: "variants.size", Direction: sort.Desc}}, nil,
		container.Context{})
	require.NoError(t, err)
	assert.Equal(t, sort.Nested{Name: "variants.size.sortable", Dir: sort.Desc, Path: "variants", Mode: sort.ModeMax}, got[0])
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec sort.Spec
		want error
	}{
		{"unknown field", sort.Spec{Field: "weight"}, domain.ErrFieldNotFound},
		{"not sortable", sort.Spec{Field: "sku"}, domain.ErrFieldNotSortable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder().Build(testMapping(t), []sort.Spec{tt.spec}, nil, container.Context{})
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := NewBuilder().Build(testMapping(t), []sort.Spec{{Field: "qty", Direction: "up"}}, nil, container.Context{})
	assert.Error(t, err)
}
