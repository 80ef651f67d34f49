// Package container describes what a search request runs against: the index, its mapping and
// the defaults of one request type in one catalog.
package container

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/searchc/internal/domain/geo"
	"github.com/kailas-cloud/searchc/internal/domain/mapping"
	"github.com/kailas-cloud/searchc/internal/domain/relevance"
	"github.com/kailas-cloud/searchc/internal/domain/search/facet"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
	"github.com/kailas-cloud/searchc/internal/domain/search/request"
	"github.com/kailas-cloud/searchc/internal/domain/search/sort"
)

// DefaultEntityType is the entity type of catalog product containers.
const DefaultEntityType = "product"

// CatalogPlaceholder is replaced by the catalog code in index name patterns.
const CatalogPlaceholder = "{catalog}"

// Params holds the parts of a Configuration.
type Params struct {
	Name           string
	EntityType     string
	Catalog        string
	Index          string
	Mapping        mapping.Mapping
	Relevance      relevance.Config
	DefaultFacets  []facet.Spec
	DefaultSort    []sort.Spec
	ScopeFilters   []query.Node
	TrackTotalHits *request.TrackTotalHits
}

// Configuration is an immutable container: one request type of one catalog.
type Configuration struct {
	name           string
	entityType     string
	catalog        string
	index          string
	mapping        mapping.Mapping
	relevance      relevance.Config
	defaultFacets  []facet.Spec
	defaultSort    []sort.Spec
	scopeFilters   []query.Node
	trackTotalHits *request.TrackTotalHits
}

// New validates and creates a Configuration.
func New(p Params) (Configuration, error) {
	if p.Name == "" {
		return Configuration{}, fmt.Errorf("container name is required")
	}
	if p.Index == "" {
		return Configuration{}, fmt.Errorf("container %q: index is required", p.Name)
	}
	if p.Mapping.Len() == 0 {
		return Configuration{}, fmt.Errorf("container %q: mapping has no fields", p.Name)
	}
	if err := p.Relevance.Validate(); err != nil {
		return Configuration{}, fmt.Errorf("container %q: %w", p.Name, err)
	}
	for _, f := range p.DefaultFacets {
		if err := f.Validate(); err != nil {
			return Configuration{}, fmt.Errorf("container %q: %w", p.Name, err)
		}
	}
	entity := p.EntityType
	if entity == "" {
		entity = DefaultEntityType
	}
	return Configuration{
		name:           p.Name,
		entityType:     entity,
		catalog:        p.Catalog,
		index:          p.Index,
		mapping:        p.Mapping,
		relevance:      p.Relevance,
		defaultFacets:  p.DefaultFacets,
		defaultSort:    p.DefaultSort,
		scopeFilters:   p.ScopeFilters,
		trackTotalHits: p.TrackTotalHits,
	}, nil
}

// ForCatalog returns a copy bound to catalog, with the index pattern resolved and the
// relevance of the catalog scope.
func (c Configuration) ForCatalog(catalog string, rel relevance.Config) Configuration {
	c.catalog = catalog
	c.index = strings.ReplaceAll(c.index, CatalogPlaceholder, catalog)
	c.relevance = rel
	return c
}

// Name returns the request type the container serves.
func (c *Configuration) Name() string { return c.name }

// EntityType returns the indexed entity type.
func (c *Configuration) EntityType() string { return c.entityType }

// Catalog returns the catalog code, empty when not bound to a catalog.
func (c *Configuration) Catalog() string { return c.catalog }

// Index returns the index name, possibly an unresolved pattern.
func (c *Configuration) Index() string { return c.index }

// Mapping returns the index mapping.
func (c *Configuration) Mapping() mapping.Mapping { return c.mapping }

// Relevance returns the fulltext tuning.
func (c *Configuration) Relevance() relevance.Config { return c.relevance }

// DefaultFacets returns the facets computed unless a request overrides them.
func (c *Configuration) DefaultFacets() []facet.Spec { return c.defaultFacets }

// DefaultSort returns the sort applied when a request sets none.
func (c *Configuration) DefaultSort() []sort.Spec { return c.defaultSort }

// ScopeFilters returns the filters every request of the container carries.
func (c *Configuration) ScopeFilters() []query.Node { return c.scopeFilters }

// TrackTotalHits returns the container's hit counting policy, nil when unset.
func (c *Configuration) TrackTotalHits() *request.TrackTotalHits { return c.trackTotalHits }

// DefaultPriceGroup is the customer group of anonymous visitors.
const DefaultPriceGroup = "0"

// Context is the per-request state compilers read: who is searching, where, and in which
// category.
type Context struct {
	PriceGroup        string
	ReferenceLocation *geo.Point
	CurrentCategory   string
}

// PriceGroupOrDefault returns the price group, DefaultPriceGroup when unset.
func (c Context) PriceGroupOrDefault() string {
	if c.PriceGroup == "" {
		return DefaultPriceGroup
	}
	return c.PriceGroup
}
