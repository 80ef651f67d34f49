package container

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const catalogView = `
name: catalog_view
index: "{catalog}_product"
track_total_hits: 5000
fields:
  - name: sku
    type: keyword
    searchable: true
    weight: 2
    filterable: true
    sortable: true
  - name: name
    type: text
    searchable: true
    spellchecked: true
  - name: color
    type: select
    filterable: true
  - name: price
    type: price
    filterable: true
    sortable: true
  - name: variants.size
    type: nested
    nested_path: variants
    filterable: true
default_facets:
  - name: color
    size: 20
  - name: price
    type: range
    ranges:
      - to: 10
      - from: 10
default_sort:
  - field: _score
    direction: desc
scope_filters:
  - term:
      stock.status:
        value: true
relevance:
  default:
    minimum_should_match: "75%"
  catalogs:
    fr:
      minimum_should_match: "50%"
      phonetic: false
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func newTestRepo(t *testing.T, files map[string]string) (*Repo, string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		writeFile(t, dir, name, content)
	}
	return New(dir, zap.NewNop()), dir
}
