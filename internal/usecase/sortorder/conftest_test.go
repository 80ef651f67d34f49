package sortorder

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchc/internal/domain/search/sort"
)

func jsonOf(t *testing.T, o sort.Order) string {
	t.Helper()
	data, err := json.Marshal(o.Source())
	require.NoError(t, err)
	return string(data)
}
