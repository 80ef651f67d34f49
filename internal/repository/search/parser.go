package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/searchc/internal/domain/search/request"
	"github.com/kailas-cloud/searchc/internal/domain/search/response"
)

type rawHit struct {
	ID     string         `json:"_id"`
	Index  string         `json:"_index"`
	Score  *float64       `json:"_score"`
	Source map[string]any `json:"_source"`
	Sort   []any          `json:"sort"`
}

type rawResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total json.RawMessage `json:"total"`
		Hits  []rawHit        `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations"`
}

// Parse converts a raw engine response. A {value, relation} total carries its own exactness;
// policy decides it for a bare integer or a total without relation.
func Parse(raw []byte, policy request.TrackTotalHits) (response.Response, error) {
	var r rawResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return response.Response{}, fmt.Errorf("decode search response: %w", err)
	}

	total, exact, err := parseTotal(r.Hits.Total, policy)
	if err != nil {
		return response.Response{}, err
	}

	docs := make([]response.Document, len(r.Hits.Hits))
	for i, h := range r.Hits.Hits {
		docs[i] = response.Document{ID: h.ID, Index: h.Index, Source: h.Source, Sort: h.Sort}
		if h.Score != nil {
			docs[i].Score = *h.Score
		}
	}

	aggs := make(map[string]response.Aggregation, len(r.Aggregations))
	for name, body := range r.Aggregations {
		a, err := parseAggregation(name, body)
		if err != nil {
			return response.Response{}, fmt.Errorf("aggregation %q: %w", name, err)
		}
		aggs[name] = a
	}
	return response.New(docs, total, exact, r.Took, aggs), nil
}

func parseTotal(raw json.RawMessage, policy request.TrackTotalHits) (int64, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false, nil
	}
	if raw[0] == '{' {
		var t struct {
			Value    int64  `json:"value"`
			Relation string `json:"relation"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return 0, false, fmt.Errorf("decode total: %w", err)
		}
		if t.Relation == "" {
			return t.Value, policy.IsExact(int(t.Value)), nil
		}
		return t.Value, t.Relation == "eq", nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false, fmt.Errorf("decode total: %w", err)
	}
	return n, policy.IsExact(int(n)), nil
}

// Keys of an aggregation body that never hold sub-aggregations.
var reservedKeys = map[string]struct{}{
	"buckets": {}, "doc_count": {}, "value": {}, "value_as_string": {}, "meta": {},
	"doc_count_error_upper_bound": {}, "sum_other_doc_count": {}, "bg_count": {},
	"key": {}, "key_as_string": {}, "from": {}, "from_as_string": {}, "to": {}, "to_as_string": {},
	"keys": {},
}

// parseAggregation unwraps filter and nested wrappers (each names its child after the
// aggregation) and reads the innermost body.
func parseAggregation(name string, raw json.RawMessage) (response.Aggregation, error) {
	body, err := object(raw)
	if err != nil {
		return response.Aggregation{}, err
	}
	for {
		inner, ok := body[name]
		if !ok || !isObject(inner) {
			break
		}
		if body, err = object(inner); err != nil {
			return response.Aggregation{}, err
		}
	}

	agg := response.Aggregation{Name: name}
	if b, ok := body["buckets"]; ok {
		if agg.Buckets, err = parseBuckets(b); err != nil {
			return response.Aggregation{}, err
		}
	}
	if dc, ok := body["doc_count"]; ok && agg.Buckets == nil {
		var n int64
		if err := json.Unmarshal(dc, &n); err != nil {
			return response.Aggregation{}, fmt.Errorf("doc_count: %w", err)
		}
		agg.DocCount = &n
	}
	if v, ok := body["value"]; ok {
		var f *float64
		if err := json.Unmarshal(v, &f); err != nil {
			return response.Aggregation{}, fmt.Errorf("value: %w", err)
		}
		agg.Value = f
	}
	if agg.Children, err = children(body); err != nil {
		return response.Aggregation{}, err
	}
	if agg.Buckets == nil && agg.DocCount == nil && agg.Value == nil {
		agg.Stats = stats(body)
	}
	return agg, nil
}

// parseBuckets reads a bucket array or a keyed bucket object, keeping the engine order.
func parseBuckets(raw json.RawMessage) ([]response.Bucket, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("buckets: %w", err)
		}
		out := make([]response.Bucket, 0, len(items))
		for _, it := range items {
			b, err := parseBucket("", it)
			if err != nil {
				return nil, err
			}
			out = append(out, b)
		}
		return out, nil
	}

	keys, err := orderedKeys(raw)
	if err != nil {
		return nil, fmt.Errorf("buckets: %w", err)
	}
	byKey, err := object(raw)
	if err != nil {
		return nil, fmt.Errorf("buckets: %w", err)
	}
	out := make([]response.Bucket, 0, len(keys))
	for _, k := range keys {
		b, err := parseBucket(k, byKey[k])
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func parseBucket(key string, raw json.RawMessage) (response.Bucket, error) {
	body, err := object(raw)
	if err != nil {
		return response.Bucket{}, fmt.Errorf("bucket: %w", err)
	}
	b := response.Bucket{Key: key}
	if b.Key == "" {
		b.Key, b.Keys = bucketKey(body)
	}
	if dc, ok := body["doc_count"]; ok {
		if err := json.Unmarshal(dc, &b.DocCount); err != nil {
			return response.Bucket{}, fmt.Errorf("bucket %q doc_count: %w", b.Key, err)
		}
	}
	if b.Children, err = children(body); err != nil {
		return response.Bucket{}, fmt.Errorf("bucket %q: %w", b.Key, err)
	}
	return b, nil
}

// bucketKey returns the display key of a bucket and, for composite keys, its parts.
func bucketKey(body map[string]json.RawMessage) (string, []string) {
	var asString string
	if raw, ok := body["key_as_string"]; ok {
		_ = json.Unmarshal(raw, &asString)
	}
	raw, ok := body["key"]
	if !ok {
		return asString, nil
	}
	var parts []any
	if err := json.Unmarshal(raw, &parts); err == nil {
		keys := make([]string, len(parts))
		for i, p := range parts {
			keys[i] = scalarString(p)
		}
		if asString == "" {
			asString = strings.Join(keys, "|")
		}
		return asString, keys
	}
	if asString != "" {
		return asString, nil
	}
	var v any
	_ = json.Unmarshal(raw, &v)
	return scalarString(v), nil
}

func children(body map[string]json.RawMessage) (map[string]response.Aggregation, error) {
	var out map[string]response.Aggregation
	for k, v := range body {
		if _, reserved := reservedKeys[k]; reserved || !isObject(v) {
			continue
		}
		child, err := parseAggregation(k, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		if out == nil {
			out = map[string]response.Aggregation{}
		}
		out[k] = child
	}
	return out, nil
}

func stats(body map[string]json.RawMessage) map[string]any {
	out := map[string]any{}
	for k, v := range body {
		if isObject(v) {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err == nil {
			out[k] = val
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func object(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("expected object: %w", err)
	}
	return m, nil
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// orderedKeys returns the top-level keys of a JSON object in document order.
func orderedKeys(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
