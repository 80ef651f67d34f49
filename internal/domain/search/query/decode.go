package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/searchc/internal/domain/geo"
)

// Decode rebuilds a node from its wire JSON. It understands the node shapes the rule engine
// produces; "null" decodes to a nil node. Shapes that several nodes share (bool for Not and
// Missing, constant_score for Filtered) decode to their Bool/Filtered form.
func Decode(data []byte) (Node, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var src map[string]any
	if err := json.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("decode query: %w", err)
	}
	return FromSource(src)
}

// FromSource rebuilds a node from a decoded wire map.
func FromSource(src map[string]any) (Node, error) {
	if len(src) != 1 {
		return nil, fmt.Errorf("query object must have exactly one key, got %d", len(src))
	}
	for key, raw := range src {
		body, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: expected object, got %T", key, raw)
		}
		switch key {
		case "match_all":
			return MatchAll{Meta: metaOf(body)}, nil
		case "bool":
			return decodeBool(body)
		case "constant_score":
			filter, err := decodeChild(body["filter"])
			if err != nil {
				return nil, fmt.Errorf("constant_score: %w", err)
			}
			return Filtered{Meta: metaOf(body), Filter: filter}, nil
		case "nested":
			return decodeNested(body)
		case "terms":
			return decodeTerms(body)
		case "term":
			return decodeTerm(body)
		case "range":
			return decodeRange(body)
		case "match":
			return decodeMatch(body)
		case "exists":
			field, _ := body["field"].(string)
			return Exists{Meta: metaOf(body), Field: field}, nil
		case "geo_distance":
			return decodeGeoDistance(body)
		default:
			return nil, fmt.Errorf("unsupported query type %q", key)
		}
	}
	return nil, nil
}

func metaOf(body map[string]any) Meta {
	var m Meta
	if b, ok := body["boost"].(float64); ok && b != DefaultBoost {
		m.Boost = b
	}
	if n, ok := body["_name"].(string); ok {
		m.Name = n
	}
	return m
}

func isMetaKey(k string) bool { return k == "boost" || k == "_name" }

// fieldEntry returns the single non-meta key of body.
func fieldEntry(body map[string]any) (string, any, error) {
	var (
		field string
		value any
		found bool
	)
	for k, v := range body {
		if isMetaKey(k) {
			continue
		}
		if found {
			return "", nil, fmt.Errorf("expected one field, found %q and %q", field, k)
		}
		field, value, found = k, v, true
	}
	if !found {
		return "", nil, fmt.Errorf("no field found")
	}
	return field, value, nil
}

func decodeChild(raw any) (Node, error) {
	if raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", raw)
	}
	return FromSource(m)
}

func decodeList(raw any) ([]Node, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		// Single-object clause form.
		n, err := decodeChild(raw)
		if err != nil {
			return nil, err
		}
		return []Node{n}, nil
	}
	out := make([]Node, 0, len(items))
	for _, it := range items {
		n, err := decodeChild(it)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func decodeBool(body map[string]any) (Node, error) {
	q := Bool{Meta: metaOf(body)}
	var err error
	if q.Must, err = decodeList(body["must"]); err != nil {
		return nil, fmt.Errorf("bool.must: %w", err)
	}
	if q.Should, err = decodeList(body["should"]); err != nil {
		return nil, fmt.Errorf("bool.should: %w", err)
	}
	if q.MustNot, err = decodeList(body["must_not"]); err != nil {
		return nil, fmt.Errorf("bool.must_not: %w", err)
	}
	if q.Filter, err = decodeList(body["filter"]); err != nil {
		return nil, fmt.Errorf("bool.filter: %w", err)
	}
	switch msm := body["minimum_should_match"].(type) {
	case string:
		q.MinimumShouldMatch = msm
	case float64:
		q.MinimumShouldMatch = strconv.FormatFloat(msm, 'f', -1, 64)
	}
	return q, nil
}

func decodeNested(body map[string]any) (Node, error) {
	path, _ := body["path"].(string)
	inner, err := decodeChild(body["query"])
	if err != nil {
		return nil, fmt.Errorf("nested.query: %w", err)
	}
	n, err := NewNested(path, inner)
	if err != nil {
		return nil, err
	}
	n.Meta = metaOf(body)
	if mode, _ := body["score_mode"].(string); mode != ScoreModeNone {
		n.ScoreMode = mode
	}
	return n, nil
}

func decodeTerms(body map[string]any) (Node, error) {
	field, raw, err := fieldEntry(body)
	if err != nil {
		return nil, fmt.Errorf("terms: %w", err)
	}
	values, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("terms.%s: expected list, got %T", field, raw)
	}
	return Terms{Meta: metaOf(body), Field: field, Values: values}, nil
}

func decodeTerm(body map[string]any) (Node, error) {
	field, raw, err := fieldEntry(body)
	if err != nil {
		return nil, fmt.Errorf("term: %w", err)
	}
	inner, ok := raw.(map[string]any)
	if !ok {
		return Term{Field: field, Value: raw}, nil
	}
	return Term{Meta: metaOf(inner), Field: field, Value: inner["value"]}, nil
}

func decodeRange(body map[string]any) (Node, error) {
	field, raw, err := fieldEntry(body)
	if err != nil {
		return nil, fmt.Errorf("range: %w", err)
	}
	inner, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("range.%s: expected object, got %T", field, raw)
	}
	b := Bounds{Gt: inner["gt"], Gte: inner["gte"], Lt: inner["lt"], Lte: inner["lte"]}
	if format, ok := inner["format"].(string); ok {
		return DateRange{Meta: metaOf(inner), Field: field, Format: format, Bounds: b}, nil
	}
	return Range{Meta: metaOf(inner), Field: field, Bounds: b}, nil
}

func decodeMatch(body map[string]any) (Node, error) {
	field, raw, err := fieldEntry(body)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	inner, ok := raw.(map[string]any)
	if !ok {
		return Match{Field: field, Query: raw}, nil
	}
	q := Match{Meta: metaOf(inner), Field: field, Query: inner["query"]}
	q.Operator, _ = inner["operator"].(string)
	q.MinimumShouldMatch, _ = inner["minimum_should_match"].(string)
	return q, nil
}

func decodeGeoDistance(body map[string]any) (Node, error) {
	q := GeoDistance{Meta: metaOf(body)}
	q.DistanceType, _ = body["distance_type"].(string)
	for k, v := range body {
		switch k {
		case "boost", "_name", "distance_type", "validation_method":
			continue
		case "distance":
			s, _ := v.(string)
			d, unit, err := splitDistance(s)
			if err != nil {
				return nil, fmt.Errorf("geo_distance: %w", err)
			}
			q.Distance, q.Unit = d, unit
		default:
			loc, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("geo_distance.%s: expected lat/lon object", k)
			}
			lat, _ := loc["lat"].(float64)
			lon, _ := loc["lon"].(float64)
			p, err := geo.NewPoint(lat, lon)
			if err != nil {
				return nil, fmt.Errorf("geo_distance.%s: %w", k, err)
			}
			q.Field, q.Location = k, p
		}
	}
	return q, nil
}

func splitDistance(s string) (float64, string, error) {
	i := len(s)
	for i > 0 && (s[i-1] < '0' || s[i-1] > '9') && s[i-1] != '.' {
		i--
	}
	d, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid distance %q", s)
	}
	unit := s[i:]
	if unit == UnitKilometers {
		unit = ""
	}
	return d, unit, nil
}
