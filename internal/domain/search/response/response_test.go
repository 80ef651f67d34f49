package response

import "testing"

func TestBucket_RootCount(t *testing.T) {
	parents := int64(3)
	b := Bucket{Key: "red", DocCount: 7, Children: map[string]Aggregation{
		"reverse_nested": {Name: "reverse_nested", DocCount: &parents},
	}}
	if got := b.RootCount(); got != 3 {
		t.Errorf("RootCount() = %d, want 3", got)
	}
	plain := Bucket{Key: "blue", DocCount: 4}
	if got := plain.RootCount(); got != 4 {
		t.Errorf("RootCount() = %d, want 4", got)
	}
}

func TestResponse_Accessors(t *testing.T) {
	r := New([]Document{{ID: "1"}, {ID: "2"}}, 2, true, 5, nil)
	if len(r.Documents()) != 2 || r.Total() != 2 || !r.IsExact() || r.Took() != 5 {
		t.Errorf("unexpected response %+v", r)
	}
	if _, ok := r.Aggregation("color"); ok {
		t.Error("expected no aggregation")
	}
	if r.Aggregations() == nil {
		t.Error("Aggregations() should never be nil")
	}
}

func TestAggregation_Bucket(t *testing.T) {
	a := Aggregation{Name: "color", Buckets: []Bucket{{Key: "red", DocCount: 2}, {Key: "blue"}}}
	b, ok := a.Bucket("blue")
	if !ok || b.DocCount != 0 {
		t.Errorf("Bucket(blue) = %+v, %v", b, ok)
	}
	if _, ok := a.Bucket("green"); ok {
		t.Error("expected green to be absent")
	}
}
