package materialize

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/search/aggregation"
	"github.com/kailas-cloud/esquery/internal/domain/search/request"
	"github.com/kailas-cloud/esquery/internal/domain/search/result"
)

func aggs(t *testing.T, s string) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return m
}

func get(t *testing.T, r *result.Row, name string) any {
	t.Helper()
	v, ok := r.Get(name)
	if !ok {
		t.Fatalf("row %v has no column %q", r.Names(), name)
	}
	return v
}

var byName = aggregation.New(
	[]aggregation.GroupField{{Field: "name"}},
	[]aggregation.Call{
		{Field: "price", Method: aggregation.Sum},
		{Field: "price", Method: aggregation.Min},
		{Field: "price", Method: aggregation.Average},
	},
)

const byNameResponse = `{
  "name": {
    "doc_count_error_upper_bound": 0,
    "sum_other_doc_count": 0,
    "buckets": [
      {"key": "apple", "doc_count": 2,
       "Sum_price": {"value": 30.5}, "Min_price": {"value": 10.5}, "Average_price": {"value": 15.25}},
      {"key": "pear", "doc_count": 1,
       "Sum_price": {"value": 7.5}, "Min_price": {"value": 7.5}, "Average_price": {"value": 7.5}}
    ]
  }
}`

func TestMaterialize_GroupedRows(t *testing.T) {
	rows, err := Materialize(aggs(t, byNameResponse), byName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if get(t, rows[0], "name") != "apple" || get(t, rows[1], "name") != "pear" {
		t.Errorf("keys = %v, %v", get(t, rows[0], "name"), get(t, rows[1], "name"))
	}
	if get(t, rows[0], "Sum_price") != 30.5 || get(t, rows[1], "Average_price") != 7.5 {
		t.Errorf("values = %v / %v", rows[0].Map(), rows[1].Map())
	}
}

func TestProject_GroupedRows(t *testing.T) {
	rows, err := Materialize(aggs(t, byNameResponse), byName)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	cols := []request.Column{
		{Alias: "Name", Source: "name"},
		{Alias: "Total", Source: "Sum_price"},
		{Alias: "Min", Source: "Min_price"},
		{Alias: "Avg", Source: "Average_price"},
	}
	out, err := Project(rows, byName, cols)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("rows = %d, want 2", len(out))
	}
	for i, key := range []string{"apple", "pear"} {
		r := out[i]
		if get(t, r, "key") != key || get(t, r, "Name") != key {
			t.Errorf("row %d key/Name = %v/%v, want %s", i, get(t, r, "key"), get(t, r, "Name"), key)
		}
		for _, col := range []string{"Total", "Min", "Avg"} {
			if v := get(t, r, col); v == nil {
				t.Errorf("row %d %s is empty", i, col)
			}
		}
	}
	if got := out[0].Names(); len(got) != 5 || got[0] != "Name" || got[4] != "key" {
		t.Errorf("column order = %v", got)
	}
}

func TestProject_Unknown(t *testing.T) {
	_, err := Project(nil, byName, []request.Column{{Alias: "Max", Source: "Max_price"}})
	if !errors.Is(err, domain.ErrAmbiguousProjection) {
		t.Errorf("err = %v, want ErrAmbiguousProjection", err)
	}
}

func TestProject_NoColumnsAddsKey(t *testing.T) {
	rows, err := Materialize(aggs(t, byNameResponse), byName)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	out, err := Project(rows, byName, nil)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if get(t, out[1], "key") != "pear" || get(t, out[1], "Sum_price") != 7.5 {
		t.Errorf("row = %v", out[1].Map())
	}
}

func TestMaterialize_ScalarAggregate(t *testing.T) {
	spec := aggregation.New(nil, []aggregation.Call{{Field: "price", Method: aggregation.Sum}, {Field: "price", Method: aggregation.Max}})
	rows, err := Materialize(aggs(t, `{"Sum_price":{"value":100},"Max_price":{"value":null}}`), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if get(t, rows[0], "Sum_price") != int64(100) {
		t.Errorf("Sum_price = %#v", get(t, rows[0], "Sum_price"))
	}
	if get(t, rows[0], "Max_price") != nil {
		t.Errorf("Max_price = %#v, want nil", get(t, rows[0], "Max_price"))
	}
}

func TestMaterialize_CompositeAndDateKeys(t *testing.T) {
	spec := aggregation.New(
		[]aggregation.GroupField{{Field: "name"}, {Field: "created", Kind: aggregation.KindDate}},
		[]aggregation.Call{{Method: aggregation.Count}, {Field: "price", Method: aggregation.Sum}},
	)
	resp := `{"name":{"buckets":[
	  {"key":"apple","doc_count":3,"created":{"buckets":[
	    {"key":1704067200000,"key_as_string":"2024-01-01","doc_count":2,"Sum_price":{"value":4}},
	    {"key":1704153600000,"key_as_string":"2024-01-02","doc_count":1,"Sum_price":{"value":1}}
	  ]}},
	  {"key":"pear","doc_count":1,"created":{"buckets":[
	    {"key":1704067200000,"doc_count":1,"Sum_price":{"value":9}}
	  ]}}
	]}}`
	rows, err := Materialize(aggs(t, resp), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if got, ok := get(t, rows[1], "created").(time.Time); !ok || !got.Equal(day) {
		t.Errorf("created = %#v, want %v", get(t, rows[1], "created"), day)
	}
	if get(t, rows[1], "name") != "apple" || get(t, rows[2], "name") != "pear" {
		t.Error("outer keys not carried into inner rows")
	}
	if get(t, rows[0], "Count") != int64(2) || get(t, rows[2], "Count") != int64(1) {
		t.Errorf("Count = %v / %v", get(t, rows[0], "Count"), get(t, rows[2], "Count"))
	}
}

func TestMaterialize_DistinctCount(t *testing.T) {
	spec := aggregation.New(
		[]aggregation.GroupField{{Field: "brand"}},
		[]aggregation.Call{{Field: "sku", Method: aggregation.CountDistinct}},
	)
	resp := `{"brand":{"buckets":[
	  {"key":"acme","doc_count":5,"skuCount":{"buckets":[{"key":"a","doc_count":3},{"key":"b","doc_count":2}]}}
	]}}`
	rows, err := Materialize(aggs(t, resp), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if get(t, rows[0], "skuCount") != int64(2) {
		t.Errorf("skuCount = %v", get(t, rows[0], "skuCount"))
	}
}

func TestMaterialize_KeyedBuckets(t *testing.T) {
	spec := aggregation.New([]aggregation.GroupField{{Field: "tier"}}, nil)
	resp := `{"tier":{"buckets":{"gold":{"doc_count":2},"basic":{"doc_count":9}}}}`
	rows, err := Materialize(aggs(t, resp), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || get(t, rows[0], "tier") != "basic" || get(t, rows[1], "tier") != "gold" {
		t.Errorf("rows = %v", rows)
	}
}

func TestMaterialize_Empty(t *testing.T) {
	rows, err := Materialize(nil, byName)
	if err != nil || rows != nil {
		t.Errorf("rows = %v, err = %v", rows, err)
	}
}

func TestFromPage_InexactTotal(t *testing.T) {
	spec := aggregation.New(nil, []aggregation.Call{{Method: aggregation.Count}})
	_, err := FromPage(result.Page{Total: 10000, TotalIsLowerBound: true}, spec)
	if !errors.Is(err, ErrInexactCount) {
		t.Errorf("err = %v, want ErrInexactCount", err)
	}

	// Grouped counts come from doc_count, so the hit total does not matter.
	rows, err := FromPage(result.Page{Total: 10000, TotalIsLowerBound: true, Aggregations: aggs(t, byNameResponse)}, byName)
	if err != nil || len(rows) != 2 {
		t.Errorf("rows = %v, err = %v", rows, err)
	}
}

func TestFromPage_UngroupedDocCount(t *testing.T) {
	spec := aggregation.New(nil, []aggregation.Call{{Method: aggregation.Count}})
	rows, err := FromPage(result.Page{Total: 17}, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || get(t, rows[0], "Count") != int64(17) {
		t.Errorf("rows = %v", rows)
	}
}
