package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/search/aggregation"
	"github.com/kailas-cloud/esquery/internal/domain/search/criteria"
)

func intPtr(i int) *int { return &i }

func TestNew_Defaults(t *testing.T) {
	s, err := New("products", nil, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Index() != "products" {
		t.Errorf("Index() = %q", s.Index())
	}
	if _, ok := s.Query().(criteria.MatchAll); !ok {
		t.Errorf("Query() = %#v, want MatchAll", s.Query())
	}
	if s.From() != nil || s.Size() != nil {
		t.Error("paging must be unset")
	}
	if s.Aggregations() != nil || s.CountOnly() || len(s.Sort()) != 0 {
		t.Error("optional parts must be unset")
	}
}

func TestNew_ExplicitValues(t *testing.T) {
	agg := aggregation.New(nil, []aggregation.Call{{Field: "price", Method: aggregation.Sum}})
	s, err := New("products", criteria.Term{Field: "id", Value: 31}, Params{
		Sort:         []SortKey{{Field: "name", Ascending: true}},
		From:         intPtr(150),
		Size:         intPtr(100),
		Aggregations: &agg,
		Projection:   []Column{{Alias: "Total", Source: "Sum_price"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *s.From() != 150 || *s.Size() != 100 {
		t.Errorf("paging = %d/%d", *s.From(), *s.Size())
	}
	if s.Aggregations() == nil || len(s.Aggregations().Calls()) != 1 {
		t.Errorf("Aggregations() = %v", s.Aggregations())
	}
	if s.Projection()[0].Source != "Sum_price" {
		t.Errorf("Projection() = %v", s.Projection())
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name  string
		index string
		p     Params
		want  string
	}{
		{"no index", "", Params{}, "index is required"},
		{"negative from", "i", Params{From: intPtr(-1)}, "from must be"},
		{"negative size", "i", Params{Size: intPtr(-5)}, "size must be"},
		{"window", "i", Params{From: intPtr(9000), Size: intPtr(2000)}, "result window"},
		{"empty sort field", "i", Params{Sort: []SortKey{{}}}, "sort field"},
		{"empty alias", "i", Params{Projection: []Column{{Source: "x"}}}, "alias is required"},
		{"duplicate alias", "i", Params{Projection: []Column{{Alias: "a", Source: "x"}, {Alias: "a", Source: "y"}}}, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.index, nil, tt.p)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrInvalidQuery) {
				t.Errorf("err = %v, want ErrInvalidQuery", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestWithQuery(t *testing.T) {
	s, err := New("i", criteria.Or{}, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := s.WithQuery(criteria.Bool{})
	if _, ok := b.Query().(criteria.Bool); !ok {
		t.Errorf("WithQuery: %#v", b.Query())
	}
	if _, ok := s.Query().(criteria.Or); !ok {
		t.Error("original must be unchanged")
	}
}
