package request

import (
	"fmt"

	"github.com/kailas-cloud/esquery/internal/domain"
	"github.com/kailas-cloud/esquery/internal/domain/search/aggregation"
	"github.com/kailas-cloud/esquery/internal/domain/search/criteria"
)

// MaxWindow bounds from+size, matching the engine's result window.
const MaxWindow = 10000

// SortKey orders results by one field.
type SortKey struct {
	Field     string
	Ascending bool
}

// Column maps an output alias to a group field or aggregate name.
type Column struct {
	Alias  string
	Source string
}

// Params are the optional parts of a SearchSpec.
type Params struct {
	Sort         []SortKey
	From         *int
	Size         *int
	Aggregations *aggregation.Spec
	CountOnly    bool
	Projection   []Column
}

// SearchSpec is a validated, translated search request.
type SearchSpec struct {
	index        string
	query        criteria.Criteria
	sort         []SortKey
	from         *int
	size         *int
	aggregations *aggregation.Spec
	countOnly    bool
	projection   []Column
}

// New validates and creates a SearchSpec. A nil query matches all documents.
func New(index string, query criteria.Criteria, p Params) (SearchSpec, error) {
	if index == "" {
		return SearchSpec{}, fmt.Errorf("%w: index is required", domain.ErrInvalidQuery)
	}
	if p.From != nil && *p.From < 0 {
		return SearchSpec{}, fmt.Errorf("%w: from must be non-negative", domain.ErrInvalidQuery)
	}
	if p.Size != nil && *p.Size < 0 {
		return SearchSpec{}, fmt.Errorf("%w: size must be non-negative", domain.ErrInvalidQuery)
	}
	if p.From != nil && p.Size != nil && *p.From+*p.Size > MaxWindow {
		return SearchSpec{}, fmt.Errorf("%w: result window too large: from + size must be <= %d", domain.ErrInvalidQuery, MaxWindow)
	}
	for _, k := range p.Sort {
		if k.Field == "" {
			return SearchSpec{}, fmt.Errorf("%w: sort field is required", domain.ErrInvalidQuery)
		}
	}
	seen := make(map[string]struct{}, len(p.Projection))
	for _, c := range p.Projection {
		if c.Alias == "" {
			return SearchSpec{}, fmt.Errorf("%w: projection alias is required", domain.ErrInvalidQuery)
		}
		if _, ok := seen[c.Alias]; ok {
			return SearchSpec{}, fmt.Errorf("%w: duplicate projection alias %q", domain.ErrInvalidQuery, c.Alias)
		}
		seen[c.Alias] = struct{}{}
	}
	if query == nil {
		query = criteria.MatchAll{}
	}
	return SearchSpec{
		index:        index,
		query:        query,
		sort:         p.Sort,
		from:         p.From,
		size:         p.Size,
		aggregations: p.Aggregations,
		countOnly:    p.CountOnly,
		projection:   p.Projection,
	}, nil
}

// WithQuery returns a copy with the query replaced.
func (s SearchSpec) WithQuery(q criteria.Criteria) SearchSpec {
	s.query = q
	return s
}

// Index returns the target index.
func (s *SearchSpec) Index() string { return s.index }

// Query returns the criteria tree.
func (s *SearchSpec) Query() criteria.Criteria { return s.query }

// Sort returns the sort keys, primary first.
func (s *SearchSpec) Sort() []SortKey { return s.sort }

// From returns the result offset, nil if unset.
func (s *SearchSpec) From() *int { return s.from }

// Size returns the page size, nil if unset.
func (s *SearchSpec) Size() *int { return s.size }

// Aggregations returns the aggregation spec, nil if none.
func (s *SearchSpec) Aggregations() *aggregation.Spec { return s.aggregations }

// CountOnly reports whether only the total hit count is requested.
func (s *SearchSpec) CountOnly() bool { return s.countOnly }

// Projection returns the requested output columns of grouped queries.
func (s *SearchSpec) Projection() []Column { return s.projection }
