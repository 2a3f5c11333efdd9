package elastic

import (
	"bytes"
	"encoding/json"

	"github.com/kailas-cloud/esquery/internal/db"
	"github.com/kailas-cloud/esquery/internal/domain/search/result"
)

// searchResponse is the subset of a search response that is read.
type searchResponse struct {
	Hits struct {
		Total json.RawMessage `json:"total"`
		Hits  []struct {
			ID     string          `json:"_id"`
			Score  *float64        `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations"`
}

// DecodeResponse parses a raw search response. Totals are accepted both as
// {"value": n, "relation": ...} and as a bare number. A "gte" relation marks
// the total as a lower bound.
func DecodeResponse(data []byte) (result.Page, error) {
	var r searchResponse
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&r); err != nil {
		return result.Page{}, &db.Error{Op: db.OpDecode, Err: err}
	}

	total, lowerBound, err := decodeTotal(r.Hits.Total)
	if err != nil {
		return result.Page{}, &db.Error{Op: db.OpDecode, Err: err}
	}

	page := result.Page{Total: total, TotalIsLowerBound: lowerBound, Aggregations: r.Aggregations}
	for _, h := range r.Hits.Hits {
		page.Hits = append(page.Hits, result.Hit{ID: h.ID, Score: h.Score, Source: h.Source})
	}
	return page, nil
}

func decodeTotal(raw json.RawMessage) (int64, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false, nil
	}
	if raw[0] == '{' {
		var t struct {
			Value    int64  `json:"value"`
			Relation string `json:"relation"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return 0, false, err
		}
		return t.Value, t.Relation == "gte", nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false, err
	}
	return n, false, nil
}
