package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"showroom-workers/internal/models"
)

var (
	ErrIndexNotFound = errors.New("catalog index not found")
	ErrSearchFailed  = errors.New("catalog search failed")
)

// document is the indexed form of a car; numeric fields back the range filters.
type document struct {
	models.Car
	Seats      int     `json:"seats"`
	PriceValue float64 `json:"priceValue"`
}

func toDocument(car models.Car) document {
	price, _ := Price(car.Price)
	return document{Car: car, Seats: Seats(car.SeatingCapacity), PriceValue: price}
}

// Seed indexes cars when the index holds no documents yet. It returns the
// number of documents written.
func Seed(ctx context.Context, es *elasticsearch.Client, index string, cars []models.Car) (int, error) {
	count, err := countDocuments(ctx, es, index)
	if err != nil && !errors.Is(err, ErrIndexNotFound) {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	written := 0
	for _, car := range cars {
		body, err := json.Marshal(toDocument(car))
		if err != nil {
			return written, fmt.Errorf("marshal car %s: %w", car.ID, err)
		}
		req := esapi.IndexRequest{
			Index:      index,
			DocumentID: string(car.ID),
			Body:       bytes.NewReader(body),
			Refresh:    "true",
		}
		res, err := req.Do(ctx, es)
		if err != nil {
			return written, fmt.Errorf("index car %s: %w", car.ID, err)
		}
		res.Body.Close()
		if res.IsError() {
			return written, fmt.Errorf("index car %s: %s", car.ID, res.Status())
		}
		written++
	}
	return written, nil
}

func countDocuments(ctx context.Context, es *elasticsearch.Client, index string) (int64, error) {
	req := esapi.CountRequest{Index: []string{index}}
	res, err := req.Do(ctx, es)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return 0, ErrIndexNotFound
	}
	if res.IsError() {
		return 0, fmt.Errorf("count %s: %s", index, res.Status())
	}

	var body struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode count: %w", err)
	}
	return body.Count, nil
}

type SearchResult struct {
	Cars      []models.Car
	TotalHits int64
	Took      int64
}

// Search runs criteria against the catalog index.
func Search(ctx context.Context, es *elasticsearch.Client, index string, criteria Criteria) (*SearchResult, error) {
	criteria = criteria.Normalize()

	body, err := json.Marshal(buildSearchQuery(criteria))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
		From:  &criteria.From,
		Size:  &criteria.Size,
	}
	res, err := req.Do(ctx, es)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrIndexNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.String())
	}

	var r struct {
		Took int64 `json:"took"`
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrSearchFailed, err)
	}

	cars := make([]models.Car, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		cars = append(cars, hit.Source.Car)
	}
	return &SearchResult{Cars: cars, TotalHits: r.Hits.Total.Value, Took: r.Took}, nil
}

func buildSearchQuery(criteria Criteria) map[string]interface{} {
	must := []interface{}{}
	filter := []interface{}{}

	if criteria.Keywords != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  criteria.Keywords,
				"fields": []string{"name^3", "engine", "transmission"},
				"type":   "best_fields",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	if criteria.MinSeats > 0 {
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{"seats": map[string]interface{}{"gte": criteria.MinSeats}},
		})
	}
	if criteria.MaxPrice > 0 {
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{"priceValue": map[string]interface{}{"lte": criteria.MaxPrice}},
		})
	}

	boolQuery := map[string]interface{}{"must": must}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort":  []map[string]interface{}{{"_score": "desc"}, {"priceValue": "asc"}},
	}
}
