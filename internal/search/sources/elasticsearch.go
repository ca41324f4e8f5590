// internal/search/sources/elasticsearch.go
package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	stderrors "expert-search/internal/common/errors"
	"expert-search/internal/common/logger"
	"expert-search/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

const sourceElasticsearch = "elasticsearch"

// rankedFields are the boosted multi_match fields of the experts index.
var rankedFields = []string{"name^3", "headline^2", "skills^2", "bio"}

// ElasticsearchRanker ranks experts with a full-text multi_match query.
type ElasticsearchRanker struct {
	client *elasticsearch.Client
	index  string
	size   int
	logger logger.Logger
}

func NewElasticsearchRanker(client *elasticsearch.Client, index string, size int, log logger.Logger) *ElasticsearchRanker {
	return &ElasticsearchRanker{
		client: client,
		index:  index,
		size:   size,
		logger: log.WithFields(map[string]interface{}{"source": sourceElasticsearch, "index": index}),
	}
}

type expertDocument struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Headline     string   `json:"headline"`
	Skills       []string `json:"skills"`
	Bio          string   `json:"bio"`
	Availability string   `json:"availability"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string         `json:"_id"`
			Score  float64        `json:"_score"`
			Source expertDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func buildRankedQuery(query string, size int) map[string]interface{} {
	return map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": rankedFields,
				"type":   "best_fields",
			},
		},
	}
}

func (r *ElasticsearchRanker) RankedSearch(ctx context.Context, query string) ([]models.Candidate, error) {
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(buildRankedQuery(query, r.size)); err != nil {
		return nil, stderrors.NewRankedSearchFailedError(sourceElasticsearch, err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(&body),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, stderrors.NewSearchTimeoutError(sourceElasticsearch)
		}
		return nil, stderrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, stderrors.NewIndexNotFoundError(r.index)
	}
	if res.IsError() {
		return nil, stderrors.NewRankedSearchFailedError(sourceElasticsearch, fmt.Errorf("search error: %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, stderrors.NewRankedSearchFailedError(sourceElasticsearch, fmt.Errorf("decode response: %w", err))
	}

	candidates := make([]models.Candidate, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id := hit.Source.ID
		if id == "" {
			id = hit.ID
		}
		candidates = append(candidates, models.Candidate{
			ID:           id,
			Name:         hit.Source.Name,
			Headline:     hit.Source.Headline,
			Skills:       hit.Source.Skills,
			Bio:          hit.Source.Bio,
			Availability: hit.Source.Availability,
			Score:        hit.Score,
		})
	}

	r.logger.Debug("ranked search completed", map[string]interface{}{
		"hits": len(candidates),
	})
	return candidates, nil
}
