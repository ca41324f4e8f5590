// internal/search/sources/semantic.go
package sources

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	stderrors "expert-search/internal/common/errors"
	commonhttp "expert-search/internal/common/http"
	"expert-search/internal/common/logger"
	"expert-search/internal/models"
)

const (
	sourceSemantic     = "semantic"
	semanticSearchPath = "/v1/experts/semantic-search"
)

// SemanticClient calls the embedding-ranked expert search API.
type SemanticClient struct {
	http    *commonhttp.Client
	baseURL string
	apiKey  string
	limit   int
	logger  logger.Logger
}

type semanticRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type semanticResponse struct {
	Results []models.Candidate `json:"results"`
}

func NewSemanticClient(baseURL, apiKey string, timeout time.Duration, limit int, log logger.Logger) *SemanticClient {
	return &SemanticClient{
		http:    commonhttp.NewClient(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		limit:   limit,
		logger:  log.WithFields(map[string]interface{}{"source": sourceSemantic}),
	}
}

func (c *SemanticClient) RankedSearch(ctx context.Context, query string) ([]models.Candidate, error) {
	var resp semanticResponse
	err := c.http.PostJSON(ctx, c.baseURL+semanticSearchPath, c.apiKey, semanticRequest{
		Query: query,
		Limit: c.limit,
	}, &resp)
	if err != nil {
		if isTimeout(err) {
			return nil, stderrors.NewSearchTimeoutError(sourceSemantic)
		}
		return nil, stderrors.NewRankedSearchFailedError(sourceSemantic, err)
	}

	if resp.Results == nil {
		resp.Results = []models.Candidate{}
	}
	c.logger.Debug("semantic search completed", map[string]interface{}{
		"results": len(resp.Results),
	})
	return resp.Results, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
