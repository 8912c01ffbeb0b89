// Package yahoo implements the Yahoo! Shopping search provider.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/urpick/urpick/internal/domain"
	"github.com/urpick/urpick/internal/metrics"
)

const defaultAPIURL = "https://shopping.yahooapis.jp/ShoppingWebService/V3/itemSearch"

// maxResults is the itemSearch API per-request cap.
const maxResults = 50

// Client is the Yahoo! Shopping API adapter.
type Client struct {
	apiURL     string
	clientID   string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds the Yahoo provider settings.
type Config struct {
	ClientID string
	APIURL   string
	Logger   *zap.Logger
}

// New creates a Yahoo! Shopping client.
func New(cfg *Config) *Client {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		apiURL:     apiURL,
		clientID:   cfg.ClientID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     cfg.Logger,
	}
}

// Name implements aggregate.SourceClient.
func (c *Client) Name() domain.Source { return domain.SourceYahoo }

// hit is one listing in an itemSearch response.
type hit struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Price       int    `json:"price"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Image       struct {
		Medium string `json:"medium"`
	} `json:"image"`
	ExImage struct {
		URL string `json:"url"`
	} `json:"exImage"`
	Rating struct {
		Rate  float64 `json:"rate"`
		Count int     `json:"count"`
	} `json:"rating"`
}

type searchResponse struct {
	Hits                  []hit `json:"hits"`
	TotalResultsAvailable int   `json:"totalResultsAvailable"`
	Error                 *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Search implements aggregate.SourceClient.
func (c *Client) Search(ctx context.Context, params domain.SearchParams) (domain.SearchResult, error) {
	values := url.Values{}
	values.Set("appid", c.clientID)
	values.Set("query", params.Query())
	values.Set("image_size", "300")

	results := params.MaxResults()
	if results > maxResults {
		results = maxResults
	}
	values.Set("results", strconv.Itoa(results))

	if params.MinPrice() > 0 {
		values.Set("price_from", strconv.Itoa(params.MinPrice()))
	}
	if params.MaxPrice() > 0 {
		values.Set("price_to", strconv.Itoa(params.MaxPrice()))
	}
	values.Set("sort", sortParam(params.SortBy()))

	var resp searchResponse
	if err := c.get(ctx, values, &resp); err != nil {
		return domain.SearchResult{}, err
	}
	if resp.Error != nil {
		return domain.SearchResult{}, &domain.ProviderError{
			Source: domain.SourceYahoo,
			Err:    fmt.Errorf("api error: %s", resp.Error.Message),
		}
	}

	products := make([]domain.Product, 0, len(resp.Hits))
	for _, h := range resp.Hits {
		products = append(products, toProduct(h))
	}

	c.logger.Debug("yahoo search done",
		zap.Int("count", len(products)),
		zap.Int("total", resp.TotalResultsAvailable))

	total := resp.TotalResultsAvailable
	if total == 0 {
		total = len(products)
	}
	return domain.SearchResult{
		Products:   products,
		TotalCount: total,
		Source:     domain.SourceYahoo,
	}, nil
}

// IsAvailable implements aggregate.SourceClient.
func (c *Client) IsAvailable(ctx context.Context) bool {
	if c.clientID == "" {
		return false
	}

	params, err := domain.NewSearchParams("test", 1, 0, 0, domain.SortRelevance)
	if err != nil {
		return false
	}
	if _, err := c.Search(ctx, params); err != nil {
		c.logger.Warn("yahoo availability check failed", zap.Error(err))
		return false
	}
	return true
}

// get runs one instrumented GET against the itemSearch API.
func (c *Client) get(ctx context.Context, values url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+values.Encode(), nil)
	if err != nil {
		return &domain.ProviderError{Source: domain.SourceYahoo, Err: err}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues("yahoo", "error").Inc()
		return &domain.ProviderError{Source: domain.SourceYahoo, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ProviderRequestsTotal.WithLabelValues("yahoo", "error").Inc()
		return &domain.ProviderError{
			Source:     domain.SourceYahoo,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	metrics.ProviderRequestsTotal.WithLabelValues("yahoo", "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues("yahoo").Observe(duration.Seconds())

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ProviderError{
			Source: domain.SourceYahoo,
			Err:    fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// sortParam maps the canonical sort order to the itemSearch sort parameter.
func sortParam(order domain.SortOrder) string {
	switch order {
	case domain.SortPriceAsc:
		return "+price"
	case domain.SortPriceDesc:
		return "-price"
	case domain.SortRating:
		return "-review_count"
	default:
		return "-score"
	}
}

// toProduct normalizes an itemSearch hit into the canonical shape.
func toProduct(h hit) domain.Product {
	imageURL := h.ExImage.URL
	if imageURL == "" {
		imageURL = h.Image.Medium
	}

	description := h.Description
	if description == "" {
		description = h.Name
	}

	return domain.Product{
		ID:           "yahoo_" + h.Code,
		Name:         h.Name,
		Price:        h.Price,
		ImageURL:     imageURL,
		Description:  description,
		Source:       domain.SourceYahoo,
		AffiliateURL: h.URL,
		Rating:       domain.ClampRating(h.Rating.Rate),
		ReviewCount:  h.Rating.Count,
	}
}
