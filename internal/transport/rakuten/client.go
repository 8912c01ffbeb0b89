// Package rakuten implements the Rakuten Ichiba search provider.
package rakuten

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

const defaultAPIURL = "https://app.rakuten.co.jp/services/api/IchibaItem/Search/20220601"

// maxHits is the Ichiba API per-request cap.
const maxHits = 30

// Client is the Rakuten Ichiba API adapter.
type Client struct {
	apiURL      string
	appID       string
	affiliateID string
	httpClient  *http.Client
	logger      *zap.Logger
}

// Config holds the Rakuten provider settings.
type Config struct {
	AppID       string
	AffiliateID string
	APIURL      string
	Logger      *zap.Logger
}

// New creates a Rakuten Ichiba client.
func New(cfg *Config) *Client {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		apiURL:      apiURL,
		appID:       cfg.AppID,
		affiliateID: cfg.AffiliateID,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      cfg.Logger,
	}
}

// Name implements aggregate.SourceClient.
func (c *Client) Name() domain.Source { return domain.SourceRakuten }

// item is one listing in a formatVersion=2 Ichiba response.
type item struct {
	ItemName        string  `json:"itemName"`
	ItemCode        string  `json:"itemCode"`
	ItemPrice       int     `json:"itemPrice"`
	ItemURL         string  `json:"itemUrl"`
	ItemCaption     string  `json:"itemCaption"`
	ReviewAverage   float64 `json:"reviewAverage"`
	ReviewCount     int     `json:"reviewCount"`
	AffiliateURL    string  `json:"affiliateUrl"`
	MediumImageURLs []struct {
		ImageURL string `json:"imageUrl"`
	} `json:"mediumImageUrls"`
}

type searchResponse struct {
	Items []item `json:"Items"`
	Count int    `json:"count"`
	Error string `json:"error"`
}

// Search implements aggregate.SourceClient.
func (c *Client) Search(ctx context.Context, params domain.SearchParams) (domain.SearchResult, error) {
	values := url.Values{}
	values.Set("applicationId", c.appID)
	if c.affiliateID != "" {
		values.Set("affiliateId", c.affiliateID)
	}
	values.Set("keyword", params.Query())
	values.Set("formatVersion", "2")

	hits := params.MaxResults()
	if hits > maxHits {
		hits = maxHits
	}
	values.Set("hits", strconv.Itoa(hits))

	if params.MinPrice() > 0 {
		values.Set("minPrice", strconv.Itoa(params.MinPrice()))
	}
	if params.MaxPrice() > 0 {
		values.Set("maxPrice", strconv.Itoa(params.MaxPrice()))
	}
	values.Set("sort", sortParam(params.SortBy()))

	var resp searchResponse
	if err := c.get(ctx, values, &resp); err != nil {
		return domain.SearchResult{}, err
	}
	if resp.Error != "" {
		return domain.SearchResult{}, &domain.ProviderError{
			Source: domain.SourceRakuten,
			Err:    fmt.Errorf("api error: %s", resp.Error),
		}
	}

	products := make([]domain.Product, 0, len(resp.Items))
	for _, it := range resp.Items {
		products = append(products, toProduct(it))
	}

	c.logger.Debug("rakuten search done",
		zap.Int("count", len(products)),
		zap.Int("total", resp.Count))

	total := resp.Count
	if total == 0 {
		total = len(products)
	}
	return domain.SearchResult{
		Products:   products,
		TotalCount: total,
		Source:     domain.SourceRakuten,
	}, nil
}

// IsAvailable implements aggregate.SourceClient. Without an app id the
// provider is off; otherwise a one-item probe search must succeed.
func (c *Client) IsAvailable(ctx context.Context) bool {
	if c.appID == "" {
		return false
	}

	params, err := domain.NewSearchParams("test", 1, 0, 0, domain.SortRelevance)
	if err != nil {
		return false
	}
	if _, err := c.Search(ctx, params); err != nil {
		c.logger.Warn("rakuten availability check failed", zap.Error(err))
		return false
	}
	return true
}

// get runs one instrumented GET against the Ichiba API.
func (c *Client) get(ctx context.Context, values url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+values.Encode(), nil)
	if err != nil {
		return &domain.ProviderError{Source: domain.SourceRakuten, Err: err}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues("rakuten", "error").Inc()
		return &domain.ProviderError{Source: domain.SourceRakuten, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ProviderRequestsTotal.WithLabelValues("rakuten", "error").Inc()
		return &domain.ProviderError{
			Source:     domain.SourceRakuten,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	metrics.ProviderRequestsTotal.WithLabelValues("rakuten", "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues("rakuten").Observe(duration.Seconds())

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ProviderError{
			Source: domain.SourceRakuten,
			Err:    fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// sortParam maps the canonical sort order to the Ichiba sort parameter.
func sortParam(order domain.SortOrder) string {
	switch order {
	case domain.SortPriceAsc:
		return "+itemPrice"
	case domain.SortPriceDesc:
		return "-itemPrice"
	case domain.SortRating:
		return "-reviewAverage"
	default:
		return "standard"
	}
}

// toProduct normalizes an Ichiba item into the canonical shape.
func toProduct(it item) domain.Product {
	imageURL := ""
	if len(it.MediumImageURLs) > 0 {
		imageURL = it.MediumImageURLs[0].ImageURL
	}

	description := it.ItemCaption
	if description == "" {
		description = it.ItemName
	}

	affiliateURL := it.AffiliateURL
	if affiliateURL == "" {
		affiliateURL = it.ItemURL
	}

	return domain.Product{
		ID:           "rakuten_" + it.ItemCode,
		Name:         it.ItemName,
		Price:        it.ItemPrice,
		ImageURL:     imageURL,
		Description:  description,
		Source:       domain.SourceRakuten,
		AffiliateURL: affiliateURL,
		Rating:       domain.ClampRating(it.ReviewAverage),
		ReviewCount:  it.ReviewCount,
	}
}
