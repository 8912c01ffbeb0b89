// Package mockshop is a development provider serving a fixed catalog.
// It backs the use_mock configuration so the full pipeline runs without
// any provider credentials.
package mockshop

import (
	"context"
	"fmt"
	"strings"

	"github.com/urpick/urpick/internal/domain"
)

// Client serves sample listings.
type Client struct {
	catalog []domain.Product
}

// New creates a mock provider with the built-in catalog.
func New() *Client {
	return &Client{catalog: sampleCatalog()}
}

// Name implements aggregate.SourceClient.
func (c *Client) Name() domain.Source { return domain.SourceMock }

// Search implements aggregate.SourceClient. The catalog is filtered by
// price range and, when any catalog entry matches the query text, by the
// query; otherwise the whole catalog is returned so that demo searches
// never come back empty.
func (c *Client) Search(ctx context.Context, params domain.SearchParams) (domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.SearchResult{}, &domain.ProviderError{Source: domain.SourceMock, Err: err}
	}

	filtered := make([]domain.Product, 0, len(c.catalog))
	for _, p := range c.catalog {
		if params.MinPrice() > 0 && p.Price < params.MinPrice() {
			continue
		}
		if params.MaxPrice() > 0 && p.Price > params.MaxPrice() {
			continue
		}
		filtered = append(filtered, p)
	}

	if matched := matchQuery(filtered, params.Query()); len(matched) > 0 {
		filtered = matched
	}

	total := len(filtered)
	if len(filtered) > params.MaxResults() {
		filtered = filtered[:params.MaxResults()]
	}

	return domain.SearchResult{
		Products:   filtered,
		TotalCount: total,
		Source:     domain.SourceMock,
	}, nil
}

// IsAvailable implements aggregate.SourceClient. Always on.
func (c *Client) IsAvailable(_ context.Context) bool { return true }

func matchQuery(products []domain.Product, query string) []domain.Product {
	keywords := strings.Fields(strings.ToLower(query))
	if len(keywords) == 0 {
		return nil
	}

	matched := make([]domain.Product, 0, len(products))
	for _, p := range products {
		haystack := strings.ToLower(p.Name + " " + p.Description)
		for _, kw := range keywords {
			if strings.Contains(haystack, kw) {
				matched = append(matched, p)
				break
			}
		}
	}
	return matched
}

func sampleCatalog() []domain.Product {
	items := []struct {
		name, description string
		price             int
		rating            float64
		reviews           int
	}{
		{"ワイヤレスイヤホン Bluetooth 5.3 高音質", "最新Bluetooth 5.3搭載。クリアな高音質と快適な装着感を実現したワイヤレスイヤホン。", 3980, 4.5, 1250},
		{"モバイルバッテリー 20000mAh 大容量 急速充電", "大容量20000mAhで外出時も安心。スマホを約5回フル充電可能。", 2480, 4.3, 890},
		{"スマートウォッチ 健康管理 防水", "心拍数、睡眠、運動を24時間記録。IP68防水で安心。", 5980, 4.6, 2100},
		{"ワイヤレスマウス 静音 USB充電式", "静音クリックで作業に集中。USB充電式で電池不要。", 1580, 4.2, 670},
		{"デスクライト LED 調光調色", "目に優しいLED。色温度と明るさを自由に調整可能。", 4280, 4.7, 1540},
		{"ノートパソコンスタンド アルミ製 折りたたみ式", "姿勢改善に最適。放熱性抜群のアルミ製で軽量コンパクト。", 2980, 4.4, 980},
		{"ワイヤレスキーボード 静音 コンパクト", "静かなタイピング音。薄型コンパクトでデスクをすっきり。", 3480, 4.5, 1120},
		{"Webカメラ フルHD 1080p マイク内蔵", "クリアな映像と音声。テレワーク・オンライン授業に最適。", 3780, 4.3, 760},
		{"USBハブ 7ポート 高速データ転送", "USB3.0対応で高速転送。7ポートで複数デバイスを接続。", 1980, 4.1, 540},
		{"スマホスタンド 角度調整可能 滑り止め", "動画視聴に最適。安定感抜群で角度自由自在。", 980, 4.4, 1340},
	}

	catalog := make([]domain.Product, len(items))
	for i, it := range items {
		catalog[i] = domain.Product{
			ID:           fmt.Sprintf("mock_%d", i+1),
			Name:         it.name,
			Price:        it.price,
			ImageURL:     fmt.Sprintf("https://placehold.co/300x300?text=Item%d", i+1),
			Description:  it.description,
			Source:       domain.SourceMock,
			AffiliateURL: fmt.Sprintf("https://example.com/product%d", i+1),
			Rating:       it.rating,
			ReviewCount:  it.reviews,
		}
	}
	return catalog
}
