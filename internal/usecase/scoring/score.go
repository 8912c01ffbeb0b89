// Package scoring implements the deterministic multi-factor product
// ranking. All functions are pure; nothing here touches I/O.
package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/urpick/urpick/internal/domain"
)

// Weights of the base-score components.
const (
	ratingWeight = 0.5
	reviewWeight = 0.3
	priceWeight  = 0.2
)

// Weights of the total-score components.
const (
	baseWeight        = 0.3
	queryMatchWeight  = 0.4
	personalizeWeight = 0.3
)

// Saturation points for the base-score components.
const (
	reviewSaturation = 1000
	priceSaturation  = 100000
)

// neutralScore is used when a signal carries no information, so that the
// absence of a profile neither boosts nor punishes a product.
const neutralScore = 0.5

// Ranked pairs a product with its score breakdown.
type Ranked struct {
	Product domain.Product
	Score   domain.ProductScore
}

// BaseScore rates a product on its own merits: rating, review volume,
// and price. Review volume saturates near 1000 reviews; price saturates
// at 100,000 yen, with cheaper products scoring higher.
func BaseScore(p domain.Product) float64 {
	ratingNorm := domain.ClampRating(p.Rating) / 5

	reviews := p.ReviewCount
	if reviews < 0 {
		reviews = 0
	}
	reviewScore := math.Log(float64(reviews)+1) / math.Log(reviewSaturation+1)
	if reviewScore > 1 {
		reviewScore = 1
	}

	priceScore := 1 - math.Min(float64(p.Price)/priceSaturation, 1)

	return ratingWeight*ratingNorm + reviewWeight*reviewScore + priceWeight*priceScore
}

// QueryMatchScore is the fraction of query keywords appearing as
// case-folded substrings of the product name and description.
func QueryMatchScore(p domain.Product, query string) float64 {
	keywords := strings.Fields(strings.ToLower(query))
	if len(keywords) == 0 {
		return 0
	}

	haystack := strings.ToLower(p.Name + " " + p.Description)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			matches++
		}
	}
	return float64(matches) / float64(len(keywords))
}

// PersonalizeScore rates the product against the user's stored
// preferences. A nil profile, or a profile with no signals set, scores a
// neutral 0.5. Present signals (price range, categories, brands) are each
// scored in [0,1] and averaged.
func PersonalizeScore(p domain.Product, profile *domain.PreferenceProfile) float64 {
	if profile == nil {
		return neutralScore
	}

	var sum float64
	var n int

	if pr := profile.PriceRange; pr != nil {
		sum += priceRangeScore(p.Price, *pr)
		n++
	}
	if len(profile.Categories) > 0 {
		sum += keywordHitRate(p, profile.Categories)
		n++
	}
	if len(profile.Brands) > 0 {
		sum += keywordHitRate(p, profile.Brands)
		n++
	}

	if n == 0 {
		return neutralScore
	}
	return sum / float64(n)
}

// priceRangeScore is 1 inside [min,max] and decays linearly with the
// distance to the nearest bound, hitting 0 one max-width away.
func priceRangeScore(price int, pr domain.PriceRange) float64 {
	if price >= pr.Min && price <= pr.Max {
		return 1
	}

	var distance int
	if price < pr.Min {
		distance = pr.Min - price
	} else {
		distance = price - pr.Max
	}
	if pr.Max <= 0 {
		return 0
	}
	return math.Max(0, 1-float64(distance)/float64(pr.Max))
}

// keywordHitRate is the fraction of profile entries appearing as
// case-folded substrings of the product name and description.
func keywordHitRate(p domain.Product, entries []string) float64 {
	haystack := strings.ToLower(p.Name + p.Description)
	hits := 0
	for _, e := range entries {
		if strings.Contains(haystack, strings.ToLower(e)) {
			hits++
		}
	}
	return float64(hits) / float64(len(entries))
}

// Score computes the full score breakdown for one product.
func Score(p domain.Product, query string, profile *domain.PreferenceProfile) domain.ProductScore {
	base := BaseScore(p)
	queryMatch := QueryMatchScore(p, query)
	personalize := PersonalizeScore(p, profile)

	return domain.ProductScore{
		ProductID:   p.ID,
		Base:        base,
		QueryMatch:  queryMatch,
		Personalize: personalize,
		Total:       baseWeight*base + queryMatchWeight*queryMatch + personalizeWeight*personalize,
	}
}

// ScoreAndRank scores every product and returns them ordered by total
// score descending. The sort is stable, so equal scores keep their input
// order.
func ScoreAndRank(products []domain.Product, query string, profile *domain.PreferenceProfile) []Ranked {
	ranked := make([]Ranked, len(products))
	for i, p := range products {
		ranked[i] = Ranked{Product: p, Score: Score(p, query, profile)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.Total > ranked[j].Score.Total
	})
	return ranked
}
