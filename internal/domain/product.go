package domain

// Source identifies the shopping provider a product came from.
type Source string

// Configured provider tags. The set is closed: adding a provider means
// adding a new client in internal/transport, not a runtime registration.
const (
	SourceAmazon  Source = "amazon"
	SourceRakuten Source = "rakuten"
	SourceYahoo   Source = "yahoo"
	SourceMock    Source = "mock"
)

// IsValid checks if the source is one of the configured provider tags.
func (s Source) IsValid() bool {
	return s == SourceAmazon || s == SourceRakuten || s == SourceYahoo || s == SourceMock
}

// Product is a single listing normalized from a provider-native shape.
// Price is in the smallest currency unit (yen), rating is clamped to [0,5].
// RecommendReason starts empty and is filled in after ranking.
type Product struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Price           int     `json:"price"`
	ImageURL        string  `json:"imageUrl"`
	Description     string  `json:"description"`
	Source          Source  `json:"source"`
	AffiliateURL    string  `json:"affiliateUrl"`
	Rating          float64 `json:"rating"`
	ReviewCount     int     `json:"reviewCount"`
	RecommendReason string  `json:"recommendReason"`
}

// ClampRating forces a provider-native rating into the canonical [0,5] range.
func ClampRating(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 5 {
		return 5
	}
	return r
}
