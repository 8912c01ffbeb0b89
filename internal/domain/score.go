package domain

// ProductScore is the per-request score breakdown for one product.
// All components are in [0,1]; nothing here is persisted.
type ProductScore struct {
	ProductID   string
	Base        float64
	QueryMatch  float64
	Personalize float64
	Total       float64
}
