package domain

// Provider represents a service provider profile.
type Provider struct {
	ID          string
	Name        string
	Phone       string
	Active      bool
	RatingSum   int64
	RatingCount int64
}

// AverageRating returns the rolling average rating, 0 when unrated. The
// sum/count pair is kept instead of a stored average so the value never
// drifts from the underlying reviews.
func (p *Provider) AverageRating() float64 {
	if p.RatingCount == 0 {
		return 0
	}
	return float64(p.RatingSum) / float64(p.RatingCount)
}
