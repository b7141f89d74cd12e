package domain

// Customer is the read-only view of a renter that the reservation core needs.
// Tier is the externally assigned loyalty tier; when empty the tier is derived
// from lifetime spend and completed reservations.
type Customer struct {
	ID                    int64  `json:"id"`
	Name                  string `json:"name"`
	Email                 string `json:"email"`
	Tier                  string `json:"tier,omitempty"`
	LifetimeSpendCents    int64  `json:"lifetime_spend_cents"`
	CompletedReservations int    `json:"completed_reservations"`
}

// LoyaltyTier is configuration, read-only to this service
type LoyaltyTier struct {
	Name                     string  `json:"name" yaml:"name"`
	MinSpendCents            int64   `json:"min_spend_cents" yaml:"min_spend_cents"`
	MinCompletedReservations int     `json:"min_completed_reservations" yaml:"min_completed_reservations"`
	DiscountRate             float64 `json:"discount_rate" yaml:"discount_rate"`
}

// Qualifies reports whether the customer meets both thresholds of the tier.
func (t LoyaltyTier) Qualifies(c *Customer) bool {
	return c.LifetimeSpendCents >= t.MinSpendCents && c.CompletedReservations >= t.MinCompletedReservations
}
