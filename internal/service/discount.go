package service

import (
	"sort"
	"strings"

	"vehicle-rental-backend/internal/domain"
)

type discountService struct {
	// ordered from lowest to highest tier
	tiers []domain.LoyaltyTier
}

// NewDiscountService orders the configured tiers by their thresholds so the
// first entry is the lowest tier.
func NewDiscountService(tiers []domain.LoyaltyTier) DiscountService {
	sorted := append([]domain.LoyaltyTier(nil), tiers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.MinSpendCents != b.MinSpendCents {
			return a.MinSpendCents < b.MinSpendCents
		}
		if a.MinCompletedReservations != b.MinCompletedReservations {
			return a.MinCompletedReservations < b.MinCompletedReservations
		}
		return a.DiscountRate < b.DiscountRate
	})
	return &discountService{tiers: sorted}
}

// Resolve returns the discount rate of the named tier. Unknown or empty names
// get the lowest tier's rate, or zero when no tiers are configured.
func (s *discountService) Resolve(tier string) float64 {
	for _, t := range s.tiers {
		if strings.EqualFold(t.Name, tier) {
			return t.DiscountRate
		}
	}
	if len(s.tiers) == 0 {
		return 0
	}
	return s.tiers[0].DiscountRate
}

// TierFor returns the customer's assigned tier, or the highest tier whose
// thresholds the customer meets.
func (s *discountService) TierFor(c *domain.Customer) string {
	if c == nil {
		return s.lowest()
	}
	if c.Tier != "" {
		return c.Tier
	}
	best := s.lowest()
	for _, t := range s.tiers {
		if t.Qualifies(c) {
			best = t.Name
		}
	}
	return best
}

func (s *discountService) RateFor(c *domain.Customer) float64 {
	return s.Resolve(s.TierFor(c))
}

func (s *discountService) lowest() string {
	if len(s.tiers) == 0 {
		return ""
	}
	return s.tiers[0].Name
}
