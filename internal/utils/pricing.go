package utils

import (
	"fmt"
	"math"
)

// EquipmentCharge is one equipment selection priced per unit per day
type EquipmentCharge struct {
	PricePerDayCents int64
	Quantity         int
	Days             int
}

// ActivityCharge is one activity booking priced per participant
type ActivityCharge struct {
	PricePerParticipantCents int64
	Participants             int
}

// CostInput carries everything needed to price a reservation
type CostInput struct {
	DailyRateCents int64
	Days           int
	Equipment      []EquipmentCharge
	Activities     []ActivityCharge
	DiscountRate   float64
	TaxRate        float64
}

// CostBreakdown provides detailed cost breakdown. All amounts are in cents.
//
// The discount applies to the rate-bearing part of the subtotal (vehicle and
// equipment, both charged per day). Activities are flat-priced and never discounted.
type CostBreakdown struct {
	VehicleCents        int64   `json:"vehicle_cents"`
	EquipmentCents      int64   `json:"equipment_cents"`
	ActivityCents       int64   `json:"activity_cents"`
	SubtotalCents       int64   `json:"subtotal_cents"`
	RateBearingCents    int64   `json:"rate_bearing_cents"`
	DiscountRate        float64 `json:"discount_rate"`
	DiscountCents       int64   `json:"discount_cents"`
	DiscountedSubtotal  int64   `json:"discounted_subtotal_cents"`
	TaxRate             float64 `json:"tax_rate"`
	TaxCents            int64   `json:"tax_cents"`
	TotalCents          int64   `json:"total_cents"`
	EquipmentLineTotals []int64 `json:"equipment_line_totals"`
	ActivityLineTotals  []int64 `json:"activity_line_totals"`
}

// CalculateReservationCost prices a reservation: base subtotal, loyalty discount, tax, total.
func CalculateReservationCost(in CostInput) (CostBreakdown, error) {
	if in.Days <= 0 {
		return CostBreakdown{}, fmt.Errorf("days must be positive")
	}
	if in.DailyRateCents < 0 {
		return CostBreakdown{}, fmt.Errorf("daily rate must not be negative")
	}
	if in.DiscountRate < 0 || in.DiscountRate >= 1 {
		return CostBreakdown{}, fmt.Errorf("discount rate must be in [0,1)")
	}
	if in.TaxRate < 0 || in.TaxRate >= 1 {
		return CostBreakdown{}, fmt.Errorf("tax rate must be in [0,1)")
	}

	vehicle, ok := mulCents(in.DailyRateCents, int64(in.Days))
	if !ok {
		return CostBreakdown{}, errOverflow("vehicle")
	}
	b := CostBreakdown{
		VehicleCents: vehicle,
		DiscountRate: in.DiscountRate,
		TaxRate:      in.TaxRate,
	}

	for i, eq := range in.Equipment {
		if eq.Quantity <= 0 || eq.Days <= 0 {
			return CostBreakdown{}, fmt.Errorf("equipment line %d: quantity and days must be positive", i)
		}
		if eq.PricePerDayCents < 0 {
			return CostBreakdown{}, fmt.Errorf("equipment line %d: price must not be negative", i)
		}
		perDay, ok1 := mulCents(eq.PricePerDayCents, int64(eq.Quantity))
		line, ok2 := mulCents(perDay, int64(eq.Days))
		sum, ok3 := addCents(b.EquipmentCents, line)
		if !ok1 || !ok2 || !ok3 {
			return CostBreakdown{}, errOverflow(fmt.Sprintf("equipment line %d", i))
		}
		b.EquipmentLineTotals = append(b.EquipmentLineTotals, line)
		b.EquipmentCents = sum
	}

	for i, act := range in.Activities {
		if act.Participants <= 0 {
			return CostBreakdown{}, fmt.Errorf("activity line %d: participants must be positive", i)
		}
		if act.PricePerParticipantCents < 0 {
			return CostBreakdown{}, fmt.Errorf("activity line %d: price must not be negative", i)
		}
		line, ok1 := mulCents(act.PricePerParticipantCents, int64(act.Participants))
		sum, ok2 := addCents(b.ActivityCents, line)
		if !ok1 || !ok2 {
			return CostBreakdown{}, errOverflow(fmt.Sprintf("activity line %d", i))
		}
		b.ActivityLineTotals = append(b.ActivityLineTotals, line)
		b.ActivityCents = sum
	}

	rateBearing, ok1 := addCents(b.VehicleCents, b.EquipmentCents)
	subtotal, ok2 := addCents(rateBearing, b.ActivityCents)
	if !ok1 || !ok2 || float64(subtotal)*(1+in.TaxRate) >= math.MaxInt64 {
		return CostBreakdown{}, errOverflow("subtotal")
	}
	b.RateBearingCents = rateBearing
	b.SubtotalCents = subtotal
	b.DiscountCents = roundCents(float64(b.RateBearingCents) * in.DiscountRate)
	b.DiscountedSubtotal = b.SubtotalCents - b.DiscountCents
	b.TaxCents = roundCents(float64(b.DiscountedSubtotal) * in.TaxRate)
	b.TotalCents = b.DiscountedSubtotal + b.TaxCents

	return b, nil
}

func errOverflow(part string) error {
	return fmt.Errorf("%s: amount overflows int64 cents", part)
}

// mulCents multiplies two non-negative amounts, reporting false on overflow.
func mulCents(a, b int64) (int64, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}

// addCents adds two non-negative amounts, reporting false on overflow.
func addCents(a, b int64) (int64, bool) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}

// roundCents rounds half away from zero.
func roundCents(v float64) int64 {
	return int64(math.Round(v))
}
