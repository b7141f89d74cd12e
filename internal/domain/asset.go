package domain

import "fmt"

// AssetStatus is a cached hint. Authoritative availability always comes from reservations.
type AssetStatus string

const (
	AssetStatusAvailable   AssetStatus = "AVAILABLE"
	AssetStatusReserved    AssetStatus = "RESERVED"
	AssetStatusMaintenance AssetStatus = "MAINTENANCE"
)

func ParseAssetStatus(s string) (AssetStatus, error) {
	switch st := AssetStatus(s); st {
	case AssetStatusAvailable, AssetStatusReserved, AssetStatusMaintenance:
		return st, nil
	}
	return "", fmt.Errorf("unknown asset status %q", s)
}

// Asset is a rental vehicle
type Asset struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	DailyRateCents int64       `json:"daily_rate_cents"`
	Status         AssetStatus `json:"status"`
	Location       string      `json:"location"`
}

// Equipment is an add-on rented per unit per day
type Equipment struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	PricePerDayCents int64  `json:"price_per_day_cents"`
}

// Activity is an add-on booked for a given date, priced per participant
type Activity struct {
	ID                       int64  `json:"id"`
	Name                     string `json:"name"`
	PricePerParticipantCents int64  `json:"price_per_participant_cents"`
}
