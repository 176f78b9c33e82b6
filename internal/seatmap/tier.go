// Package seatmap renders an interactive venue seat map as a flat list of
// draw commands.  A Viewport owns the pan/zoom transform, the zoom scale
// picks one of three detail tiers, and a Bridge forwards seat clicks to
// a booking cart.
package seatmap

// Tier is the level of detail drawn for the current zoom scale.
type Tier string

const (
	TierSection Tier = "section"
	TierRow     Tier = "row"
	TierSeat    Tier = "seat"
)

// Scale thresholds at which the next tier takes over.  A scale equal to
// a threshold belongs to the higher tier.
const (
	RowTierScale  = 1.5
	SeatTierScale = 3.0
)

// DetailTier maps a zoom scale to a tier.
func DetailTier(scale float64) Tier {
	switch {
	case scale >= SeatTierScale:
		return TierSeat
	case scale >= RowTierScale:
		return TierRow
	default:
		return TierSection
	}
}
