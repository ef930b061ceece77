// Package pricing computes demand-based ticket prices and loyalty-tier
// discounts. All functions are pure.
package pricing

import "github.com/venuegate/venuegate/internal/domain"

// DynamicPrice scales an event's base ticket price by its sell-through
// ratio. The multiplier runs from 0.5 for an empty event to 1.5 for a
// sold-out one; the result is truncated to whole units.
func DynamicPrice(e domain.Event) uint64 {
	multiplier := float64(e.TicketsSold)/float64(e.TotalTickets) + 0.5
	return uint64(float64(e.TicketPrice) * multiplier)
}

// ApplyTierDiscount returns the price after the purchaser's tier discount.
// An unknown tier (no loyalty account) pays full price. Percentage math is
// integer multiply-then-divide, truncating.
func ApplyTierDiscount(price uint64, tier domain.Tier) uint64 {
	switch tier {
	case domain.TierPlatinum:
		return price * 80 / 100
	case domain.TierGold:
		return price * 85 / 100
	case domain.TierSilver:
		return price * 90 / 100
	case domain.TierBronze:
		return price * 95 / 100
	default:
		return price
	}
}
