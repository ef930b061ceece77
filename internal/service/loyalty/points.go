package loyalty

import (
	"fmt"
	"time"

	"github.com/venuegate/venuegate/internal/domain"
)

// CalculatePoints maps a purchase amount to earned points: one point per
// ten units spent, plus a bonus for larger purchases. Bonus brackets are
// mutually exclusive, highest first.
func CalculatePoints(amount uint64) uint64 {
	base := amount / 10

	var bonus uint64
	switch {
	case amount >= 1000:
		bonus = base / 2 // 50% bonus
	case amount >= 500:
		bonus = base / 4 // 25% bonus
	case amount >= 200:
		bonus = base / 10 // 10% bonus
	}

	return base + bonus
}

// TierFor maps an accumulated point total to its tier.
func TierFor(points uint64) domain.Tier {
	switch {
	case points >= 10000:
		return domain.TierPlatinum
	case points >= 5000:
		return domain.TierGold
	case points >= 2000:
		return domain.TierSilver
	default:
		return domain.TierBronze
	}
}

// ApplyAward credits the points earned for a purchase of the given amount,
// appends the history entry and recomputes the tier from the new total.
// It returns the points earned. The account is not persisted here.
func ApplyAward(acc *domain.LoyaltyAccount, amount uint64, now time.Time) uint64 {
	earned := CalculatePoints(amount)

	acc.Points += earned
	acc.History = append(acc.History, domain.PointsTransaction{
		Timestamp:   now,
		Points:      int64(earned),
		Description: fmt.Sprintf("Points earned from purchase: %d", amount),
	})
	acc.Tier = TierFor(acc.Points)

	return earned
}
