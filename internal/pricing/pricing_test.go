package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/venuegate/venuegate/internal/domain"
)

func event(price, sold, total uint64) domain.Event {
	return domain.Event{TicketPrice: price, TicketsSold: sold, TotalTickets: total}
}

func TestDynamicPrice(t *testing.T) {
	t.Parallel()

	t.Run("empty event costs half the base price", func(t *testing.T) {
		require.Equal(t, uint64(500), DynamicPrice(event(1000, 0, 4)))
	})

	t.Run("half-sold event costs the base price", func(t *testing.T) {
		require.Equal(t, uint64(1000), DynamicPrice(event(1000, 2, 4)))
	})

	t.Run("price rises with demand", func(t *testing.T) {
		require.Equal(t, uint64(750), DynamicPrice(event(1000, 1, 4)))
		require.Equal(t, uint64(1250), DynamicPrice(event(1000, 3, 4)))
	})

	t.Run("sold-out event costs one and a half times the base", func(t *testing.T) {
		require.Equal(t, uint64(1500), DynamicPrice(event(1000, 4, 4)))
	})

	t.Run("result truncates to whole units", func(t *testing.T) {
		// 0.75 multiplier on an odd price: 99 * 0.75 = 74.25
		require.Equal(t, uint64(74), DynamicPrice(event(99, 1, 4)))
	})
}

func TestApplyTierDiscount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		tier domain.Tier
		want uint64
	}{
		{domain.TierPlatinum, 800},
		{domain.TierGold, 850},
		{domain.TierSilver, 900},
		{domain.TierBronze, 950},
		{"", 1000}, // no loyalty account
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, ApplyTierDiscount(1000, tc.tier), "tier %q", tc.tier)
	}
}

func TestApplyTierDiscount_Truncates(t *testing.T) {
	t.Parallel()

	// 99 * 95 / 100 = 94.05
	require.Equal(t, uint64(94), ApplyTierDiscount(99, domain.TierBronze))
}
