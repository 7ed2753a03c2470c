package ladder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBucketRange(t *testing.T) {
	floor, top := BucketRange(1.0, 0.5)
	require.InDelta(t, 0.5, floor, 1e-12)
	require.InDelta(t, 0.99, top, 1e-12)

	floor, top = BucketRange(1.0, 0.995)
	require.InDelta(t, 0.995, floor, 1e-12)
	require.InDelta(t, 0.997, top, 1e-12)

	floor, top = BucketRange(1.0, 0.998)
	require.InDelta(t, 0.997*0.995, floor, 1e-12)
	require.InDelta(t, 0.997, top, 1e-12)
}

func TestBucketPricesAscendAndStayInRange(t *testing.T) {
	prices := BucketPrices(0.5, 0.99, 10, 1.15, 0.00005, 0.00025, fixedRand(0.3))

	require.Len(t, prices, 10)
	for i, p := range prices {
		require.GreaterOrEqual(t, p, 0.5)
		require.LessOrEqual(t, p, 0.99)
		if i > 0 {
			require.Greater(t, p, prices[i-1])
		}
	}
	// skew > 1 packs the lower half of the range
	require.Less(t, prices[4], 0.5+(0.99-0.5)/2)
}

func TestBucketSizesLargestNearFloor(t *testing.T) {
	sizes := BucketSizes(10, 20, 1.02, 1.15)

	require.Len(t, sizes, 10)
	for i := 1; i < len(sizes); i++ {
		require.Less(t, sizes[i], sizes[i-1])
	}
	require.Less(t, sizes[0], 20.0)
	require.Greater(t, sizes[9], 1.02)
}

func TestPlanBuckets_FitsBudget(t *testing.T) {
	p := BucketParams{
		Count:          60,
		Skew:           1.15,
		SizeBottomUSD:  20,
		SizeTopUSD:     1.02,
		MicroOffsetMin: 0.00005,
		MicroOffsetMax: 0.00025,
		MinNotional:    1.2,
		PricePrecision: 6,
	}

	plan := PlanBuckets(BucketInput{Last: 1.0, Floor: 0.5, FreeQuote: 200, Percent: 50}, p, fixedRand(0.5))

	require.InDelta(t, 100.0, plan.Budget, 1e-12)
	require.InDelta(t, 99.9, plan.StopAt(), 1e-9)
	require.NotEmpty(t, plan.Orders)
	require.LessOrEqual(t, TotalNotional(plan.Orders), plan.Budget)
	for _, o := range plan.Orders {
		require.GreaterOrEqual(t, o.Notional(), p.MinNotional)
		require.GreaterOrEqual(t, o.Price, plan.Floor)
		require.LessOrEqual(t, o.Price, plan.Top)
	}
}

func TestPlanBuckets_BudgetBelowMinimum(t *testing.T) {
	plan := PlanBuckets(BucketInput{Last: 1.0, Floor: 0.5, FreeQuote: 2, Percent: 50}, BucketParams{Count: 10, Skew: 1, SizeBottomUSD: 5, SizeTopUSD: 2, MinNotional: 1.2, PricePrecision: 6}, nil)
	require.Empty(t, plan.Orders)
}
