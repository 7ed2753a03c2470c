package ladder

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func testBuyParams() BuyParams {
	return BuyParams{
		BelowOffsets:       []float64{0.01, 0.02},
		BelowSizeUSD:       3,
		InChannelDiscounts: []float64{0.015, 0.005, 0.010},
		InChannelMinUSD:    2,
		InChannelMaxUSD:    6,
		AboveSizeUSD:       5,
		MinNotional:        1.2,
		PricePrecision:     6,
	}
}

func TestPlanBuy_AboveChannelTwoOrders(t *testing.T) {
	plan := PlanBuy(BuyInput{Last: 0.10, Channel: Channel{Lower: 0.08, Upper: 0.09}, Available: 100}, testBuyParams(), fixedRand(0.7))

	require.Equal(t, RegimeAbove, plan.Regime)
	require.Len(t, plan.Orders, 2)
	require.InDelta(t, 0.095, plan.Orders[0].Price, 1e-12)
	require.InDelta(t, 0.09, plan.Orders[1].Price, 1e-12)
	require.Equal(t, plan.Orders[0].USD, plan.Orders[1].USD)
	require.InDelta(t, 52.631578, plan.Orders[0].Qty, 1e-9)
	require.InDelta(t, 55.555555, plan.Orders[1].Qty, 1e-9)
}

func TestPlanBuy_AboveChannelCollapsesToMid(t *testing.T) {
	plan := PlanBuy(BuyInput{Last: 0.10, Channel: Channel{Lower: 0.08, Upper: 0.09}, Available: 6}, testBuyParams(), nil)

	require.True(t, plan.Collapsed)
	require.Len(t, plan.Orders, 1)
	require.InDelta(t, 0.095, plan.Orders[0].Price, 1e-12)
	require.InDelta(t, 63.157894, plan.Orders[0].Qty, 1e-9)
	require.LessOrEqual(t, plan.Orders[0].Notional(), 6.0)
}

func TestPlanBuy_AboveChannelBelowMinimumPlacesNothing(t *testing.T) {
	plan := PlanBuy(BuyInput{Last: 0.10, Channel: Channel{Lower: 0.08, Upper: 0.09}, Available: 1.0}, testBuyParams(), nil)
	require.Empty(t, plan.Orders)
}

func TestPlanBuy_InChannelSizesByRank(t *testing.T) {
	plan := PlanBuy(BuyInput{Last: 1.0, Channel: Channel{Lower: 0.9, Upper: 1.1}, Available: 100}, testBuyParams(), nil)

	require.Equal(t, RegimeInChannel, plan.Regime)
	require.Len(t, plan.Orders, 3)

	wantPrices := []float64{0.995, 0.99, 0.985}
	wantUSD := []float64{2, 4, 6}
	for i, o := range plan.Orders {
		require.InDelta(t, wantPrices[i], o.Price, 1e-12)
		require.InDelta(t, wantUSD[i], o.USD, 1e-12)
	}
}

func TestPlanBuy_ScalesToAvailableAndRedrops(t *testing.T) {
	plan := PlanBuy(BuyInput{Last: 1.0, Channel: Channel{Lower: 0.9, Upper: 1.1}, Available: 6}, testBuyParams(), nil)

	require.True(t, plan.Scaled)
	require.Len(t, plan.Orders, 2)
	require.InDelta(t, 2.0, plan.Orders[0].USD, 1e-12)
	require.InDelta(t, 3.0, plan.Orders[1].USD, 1e-12)
	require.LessOrEqual(t, TotalNotional(plan.Orders), 6.0)
}

func TestPlanBuy_BelowChannelJittersDown(t *testing.T) {
	p := testBuyParams()
	p.MicroOffsetMin = 0.0001
	p.MicroOffsetMax = 0.0002

	plan := PlanBuy(BuyInput{Last: 0.07, Channel: Channel{Lower: 0.08, Upper: 0.09}, Available: 100}, p, fixedRand(0.5))

	require.Equal(t, RegimeBelow, plan.Regime)
	require.Len(t, plan.Orders, 2)
	for i, off := range p.BelowOffsets {
		base := 0.07 * (1 - off)
		require.Less(t, plan.Orders[i].Price, base)
		require.Greater(t, plan.Orders[i].Price, base*(1-0.001))
		require.InDelta(t, 3.0, plan.Orders[i].USD, 1e-12)
	}
}

func TestPlanBuy_UnknownChannelUsesInChannel(t *testing.T) {
	plan := PlanBuy(BuyInput{Last: 1.0, Available: 100}, testBuyParams(), nil)
	require.Equal(t, RegimeInChannel, plan.Regime)
	require.Len(t, plan.Orders, 3)
}

func TestPlanBuy_NeverBelowMinimumNorOverBudget(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	p := testBuyParams()
	p.MicroOffsetMin = 0.00005
	p.MicroOffsetMax = 0.00025

	for i := 0; i < 500; i++ {
		lower := 0.05 + rnd.Float64()*0.07
		in := BuyInput{
			Last:      0.05 + rnd.Float64()*0.10,
			Channel:   Channel{Lower: lower, Upper: lower + 0.005 + rnd.Float64()*0.025},
			Available: rnd.Float64() * 30,
		}
		p.AboveSizeUSD = 1 + rnd.Float64()*8
		p.BelowSizeUSD = 1 + rnd.Float64()*8

		plan := PlanBuy(in, p, rnd)
		for _, o := range plan.Orders {
			require.GreaterOrEqual(t, o.Notional(), p.MinNotional, "case %d: %+v", i, in)
		}
		require.LessOrEqual(t, TotalNotional(plan.Orders), in.Available*1.001, "case %d: %+v", i, in)
	}
}
