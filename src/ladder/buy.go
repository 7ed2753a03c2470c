package ladder

import "sort"

// Regime is where the last price sits relative to the channel.
type Regime string

const (
	RegimeAbove     Regime = "above"
	RegimeBelow     Regime = "below"
	RegimeInChannel Regime = "in_channel"
)

// BuyParams configures the BUY ladder.
type BuyParams struct {
	// Fractions below last, e.g. 0.005 = 0.5% below.
	BelowOffsets []float64
	BelowSizeUSD float64

	// Fractions below last; the largest discount gets InChannelMaxUSD.
	InChannelDiscounts []float64
	InChannelMinUSD    float64
	InChannelMaxUSD    float64

	AboveSizeUSD float64

	MicroOffsetMin float64
	MicroOffsetMax float64

	MinNotional    float64
	PricePrecision int
}

// BuyInput is the market and cash state a BUY plan is computed from.
type BuyInput struct {
	Last      float64
	Channel   Channel
	Available float64
}

// BuyPlan is the fitted set of BUY orders.
type BuyPlan struct {
	Regime    Regime
	Orders    []Order
	Desired   float64
	Collapsed bool
	Scaled    bool
}

// DetectRegime classifies last against the channel. An unknown channel counts as in-channel.
func DetectRegime(last float64, ch Channel) Regime {
	if !ch.Valid() {
		return RegimeInChannel
	}
	if last > ch.Upper {
		return RegimeAbove
	}
	if last < ch.Lower {
		return RegimeBelow
	}
	return RegimeInChannel
}

// PlanBuy builds the BUY ladder for the current regime and fits it to the available cash.
func PlanBuy(in BuyInput, p BuyParams, r Rand) BuyPlan {
	plan := BuyPlan{Regime: DetectRegime(in.Last, in.Channel)}
	if in.Last <= 0 {
		return plan
	}

	var cands []Order
	switch plan.Regime {
	case RegimeAbove:
		mid := (in.Last + in.Channel.Upper) / 2
		cands = []Order{
			{Price: mid, USD: p.AboveSizeUSD},
			{Price: in.Channel.Upper, USD: p.AboveSizeUSD},
		}
	case RegimeBelow:
		for _, off := range p.BelowOffsets {
			price := in.Last * (1 - off) * (1 - uniform(r, p.MicroOffsetMin, p.MicroOffsetMax))
			cands = append(cands, Order{Price: price, USD: p.BelowSizeUSD})
		}
	default:
		levels := append([]float64(nil), p.InChannelDiscounts...)
		sort.Float64s(levels)
		for i, d := range levels {
			size := p.InChannelMaxUSD
			if len(levels) > 1 {
				t := float64(i) / float64(len(levels)-1)
				size = p.InChannelMinUSD + (p.InChannelMaxUSD-p.InChannelMinUSD)*t
			}
			price := in.Last * (1 - d) * (1 - uniform(r, p.MicroOffsetMin, p.MicroOffsetMax))
			cands = append(cands, Order{Price: price, USD: size})
		}
	}

	cands = dropBelow(cands, p.MinNotional)
	plan.Desired = totalUSD(cands)

	if plan.Desired > in.Available {
		if plan.Regime == RegimeAbove && in.Available >= p.MinNotional && len(cands) > 0 {
			mid := (in.Last + in.Channel.Upper) / 2
			cands = []Order{{Price: mid, USD: in.Available}}
			plan.Collapsed = true
		} else {
			k := 0.0
			if in.Available > 0 {
				k = in.Available / plan.Desired
			}
			for i := range cands {
				cands[i].USD *= k
			}
			cands = dropBelow(cands, p.MinNotional)
			plan.Scaled = true
		}
	}

	plan.Orders = finalizeBuy(cands, p.MinNotional, p.PricePrecision)
	return plan
}
