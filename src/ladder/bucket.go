package ladder

import "math"

// Bucket range factors.
const (
	bucketTopFactor      = 0.99
	bucketTopFallback    = 0.997
	bucketFloorFallback  = 0.995
	bucketBudgetHeadroom = 0.999
)

// BucketParams configures the wide grid.
type BucketParams struct {
	Count int
	// Skew > 1 concentrates levels near the floor.
	Skew          float64
	SizeBottomUSD float64
	SizeTopUSD    float64

	MicroOffsetMin float64
	MicroOffsetMax float64

	MinNotional    float64
	PricePrecision int
}

// BucketInput is the caller's request: spend Percent of FreeQuote between Floor and last.
type BucketInput struct {
	Last      float64
	Floor     float64
	FreeQuote float64
	Percent   float64
}

// BucketPlan is the fitted grid, ordered from the floor up.
type BucketPlan struct {
	Floor  float64
	Top    float64
	Budget float64
	Orders []Order
}

// StopAt is the spend after which sequential placement stops.
func (b BucketPlan) StopAt() float64 {
	return b.Budget * bucketBudgetHeadroom
}

// BucketRange returns [floor, top] for the grid, relaxing the top and then the floor
// when the requested floor leaves no room under last.
func BucketRange(last, floor float64) (float64, float64) {
	top := last * bucketTopFactor
	if top <= floor {
		top = last * bucketTopFallback
	}
	if top <= floor {
		floor = top * bucketFloorFallback
	}
	return floor, top
}

// BucketPrices spaces count levels between floor and top with a power-law of exponent
// max(1, skew), nudging each down by a small random fraction and clamping into range.
func BucketPrices(floor, top float64, count int, skew float64, microMin, microMax float64, r Rand) []float64 {
	if count <= 0 {
		return nil
	}
	exp := math.Max(1, skew)
	prices := make([]float64, count)
	for i := 0; i < count; i++ {
		t := (float64(i) + 0.5) / float64(count)
		p := floor + (top-floor)*math.Pow(t, exp)
		p *= 1 - uniform(r, microMin, microMax)
		prices[i] = math.Min(math.Max(p, floor), top)
	}
	return prices
}

// BucketSizes decays from bottom (near the floor) to top (near last).
func BucketSizes(count int, bottom, top, skew float64) []float64 {
	if count <= 0 {
		return nil
	}
	sizes := make([]float64, count)
	for i := 0; i < count; i++ {
		t := (float64(i) + 0.5) / float64(count)
		sizes[i] = top + (bottom-top)*math.Pow(1-t, skew)
	}
	return sizes
}

// PlanBuckets builds the grid and scales it to Percent of the free quote balance.
func PlanBuckets(in BucketInput, p BucketParams, r Rand) BucketPlan {
	floor, top := BucketRange(in.Last, in.Floor)
	plan := BucketPlan{
		Floor:  floor,
		Top:    top,
		Budget: in.FreeQuote * in.Percent / 100,
	}
	if in.Last <= 0 || plan.Budget < p.MinNotional {
		return plan
	}

	prices := BucketPrices(floor, top, p.Count, p.Skew, p.MicroOffsetMin, p.MicroOffsetMax, r)
	sizes := BucketSizes(p.Count, p.SizeBottomUSD, p.SizeTopUSD, p.Skew)

	cands := make([]Order, 0, len(prices))
	for i := range prices {
		cands = append(cands, Order{Price: prices[i], USD: sizes[i]})
	}

	cands = dropBelow(cands, p.MinNotional)
	total := totalUSD(cands)
	if total <= 0 {
		return plan
	}

	k := plan.Budget / total
	for i := range cands {
		cands[i].USD *= k
	}
	cands = dropBelow(cands, p.MinNotional)

	plan.Orders = finalizeBuy(cands, p.MinNotional, p.PricePrecision)
	return plan
}
