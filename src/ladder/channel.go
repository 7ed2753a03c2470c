package ladder

import "ladderbot/src/model"

// Channel is the (lower, upper) price band derived from the last 24h of candles.
type Channel struct {
	Lower float64
	Upper float64
}

// Valid reports whether both bounds are known.
func (c Channel) Valid() bool {
	return c.Lower > 0 && c.Upper > 0 && c.Lower <= c.Upper
}

// ChannelFromCandles centers the band on the mean candle mid with a width of half the
// window's full range. No candles yields the zero Channel.
func ChannelFromCandles(rows []model.Candle1m) Channel {
	if len(rows) == 0 {
		return Channel{}
	}

	sumMid := 0.0
	lo := rows[0].Min.InexactFloat64()
	hi := rows[0].Max.InexactFloat64()
	for _, r := range rows {
		sumMid += r.Mid.InexactFloat64()
		if v := r.Min.InexactFloat64(); v < lo {
			lo = v
		}
		if v := r.Max.InexactFloat64(); v > hi {
			hi = v
		}
	}

	mid := sumMid / float64(len(rows))
	spread := hi - lo
	return Channel{
		Lower: mid - spread/4,
		Upper: mid + spread/4,
	}
}
