package broker

import (
	"math/rand/v2"
	"sync"

	. "mimir/internal/common"
)

// defaultFairPrice anchors the player's quotes before the first trade.
const defaultFairPrice = 100.0

// Player quotes a random side around the fair price, within ±7%, for 3 to 10
// units. It is the source of most liquidity in a simulation.
type Player struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewPlayer(rng *rand.Rand) *Player {
	return &Player{rng: rng}
}

func (p *Player) Decide(market Market, _ int64) (Order, bool) {
	fair := market.FairPriceEstimate()
	if fair <= 0 {
		fair = defaultFairPrice
	}

	p.mu.Lock()
	buy := p.rng.Float64() < 0.5
	shift := p.rng.Float64()*0.14 - 0.07
	quantity := 3 + int64(p.rng.Float64()*8)
	p.mu.Unlock()

	side := Sell
	if buy {
		side = Buy
	}
	return Order{
		OrderType:  LimitOrder,
		Side:       side,
		LimitPrice: fair * (1.0 + shift),
		Quantity:   quantity,
	}, true
}

// BigWin waits for the top of book to move further than Threshold (a
// fraction) away from the fair price, then takes 3 units at that quote.
type BigWin struct {
	Threshold float64
}

func (b BigWin) Decide(market Market, _ int64) (Order, bool) {
	fair, bid, ask, ok := quotes(market)
	if !ok {
		return Order{}, false
	}

	if ask < fair*(1.0-b.Threshold) {
		return Order{OrderType: LimitOrder, Side: Buy, LimitPrice: ask, Quantity: 3}, true
	}
	if bid > fair*(1.0+b.Threshold) {
		return Order{OrderType: LimitOrder, Side: Sell, LimitPrice: bid, Quantity: 3}, true
	}
	return Order{}, false
}

// Analyst buys 2 at the ask when the mid is below the fair price and sells 2
// at the bid when it is above.
type Analyst struct{}

func (Analyst) Decide(market Market, _ int64) (Order, bool) {
	fair, bid, ask, ok := quotes(market)
	if !ok {
		return Order{}, false
	}

	mid := 0.5 * (bid + ask)
	switch {
	case mid < fair:
		return Order{OrderType: LimitOrder, Side: Buy, LimitPrice: ask, Quantity: 2}, true
	case mid > fair:
		return Order{OrderType: LimitOrder, Side: Sell, LimitPrice: bid, Quantity: 2}, true
	}
	return Order{}, false
}

// quotes gathers the fair price and both sides of the book, reporting false
// when any of them is missing.
func quotes(market Market) (fair, bid, ask float64, ok bool) {
	fair = market.FairPriceEstimate()
	if fair <= 0 {
		return 0, 0, 0, false
	}
	bid, bidOk := market.BestBidPrice()
	ask, askOk := market.BestAskPrice()
	if !bidOk || !askOk {
		return 0, 0, 0, false
	}
	return fair, bid, ask, true
}
