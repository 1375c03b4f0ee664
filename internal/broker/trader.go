package broker

import (
	"mimir/internal/common"
)

// Market is the part of an exchange a strategy can observe and act on.
type Market interface {
	SubmitOrder(order common.Order)
	BestBidPrice() (float64, bool)
	BestAskPrice() (float64, bool)
	FairPriceEstimate() float64
}

// Strategy decides what, if anything, to submit at logical time now. The
// returned order's owner and timestamps are filled in by the Trader.
type Strategy interface {
	Decide(market Market, now int64) (common.Order, bool)
}

// StrategyFunc adapts a plain function to a Strategy.
type StrategyFunc func(market Market, now int64) (common.Order, bool)

func (f StrategyFunc) Decide(market Market, now int64) (common.Order, bool) {
	return f(market, now)
}

// Trader is a participant: an account that settles with the exchange plus the
// strategy that drives its order flow.
type Trader struct {
	*Account
	market   Market
	strategy Strategy
}

func NewTrader(account *Account, market Market, strategy Strategy) *Trader {
	return &Trader{
		Account:  account,
		market:   market,
		strategy: strategy,
	}
}

// Step asks the strategy for an order and submits it. Reports whether an
// order was submitted.
func (t *Trader) Step(now int64) bool {
	order, ok := t.strategy.Decide(t.market, now)
	if !ok {
		return false
	}

	order.ID = 0
	order.BrokerID = t.ID()
	order.SubmittedAt = now
	order.TotalQuantity = order.Quantity
	t.market.SubmitOrder(order)
	return true
}
