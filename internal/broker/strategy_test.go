package broker

import (
	"math/rand/v2"
	"testing"

	. "mimir/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Setup & Helpers --------------------------------------------------------

// fakeMarket is a fixed quote; submitted orders are collected.
type fakeMarket struct {
	fair      float64
	bid, ask  float64
	hasBid    bool
	hasAsk    bool
	submitted []Order
}

func (m *fakeMarket) SubmitOrder(order Order) {
	m.submitted = append(m.submitted, order)
}

func (m *fakeMarket) BestBidPrice() (float64, bool) { return m.bid, m.hasBid }
func (m *fakeMarket) BestAskPrice() (float64, bool) { return m.ask, m.hasAsk }
func (m *fakeMarket) FairPriceEstimate() float64    { return m.fair }

func quoted(fair, bid, ask float64) *fakeMarket {
	return &fakeMarket{fair: fair, bid: bid, ask: ask, hasBid: true, hasAsk: true}
}

// --- Tests ------------------------------------------------------------------

func TestPlayer_QuotesAroundFair(t *testing.T) {
	player := NewPlayer(rand.New(rand.NewPCG(1, 2)))

	for _, fair := range []float64{-1, 250} {
		anchor := fair
		if anchor <= 0 {
			anchor = defaultFairPrice
		}
		market := &fakeMarket{fair: fair}
		for range 200 {
			order, ok := player.Decide(market, 0)
			require.True(t, ok)
			assert.Equal(t, LimitOrder, order.OrderType)
			assert.GreaterOrEqual(t, order.LimitPrice, anchor*0.93-1e-9)
			assert.LessOrEqual(t, order.LimitPrice, anchor*1.07+1e-9)
			assert.GreaterOrEqual(t, order.Quantity, int64(3))
			assert.LessOrEqual(t, order.Quantity, int64(10))
		}
	}
}

func TestPlayer_UsesBothSides(t *testing.T) {
	player := NewPlayer(rand.New(rand.NewPCG(3, 4)))
	market := &fakeMarket{fair: 100}

	sides := map[Side]int{}
	for range 200 {
		order, _ := player.Decide(market, 0)
		sides[order.Side]++
	}
	assert.Positive(t, sides[Buy])
	assert.Positive(t, sides[Sell])
}

func TestBigWin(t *testing.T) {
	strategy := BigWin{Threshold: 0.03}

	_, ok := strategy.Decide(&fakeMarket{fair: -1}, 0)
	assert.False(t, ok, "no fair price yet")

	_, ok = strategy.Decide(&fakeMarket{fair: 100, bid: 99, hasBid: true}, 0)
	assert.False(t, ok, "one sided book")

	order, ok := strategy.Decide(quoted(100, 90, 96), 0)
	require.True(t, ok)
	assert.Equal(t, Order{OrderType: LimitOrder, Side: Buy, LimitPrice: 96, Quantity: 3}, order)

	order, ok = strategy.Decide(quoted(100, 104, 110), 0)
	require.True(t, ok)
	assert.Equal(t, Order{OrderType: LimitOrder, Side: Sell, LimitPrice: 104, Quantity: 3}, order)

	_, ok = strategy.Decide(quoted(100, 99, 101), 0)
	assert.False(t, ok, "quotes within threshold")
}

func TestAnalyst(t *testing.T) {
	strategy := Analyst{}

	order, ok := strategy.Decide(quoted(100, 90, 96), 0)
	require.True(t, ok)
	assert.Equal(t, Order{OrderType: LimitOrder, Side: Buy, LimitPrice: 96, Quantity: 2}, order)

	order, ok = strategy.Decide(quoted(100, 104, 110), 0)
	require.True(t, ok)
	assert.Equal(t, Order{OrderType: LimitOrder, Side: Sell, LimitPrice: 104, Quantity: 2}, order)

	_, ok = strategy.Decide(quoted(100, 98, 102), 0)
	assert.False(t, ok, "mid equals fair")

	_, ok = strategy.Decide(&fakeMarket{fair: 100}, 0)
	assert.False(t, ok, "empty book")
}

func TestTrader_Step(t *testing.T) {
	market := quoted(100, 90, 96)
	trader := NewTrader(NewAccount(5, 100, 0), market, Analyst{})

	assert.True(t, trader.Step(12))
	require.Len(t, market.submitted, 1)
	order := market.submitted[0]
	assert.Equal(t, 5, order.BrokerID)
	assert.Equal(t, int64(12), order.SubmittedAt)
	assert.Equal(t, uint64(0), order.ID, "ids are the exchange's to assign")
	assert.Equal(t, int64(2), order.TotalQuantity)

	idle := NewTrader(NewAccount(6, 100, 0), market, StrategyFunc(func(Market, int64) (Order, bool) {
		return Order{}, false
	}))
	assert.False(t, idle.Step(13))
	assert.Len(t, market.submitted, 1)
}
