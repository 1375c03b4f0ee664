package engine

import (
	"math"
	"sync"

	. "mimir/internal/common"

	"github.com/rs/zerolog"
	"github.com/tidwall/btree"
)

// PriceLevel is the FIFO queue of orders resting at one price. Orders only
// ever leave from the head and join at the tail, so an order's absolute
// position (popped + index) never changes while it rests.
type PriceLevel struct {
	priceLevel float64
	orders     []*Order
	popped     uint64
}

func (level *PriceLevel) head() *Order {
	return level.orders[0]
}

func (level *PriceLevel) push(order *Order) uint64 {
	level.orders = append(level.orders, order)
	return level.popped + uint64(len(level.orders)) - 1
}

func (level *PriceLevel) pop() *Order {
	order := level.orders[0]
	level.orders[0] = nil
	level.orders = level.orders[1:]
	level.popped++
	return order
}

func (level *PriceLevel) at(position uint64) (*Order, bool) {
	if position < level.popped {
		return nil, false
	}
	i := position - level.popped
	if i >= uint64(len(level.orders)) {
		return nil, false
	}
	return level.orders[i], true
}

// orderRef locates a resting order without holding a reference into the
// level's backing slice.
type orderRef struct {
	level    *PriceLevel
	position uint64
}

type PriceLevels = btree.BTreeG[*PriceLevel]

type OrderBook struct {
	mu     sync.Mutex
	logger zerolog.Logger

	// Price levels to orders sat on the price level, sorted by time added
	// as they will be push-back'd.
	bids *PriceLevels
	asks *PriceLevels

	index   map[uint64]orderRef // order id -> location
	seq     uint64              // last insertion sequence handed out
	resting int
}

func NewOrderBook(logger zerolog.Logger) *OrderBook {
	// Sorted greatest first.
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.priceLevel > b.priceLevel
	})
	// Sorted least first.
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.priceLevel < b.priceLevel
	})
	return &OrderBook{
		logger: logger,
		bids:   bids,
		asks:   asks,
		index:  make(map[uint64]orderRef),
	}
}

// AddOrder rests an order in the book. Market orders are rewritten as limit
// orders priced at the far end of the book (+Inf for buys, 0 for sells) so a
// single matching path handles both. Orders with a non-positive quantity, limit
// orders priced NaN, and limit asks at an infinite price are dropped without a
// signal. A limit bid may rest at an infinite price since trades execute at the
// ask.
//
// Order ids are expected to be unique. If a caller reuses one, the index tracks
// the most recent order under that id.
func (book *OrderBook) AddOrder(order Order) {
	book.mu.Lock()
	defer book.mu.Unlock()

	if order.Quantity <= 0 {
		book.logger.Debug().
			Uint64("order_id", order.ID).
			Int64("quantity", order.Quantity).
			Msg("dropping order with non-positive quantity")
		return
	}
	// Limit prices must be orderable, and an ask's price must be settleable.
	if order.OrderType == LimitOrder && (math.IsNaN(order.LimitPrice) ||
		(order.Side == Sell && math.IsInf(order.LimitPrice, 0))) {
		book.logger.Debug().
			Uint64("order_id", order.ID).
			Float64("price", order.LimitPrice).
			Msg("dropping limit order with non-finite price")
		return
	}

	if order.OrderType == MarketOrder {
		switch order.Side {
		case Buy:
			order.LimitPrice = math.Inf(1)
		case Sell:
			order.LimitPrice = 0
		}
		order.OrderType = LimitOrder
	}
	if order.TotalQuantity == 0 {
		order.TotalQuantity = order.Quantity
	}

	book.seq++
	order.Seq = book.seq

	levels := book.side(order.Side)

	// Levels comparator only accounts for price levels, so we create a dummy
	// price level for the search.
	level, ok := levels.GetMut(&PriceLevel{priceLevel: order.LimitPrice})
	if !ok {
		level = &PriceLevel{priceLevel: order.LimitPrice}
		levels.Set(level)
	}
	position := level.push(&order)
	book.resting++

	book.index[order.ID] = orderRef{
		level:    level,
		position: position,
	}
}

// TryMatchOne matches the head of the best bid level against the head of the
// best ask level, if they cross. The trade always executes at the ask level's
// price. Exactly one trade is produced per call, so callers loop until it
// reports false to drain the book.
func (book *OrderBook) TryMatchOne(tick uint64) (Trade, bool) {
	book.mu.Lock()
	defer book.mu.Unlock()

	bestBid, bidOk := book.bids.MinMut()
	bestAsk, askOk := book.asks.MinMut()

	// If either side is empty, or prices don't cross, we are done.
	if !bidOk || !askOk || bestBid.priceLevel < bestAsk.priceLevel {
		return Trade{}, false
	}

	bidOrder := bestBid.head()
	askOrder := bestAsk.head()

	matchQty := min(bidOrder.Quantity, askOrder.Quantity)
	bidOrder.Quantity -= matchQty
	askOrder.Quantity -= matchQty

	trade := Trade{
		BuyerID:  bidOrder.BrokerID,
		SellerID: askOrder.BrokerID,
		Price:    bestAsk.priceLevel,
		Quantity: matchQty,
		Tick:     tick,
	}

	if bidOrder.Quantity == 0 {
		book.retireHead(book.bids, bestBid)
	}
	if askOrder.Quantity == 0 {
		book.retireHead(book.asks, bestAsk)
	}
	return trade, true
}

// retireHead removes a filled order from the front of its level, dropping the
// level once it is empty. The index entry goes only if it still points at the
// filled order, so a reused id keeps tracking the newer order.
func (book *OrderBook) retireHead(levels *PriceLevels, level *PriceLevel) {
	position := level.popped
	filled := level.pop()
	book.resting--
	if ref, ok := book.index[filled.ID]; ok && ref.level == level && ref.position == position {
		delete(book.index, filled.ID)
	}
	if len(level.orders) == 0 {
		levels.Delete(level)
	}
}

// BestBidPrice is the highest resting bid price, if any.
func (book *OrderBook) BestBidPrice() (float64, bool) {
	book.mu.Lock()
	defer book.mu.Unlock()
	return bestPrice(book.bids)
}

// BestAskPrice is the lowest resting ask price, if any.
func (book *OrderBook) BestAskPrice() (float64, bool) {
	book.mu.Lock()
	defer book.mu.Unlock()
	return bestPrice(book.asks)
}

func bestPrice(levels *PriceLevels) (float64, bool) {
	// Min here accounts for bids and asks being in inverse order, based on
	// their comparison method.
	level, ok := levels.Min()
	if !ok {
		return 0, false
	}
	return level.priceLevel, true
}

// Order returns a copy of a resting order.
func (book *OrderBook) Order(id uint64) (Order, bool) {
	book.mu.Lock()
	defer book.mu.Unlock()

	ref, ok := book.index[id]
	if !ok {
		return Order{}, false
	}
	order, ok := ref.level.at(ref.position)
	if !ok {
		return Order{}, false
	}
	return *order, true
}

// Len is the number of resting orders.
func (book *OrderBook) Len() int {
	book.mu.Lock()
	defer book.mu.Unlock()
	return book.resting
}

// Bids copies the bid side, best price first.
func (book *OrderBook) Bids() []FlatPriceLevel {
	book.mu.Lock()
	defer book.mu.Unlock()
	return FlattenLevels(book.bids.Items())
}

// Asks copies the ask side, best price first.
func (book *OrderBook) Asks() []FlatPriceLevel {
	book.mu.Lock()
	defer book.mu.Unlock()
	return FlattenLevels(book.asks.Items())
}

func (book *OrderBook) side(side Side) *PriceLevels {
	if side == Buy {
		return book.bids
	}
	return book.asks
}

// FlatPriceLevel is a detached copy of a price level.
type FlatPriceLevel struct {
	PriceLevel float64
	Orders     []Order
}

// FlattenLevels copies levels and their orders out of the tree.
func FlattenLevels(levels []*PriceLevel) []FlatPriceLevel {
	flat := make([]FlatPriceLevel, 0, len(levels))
	for _, level := range levels {
		orders := make([]Order, len(level.orders))
		for i, order := range level.orders {
			orders[i] = *order
		}
		flat = append(flat, FlatPriceLevel{
			PriceLevel: level.priceLevel,
			Orders:     orders,
		})
	}
	return flat
}
