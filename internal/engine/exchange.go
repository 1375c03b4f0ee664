package engine

import (
	"sync"
	"sync/atomic"

	. "mimir/internal/common"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultFee          = 1.0
	defaultFeeEveryTick = 50
)

// NoFairPrice is returned by FairPriceEstimate before any trade is recorded.
const NoFairPrice = -1.0

// Exchange owns the order book, the broker registry and the trade history,
// and runs the matching loop that settles trades and charges fees.
type Exchange struct {
	ID     uuid.UUID
	logger zerolog.Logger

	book   *OrderBook
	nextID atomic.Uint64

	tradesLock sync.Mutex
	trades     []Trade

	brokersLock sync.RWMutex
	brokers     map[int]Broker

	feeLock       sync.Mutex
	feePerCycle   float64
	feeEveryTicks int

	running atomic.Bool
	pacer   Pacer
}

func New() *Exchange {
	id := uuid.New()
	logger := log.With().Str("exchange", id.String()).Logger()
	return &Exchange{
		ID:            id,
		logger:        logger,
		book:          NewOrderBook(logger),
		brokers:       make(map[int]Broker),
		feePerCycle:   defaultFee,
		feeEveryTicks: defaultFeeEveryTick,
		pacer:         Interval(defaultTickInterval),
	}
}

// SetLogger replaces the exchange's logger. Call before submitting orders.
func (ex *Exchange) SetLogger(logger zerolog.Logger) {
	ex.logger = logger.With().Str("exchange", ex.ID.String()).Logger()
	ex.book.logger = ex.logger
}

// SetPacer replaces the tick pacing. Call before RunLoop.
func (ex *Exchange) SetPacer(pacer Pacer) {
	ex.pacer = pacer
}

// RegisterBroker adds a broker to the registry. A later registration under
// the same id replaces the earlier one.
func (ex *Exchange) RegisterBroker(broker Broker) {
	ex.brokersLock.Lock()
	defer ex.brokersLock.Unlock()
	ex.brokers[broker.ID()] = broker
}

// SubmitOrder assigns an id to the order, if it has none, and rests it in the
// book. Matching happens later on the loop; this never waits for it.
func (ex *Exchange) SubmitOrder(order Order) {
	if order.ID == 0 {
		order.ID = ex.nextID.Add(1)
	} else {
		ex.reserveID(order.ID)
	}
	ex.book.AddOrder(order)
}

// reserveID moves the id counter past a caller supplied id so later assigned
// ids never reuse it.
func (ex *Exchange) reserveID(id uint64) {
	for {
		last := ex.nextID.Load()
		if id <= last || ex.nextID.CompareAndSwap(last, id) {
			return
		}
	}
}

// BestBidPrice is the highest resting bid price, if any.
func (ex *Exchange) BestBidPrice() (float64, bool) {
	return ex.book.BestBidPrice()
}

// BestAskPrice is the lowest resting ask price, if any.
func (ex *Exchange) BestAskPrice() (float64, bool) {
	return ex.book.BestAskPrice()
}

// FairPriceEstimate is the volume weighted average price of every trade
// recorded so far, or NoFairPrice if there are none. The full history is
// scanned under the history lock on every call.
func (ex *Exchange) FairPriceEstimate() float64 {
	ex.tradesLock.Lock()
	defer ex.tradesLock.Unlock()

	var notional float64
	var quantity int64
	for _, trade := range ex.trades {
		notional += trade.Notional()
		quantity += trade.Quantity
	}
	if quantity == 0 {
		return NoFairPrice
	}
	return notional / float64(quantity)
}

// Trades returns a copy of the trade history.
func (ex *Exchange) Trades() []Trade {
	ex.tradesLock.Lock()
	defer ex.tradesLock.Unlock()

	trades := make([]Trade, len(ex.trades))
	copy(trades, ex.trades)
	return trades
}

// Book exposes the order book for read-only queries.
func (ex *Exchange) Book() *OrderBook {
	return ex.book
}

// SetFee charges amount to every registered broker on each tick that is a
// multiple of everyTicks. A non-positive everyTicks disables the fee.
func (ex *Exchange) SetFee(amount float64, everyTicks int) {
	ex.feeLock.Lock()
	defer ex.feeLock.Unlock()
	ex.feePerCycle = amount
	ex.feeEveryTicks = everyTicks
}

func (ex *Exchange) fee() (float64, int) {
	ex.feeLock.Lock()
	defer ex.feeLock.Unlock()
	return ex.feePerCycle, ex.feeEveryTicks
}

// Stop asks the loop to exit once its current iteration completes.
func (ex *Exchange) Stop() {
	ex.running.Store(false)
}

// Running reports whether RunLoop is active and has not observed Stop.
func (ex *Exchange) Running() bool {
	return ex.running.Load()
}

// RunLoop blocks running the matching loop until Stop is observed. Each
// iteration drains every crossing match, then charges the fee if the tick is
// due, then advances the tick and waits on the pacer. The book and the trade
// history survive a restart; only the tick counter resets.
func (ex *Exchange) RunLoop() {
	ex.running.Store(true)
	ex.logger.Info().Msg("matching loop running")

	var tick uint64
	for ex.running.Load() {
		ex.drain(tick)
		ex.chargeFees(tick)

		tick++
		ex.pacer.Wait(tick)
	}

	ex.logger.Info().Uint64("ticks", tick).Msg("matching loop stopped")
}

// drain matches until the book no longer crosses, settling each trade.
func (ex *Exchange) drain(tick uint64) {
	for {
		trade, ok := ex.book.TryMatchOne(tick)
		if !ok {
			return
		}

		// The crossed quantity has already left the book; a self-trade is
		// dropped without being recorded or settled.
		if trade.SelfTrade() {
			ex.logger.Debug().
				Int("broker", trade.BuyerID).
				Int64("quantity", trade.Quantity).
				Float64("price", trade.Price).
				Msg("self-trade discarded")
			continue
		}

		ex.record(trade)
		ex.settle(trade)
	}
}

func (ex *Exchange) record(trade Trade) {
	ex.tradesLock.Lock()
	ex.trades = append(ex.trades, trade)
	ex.tradesLock.Unlock()

	ex.logger.Debug().
		Uint64("tick", trade.Tick).
		Int("buyer", trade.BuyerID).
		Int("seller", trade.SellerID).
		Int64("quantity", trade.Quantity).
		Float64("price", trade.Price).
		Msg("trade")
}

// settle applies each leg of the trade to its broker. A leg whose broker is
// not registered is skipped.
func (ex *Exchange) settle(trade Trade) {
	ex.brokersLock.RLock()
	buyer, buyerOk := ex.brokers[trade.BuyerID]
	seller, sellerOk := ex.brokers[trade.SellerID]
	ex.brokersLock.RUnlock()

	if buyerOk {
		buyer.ApplyTradeAsBuyer(trade.Price, trade.Quantity)
	} else {
		ex.logger.Debug().Int("broker", trade.BuyerID).Msg("unknown buyer, leg not settled")
	}
	if sellerOk {
		seller.ApplyTradeAsSeller(trade.Price, trade.Quantity)
	} else {
		ex.logger.Debug().Int("broker", trade.SellerID).Msg("unknown seller, leg not settled")
	}
}

// chargeFees charges the flat fee to every registered broker when tick falls
// on the fee schedule.
func (ex *Exchange) chargeFees(tick uint64) {
	amount, everyTicks := ex.fee()
	if everyTicks <= 0 || tick%uint64(everyTicks) != 0 {
		return
	}

	ex.brokersLock.RLock()
	brokers := make([]Broker, 0, len(ex.brokers))
	for _, broker := range ex.brokers {
		brokers = append(brokers, broker)
	}
	ex.brokersLock.RUnlock()

	for _, broker := range brokers {
		broker.ApplyFee(amount)
	}

	ex.logger.Debug().
		Uint64("tick", tick).
		Float64("fee", amount).
		Int("brokers", len(brokers)).
		Msg("fee charged")
}
