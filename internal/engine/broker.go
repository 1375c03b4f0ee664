package engine

// Broker is what the exchange needs from a participant: an identity and the
// settlement callbacks. Implementations guard their own state; the exchange
// never holds one of its locks while calling into a broker.
type Broker interface {
	ID() int
	ApplyTradeAsBuyer(price float64, quantity int64)
	ApplyTradeAsSeller(price float64, quantity int64)
	ApplyFee(amount float64)
}
