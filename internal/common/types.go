package common

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

type OrderType int

const (
	// Limit orders are an order to buy or sell at a specified price or
	// better. Limit orders may rest on the order book until filled.
	LimitOrder OrderType = iota
	// Market orders carry no price constraint. The book normalizes them into
	// limit orders priced at the far end of the book so they cross anything
	// on the opposite side.
	MarketOrder
)

func (t OrderType) String() string {
	switch t {
	case LimitOrder:
		return "limit"
	case MarketOrder:
		return "market"
	}
	return "unknown"
}
