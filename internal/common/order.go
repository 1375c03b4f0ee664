package common

import (
	"fmt"
)

type Order struct {
	ID            uint64    // Exchange assigned id, zero until submitted
	BrokerID      int       // Who owns this order
	OrderType     OrderType //
	Side          Side      // Order side
	LimitPrice    float64   // Limiting price, ignored for market orders
	Quantity      int64     // Remaining quantity
	TotalQuantity int64     // Total volume requested
	Seq           uint64    // Insertion sequence in the book
	SubmittedAt   int64     // Submitter's logical time
}

func (order Order) String() string {
	return fmt.Sprintf(
		`ID:            %d
BrokerID:      %d
OrderType:     %v
Side:          %v
LimitPrice:    %f
Quantity:      %d (Total: %d)
Seq:           %d
SubmittedAt:   %d`,
		order.ID,
		order.BrokerID,
		order.OrderType,
		order.Side,
		order.LimitPrice,
		order.Quantity,
		order.TotalQuantity,
		order.Seq,
		order.SubmittedAt,
	)
}
