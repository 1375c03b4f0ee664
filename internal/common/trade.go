package common

import (
	"fmt"
)

// Trade accounts for the two parties who matched.
type Trade struct {
	BuyerID  int
	SellerID int
	Price    float64
	Quantity int64
	Tick     uint64 // Matching loop tick the trade executed on
}

// SelfTrade reports whether both legs belong to the same broker.
func (t Trade) SelfTrade() bool {
	return t.BuyerID == t.SellerID
}

// Notional is price times quantity.
func (t Trade) Notional() float64 {
	return t.Price * float64(t.Quantity)
}

func (t Trade) String() string {
	return fmt.Sprintf(
		`BuyerID:        %d
SellerID:       %d
Tick:           %d
Quantity:       %d
Price:          %f`,
		t.BuyerID,
		t.SellerID,
		t.Tick,
		t.Quantity,
		t.Price,
	)
}
