package broker

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Account holds a participant's cash and inventory. The exchange only ever
// tells an account about settlement; every mutation happens under the
// account's own lock.
type Account struct {
	id int

	mu        sync.Mutex
	cash      decimal.Decimal
	inventory int64
}

func NewAccount(id int, cash float64, inventory int64) *Account {
	return &Account{
		id:        id,
		cash:      decimal.NewFromFloat(cash),
		inventory: inventory,
	}
}

func (a *Account) ID() int {
	return a.id
}

func (a *Account) ApplyTradeAsBuyer(price float64, quantity int64) {
	cost := notional(price, quantity)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cash = a.cash.Sub(cost)
	a.inventory += quantity
}

func (a *Account) ApplyTradeAsSeller(price float64, quantity int64) {
	proceeds := notional(price, quantity)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cash = a.cash.Add(proceeds)
	a.inventory -= quantity
}

func (a *Account) ApplyFee(amount float64) {
	fee := decimal.NewFromFloat(amount)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cash = a.cash.Sub(fee)
}

func (a *Account) Cash() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cash.InexactFloat64()
}

func (a *Account) Inventory() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inventory
}

func notional(price float64, quantity int64) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(quantity))
}
