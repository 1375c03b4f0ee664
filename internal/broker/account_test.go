package broker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccount_Settlement(t *testing.T) {
	account := NewAccount(7, 1000, 10)
	assert.Equal(t, 7, account.ID())

	account.ApplyTradeAsBuyer(12.5, 4)
	assert.Equal(t, 950.0, account.Cash())
	assert.Equal(t, int64(14), account.Inventory())

	account.ApplyTradeAsSeller(20, 14)
	assert.Equal(t, 1230.0, account.Cash())
	assert.Equal(t, int64(0), account.Inventory())

	account.ApplyFee(0.5)
	assert.Equal(t, 1229.5, account.Cash())
}

func TestAccount_NoFloatDrift(t *testing.T) {
	account := NewAccount(1, 0, 0)
	for range 1000 {
		account.ApplyTradeAsSeller(0.1, 1)
	}
	assert.Equal(t, 100.0, account.Cash())
}

func TestAccount_ConcurrentSettlement(t *testing.T) {
	account := NewAccount(1, 0, 0)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			account.ApplyTradeAsBuyer(2, 1)
		}()
		go func() {
			defer wg.Done()
			account.ApplyTradeAsSeller(2, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0.0, account.Cash())
	assert.Equal(t, int64(0), account.Inventory())
}
