package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"mimir/internal/broker"
	"mimir/internal/config"
	"mimir/internal/engine"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// Runner drives one exchange and its traders. The matching loop and every
// trader run as goroutines of a single tomb; killing the tomb stops them all.
type Runner struct {
	exchange     *engine.Exchange
	traders      []*broker.Trader
	tickInterval time.Duration
	stepInterval time.Duration
}

type AccountSummary struct {
	ID        int
	Cash      float64
	Inventory int64
}

type Summary struct {
	Trades    int
	FairPrice float64
	Accounts  []AccountSummary
}

// New builds the exchange and traders a config describes.
func New(cfg config.Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	exchange := engine.New()
	exchange.SetFee(cfg.Fee.Amount, cfg.Fee.EveryTicks)

	r := &Runner{
		exchange:     exchange,
		tickInterval: cfg.TickInterval,
		stepInterval: cfg.StepInterval,
	}
	for _, tc := range cfg.Traders {
		strategy, err := newStrategy(tc, cfg.Seed)
		if err != nil {
			return nil, err
		}
		account := broker.NewAccount(tc.ID, tc.Cash, tc.Inventory)
		r.traders = append(r.traders, broker.NewTrader(account, exchange, strategy))
	}
	return r, nil
}

func newStrategy(tc config.Trader, seed uint64) (broker.Strategy, error) {
	switch tc.Strategy {
	case config.StrategyPlayer:
		return broker.NewPlayer(rand.New(rand.NewPCG(seed, uint64(tc.ID)))), nil
	case config.StrategyBigWin:
		return broker.BigWin{Threshold: tc.Threshold}, nil
	case config.StrategyAnalyst:
		return broker.Analyst{}, nil
	}
	return nil, fmt.Errorf("trader %d: %w: %q", tc.ID, config.ErrUnknownStrategy, tc.Strategy)
}

func (r *Runner) Exchange() *engine.Exchange {
	return r.exchange
}

func (r *Runner) Traders() []*broker.Trader {
	return r.traders
}

// Run blocks until ctx is done, then waits for the matching loop to finish its
// current iteration and every trader to return.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	for _, trader := range r.traders {
		r.exchange.RegisterBroker(trader)
	}

	t, _ := tomb.WithContext(ctx)
	r.exchange.SetPacer(tombPacer(t, r.exchange, r.tickInterval))

	// Traders are started from the loop's goroutine so the tomb always has a
	// live goroutine while the rest are added.
	t.Go(func() error {
		for _, trader := range r.traders {
			t.Go(func() error {
				return r.tradeLoop(t, trader)
			})
		}
		r.exchange.RunLoop()
		return nil
	})

	log.Info().
		Str("exchange", r.exchange.ID.String()).
		Int("traders", len(r.traders)).
		Msg("simulation running")

	err := t.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}

	summary := r.Summary()
	log.Info().
		Int("trades", summary.Trades).
		Float64("fair_price", summary.FairPrice).
		Msg("simulation stopped")
	return summary, err
}

// tradeLoop steps a trader every stepInterval until the tomb starts dying.
func (r *Runner) tradeLoop(t *tomb.Tomb, trader *broker.Trader) error {
	ticker := time.NewTicker(r.stepInterval)
	defer ticker.Stop()

	var now int64
	for {
		select {
		case <-t.Dying():
			return nil
		case <-ticker.C:
			trader.Step(now)
			now++
		}
	}
}

// tombPacer waits one tick interval, or stops the exchange if the tomb starts
// dying first. The loop then exits at the top of its next iteration, which
// also covers a tomb that died before the loop started.
func tombPacer(t *tomb.Tomb, exchange *engine.Exchange, interval time.Duration) engine.Pacer {
	return engine.PacerFunc(func(uint64) {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		select {
		case <-t.Dying():
			exchange.Stop()
		case <-timer.C:
		}
	})
}

func (r *Runner) Summary() Summary {
	summary := Summary{
		Trades:    len(r.exchange.Trades()),
		FairPrice: r.exchange.FairPriceEstimate(),
		Accounts:  make([]AccountSummary, 0, len(r.traders)),
	}
	for _, trader := range r.traders {
		summary.Accounts = append(summary.Accounts, AccountSummary{
			ID:        trader.ID(),
			Cash:      trader.Cash(),
			Inventory: trader.Inventory(),
		})
	}
	return summary
}
