package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrNoTraders        = errors.New("no traders configured")
	ErrDuplicateTrader  = errors.New("duplicate trader id")
	ErrUnknownStrategy  = errors.New("unknown strategy")
	ErrInvalidInterval  = errors.New("interval must be positive")
	ErrInvalidThreshold = errors.New("threshold must be in (0, 1)")
)

const (
	StrategyPlayer  = "player"
	StrategyBigWin  = "bigwin"
	StrategyAnalyst = "analyst"
)

type Fee struct {
	Amount     float64 `yaml:"amount"`
	EveryTicks int     `yaml:"every_ticks"`
}

type Trader struct {
	ID        int     `yaml:"id"`
	Strategy  string  `yaml:"strategy"`
	Cash      float64 `yaml:"cash"`
	Inventory int64   `yaml:"inventory"`
	Threshold float64 `yaml:"threshold,omitempty"` // bigwin only
}

// Config describes one simulation run.
type Config struct {
	Fee          Fee           `yaml:"fee"`
	TickInterval time.Duration `yaml:"tick_interval"` // matching loop quantum
	StepInterval time.Duration `yaml:"step_interval"` // pause between trader steps
	Duration     time.Duration `yaml:"duration"`      // zero runs until signalled
	Seed         uint64        `yaml:"seed"`
	Traders      []Trader      `yaml:"traders"`
}

// Default is the four trader market: two players, an analyst and a big win
// trader.
func Default() Config {
	return Config{
		Fee:          Fee{Amount: 0.5, EveryTicks: 50},
		TickInterval: 20 * time.Millisecond,
		StepInterval: 40 * time.Millisecond,
		Duration:     5 * time.Second,
		Seed:         1,
		Traders: []Trader{
			{ID: 1, Strategy: StrategyPlayer, Cash: 8000, Inventory: 50},
			{ID: 2, Strategy: StrategyPlayer, Cash: 12000, Inventory: 50},
			{ID: 3, Strategy: StrategyAnalyst, Cash: 10000, Inventory: 50},
			{ID: 4, Strategy: StrategyBigWin, Cash: 20000, Inventory: 100, Threshold: 0.03},
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default value; a traders list replaces the default one entirely.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("unable to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval: %w", ErrInvalidInterval)
	}
	if c.StepInterval <= 0 {
		return fmt.Errorf("step_interval: %w", ErrInvalidInterval)
	}
	if len(c.Traders) == 0 {
		return ErrNoTraders
	}

	seen := make(map[int]struct{}, len(c.Traders))
	for _, trader := range c.Traders {
		if _, ok := seen[trader.ID]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateTrader, trader.ID)
		}
		seen[trader.ID] = struct{}{}

		switch trader.Strategy {
		case StrategyPlayer, StrategyAnalyst:
		case StrategyBigWin:
			if trader.Threshold <= 0 || trader.Threshold >= 1 {
				return fmt.Errorf("trader %d: %w", trader.ID, ErrInvalidThreshold)
			}
		default:
			return fmt.Errorf("trader %d: %w: %q", trader.ID, ErrUnknownStrategy, trader.Strategy)
		}
	}
	return nil
}
