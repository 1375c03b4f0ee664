package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "market.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Traders, 4)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
fee:
  amount: 1.5
  every_ticks: 10
tick_interval: 5ms
traders:
  - id: 1
    strategy: player
    cash: 100
    inventory: 5
  - id: 2
    strategy: bigwin
    cash: 200
    threshold: 0.1
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, Fee{Amount: 1.5, EveryTicks: 10}, cfg.Fee)
	assert.Equal(t, 5*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, Default().StepInterval, cfg.StepInterval, "missing keys keep defaults")
	assert.Equal(t, []Trader{
		{ID: 1, Strategy: StrategyPlayer, Cash: 100, Inventory: 5},
		{ID: 2, Strategy: StrategyBigWin, Cash: 200, Threshold: 0.1},
	}, cfg.Traders)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeConfig(t, "fee: [1, 2"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		err    error
	}{
		{"no traders", func(c *Config) { c.Traders = nil }, ErrNoTraders},
		{"zero tick", func(c *Config) { c.TickInterval = 0 }, ErrInvalidInterval},
		{"negative step", func(c *Config) { c.StepInterval = -time.Second }, ErrInvalidInterval},
		{"duplicate id", func(c *Config) { c.Traders[1].ID = c.Traders[0].ID }, ErrDuplicateTrader},
		{"unknown strategy", func(c *Config) { c.Traders[0].Strategy = "martingale" }, ErrUnknownStrategy},
		{"bigwin threshold", func(c *Config) { c.Traders[3].Threshold = 0 }, ErrInvalidThreshold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.err)
		})
	}
}
