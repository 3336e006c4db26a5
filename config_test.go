package lnscan

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	params, err := cfg.ChainParams()
	require.NoError(t, err)
	require.Equal(t, chaincfg.MainNetParams.Name, params.Name)

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{
			name: "unknown network",
			modify: func(c *Config) {
				c.Network = "litecoin"
			},
		},
		{
			name: "zero http timeout",
			modify: func(c *Config) {
				c.HTTPTimeout = 0
			},
		},
		{
			name: "negative rpc timeout",
			modify: func(c *Config) {
				c.RPCTimeout = -1
			},
		},
		{
			name: "fee above amount",
			modify: func(c *Config) {
				c.FeePolicy.MaxFeePPM = 1_000_001
			},
		},
		{
			name: "insecure lnurl on mainnet",
			modify: func(c *Config) {
				c.AllowInsecureLnurl = true
			},
		},
	}

	for _, test := range tests {
		cfg := DefaultConfig()
		test.modify(&cfg)
		require.Error(t, cfg.Validate(), test.name)
	}

	cfg = DefaultConfig()
	cfg.Network = "regtest"
	cfg.AllowInsecureLnurl = true
	require.NoError(t, cfg.Validate())

	lndCfg := cfg.LndConfig()
	require.Equal(t, "regtest", lndCfg.Network)
	require.Equal(t, cfg.LndHost, lndCfg.Host)
	require.Equal(t, cfg.RPCTimeout, lndCfg.Timeout)
}
