package lnscan

import (
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ellemouton/lnscan/address"
	"github.com/ellemouton/lnscan/lnurl"
	"github.com/ellemouton/lnscan/node"
	"github.com/ellemouton/lnscan/spend"
)

// Config holds everything needed to build a Wallet.
type Config struct {
	// Network is one of mainnet, testnet, regtest, signet or simnet.
	Network string

	// LndHost is lnd's gRPC address.
	LndHost string

	// MacaroonDir is the directory holding lnd's admin.macaroon.
	MacaroonDir string

	// TLSPath is the path to lnd's tls.cert.
	TLSPath string

	// HTTPTimeout bounds each LNURL request.
	HTTPTimeout time.Duration

	// RPCTimeout bounds each node call.
	RPCTimeout time.Duration

	// TorAvailable permits onion node URIs.
	TorAvailable bool

	// AllowInsecureLnurl permits clear-text LNURL services. Only meant for
	// regtest setups.
	AllowInsecureLnurl bool

	// LocalDecode decodes invoices in process instead of asking the node.
	LocalDecode bool

	// FeePolicy bounds routing fees.
	FeePolicy spend.FeePolicy
}

// DefaultConfig returns a Config for a local mainnet lnd.
func DefaultConfig() Config {
	return Config{
		Network:     "mainnet",
		LndHost:     "localhost:10009",
		HTTPTimeout: lnurl.DefaultTimeout,
		RPCTimeout:  node.DefaultRPCTimeout,
		FeePolicy:   spend.DefaultFeePolicy(),
	}
}

// Validate checks the config for consistency.
func (c *Config) Validate() error {
	params, err := c.ChainParams()
	if err != nil {
		return err
	}

	if c.HTTPTimeout <= 0 {
		return errors.New("http timeout must be positive")
	}
	if c.RPCTimeout <= 0 {
		return errors.New("rpc timeout must be positive")
	}

	if c.FeePolicy.MaxFeePPM > 1_000_000 {
		return fmt.Errorf("max fee of %d ppm exceeds the amount",
			c.FeePolicy.MaxFeePPM)
	}

	if c.AllowInsecureLnurl && params.Name == chaincfg.MainNetParams.Name {
		return errors.New("insecure lnurl is not allowed on mainnet")
	}

	return nil
}

// ChainParams returns the parameters of the configured network.
func (c *Config) ChainParams() (*chaincfg.Params, error) {
	return address.ParamsFromName(c.Network)
}

// LndConfig returns the node connection settings.
func (c *Config) LndConfig() *node.LndConfig {
	return &node.LndConfig{
		Host:        c.LndHost,
		Network:     c.Network,
		MacaroonDir: c.MacaroonDir,
		TLSPath:     c.TLSPath,
		Timeout:     c.RPCTimeout,
	}
}
