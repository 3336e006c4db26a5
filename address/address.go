// Package address validates on-chain addresses against the wallet's active
// network.
package address

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil"
)

var (
	// ErrInvalidAddress is returned when the string isn't an address on
	// any known network.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrWrongNetwork is matched by every *WrongNetworkError.
	ErrWrongNetwork = errors.New("wrong network")

	// KnownNetworks is the set of networks probed when an address fails to
	// validate against the active one.
	KnownNetworks = []*chaincfg.Params{
		&chaincfg.MainNetParams,
		&chaincfg.TestNet3Params,
		&chaincfg.RegressionNetParams,
		&chaincfg.SigNetParams,
		&chaincfg.SimNetParams,
	}
)

// WrongNetworkError is returned for strings that are valid on some network
// other than the active one.
type WrongNetworkError struct {
	// Expected is the name of the active network.
	Expected string

	// Actual is the name of the network the string belongs to.
	Actual string
}

// Error implements the error interface.
func (e *WrongNetworkError) Error() string {
	return fmt.Sprintf("wrong network: expected %s, got %s", e.Expected,
		e.Actual)
}

// Is lets errors.Is match ErrWrongNetwork.
func (e *WrongNetworkError) Is(target error) bool {
	return target == ErrWrongNetwork
}

// Normalize returns the canonical form of a scanned address. QR codes carry
// bech32 in upper case for density; bech32 is case-insensitive but btcutil
// only matches lower-case prefixes.
func Normalize(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr != strings.ToUpper(addr) {
		return addr
	}

	lower := strings.ToLower(addr)
	sep := strings.LastIndexByte(lower, '1')
	if sep > 0 && chaincfg.IsBech32SegwitPrefix(lower[:sep+1]) {
		return lower
	}

	return addr
}

// Validate checks addr against net. An address that belongs to a different
// known network fails with *WrongNetworkError rather than ErrInvalidAddress
// so the caller can say something more useful than "invalid".
func Validate(addr string, net *chaincfg.Params) (btcutil.Address, error) {
	addr = Normalize(addr)
	if addr == "" {
		return nil, ErrInvalidAddress
	}

	if decoded, ok := decodeFor(addr, net); ok {
		return decoded, nil
	}

	for _, other := range KnownNetworks {
		if other.Name == net.Name {
			continue
		}

		if _, ok := decodeFor(addr, other); ok {
			return nil, &WrongNetworkError{
				Expected: net.Name,
				Actual:   other.Name,
			}
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, addr)
}

// decodeFor returns the decoded address if it's valid and belongs to net.
func decodeFor(addr string, net *chaincfg.Params) (btcutil.Address, bool) {
	decoded, err := btcutil.DecodeAddress(addr, net)
	if err != nil {
		return nil, false
	}

	return decoded, decoded.IsForNet(net)
}

// ParamsFromName maps a network name as used in lnd's config (mainnet,
// testnet, regtest, signet, simnet) to its chain parameters.
func ParamsFromName(name string) (*chaincfg.Params, error) {
	switch strings.ToLower(name) {
	case "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil

	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil

	case "regtest":
		return &chaincfg.RegressionNetParams, nil

	case "signet":
		return &chaincfg.SigNetParams, nil

	case "simnet":
		return &chaincfg.SimNetParams, nil

	default:
		return nil, fmt.Errorf("unknown network: %v", name)
	}
}
