// Package spend decides whether the wallet can afford a payment. Every check
// is a pure function of balances the caller already holds.
package spend

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil"
	"github.com/ellemouton/lnscan/amount"
	"github.com/ellemouton/lnscan/node"
	"github.com/lightningnetwork/lnd/lnwire"
)

const (
	// DefaultMaxFeePPM caps routing fees at 0.5% of the amount.
	DefaultMaxFeePPM = 5_000

	// DefaultFeeFloor is the fee always allowed, however small the
	// payment.
	DefaultFeeFloor = btcutil.Amount(10)

	// DustLimit is the smallest on-chain output the wallet creates.
	DustLimit = btcutil.Amount(546)
)

var (
	// ErrInsufficientLiquidity is matched by every
	// *InsufficientLiquidityError.
	ErrInsufficientLiquidity = errors.New("insufficient outbound " +
		"liquidity")

	// ErrBelowDust is returned for on-chain amounts below DustLimit.
	ErrBelowDust = errors.New("amount below dust limit")

	// ErrInsufficientFunds is returned for on-chain amounts above the
	// confirmed balance.
	ErrInsufficientFunds = errors.New("insufficient confirmed funds")
)

// InsufficientLiquidityError is returned when a payment plus its maximum
// fee doesn't fit into the spendable balance of the active channels.
type InsufficientLiquidityError struct {
	Amount    lnwire.MilliSatoshi
	MaxFee    lnwire.MilliSatoshi
	Available lnwire.MilliSatoshi
}

// Error implements the error interface.
func (e *InsufficientLiquidityError) Error() string {
	return fmt.Sprintf("insufficient outbound liquidity: need %v plus up "+
		"to %v in fees, have %v", e.Amount, e.MaxFee, e.Available)
}

// Is lets errors.Is match ErrInsufficientLiquidity.
func (e *InsufficientLiquidityError) Is(target error) bool {
	return target == ErrInsufficientLiquidity
}

// FeePolicy bounds what the wallet pays in routing fees.
type FeePolicy struct {
	// MaxFeePPM is the fee limit in parts per million of the amount.
	MaxFeePPM uint64

	// FeeFloor is allowed even when MaxFeePPM yields less.
	FeeFloor btcutil.Amount
}

// DefaultFeePolicy returns the wallet's default fee limits.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		MaxFeePPM: DefaultMaxFeePPM,
		FeeFloor:  DefaultFeeFloor,
	}
}

// MaxFee is the largest routing fee allowed for a payment of amt.
func (p FeePolicy) MaxFee(amt lnwire.MilliSatoshi) lnwire.MilliSatoshi {
	// Split the multiplication so that it can't overflow for any amount
	// up to the total supply.
	const million = 1_000_000
	fee := lnwire.MilliSatoshi(
		uint64(amt)/million*p.MaxFeePPM +
			uint64(amt)%million*p.MaxFeePPM/million,
	)

	floor := lnwire.NewMSatFromSatoshis(p.FeeFloor)
	if fee < floor {
		return floor
	}

	return fee
}

// Outbound is what the active channels can send, net of their reserves.
func Outbound(channels []node.Channel) lnwire.MilliSatoshi {
	var total lnwire.MilliSatoshi
	for _, c := range channels {
		if !c.Active {
			continue
		}

		total += amount.SaturatingSub(
			lnwire.NewMSatFromSatoshis(c.LocalBalance),
			lnwire.NewMSatFromSatoshis(c.LocalReserve),
		)
	}

	return total
}

// Plan is an affordable lightning payment.
type Plan struct {
	Amount lnwire.MilliSatoshi

	// MaxFee is the fee limit to pay with.
	MaxFee lnwire.MilliSatoshi

	// Outbound is the spendable balance the plan was checked against.
	Outbound lnwire.MilliSatoshi
}

// Total is the most the payment can cost.
func (p *Plan) Total() lnwire.MilliSatoshi {
	return p.Amount + p.MaxFee
}

// CheckLightning confirms that amt plus the policy's maximum fee can be sent
// over the given channels.
func CheckLightning(amt lnwire.MilliSatoshi, policy FeePolicy,
	channels []node.Channel) (*Plan, error) {

	plan := &Plan{
		Amount:   amt,
		MaxFee:   policy.MaxFee(amt),
		Outbound: Outbound(channels),
	}

	total, err := amount.Add(plan.Amount, plan.MaxFee)
	if err != nil || total > plan.Outbound {
		return nil, &InsufficientLiquidityError{
			Amount:    plan.Amount,
			MaxFee:    plan.MaxFee,
			Available: plan.Outbound,
		}
	}

	return plan, nil
}

// CheckOnChain confirms that amt can be sent on chain from the confirmed
// balance.
func CheckOnChain(amt, confirmed btcutil.Amount) error {
	msat := lnwire.NewMSatFromSatoshis(amt)
	dust := lnwire.NewMSatFromSatoshis(DustLimit)
	balance := lnwire.NewMSatFromSatoshis(confirmed)

	switch {
	case amount.InRange(msat, dust, balance):
		return nil

	case amt < DustLimit:
		return fmt.Errorf("%w: %v < %v", ErrBelowDust, amt, DustLimit)

	default:
		return fmt.Errorf("%w: %v > %v", ErrInsufficientFunds, amt,
			confirmed)
	}
}
