// Package amount holds the exact millisatoshi arithmetic shared by the
// payment flows. All values are lnwire.MilliSatoshi; conversions to and from
// display units are explicit and may fail.
package amount

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/btcsuite/btcutil"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/shopspring/decimal"
)

const (
	// MsatPerSat is the number of millisatoshis in a satoshi.
	MsatPerSat = 1000

	// MsatPerBTC is the number of millisatoshis in a bitcoin.
	MsatPerBTC = btcutil.SatoshiPerBitcoin * MsatPerSat
)

var (
	// ErrInvalidAmount is returned when a textual amount can't be turned
	// into a whole number of millisatoshis.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrOverflow is returned when an arithmetic operation would leave the
	// range of representable amounts.
	ErrOverflow = errors.New("amount overflow")

	// MaxAmount is the total supply expressed in millisatoshis. No parsed
	// amount may exceed it.
	MaxAmount = lnwire.NewMSatFromSatoshis(btcutil.MaxSatoshi)

	msatPerBTC = decimal.NewFromInt(MsatPerBTC)
)

// InRange reports whether min <= v <= max.
func InRange(v, min, max lnwire.MilliSatoshi) bool {
	return v >= min && v <= max
}

// ParseBTC parses a decimal BTC amount such as the one carried in a BIP21
// "amount" parameter.
func ParseBTC(s string) (lnwire.MilliSatoshi, error) {
	btc, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount,
			s)
	}

	return fromDecimal(btc.Mul(msatPerBTC), s)
}

// ParseMsat parses a millisatoshi amount given as a decimal integer. A
// trailing ".0" is tolerated since some LNURL services render integers as
// floats.
func ParseMsat(s string) (lnwire.MilliSatoshi, error) {
	msat, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount,
			s)
	}

	return fromDecimal(msat, s)
}

func fromDecimal(msat decimal.Decimal, orig string) (lnwire.MilliSatoshi,
	error) {

	switch {
	case msat.IsNegative():
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount,
			orig)

	case !msat.Equal(msat.Truncate(0)):
		return 0, fmt.Errorf("%w: %q is more precise than a "+
			"millisatoshi", ErrInvalidAmount, orig)

	case msat.GreaterThan(decimal.NewFromInt(int64(MaxAmount))):
		return 0, fmt.Errorf("%w: %q exceeds the total supply",
			ErrInvalidAmount, orig)
	}

	return lnwire.MilliSatoshi(msat.IntPart()), nil
}

// FormatBTC renders the amount in BTC without trailing zeros.
func FormatBTC(msat lnwire.MilliSatoshi) string {
	return decimal.NewFromBigInt(
		new(big.Int).SetUint64(uint64(msat)), 0,
	).Div(msatPerBTC).String()
}

// ToFiat converts the amount using rate, the price of one BTC in the target
// currency.
func ToFiat(msat lnwire.MilliSatoshi, rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromBigInt(
		new(big.Int).SetUint64(uint64(msat)), 0,
	).Mul(rate).Div(msatPerBTC)
}

// FromFiat converts a fiat value back into millisatoshis, rounding down to
// the nearest millisatoshi.
func FromFiat(fiat, rate decimal.Decimal) (lnwire.MilliSatoshi, error) {
	if !rate.IsPositive() {
		return 0, fmt.Errorf("%w: exchange rate %v must be positive",
			ErrInvalidAmount, rate)
	}

	msat := fiat.Mul(msatPerBTC).Div(rate).Truncate(0)

	return fromDecimal(msat, fiat.String())
}

// IsWholeSatoshi reports whether the amount carries no sub-satoshi part.
func IsWholeSatoshi(msat lnwire.MilliSatoshi) bool {
	return msat%MsatPerSat == 0
}

// Add returns a+b or ErrOverflow.
func Add(a, b lnwire.MilliSatoshi) (lnwire.MilliSatoshi, error) {
	if uint64(a) > math.MaxUint64-uint64(b) {
		return 0, fmt.Errorf("%w: %v + %v", ErrOverflow, a, b)
	}

	return a + b, nil
}

// Sub returns a-b or ErrOverflow if b > a.
func Sub(a, b lnwire.MilliSatoshi) (lnwire.MilliSatoshi, error) {
	if b > a {
		return 0, fmt.Errorf("%w: %v - %v", ErrOverflow, a, b)
	}

	return a - b, nil
}

// SaturatingSub returns a-b, or zero when b exceeds a.
func SaturatingSub(a, b lnwire.MilliSatoshi) lnwire.MilliSatoshi {
	if b > a {
		log.Tracef("Clamping %v - %v to zero", a, b)
		return 0
	}

	return a - b
}
