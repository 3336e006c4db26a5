package amount

import (
	"testing"

	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestInRangeBoundaries asserts that the range check is inclusive on both
// ends and rejects the values immediately outside.
func TestInRangeBoundaries(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		min := lnwire.MilliSatoshi(
			rapid.Uint64Range(1, 1<<50).Draw(t, "min"),
		)
		max := min + lnwire.MilliSatoshi(
			rapid.Uint64Range(0, 1<<50).Draw(t, "width"),
		)
		v := min + lnwire.MilliSatoshi(
			rapid.Uint64Range(0, uint64(max-min)).Draw(t, "offset"),
		)

		require.True(t, InRange(v, min, max))
		require.True(t, InRange(min, min, max))
		require.True(t, InRange(max, min, max))
		require.False(t, InRange(min-1, min, max))
		require.False(t, InRange(max+1, min, max))
	})
}

func TestParseBTC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    lnwire.MilliSatoshi
		wantErr bool
	}{
		{name: "one btc", in: "1", want: 100_000_000_000},
		{name: "one sat", in: "0.00000001", want: 1000},
		{name: "one msat", in: "0.00000000001", want: 1},
		{name: "bip21 example", in: "50", want: 5_000_000_000_000},
		{name: "trailing zeros", in: "0.0010000", want: 100_000_000},
		{name: "negative", in: "-1", wantErr: true},
		{name: "too precise", in: "0.000000000001", wantErr: true},
		{name: "not a number", in: "abc", wantErr: true},
		{name: "exponent", in: "1e-3", want: 100_000_000},
		{name: "above supply", in: "21000001", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseBTC(test.in)
			if test.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}

			require.NoError(t, err)
			require.Equal(t, test.want, got)
		})
	}
}

func TestParseMsat(t *testing.T) {
	t.Parallel()

	got, err := ParseMsat("1000")
	require.NoError(t, err)
	require.Equal(t, lnwire.MilliSatoshi(1000), got)

	got, err = ParseMsat("1000.0")
	require.NoError(t, err)
	require.Equal(t, lnwire.MilliSatoshi(1000), got)

	_, err = ParseMsat("1000.5")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

// TestFormatParseRoundTrip checks that formatting an amount in BTC and
// parsing it back never loses precision.
func TestFormatParseRoundTrip(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		msat := lnwire.MilliSatoshi(
			rapid.Uint64Range(0, uint64(MaxAmount)).Draw(t, "msat"),
		)

		got, err := ParseBTC(FormatBTC(msat))
		require.NoError(t, err)
		require.Equal(t, msat, got)
	})
}

func TestFiatConversion(t *testing.T) {
	t.Parallel()

	rate := decimal.RequireFromString("50000")

	fiat := ToFiat(100_000_000_000, rate)
	require.True(t, fiat.Equal(rate), fiat.String())

	fiat = ToFiat(1_000_000, rate)
	require.True(t, fiat.Equal(decimal.RequireFromString("0.5")),
		fiat.String())

	msat, err := FromFiat(decimal.RequireFromString("0.5"), rate)
	require.NoError(t, err)
	require.Equal(t, lnwire.MilliSatoshi(1_000_000), msat)

	_, err = FromFiat(decimal.RequireFromString("1"), decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = FromFiat(decimal.RequireFromString("-1"), rate)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCheckedArithmetic(t *testing.T) {
	t.Parallel()

	sum, err := Add(1, 2)
	require.NoError(t, err)
	require.Equal(t, lnwire.MilliSatoshi(3), sum)

	_, err = Add(^lnwire.MilliSatoshi(0), 1)
	require.ErrorIs(t, err, ErrOverflow)

	diff, err := Sub(5, 2)
	require.NoError(t, err)
	require.Equal(t, lnwire.MilliSatoshi(3), diff)

	_, err = Sub(2, 5)
	require.ErrorIs(t, err, ErrOverflow)

	require.Equal(t, lnwire.MilliSatoshi(0), SaturatingSub(2, 5))
	require.True(t, IsWholeSatoshi(2000))
	require.False(t, IsWholeSatoshi(2001))
}
