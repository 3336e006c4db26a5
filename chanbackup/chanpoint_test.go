package chanbackup

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDecodeChanPoint(t *testing.T) {
	t.Parallel()

	internal := make([]byte, 32)
	for i := range internal {
		internal[i] = byte(i + 1)
	}

	p, err := DecodeChanPoint(
		base64.StdEncoding.EncodeToString(internal), 3,
	)
	require.NoError(t, err)
	require.Equal(t, "201f1e1d1c1b1a191817161514131211"+
		"100f0e0d0c0b0a090807060504030201", p.FundingTxid)
	require.Equal(t, uint32(3), p.OutputIndex)
	require.Equal(t, p.FundingTxid+":3", p.String())

	op, err := p.OutPoint()
	require.NoError(t, err)
	require.Equal(t, internal, op.Hash[:])
	require.Equal(t, p, FromOutPoint(op))

	_, err = DecodeChanPoint("not base64!", 0)
	require.ErrorIs(t, err, ErrInvalidChanPoint)

	_, err = DecodeChanPoint(base64.StdEncoding.EncodeToString(
		internal[:31],
	), 0)
	require.ErrorIs(t, err, ErrInvalidChanPoint)
}

func TestEncodeChanPointInvalid(t *testing.T) {
	t.Parallel()

	valid := "201f1e1d1c1b1a191817161514131211" +
		"100f0e0d0c0b0a090807060504030201"

	for _, txid := range []string{
		"",
		"abcd",
		valid[:62],
		valid + "00",
		"201F1E1D1C1B1A191817161514131211" +
			"100F0E0D0C0B0A090807060504030201",
		"zz1f1e1d1c1b1a191817161514131211" +
			"100f0e0d0c0b0a090807060504030201",
	} {
		_, _, err := EncodeChanPoint(ChanPoint{FundingTxid: txid})
		require.ErrorIs(t, err, ErrInvalidChanPoint, txid)
	}
}

func TestParseChanPoint(t *testing.T) {
	t.Parallel()

	txid := "201f1e1d1c1b1a191817161514131211" +
		"100f0e0d0c0b0a090807060504030201"

	p, err := ParseChanPoint(txid + ":1")
	require.NoError(t, err)
	require.Equal(t, ChanPoint{FundingTxid: txid, OutputIndex: 1}, p)

	for _, bad := range []string{
		txid,
		txid + ":",
		txid + ":-1",
		txid + ":4294967296",
		"abcd:1",
		txid + ":1:2",
	} {
		_, err := ParseChanPoint(bad)
		require.ErrorIs(t, err, ErrInvalidChanPoint, bad)
	}
}

// TestChanPointRoundTrip checks that encoding and decoding are inverses in
// both directions.
func TestChanPointRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		txid := rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "txid")
		index := rapid.Uint32().Draw(t, "index")

		p := ChanPoint{
			FundingTxid: hex.EncodeToString(txid),
			OutputIndex: index,
		}

		b64, idx, err := EncodeChanPoint(p)
		require.NoError(t, err)
		require.Equal(t, index, idx)

		decoded, err := DecodeChanPoint(b64, idx)
		require.NoError(t, err)
		require.Equal(t, p, decoded)

		// The internal form is the txid reversed.
		internal, err := base64.StdEncoding.DecodeString(b64)
		require.NoError(t, err)
		for i := range internal {
			require.Equal(t, txid[len(txid)-1-i], internal[i])
		}
	})
}
