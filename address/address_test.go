package address

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const (
	mainnetP2WPKH = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	testnetP2WPKH = "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"
	mainnetP2PKH  = "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"
	mainnetP2SH   = "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		addr       string
		net        *chaincfg.Params
		wrongNet   bool
		invalid    bool
		wantAddr   string
		wantActual string
	}{
		{
			name:     "mainnet bech32",
			addr:     mainnetP2WPKH,
			net:      &chaincfg.MainNetParams,
			wantAddr: mainnetP2WPKH,
		},
		{
			name:     "upper case bech32",
			addr:     strings.ToUpper(mainnetP2WPKH),
			net:      &chaincfg.MainNetParams,
			wantAddr: mainnetP2WPKH,
		},
		{
			name:     "mainnet p2pkh",
			addr:     mainnetP2PKH,
			net:      &chaincfg.MainNetParams,
			wantAddr: mainnetP2PKH,
		},
		{
			name:     "mainnet p2sh",
			addr:     mainnetP2SH,
			net:      &chaincfg.MainNetParams,
			wantAddr: mainnetP2SH,
		},
		{
			name:       "mainnet bech32 on testnet",
			addr:       mainnetP2WPKH,
			net:        &chaincfg.TestNet3Params,
			wrongNet:   true,
			wantActual: chaincfg.MainNetParams.Name,
		},
		{
			name:       "mainnet p2pkh on regtest",
			addr:       mainnetP2PKH,
			net:        &chaincfg.RegressionNetParams,
			wrongNet:   true,
			wantActual: chaincfg.MainNetParams.Name,
		},
		{
			name:     "testnet bech32 on mainnet",
			addr:     testnetP2WPKH,
			net:      &chaincfg.MainNetParams,
			wrongNet: true,
		},
		{
			name:    "bad checksum",
			addr:    mainnetP2WPKH[:len(mainnetP2WPKH)-1] + "5",
			net:     &chaincfg.MainNetParams,
			invalid: true,
		},
		{
			name:    "garbage",
			addr:    "hello world",
			net:     &chaincfg.MainNetParams,
			invalid: true,
		},
		{
			name:    "empty",
			addr:    "  ",
			net:     &chaincfg.MainNetParams,
			invalid: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			addr, err := Validate(test.addr, test.net)
			switch {
			case test.wrongNet:
				require.ErrorIs(t, err, ErrWrongNetwork)
				require.NotErrorIs(t, err, ErrInvalidAddress)

				var wrongNet *WrongNetworkError
				require.ErrorAs(t, err, &wrongNet)
				require.Equal(t, test.net.Name, wrongNet.Expected)
				if test.wantActual != "" {
					require.Equal(
						t, test.wantActual,
						wrongNet.Actual,
					)
				}

			case test.invalid:
				require.ErrorIs(t, err, ErrInvalidAddress)

			default:
				require.NoError(t, err)
				require.Equal(
					t, test.wantAddr, addr.EncodeAddress(),
				)
			}
		})
	}
}

// TestValidateWitnessProperty generates random P2WPKH programs and checks
// they validate on mainnet only.
func TestValidateWitnessProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		program := rapid.SliceOfN(rapid.Byte(), 20, 20).Draw(
			t, "program",
		)

		addr, err := btcutil.NewAddressWitnessPubKeyHash(
			program, &chaincfg.MainNetParams,
		)
		require.NoError(t, err)

		encoded := addr.EncodeAddress()
		_, err = Validate(encoded, &chaincfg.MainNetParams)
		require.NoError(t, err)

		_, err = Validate(encoded, &chaincfg.TestNet3Params)
		require.ErrorIs(t, err, ErrWrongNetwork)
	})
}

func TestParamsFromName(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]*chaincfg.Params{
		"mainnet": &chaincfg.MainNetParams,
		"testnet": &chaincfg.TestNet3Params,
		"regtest": &chaincfg.RegressionNetParams,
		"signet":  &chaincfg.SigNetParams,
		"simnet":  &chaincfg.SimNetParams,
	} {
		got, err := ParamsFromName(name)
		require.NoError(t, err)
		require.Equal(t, want.Name, got.Name)
	}

	_, err := ParamsFromName("litecoin")
	require.Error(t, err)
}
