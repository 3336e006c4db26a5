package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/btcsuite/btcutil"
	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/lnrpc/invoicesrpc"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/stretchr/testify/require"
)

type fakeLightning struct {
	lndclient.LightningClient

	added   []*invoicesrpc.AddInvoiceData
	paid    []string
	maxFees []btcutil.Amount
	payErr  error
}

func (f *fakeLightning) AddInvoice(_ context.Context,
	in *invoicesrpc.AddInvoiceData) (lntypes.Hash, string, error) {

	f.added = append(f.added, in)

	return lntypes.Hash{}, "lnbcrt1pfake", nil
}

func (f *fakeLightning) PayInvoice(_ context.Context, invoice string,
	maxFee btcutil.Amount, _ *uint64) chan lndclient.PaymentResult {

	f.paid = append(f.paid, invoice)
	f.maxFees = append(f.maxFees, maxFee)

	res := make(chan lndclient.PaymentResult, 1)
	res <- lndclient.PaymentResult{Err: f.payErr}

	return res
}

func TestLndBackend(t *testing.T) {
	fake := &fakeLightning{}
	backend := &lndBackend{
		lnd:    fake,
		maxFee: 21,
	}
	ctx := context.Background()

	descHash := sha256.Sum256([]byte(`[["text/plain","hi"]]`))
	pr, err := backend.AddInvoice(ctx, 5000, descHash)
	require.NoError(t, err)
	require.Equal(t, "lnbcrt1pfake", pr)

	require.Len(t, fake.added, 1)
	require.Equal(t, lnwire.MilliSatoshi(5000), fake.added[0].Value)
	require.Equal(t, descHash[:], fake.added[0].DescriptionHash)
	require.Equal(t, invoiceMemo, fake.added[0].Memo)

	require.NoError(t, backend.PayInvoice(ctx, "lnbcrt1pother"))
	require.Equal(t, []string{"lnbcrt1pother"}, fake.paid)
	require.Equal(t, []btcutil.Amount{21}, fake.maxFees)

	fake.payErr = errors.New("no route")
	require.Error(t, backend.PayInvoice(ctx, "lnbcrt1pother"))
}
