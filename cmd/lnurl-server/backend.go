package main

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcutil"
	"github.com/ellemouton/lnscan/lnurl"
	"github.com/ellemouton/lnscan/node"
	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/lnrpc/invoicesrpc"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
)

// invoiceMemo is set on every invoice created for the pay endpoint.
const invoiceMemo = "LNSCAN-pay"

// lndBackend serves the LNURL endpoints from lnd. Invoices are decoded
// locally.
type lndBackend struct {
	node.InvoiceDecoder

	lnd    lndclient.LightningClient
	maxFee btcutil.Amount
}

// A compile time check to ensure lndBackend implements the
// lnurl.InvoiceBackend interface.
var _ lnurl.InvoiceBackend = (*lndBackend)(nil)

func (b *lndBackend) AddInvoice(ctx context.Context, amt lnwire.MilliSatoshi,
	descHash [32]byte) (string, error) {

	hash := lntypes.Hash(descHash)
	_, pr, err := b.lnd.AddInvoice(ctx, &invoicesrpc.AddInvoiceData{
		Memo:            invoiceMemo,
		Value:           amt,
		DescriptionHash: hash[:],
	})
	if err != nil {
		return "", fmt.Errorf("could not add invoice: %w", err)
	}

	return pr, nil
}

func (b *lndBackend) PayInvoice(ctx context.Context, payReq string) error {
	res := <-b.lnd.PayInvoice(ctx, payReq, b.maxFee, nil)
	if res.Err != nil {
		return fmt.Errorf("could not pay invoice: %w", res.Err)
	}

	log.Infof("Paid withdraw invoice, preimage %v", res.Preimage)

	return nil
}
