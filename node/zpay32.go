package node

import (
	"context"
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/zpay32"
)

// LocalDecoder decodes invoices in process with zpay32, without asking the
// node. It rejects invoices for any network other than its own.
type LocalDecoder struct {
	net *chaincfg.Params
}

// A compile time check to ensure LocalDecoder implements InvoiceDecoder.
var _ InvoiceDecoder = (*LocalDecoder)(nil)

// NewLocalDecoder returns a decoder for invoices on net.
func NewLocalDecoder(net *chaincfg.Params) *LocalDecoder {
	return &LocalDecoder{net: net}
}

// DecodeInvoice decodes payReq.
func (d *LocalDecoder) DecodeInvoice(_ context.Context,
	payReq string) (*Invoice, error) {

	decoded, err := zpay32.Decode(payReq, d.net)
	if err != nil {
		return nil, err
	}

	inv := &Invoice{
		PaymentRequest: payReq,
		Timestamp:      decoded.Timestamp,
		Expiry:         decoded.Expiry(),
	}

	if decoded.MilliSat != nil {
		inv.Amount = *decoded.MilliSat
	}
	if decoded.Destination != nil {
		inv.Destination = hex.EncodeToString(
			decoded.Destination.SerializeCompressed(),
		)
	}
	if decoded.PaymentHash != nil {
		inv.PaymentHash = hex.EncodeToString(decoded.PaymentHash[:])
	}
	if decoded.Description != nil {
		inv.Description = *decoded.Description
	}
	if decoded.DescriptionHash != nil {
		inv.DescriptionHash = append(
			[]byte(nil), decoded.DescriptionHash[:]...,
		)
	}

	return inv, nil
}
