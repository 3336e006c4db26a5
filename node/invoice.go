package node

import (
	"context"
	"errors"
	"time"

	"github.com/lightningnetwork/lnd/lnwire"
)

// ErrInvoiceExpired is returned for invoices whose expiry has elapsed.
var ErrInvoiceExpired = errors.New("invoice expired")

// Invoice holds the fields of a decoded BOLT11 payment request that the
// payment flows care about.
type Invoice struct {
	// PaymentRequest is the encoded invoice as it was decoded.
	PaymentRequest string

	// Destination is the hex encoded public key of the payee.
	Destination string

	// PaymentHash is the hex encoded payment hash.
	PaymentHash string

	// Amount is the requested amount. Zero means the payer chooses.
	Amount lnwire.MilliSatoshi

	// Description is the free-form "d" field, if any.
	Description string

	// DescriptionHash is the "h" field, if any.
	DescriptionHash []byte

	// Timestamp is the creation time of the invoice.
	Timestamp time.Time

	// Expiry is how long after Timestamp the invoice stays payable.
	Expiry time.Duration
}

// ExpiresAt returns the moment the invoice stops being payable.
func (i *Invoice) ExpiresAt() time.Time {
	return i.Timestamp.Add(i.Expiry)
}

// IsExpired reports whether the invoice's expiry has elapsed at now.
func (i *Invoice) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt())
}

// InvoiceDecoder turns a BOLT11 string into its fields.
type InvoiceDecoder interface {
	// DecodeInvoice decodes payReq. It doesn't check for expiry.
	DecodeInvoice(ctx context.Context, payReq string) (*Invoice, error)
}
