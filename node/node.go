// Package node describes the request/response and event-stream boundary to
// the Lightning node and implements it on top of lnd's gRPC interface.
package node

import (
	"context"
	"errors"

	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
	"github.com/lightningnetwork/lnd/lnwire"
)

var (
	// ErrTimeout is returned when an RPC doesn't complete within the
	// configured timeout.
	ErrTimeout = errors.New("node rpc timed out")

	// ErrRPC wraps every other failure returned by the node.
	ErrRPC = errors.New("node rpc failed")
)

// Channel is the view of an open channel used for liquidity checks and
// backup cross-referencing.
type Channel struct {
	// ChannelPoint is the funding outpoint of the channel.
	ChannelPoint wire.OutPoint

	// RemotePubkey is the hex encoded identity key of the peer.
	RemotePubkey string

	// Active is false while the peer is offline.
	Active bool

	// Capacity is the total channel capacity.
	Capacity btcutil.Amount

	// LocalBalance is our side of the channel.
	LocalBalance btcutil.Amount

	// RemoteBalance is the peer's side of the channel.
	RemoteBalance btcutil.Amount

	// LocalReserve is the amount we must keep on our side.
	LocalReserve btcutil.Amount
}

// ChannelBackup is a multi-channel static backup together with the channel
// points it covers.
type ChannelBackup struct {
	// ChanPoints are the funding outpoints covered by Blob.
	ChanPoints []wire.OutPoint

	// Blob is the encrypted multi-channel backup.
	Blob []byte
}

// EventType is the kind of a node event.
type EventType uint8

const (
	// EventInvoiceSettled is sent when one of our invoices is paid.
	EventInvoiceSettled EventType = iota

	// EventChannelBackup is sent whenever the node's channel set changes
	// and a fresh backup is available.
	EventChannelBackup
)

// String returns a human readable name for the event type.
func (e EventType) String() string {
	switch e {
	case EventInvoiceSettled:
		return "InvoiceSettled"

	case EventChannelBackup:
		return "ChannelBackup"

	default:
		return "Unknown"
	}
}

// SettledInvoice describes a paid invoice.
type SettledInvoice struct {
	// PaymentHash is the hex encoded payment hash.
	PaymentHash string

	// PaymentRequest is the encoded invoice.
	PaymentRequest string

	// AmountPaid is what the payer actually sent.
	AmountPaid lnwire.MilliSatoshi

	// Memo is the invoice description.
	Memo string
}

// Event is a single notification from the node's event stream. Exactly one
// of the pointer fields is set, according to Type.
type Event struct {
	Type EventType

	Invoice *SettledInvoice

	Backup *ChannelBackup
}

// Client is everything this module needs from a Lightning node.
type Client interface {
	InvoiceDecoder

	// ListChannels returns the currently open channels.
	ListChannels(ctx context.Context) ([]Channel, error)

	// WalletBalance returns the confirmed on-chain balance.
	WalletBalance(ctx context.Context) (btcutil.Amount, error)

	// AddInvoice creates an invoice and returns its payment request.
	AddInvoice(ctx context.Context, amt lnwire.MilliSatoshi,
		memo string) (string, error)

	// ChannelBackup returns the current multi-channel backup.
	ChannelBackup(ctx context.Context) (*ChannelBackup, error)

	// VerifyChannelBackup asks the node to check that blob is a valid
	// backup covering points.
	VerifyChannelBackup(ctx context.Context, points []wire.OutPoint,
		blob []byte) error

	// RestoreChannelBackup restores all channels found in blob. Restoring
	// the same backup twice is harmless.
	RestoreChannelBackup(ctx context.Context, blob []byte) error

	// SubscribeEvents streams node events until ctx is cancelled. The
	// error channel receives at most one error, after which both channels
	// are closed.
	SubscribeEvents(ctx context.Context) (<-chan Event, <-chan error,
		error)
}
