package node

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnwire"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultRPCTimeout bounds every unary call made by Lnd.
const DefaultRPCTimeout = 30 * time.Second

// LndConfig holds the connection details of an lnd node.
type LndConfig struct {
	// Host is lnd's gRPC address, host:port.
	Host string

	// Network is the chain lnd runs on, e.g. "mainnet" or "regtest".
	Network string

	// MacaroonDir is the directory holding admin.macaroon.
	MacaroonDir string

	// TLSPath is the path to lnd's tls.cert.
	TLSPath string

	// Timeout bounds each unary RPC. Zero means DefaultRPCTimeout.
	Timeout time.Duration
}

// Lnd implements Client over lnd's Lightning gRPC service.
type Lnd struct {
	client  lnrpc.LightningClient
	timeout time.Duration
}

// A compile time check to ensure Lnd implements the Client interface.
var _ Client = (*Lnd)(nil)

// NewLnd connects to the node described by cfg.
func NewLnd(cfg *LndConfig) (*Lnd, error) {
	client, err := lndclient.NewBasicClient(
		cfg.Host, cfg.TLSPath, cfg.MacaroonDir, cfg.Network,
	)
	if err != nil {
		return nil, fmt.Errorf("could not connect to lnd at %v: %w",
			cfg.Host, err)
	}

	log.Infof("Connected to lnd at %v (%v)", cfg.Host, cfg.Network)

	return NewLndFromClient(client, cfg.Timeout), nil
}

// NewLndFromClient wraps an existing gRPC client.
func NewLndFromClient(client lnrpc.LightningClient,
	timeout time.Duration) *Lnd {

	if timeout == 0 {
		timeout = DefaultRPCTimeout
	}

	return &Lnd{
		client:  client,
		timeout: timeout,
	}
}

// rpcErr maps a gRPC failure onto ErrTimeout or ErrRPC.
func rpcErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) ||
		status.Code(err) == codes.DeadlineExceeded {

		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}

	return fmt.Errorf("%s: %w: %v", op, ErrRPC, err)
}

// DecodeInvoice decodes payReq with the node's DecodePayReq call.
func (l *Lnd) DecodeInvoice(ctx context.Context, payReq string) (*Invoice,
	error) {

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	resp, err := l.client.DecodePayReq(
		ctx, &lnrpc.PayReqString{PayReq: payReq},
	)
	if err != nil {
		return nil, rpcErr("DecodePayReq", err)
	}

	amt := lnwire.MilliSatoshi(resp.NumMsat)
	if amt == 0 {
		amt = lnwire.NewMSatFromSatoshis(btcutil.Amount(resp.NumSatoshis))
	}

	inv := &Invoice{
		PaymentRequest: payReq,
		Destination:    resp.Destination,
		PaymentHash:    resp.PaymentHash,
		Amount:         amt,
		Description:    resp.Description,
		Timestamp:      time.Unix(resp.Timestamp, 0),
		Expiry:         time.Duration(resp.Expiry) * time.Second,
	}

	if resp.DescriptionHash != "" {
		inv.DescriptionHash, err = hex.DecodeString(resp.DescriptionHash)
		if err != nil {
			return nil, fmt.Errorf("invalid description hash %q: %w",
				resp.DescriptionHash, err)
		}
	}

	return inv, nil
}

// ListChannels returns all open channels, active or not.
func (l *Lnd) ListChannels(ctx context.Context) ([]Channel, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	resp, err := l.client.ListChannels(ctx, &lnrpc.ListChannelsRequest{})
	if err != nil {
		return nil, rpcErr("ListChannels", err)
	}

	channels := make([]Channel, 0, len(resp.Channels))
	for _, c := range resp.Channels {
		op, err := ParseOutPoint(c.ChannelPoint)
		if err != nil {
			return nil, err
		}

		channels = append(channels, Channel{
			ChannelPoint:  *op,
			RemotePubkey:  c.RemotePubkey,
			Active:        c.Active,
			Capacity:      btcutil.Amount(c.Capacity),
			LocalBalance:  btcutil.Amount(c.LocalBalance),
			RemoteBalance: btcutil.Amount(c.RemoteBalance),
			LocalReserve: btcutil.Amount(
				c.GetLocalConstraints().GetChanReserveSat(),
			),
		})
	}

	return channels, nil
}

// WalletBalance returns the confirmed on-chain balance.
func (l *Lnd) WalletBalance(ctx context.Context) (btcutil.Amount, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	resp, err := l.client.WalletBalance(
		ctx, &lnrpc.WalletBalanceRequest{},
	)
	if err != nil {
		return 0, rpcErr("WalletBalance", err)
	}

	return btcutil.Amount(resp.ConfirmedBalance), nil
}

// AddInvoice creates an invoice for amt.
func (l *Lnd) AddInvoice(ctx context.Context, amt lnwire.MilliSatoshi,
	memo string) (string, error) {

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	resp, err := l.client.AddInvoice(ctx, &lnrpc.Invoice{
		Memo:      memo,
		ValueMsat: int64(amt),
	})
	if err != nil {
		return "", rpcErr("AddInvoice", err)
	}

	return resp.PaymentRequest, nil
}

// ChannelBackup exports the node's current multi-channel backup.
func (l *Lnd) ChannelBackup(ctx context.Context) (*ChannelBackup, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	resp, err := l.client.ExportAllChannelBackups(
		ctx, &lnrpc.ChanBackupExportRequest{},
	)
	if err != nil {
		return nil, rpcErr("ExportAllChannelBackups", err)
	}

	return backupFromRPC(resp.MultiChanBackup)
}

// VerifyChannelBackup asks lnd to decrypt and check blob.
func (l *Lnd) VerifyChannelBackup(ctx context.Context,
	points []wire.OutPoint, blob []byte) error {

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	_, err := l.client.VerifyChanBackup(ctx, &lnrpc.ChanBackupSnapshot{
		MultiChanBackup: &lnrpc.MultiChanBackup{
			ChanPoints:      chanPointsToRPC(points),
			MultiChanBackup: blob,
		},
	})
	if err != nil {
		return rpcErr("VerifyChanBackup", err)
	}

	return nil
}

// RestoreChannelBackup hands blob to lnd's RestoreChannelBackups.
func (l *Lnd) RestoreChannelBackup(ctx context.Context, blob []byte) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	_, err := l.client.RestoreChannelBackups(
		ctx, &lnrpc.RestoreChanBackupRequest{
			Backup: &lnrpc.RestoreChanBackupRequest_MultiChanBackup{
				MultiChanBackup: blob,
			},
		},
	)
	if err != nil {
		return rpcErr("RestoreChannelBackups", err)
	}

	return nil
}

// SubscribeEvents merges lnd's invoice and channel backup subscriptions
// into a single stream.
func (l *Lnd) SubscribeEvents(ctx context.Context) (<-chan Event,
	<-chan error, error) {

	ctx, cancel := context.WithCancel(ctx)

	invoices, err := l.client.SubscribeInvoices(
		ctx, &lnrpc.InvoiceSubscription{},
	)
	if err != nil {
		cancel()
		return nil, nil, rpcErr("SubscribeInvoices", err)
	}

	backups, err := l.client.SubscribeChannelBackups(
		ctx, &lnrpc.ChannelBackupSubscription{},
	)
	if err != nil {
		cancel()
		return nil, nil, rpcErr("SubscribeChannelBackups", err)
	}

	var (
		events  = make(chan Event)
		errChan = make(chan error, 1)
		errOnce sync.Once
		wg      sync.WaitGroup
	)

	// The first stream failure is reported and tears down the other
	// stream. Failures after cancellation are a normal shutdown.
	fail := func(err error) {
		errOnce.Do(func() {
			if ctx.Err() == nil {
				errChan <- err
			}
			cancel()
		})
	}

	send := func(e Event) bool {
		select {
		case events <- e:
			return true
		case <-ctx.Done():
			return false
		}
	}

	wg.Add(2)
	go func() {
		defer wg.Done()

		for {
			inv, err := invoices.Recv()
			if err != nil {
				fail(rpcErr("SubscribeInvoices", err))
				return
			}

			if inv.State != lnrpc.Invoice_SETTLED {
				continue
			}

			log.Debugf("Invoice %x settled for %v msat", inv.RHash,
				inv.AmtPaidMsat)

			ok := send(Event{
				Type: EventInvoiceSettled,
				Invoice: &SettledInvoice{
					PaymentHash: hex.EncodeToString(
						inv.RHash,
					),
					PaymentRequest: inv.PaymentRequest,
					AmountPaid: lnwire.MilliSatoshi(
						inv.AmtPaidMsat,
					),
					Memo: inv.Memo,
				},
			})
			if !ok {
				return
			}
		}
	}()

	go func() {
		defer wg.Done()

		for {
			snapshot, err := backups.Recv()
			if err != nil {
				fail(rpcErr("SubscribeChannelBackups", err))
				return
			}

			backup, err := backupFromRPC(snapshot.MultiChanBackup)
			if err != nil {
				fail(err)
				return
			}

			ok := send(Event{
				Type:   EventChannelBackup,
				Backup: backup,
			})
			if !ok {
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		cancel()
		close(events)
		close(errChan)
	}()

	return events, errChan, nil
}

func backupFromRPC(multi *lnrpc.MultiChanBackup) (*ChannelBackup, error) {
	if multi == nil {
		return &ChannelBackup{}, nil
	}

	points := make([]wire.OutPoint, 0, len(multi.ChanPoints))
	for _, cp := range multi.ChanPoints {
		txid, err := lnrpc.GetChanPointFundingTxid(cp)
		if err != nil {
			return nil, fmt.Errorf("invalid channel point in "+
				"backup: %w", err)
		}

		points = append(points, wire.OutPoint{
			Hash:  *txid,
			Index: cp.OutputIndex,
		})
	}

	return &ChannelBackup{
		ChanPoints: points,
		Blob:       multi.MultiChanBackup,
	}, nil
}

func chanPointsToRPC(points []wire.OutPoint) []*lnrpc.ChannelPoint {
	rpcPoints := make([]*lnrpc.ChannelPoint, 0, len(points))
	for _, op := range points {
		txid := op.Hash
		rpcPoints = append(rpcPoints, &lnrpc.ChannelPoint{
			FundingTxid: &lnrpc.ChannelPoint_FundingTxidBytes{
				FundingTxidBytes: txid[:],
			},
			OutputIndex: op.Index,
		})
	}

	return rpcPoints
}

// ParseOutPoint parses the txid:index form lnd uses for channel points.
func ParseOutPoint(s string) (*wire.OutPoint, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected txid:index, got %q", s)
	}

	if len(parts[0]) != chainhash.MaxHashStringSize {
		return nil, fmt.Errorf("invalid txid length in %q", s)
	}

	hash, err := chainhash.NewHashFromStr(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid txid in %q: %w", s, err)
	}

	index, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid output index in %q: %w", s,
			err)
	}

	return wire.NewOutPoint(hash, uint32(index)), nil
}
