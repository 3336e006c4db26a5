// Package lnscan resolves scanned payment strings and drives the resulting
// LNURL, lightning and on-chain flows against a Lightning node.
package lnscan

import (
	"context"
	"fmt"
	"net/http"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil"
	"github.com/ellemouton/lnscan/chanbackup"
	"github.com/ellemouton/lnscan/classify"
	"github.com/ellemouton/lnscan/events"
	"github.com/ellemouton/lnscan/lnurl"
	"github.com/ellemouton/lnscan/node"
	"github.com/ellemouton/lnscan/spend"
	"github.com/ellemouton/lnscan/state"
	"github.com/lightningnetwork/lnd/lnwire"
)

// Wallet wires the node, the classifier, the LNURL client, the backup
// service, the event registry and the state store together. It is the only
// owner of the registry.
type Wallet struct {
	cfg    *Config
	params *chaincfg.Params
	node   node.Client

	classifier *classify.Classifier
	lnurl      *lnurl.Client
	backups    *chanbackup.Service
	registry   *events.Registry
	store      *state.Store
}

// NewWallet creates a Wallet on top of client.
func NewWallet(cfg *Config, client node.Client) (*Wallet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	params, err := cfg.ChainParams()
	if err != nil {
		return nil, err
	}

	var decoder node.InvoiceDecoder = client
	if cfg.LocalDecode {
		decoder = node.NewLocalDecoder(params)
	}

	w := &Wallet{
		cfg:    cfg,
		params: params,
		node:   client,
		classifier: classify.New(&classify.Config{
			Network:      params,
			Decoder:      decoder,
			TorAvailable: cfg.TorAvailable,
		}),
		lnurl: lnurl.NewClient(&lnurl.Config{
			HTTPClient:    &http.Client{},
			Timeout:       cfg.HTTPTimeout,
			Decoder:       decoder,
			AllowInsecure: cfg.AllowInsecureLnurl,
		}),
		backups:  chanbackup.NewService(client),
		registry: events.NewRegistry(),
		store:    state.NewStore(),
	}

	err = w.registry.Register(events.SubscriberHome, w.handleHomeEvent)
	if err != nil {
		return nil, err
	}

	return w, nil
}

// Connect creates a Wallet backed by the lnd node named in cfg.
func Connect(cfg *Config) (*Wallet, error) {
	lnd, err := node.NewLnd(cfg.LndConfig())
	if err != nil {
		return nil, err
	}

	return NewWallet(cfg, lnd)
}

// Params returns the chain the wallet runs on.
func (w *Wallet) Params() *chaincfg.Params {
	return w.params
}

// Node returns the node the wallet talks to.
func (w *Wallet) Node() node.Client {
	return w.node
}

// Backups returns the channel backup service.
func (w *Wallet) Backups() *chanbackup.Service {
	return w.backups
}

// Events returns the event registry so that further subscribers can be
// registered and removed.
func (w *Wallet) Events() *events.Registry {
	return w.registry
}

// State returns the current wallet overview.
func (w *Wallet) State() state.State {
	return w.store.State()
}

// Resolve classifies a scanned or pasted string.
func (w *Wallet) Resolve(ctx context.Context, text string) (classify.Intent,
	error) {

	intent, err := w.classifier.Classify(ctx, text)
	if err != nil {
		return nil, err
	}

	log.Debugf("Resolved %v", intent.Kind())

	return intent, nil
}

// FetchLnurl performs the first round trip of an LNURL.
func (w *Wallet) FetchLnurl(ctx context.Context,
	intent *classify.Lnurl) (lnurl.Metadata, error) {

	meta, err := w.lnurl.Fetch(ctx, intent.URL)
	if err != nil {
		return nil, err
	}

	if intent.Tag != "" && intent.Tag != meta.Tag() {
		return nil, fmt.Errorf("%w: expected %v, service sent %v",
			lnurl.ErrIncompatible, intent.Tag, meta.Tag())
	}

	return meta, nil
}

// RequestInvoice asks an LNURL-pay service for an invoice of amt and checks
// that the wallet can afford to pay it. The check runs against the channels
// already in the wallet state, so Refresh must have been called first.
func (w *Wallet) RequestInvoice(ctx context.Context, meta *lnurl.PayMetadata,
	amt lnwire.MilliSatoshi, opts ...lnurl.PayOption) (*lnurl.PayResult,
	*spend.Plan, error) {

	result, err := w.lnurl.RequestInvoice(ctx, meta, amt, opts...)
	if err != nil {
		return nil, nil, err
	}

	plan, err := spend.CheckLightning(
		result.Invoice.Amount, w.cfg.FeePolicy, w.store.State().Channels,
	)
	if err != nil {
		return nil, nil, err
	}

	return result, plan, nil
}

// CheckLightning reloads the channel list and confirms that a lightning
// payment of amt fits the fee policy and the outbound liquidity of the
// active channels.
func (w *Wallet) CheckLightning(ctx context.Context,
	amt lnwire.MilliSatoshi) (*spend.Plan, error) {

	channels, err := w.node.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	w.store.Dispatch(state.ChannelsLoaded{Channels: channels})

	return spend.CheckLightning(amt, w.cfg.FeePolicy, channels)
}

// CheckOnChain confirms that amt can be sent from the confirmed on-chain
// balance.
func (w *Wallet) CheckOnChain(ctx context.Context, amt btcutil.Amount) error {
	balance, err := w.node.WalletBalance(ctx)
	if err != nil {
		return err
	}

	return spend.CheckOnChain(amt, balance)
}

// Withdraw creates an invoice for the full withdrawable amount and hands it
// to the LNURL-withdraw service. It returns the invoice.
func (w *Wallet) Withdraw(ctx context.Context,
	meta *lnurl.WithdrawMetadata) (string, error) {

	payReq, err := w.node.AddInvoice(
		ctx, meta.WithdrawAmount(), meta.DefaultDescription,
	)
	if err != nil {
		return "", err
	}

	if err := w.lnurl.RequestWithdraw(ctx, meta, payReq); err != nil {
		return "", err
	}

	return payReq, nil
}

// Refresh reloads the channel list into the wallet state.
func (w *Wallet) Refresh(ctx context.Context) (state.State, error) {
	channels, err := w.node.ListChannels(ctx)
	if err != nil {
		return state.State{}, err
	}

	return w.store.Dispatch(state.ChannelsLoaded{Channels: channels}), nil
}

// Watch feeds node events to the registered subscribers until ctx is
// cancelled or the event stream fails.
func (w *Wallet) Watch(ctx context.Context) error {
	return events.Pump(ctx, w.node, w.registry)
}

// handleHomeEvent keeps the wallet state current.
func (w *Wallet) handleHomeEvent(ev node.Event) {
	switch {
	case ev.Type == node.EventInvoiceSettled && ev.Invoice != nil:
		log.Infof("Invoice %v settled for %v", ev.Invoice.PaymentHash,
			ev.Invoice.AmountPaid)

		w.store.Dispatch(state.InvoiceSettled{Invoice: *ev.Invoice})

	case ev.Type == node.EventChannelBackup && ev.Backup != nil:
		log.Infof("Channel backup updated, %d channels",
			len(ev.Backup.ChanPoints))

		w.store.Dispatch(state.BackupUpdated{Backup: *ev.Backup})
	}
}
