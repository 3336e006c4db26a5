// Package state holds the wallet overview as an immutable value. Every
// update builds a new State; a State once handed out never changes.
package state

import (
	"math"
	"sync"

	"github.com/btcsuite/btcd/wire"
	"github.com/ellemouton/lnscan/amount"
	"github.com/ellemouton/lnscan/node"
	"github.com/ellemouton/lnscan/spend"
	"github.com/lightningnetwork/lnd/lnwire"
)

// MaxRecentInvoices bounds State.Recent.
const MaxRecentInvoices = 50

// State is the wallet overview.
type State struct {
	// Channels are the open channels as last loaded.
	Channels []node.Channel

	// Outbound is the spendable balance of Channels.
	Outbound lnwire.MilliSatoshi

	// Recent are the latest settled invoices, newest first.
	Recent []node.SettledInvoice

	// Received is the total of all settled invoices seen.
	Received lnwire.MilliSatoshi

	// Backup is the latest channel backup, if any.
	Backup *node.ChannelBackup
}

// Action is an update to the State. It is implemented by ChannelsLoaded,
// InvoiceSettled, BackupUpdated and Reset only.
type Action interface {
	action()
}

// ChannelsLoaded replaces the channel list.
type ChannelsLoaded struct {
	Channels []node.Channel
}

// InvoiceSettled records a paid invoice.
type InvoiceSettled struct {
	Invoice node.SettledInvoice
}

// BackupUpdated replaces the channel backup.
type BackupUpdated struct {
	Backup node.ChannelBackup
}

// Reset returns to the empty State.
type Reset struct{}

func (ChannelsLoaded) action() {}
func (InvoiceSettled) action() {}
func (BackupUpdated) action()  {}
func (Reset) action()          {}

// Reduce returns the State that results from applying a to prev. prev and
// everything it references are left untouched.
func Reduce(prev State, a Action) State {
	next := prev

	switch a := a.(type) {
	case ChannelsLoaded:
		next.Channels = append([]node.Channel(nil), a.Channels...)
		next.Outbound = spend.Outbound(next.Channels)

	case InvoiceSettled:
		n := len(prev.Recent) + 1
		if n > MaxRecentInvoices {
			n = MaxRecentInvoices
		}

		next.Recent = make([]node.SettledInvoice, 0, n)
		next.Recent = append(next.Recent, a.Invoice)
		next.Recent = append(next.Recent, prev.Recent[:n-1]...)
		received, err := amount.Add(prev.Received, a.Invoice.AmountPaid)
		if err != nil {
			log.Warnf("Received total saturated: %v", err)
			received = math.MaxUint64
		}
		next.Received = received

	case BackupUpdated:
		next.Backup = copyBackup(&a.Backup)

	case Reset:
		next = State{}

	default:
		log.Warnf("Ignoring unknown action %T", a)
	}

	return next
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Channels = append([]node.Channel(nil), s.Channels...)
	out.Recent = append([]node.SettledInvoice(nil), s.Recent...)
	if s.Backup != nil {
		out.Backup = copyBackup(s.Backup)
	}

	return out
}

func copyBackup(b *node.ChannelBackup) *node.ChannelBackup {
	return &node.ChannelBackup{
		ChanPoints: append([]wire.OutPoint(nil), b.ChanPoints...),
		Blob:       append([]byte(nil), b.Blob...),
	}
}

// Store serialises updates to a State.
type Store struct {
	mu    sync.Mutex
	state State
}

// NewStore returns a store holding the empty State.
func NewStore() *Store {
	return &Store{}
}

// Dispatch applies a and returns a copy of the new State.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, a)

	return s.state.Clone()
}

// State returns a copy of the current State.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Clone()
}
