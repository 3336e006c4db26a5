package classify

import (
	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcutil"
	"github.com/ellemouton/lnscan/lnurl"
	"github.com/ellemouton/lnscan/node"
	"github.com/lightningnetwork/lnd/lnwire"
)

// Kind names the variant of an Intent.
type Kind string

const (
	KindBitcoin          Kind = "bitcoin"
	KindLightningInvoice Kind = "lightning-invoice"
	KindLightningNode    Kind = "lightning-node"
	KindLnurl            Kind = "lnurl"
)

// Intent is what a scanned or pasted string asks the wallet to do. It is
// implemented by *Bitcoin, *LightningInvoice, *LightningNode and *Lnurl
// only.
type Intent interface {
	Kind() Kind

	intent()
}

// Bitcoin is an on-chain payment request.
type Bitcoin struct {
	Address btcutil.Address

	// Amount is the requested amount, if the URI carried one.
	Amount *lnwire.MilliSatoshi

	Label   string
	Message string
}

// Kind returns KindBitcoin.
func (b *Bitcoin) Kind() Kind { return KindBitcoin }

func (b *Bitcoin) intent() {}

// LightningInvoice is a decoded, unexpired BOLT11 invoice for the active
// network.
type LightningInvoice struct {
	// Raw is the lower-cased payment request.
	Raw string

	Invoice *node.Invoice

	// Fallback is the on-chain half of a unified BIP21 URI, if the invoice
	// came from one.
	Fallback *Bitcoin
}

// Kind returns KindLightningInvoice.
func (l *LightningInvoice) Kind() Kind { return KindLightningInvoice }

func (l *LightningInvoice) intent() {}

// LightningNode is a node URI, pubkey[@host[:port]].
type LightningNode struct {
	// NodeID is the lower-case hex of the compressed public key.
	NodeID string

	PubKey *btcec.PublicKey

	// Host is host:port, or empty if the URI only named the node.
	Host string
}

// Kind returns KindLightningNode.
func (l *LightningNode) Kind() Kind { return KindLightningNode }

func (l *LightningNode) intent() {}

// Lnurl is an LNURL ready to be fetched.
type Lnurl struct {
	// URL is the decoded URL.
	URL string

	// Tag is the kind of service, when the string revealed it before any
	// request was made (LUD-17 schemes, lightning addresses).
	Tag lnurl.Tag

	// LightningAddress is set if the LNURL came from user@domain.
	LightningAddress string
}

// Kind returns KindLnurl.
func (l *Lnurl) Kind() Kind { return KindLnurl }

func (l *Lnurl) intent() {}
