// Package classify turns scanned or pasted text into a payment intent.
package classify

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ellemouton/lnscan/address"
	"github.com/ellemouton/lnscan/lnurl"
	"github.com/ellemouton/lnscan/node"
	"github.com/lightningnetwork/lnd/tor"
)

// DefaultPeerPort is assumed for node URIs without a port.
const DefaultPeerPort = 9735

var (
	// ErrUnrecognizedFormat is returned for text that isn't any kind of
	// payment string.
	ErrUnrecognizedFormat = errors.New("unrecognized format")

	// ErrUnsupportedTransport is returned for node URIs that can only be
	// reached over Tor when Tor isn't available.
	ErrUnsupportedTransport = errors.New("unsupported transport")

	// ErrInvalidInvoice is returned when an invoice for the active network
	// can't be decoded.
	ErrInvalidInvoice = errors.New("invalid lightning invoice")
)

var (
	nodeURIRegex = regexp.MustCompile(`^(0[23][0-9a-fA-F]{64})(?:@(.+))?$`)

	lightningAddressRegex = regexp.MustCompile(
		`^[a-zA-Z0-9._+-]+@[a-zA-Z0-9-]+(\.[a-zA-Z0-9-]+)+$`,
	)
)

// invoiceNetworks maps the network part of a BOLT11 hrp onto its chain.
var invoiceNetworks = []struct {
	prefix string
	params *chaincfg.Params
}{
	{"bcrt", &chaincfg.RegressionNetParams},
	{"tbs", &chaincfg.SigNetParams},
	{"bc", &chaincfg.MainNetParams},
	{"tb", &chaincfg.TestNet3Params},
	{"sb", &chaincfg.SimNetParams},
}

// Config configures a Classifier.
type Config struct {
	// Network is the wallet's active network.
	Network *chaincfg.Params

	// Decoder decodes lightning invoices. If nil, invoices are decoded
	// locally for Network.
	Decoder node.InvoiceDecoder

	// TorAvailable permits node URIs with onion hosts.
	TorAvailable bool

	// Now returns the current time. If nil, time.Now is used.
	Now func() time.Time
}

// Classifier classifies payment strings. It holds no mutable state.
type Classifier struct {
	cfg Config
}

// New creates a Classifier.
func New(cfg *Config) *Classifier {
	c := &Classifier{cfg: *cfg}
	if c.cfg.Now == nil {
		c.cfg.Now = time.Now
	}
	if c.cfg.Decoder == nil {
		c.cfg.Decoder = node.NewLocalDecoder(c.cfg.Network)
	}

	return c
}

// Classify returns the intent expressed by text. The only I/O it may do is
// invoice decoding through the configured decoder.
func (c *Classifier) Classify(ctx context.Context, text string) (Intent,
	error) {

	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	switch {
	case text == "":
		return nil, ErrUnrecognizedFormat

	case strings.HasPrefix(lower, "bitcoin:"):
		return c.classifyBIP21(ctx, text[len("bitcoin:"):])

	case strings.HasPrefix(lower, "lightning:"):
		rest := strings.TrimPrefix(text[len("lightning:"):], "//")
		return c.classifyLightning(ctx, rest)

	case strings.HasPrefix(lower, "http://"),
		strings.HasPrefix(lower, "https://"):

		return c.classifyWebURL(ctx, text)
	}

	intent, err := c.classifyLightning(ctx, text)
	if !errors.Is(err, ErrUnrecognizedFormat) {
		return intent, err
	}

	return c.classifyAddress(text)
}

// classifyLightning handles everything that may follow "lightning:".
func (c *Classifier) classifyLightning(ctx context.Context,
	s string) (Intent, error) {

	lower := strings.ToLower(s)

	if match := nodeURIRegex.FindStringSubmatch(s); match != nil {
		return c.classifyNode(match[1], match[2])
	}

	if lnurl.IsBech32(s) {
		decoded, err := lnurl.DecodeURL(s)
		if err != nil {
			return nil, err
		}

		return &Lnurl{URL: decoded}, nil
	}

	if decoded, tag, ok := lnurl.ParseLUD17(s); ok {
		return &Lnurl{URL: decoded, Tag: tag}, nil
	}

	if lightningAddressRegex.MatchString(s) {
		payURL, err := lnurl.LightningAddressURL(s)
		if err != nil {
			return nil, err
		}

		return &Lnurl{
			URL:              payURL,
			Tag:              lnurl.TagPayRequest,
			LightningAddress: lower,
		}, nil
	}

	// Checked after lightning addresses, which may start with "ln" too.
	if strings.HasPrefix(lower, "ln") {
		return c.classifyInvoice(ctx, s)
	}

	return nil, ErrUnrecognizedFormat
}

func (c *Classifier) classifyNode(pubKeyHex, host string) (*LightningNode,
	error) {

	pubKeyBytes, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
	}

	pubKey, err := btcec.ParsePubKey(pubKeyBytes, btcec.S256())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid node key: %v",
			ErrUnrecognizedFormat, err)
	}

	// ParsePubKey doesn't reduce x, so a coordinate at or above the field
	// prime slips through.
	if pubKey.X.Cmp(btcec.S256().P) >= 0 {
		return nil, fmt.Errorf("%w: node key x coordinate out of range",
			ErrUnrecognizedFormat)
	}

	nodeURI := &LightningNode{
		NodeID: strings.ToLower(pubKeyHex),
		PubKey: pubKey,
	}
	if host == "" {
		return nodeURI, nil
	}

	hostname, port, err := net.SplitHostPort(host)
	if err != nil {
		hostname, port = host, strconv.Itoa(DefaultPeerPort)
	}

	portNum, err := strconv.ParseUint(port, 10, 16)
	if hostname == "" || err != nil || portNum == 0 {
		return nil, fmt.Errorf("%w: invalid node address %q",
			ErrUnrecognizedFormat, host)
	}

	if tor.IsOnionHost(hostname) && !c.cfg.TorAvailable {
		return nil, fmt.Errorf("%w: %v is only reachable over Tor",
			ErrUnsupportedTransport, hostname)
	}

	nodeURI.Host = net.JoinHostPort(hostname, port)

	return nodeURI, nil
}

// invoiceNetwork returns the chain a BOLT11 string is for, judged by its
// hrp alone.
func invoiceNetwork(payReq string) (*chaincfg.Params, bool) {
	sep := strings.LastIndexByte(payReq, '1')
	if sep < 2 || !strings.HasPrefix(payReq, "ln") {
		return nil, false
	}
	hrp := payReq[2:sep]

	for _, n := range invoiceNetworks {
		if !strings.HasPrefix(hrp, n.prefix) {
			continue
		}

		rest := hrp[len(n.prefix):]
		if rest == "" || (rest[0] >= '0' && rest[0] <= '9') {
			return n.params, true
		}
	}

	return nil, false
}

func (c *Classifier) classifyInvoice(ctx context.Context,
	raw string) (*LightningInvoice, error) {

	raw = strings.ToLower(strings.TrimSpace(raw))

	invoiceNet, ok := invoiceNetwork(raw)
	if !ok {
		return nil, ErrUnrecognizedFormat
	}

	if invoiceNet.Name != c.cfg.Network.Name {
		return nil, &address.WrongNetworkError{
			Expected: c.cfg.Network.Name,
			Actual:   invoiceNet.Name,
		}
	}

	inv, err := c.cfg.Decoder.DecodeInvoice(ctx, raw)
	switch {
	case errors.Is(err, node.ErrTimeout):
		return nil, err

	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidInvoice, err)
	}

	if inv.IsExpired(c.cfg.Now()) {
		return nil, fmt.Errorf("%w at %v", node.ErrInvoiceExpired,
			inv.ExpiresAt())
	}

	return &LightningInvoice{Raw: raw, Invoice: inv}, nil
}

// classifyWebURL accepts web links that carry a lightning parameter.
func (c *Classifier) classifyWebURL(ctx context.Context,
	rawURL string) (Intent, error) {

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
	}

	for key, values := range u.Query() {
		if strings.EqualFold(key, "lightning") && len(values) > 0 {
			return c.classifyLightning(ctx, values[0])
		}
	}

	return nil, ErrUnrecognizedFormat
}

func (c *Classifier) classifyAddress(addr string) (Intent, error) {
	decoded, err := address.Validate(addr, c.cfg.Network)
	switch {
	case errors.Is(err, address.ErrWrongNetwork):
		return nil, err

	case err != nil:
		return nil, ErrUnrecognizedFormat
	}

	return &Bitcoin{Address: decoded}, nil
}
