package lnurl

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/lightningnetwork/lnd/tor"
)

const humanReadablePart = "lnurl"

// lud17Schemes maps the LUD-17 scheme prefixes onto the service they name.
var lud17Schemes = map[string]Tag{
	"lnurlp":  TagPayRequest,
	"lnurlw":  TagWithdrawRequest,
	"lnurlc":  TagChannelRequest,
	"keyauth": TagLogin,
}

// DecodeURL turns a bech32 LNURL into the URL it wraps. LNURLs are far
// longer than the 90 characters bech32 allows for addresses, so the length
// limit is not applied.
func DecodeURL(lnurl string) (string, error) {
	hrp, data, err := bech32.DecodeNoLimit(strings.TrimSpace(lnurl))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}

	if hrp != humanReadablePart {
		return "", fmt.Errorf("%w: incorrect hrp for LNURL. Expected "+
			"'%s', got '%s'", ErrInvalidEncoding, humanReadablePart,
			hrp)
	}

	data, err = bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}

	return string(data), nil
}

// EncodeURL wraps url into an upper-case bech32 LNURL, the form that packs
// best into a QR code.
func EncodeURL(url string) (string, error) {
	converted, err := bech32.ConvertBits([]byte(url), 8, 5, true)
	if err != nil {
		return "", err
	}

	str, err := bech32.Encode(humanReadablePart, converted)
	if err != nil {
		return "", err
	}

	return strings.ToUpper(str), nil
}

// IsBech32 reports whether s looks like a bech32 LNURL. It does not verify
// the checksum.
func IsBech32(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), humanReadablePart+"1")
}

// ParseLUD17 converts a lnurlp://, lnurlw://, lnurlc:// or keyauth:// URL
// into the https URL it stands for. Onion services are reached over plain
// http. The boolean is false if s doesn't use one of these schemes.
func ParseLUD17(s string) (string, Tag, bool) {
	sep := strings.Index(s, "://")
	if sep < 0 {
		return "", "", false
	}

	tag, ok := lud17Schemes[strings.ToLower(s[:sep])]
	if !ok {
		return "", "", false
	}

	rest := s[sep+len("://"):]

	protocol := "https"
	if u, err := url.Parse("https://" + rest); err == nil &&
		tor.IsOnionHost(u.Hostname()) {

		protocol = "http"
	}

	return protocol + "://" + rest, tag, true
}

// LightningAddressURL returns the LNURL-pay endpoint of a lightning address
// (LUD-16), user@domain.
func LightningAddressURL(address string) (string, error) {
	parts := strings.Split(address, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("%w: invalid LN address %q. Expected "+
			"the form <username>@<domain>", ErrInvalidURL, address)
	}

	username, domain := strings.ToLower(parts[0]), strings.ToLower(parts[1])

	protocol := "https"
	if tor.IsOnionHost(domain) {
		protocol = "http"
	}

	return fmt.Sprintf("%s://%s/.well-known/lnurlp/%s", protocol, domain,
		username), nil
}
