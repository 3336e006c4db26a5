package lnurl

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/lightningnetwork/lnd/lnwire"
)

// Metadata is the decoded first response of an LNURL service. It is
// implemented by *PayMetadata and *WithdrawMetadata only.
type Metadata interface {
	// Tag returns the kind of service.
	Tag() Tag

	// Domain returns the host of the service, for display.
	Domain() string

	metadata()
}

// PayMetadata describes an LNURL-pay service.
type PayMetadata struct {
	// Callback is where the amount is sent in exchange for an invoice.
	Callback *url.URL

	// MinSendable is the smallest amount the service accepts.
	MinSendable lnwire.MilliSatoshi

	// MaxSendable is the largest amount the service accepts.
	MaxSendable lnwire.MilliSatoshi

	// Metadata is the raw metadata string. Invoices from the service must
	// commit to its sha256.
	Metadata string

	// Description is the text/plain entry of Metadata.
	Description string

	// CommentAllowed is the longest comment the service accepts.
	CommentAllowed int

	domain string
}

// Tag returns TagPayRequest.
func (p *PayMetadata) Tag() Tag {
	return TagPayRequest
}

// Domain returns the host the metadata was fetched from.
func (p *PayMetadata) Domain() string {
	return p.domain
}

func (p *PayMetadata) metadata() {}

// FixedAmount returns the only amount the service accepts, if it accepts
// exactly one. Callers use it to skip the amount prompt.
func (p *PayMetadata) FixedAmount() (lnwire.MilliSatoshi, bool) {
	return p.MinSendable, p.MinSendable == p.MaxSendable
}

// DescriptionHash is the hash pay invoices must carry.
func (p *PayMetadata) DescriptionHash() [32]byte {
	return sha256Metadata(p.Metadata)
}

// WithdrawMetadata describes an LNURL-withdraw service.
type WithdrawMetadata struct {
	// Callback is where the invoice is submitted.
	Callback *url.URL

	// K1 is an opaque challenge echoed back unmodified.
	K1 string

	// MinWithdrawable is the smallest amount the service pays out.
	MinWithdrawable lnwire.MilliSatoshi

	// MaxWithdrawable is the largest amount the service pays out. Only
	// full withdraws are supported, so this is the invoice amount.
	MaxWithdrawable lnwire.MilliSatoshi

	// DefaultDescription is the suggested invoice memo.
	DefaultDescription string

	domain string
}

// Tag returns TagWithdrawRequest.
func (w *WithdrawMetadata) Tag() Tag {
	return TagWithdrawRequest
}

// Domain returns the host the metadata was fetched from.
func (w *WithdrawMetadata) Domain() string {
	return w.domain
}

func (w *WithdrawMetadata) metadata() {}

// decodeMetadata decodes a first-step response. The tag selects the
// variant; anything else is rejected here rather than later.
func decodeMetadata(body []byte, domain string) (Metadata, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if strings.EqualFold(env.Status, StatusError) {
		return nil, &ServiceError{Reason: env.Reason}
	}

	switch env.Tag {
	case TagPayRequest:
		var resp PayResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse,
				err)
		}

		return newPayMetadata(&resp, domain)

	case TagWithdrawRequest:
		var resp WithdrawResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse,
				err)
		}

		return newWithdrawMetadata(&resp, domain)

	case "":
		return nil, fmt.Errorf("%w: response has no tag",
			ErrIncompatible)

	default:
		return nil, fmt.Errorf("%w: unsupported tag %q",
			ErrIncompatible, env.Tag)
	}
}

func newPayMetadata(resp *PayResponse, domain string) (*PayMetadata,
	error) {

	callback, err := parseCallback(resp.Callback)
	if err != nil {
		return nil, err
	}

	min := lnwire.MilliSatoshi(resp.MinSendable)
	max := lnwire.MilliSatoshi(resp.MaxSendable)
	if min > max {
		return nil, fmt.Errorf("%w: minSendable %v exceeds "+
			"maxSendable %v", ErrMalformedResponse, min, max)
	}

	if resp.CommentAllowed < 0 {
		return nil, fmt.Errorf("%w: negative commentAllowed",
			ErrMalformedResponse)
	}

	return &PayMetadata{
		Callback:       callback,
		MinSendable:    min,
		MaxSendable:    max,
		Metadata:       resp.Metadata,
		Description:    plainTextEntry(resp.Metadata),
		CommentAllowed: resp.CommentAllowed,
		domain:         domain,
	}, nil
}

func newWithdrawMetadata(resp *WithdrawResponse,
	domain string) (*WithdrawMetadata, error) {

	callback, err := parseCallback(resp.Callback)
	if err != nil {
		return nil, err
	}

	if resp.K1 == "" {
		return nil, fmt.Errorf("%w: missing k1", ErrMalformedResponse)
	}

	min := lnwire.MilliSatoshi(resp.MinWithdrawable)
	max := lnwire.MilliSatoshi(resp.MaxWithdrawable)
	if min > max {
		return nil, fmt.Errorf("%w: minWithdrawable %v exceeds "+
			"maxWithdrawable %v", ErrMalformedResponse, min, max)
	}

	return &WithdrawMetadata{
		Callback:           callback,
		K1:                 resp.K1,
		MinWithdrawable:    min,
		MaxWithdrawable:    max,
		DefaultDescription: resp.DefaultDescription,
		domain:             domain,
	}, nil
}

func parseCallback(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: missing callback",
			ErrMalformedResponse)
	}

	callback, err := url.Parse(raw)
	if err != nil || callback.Host == "" {
		return nil, fmt.Errorf("%w: invalid callback %q",
			ErrMalformedResponse, raw)
	}

	return callback, nil
}

// plainTextEntry returns the text/plain entry of an LNURL-pay metadata
// string. The metadata is a JSON array of [mime, content] pairs encoded as a
// string. Unparsable metadata yields an empty description.
func plainTextEntry(metadata string) string {
	var entries [][]interface{}
	if err := json.Unmarshal([]byte(metadata), &entries); err != nil {
		log.Warnf("Unable to parse lnurl-pay metadata: %v", err)
		return ""
	}

	for _, entry := range entries {
		if len(entry) != 2 {
			continue
		}

		mime, _ := entry[0].(string)
		text, ok := entry[1].(string)
		if mime == "text/plain" && ok {
			return text
		}
	}

	return ""
}

func sha256Metadata(metadata string) [32]byte {
	return sha256.Sum256([]byte(metadata))
}
