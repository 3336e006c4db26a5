package lnurl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ellemouton/lnscan/amount"
	"github.com/ellemouton/lnscan/node"
	"github.com/lightningnetwork/lnd/lnwire"
)

// PayOption modifies an invoice request.
type PayOption func(*payOptions)

type payOptions struct {
	comment string
}

// WithComment attaches a LUD-12 comment to the invoice request.
func WithComment(comment string) PayOption {
	return func(o *payOptions) {
		o.comment = comment
	}
}

// PayResult is the outcome of a successful invoice request.
type PayResult struct {
	// Invoice is the decoded invoice returned by the service.
	Invoice *node.Invoice

	// SuccessAction is shown to the user after payment, if the service
	// sent one.
	SuccessAction *SuccessAction
}

// RequestInvoice exchanges amt for an invoice from an LNURL-pay service.
// The amount is checked against the metadata before any request is made and
// the returned invoice must be for exactly that amount.
//
// The caller is expected to check the invoice against its fee policy and
// outbound liquidity (see package spend) before paying it.
func (c *Client) RequestInvoice(ctx context.Context, meta *PayMetadata,
	amt lnwire.MilliSatoshi, opts ...PayOption) (*PayResult, error) {

	if c.cfg.Decoder == nil {
		return nil, ErrNoDecoder
	}

	var o payOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !amount.InRange(amt, meta.MinSendable, meta.MaxSendable) {
		return nil, &AmountOutOfRangeError{
			Amount: amt,
			Min:    meta.MinSendable,
			Max:    meta.MaxSendable,
		}
	}

	params := url.Values{}
	params.Set("amount", strconv.FormatUint(uint64(amt), 10))

	if o.comment != "" {
		length := utf8.RuneCountInString(o.comment)
		if length > meta.CommentAllowed {
			return nil, fmt.Errorf("%w: %d characters, service "+
				"accepts %d", ErrCommentTooLong, length,
				meta.CommentAllowed)
		}
		params.Set("comment", o.comment)
	}

	callback, err := c.parseURL(meta.Callback.String())
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, withQuery(callback, params))
	if err != nil {
		return nil, err
	}

	var resp InvoiceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if strings.EqualFold(resp.Status, StatusError) {
		return nil, &ServiceError{Reason: resp.Reason}
	}

	if resp.PayRequest == "" {
		return nil, fmt.Errorf("%w: response has no invoice",
			ErrMalformedResponse)
	}

	inv, err := c.cfg.Decoder.DecodeInvoice(ctx, resp.PayRequest)
	switch {
	case errors.Is(err, node.ErrTimeout):
		return nil, err

	case err != nil:
		return nil, fmt.Errorf("%w: undecodable invoice: %v",
			ErrMalformedResponse, err)
	}

	if inv.Amount != amt {
		return nil, &AmountMismatchError{
			Expected: amt,
			Invoice:  inv.Amount,
		}
	}

	// Ensure that the invoice description hash matches the metadata
	// received before. Services that don't set one are tolerated.
	hash := meta.DescriptionHash()
	switch {
	case len(inv.DescriptionHash) == 0:
		log.Warnf("Invoice from %v has no description hash",
			meta.Domain())

	case !bytes.Equal(inv.DescriptionHash, hash[:]):
		return nil, ErrDescriptionHash
	}

	if inv.IsExpired(c.cfg.Now()) {
		return nil, node.ErrInvoiceExpired
	}

	log.Infof("Received invoice for %v from %v", amt, meta.Domain())

	return &PayResult{
		Invoice:       inv,
		SuccessAction: validSuccessAction(resp.SuccessAction),
	}, nil
}

// validSuccessAction drops success actions this client can't show.
func validSuccessAction(action *SuccessAction) *SuccessAction {
	if action == nil {
		return nil
	}

	switch action.Tag {
	case "message":
		if action.Message != "" {
			return action
		}

	case "url":
		u, err := url.Parse(action.URL)
		if err == nil && u.Scheme == "https" && u.Host != "" {
			return action
		}
	}

	log.Debugf("Ignoring success action with tag %q", action.Tag)

	return nil
}
