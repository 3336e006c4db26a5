package lnurl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/lightningnetwork/lnd/lnwire"
)

// WithdrawAmount is the amount the invoice handed to RequestWithdraw must
// be for. Partial withdraws are not supported.
func (w *WithdrawMetadata) WithdrawAmount() lnwire.MilliSatoshi {
	return w.MaxWithdrawable
}

// RequestWithdraw submits payReq to an LNURL-withdraw service. The service
// is expected to pay it; the call returns once the service has accepted the
// request.
func (c *Client) RequestWithdraw(ctx context.Context, meta *WithdrawMetadata,
	payReq string) error {

	if c.cfg.Decoder == nil {
		return ErrNoDecoder
	}

	inv, err := c.cfg.Decoder.DecodeInvoice(ctx, payReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInvoice, err)
	}

	if inv.Amount != meta.WithdrawAmount() {
		return &AmountMismatchError{
			Expected: meta.WithdrawAmount(),
			Invoice:  inv.Amount,
		}
	}

	callback, err := c.parseURL(meta.Callback.String())
	if err != nil {
		return err
	}

	params := url.Values{}
	params.Set("k1", meta.K1)
	params.Set("pr", payReq)

	body, err := c.get(ctx, withQuery(callback, params))

	// Some services refuse a callback with an error status code and a
	// reason. That is still a refusal of this withdraw.
	var serverErr *ServerError
	if errors.As(err, &serverErr) && serverErr.Reason != "" {
		return &WithdrawRejectedError{Reason: serverErr.Reason}
	}
	if err != nil {
		return err
	}

	var resp StatusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if !strings.EqualFold(resp.Status, StatusOK) {
		reason := resp.Reason
		switch {
		case reason != "":

		case resp.Status == "":
			reason = "missing status"

		default:
			reason = fmt.Sprintf("unexpected status %q", resp.Status)
		}

		return &WithdrawRejectedError{Reason: reason}
	}

	log.Infof("Withdraw of %v accepted by %v", inv.Amount, meta.Domain())

	return nil
}
