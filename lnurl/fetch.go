package lnurl

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ellemouton/lnscan/amount"
	"github.com/lightningnetwork/lnd/lnwire"
)

// Fetch performs the first LNURL round trip against rawURL, the decoded
// LNURL, and returns the service's metadata.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Metadata,
	error) {

	u, err := c.parseURL(rawURL)
	if err != nil {
		return nil, err
	}

	query := u.Query()
	if Tag(query.Get("tag")) == TagLogin {
		return nil, fmt.Errorf("%w: lnurl-auth is not supported",
			ErrIncompatible)
	}

	meta, ok, err := withdrawFromQuery(u)
	if err != nil {
		return nil, err
	}
	if ok {
		log.Debugf("Using withdraw request embedded in %v", u.Host)
		return meta, nil
	}

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	return decodeMetadata(body, u.Hostname())
}

// withdrawFromQuery extracts a self-contained withdraw request from the
// URL's query string. The boolean is false unless every required field is
// present.
func withdrawFromQuery(u *url.URL) (*WithdrawMetadata, bool, error) {
	query := u.Query()

	tag := Tag(query.Get("tag"))
	if tag != "" && tag != TagWithdrawRequest {
		return nil, false, nil
	}

	fields := []string{
		"k1", "callback", "minWithdrawable", "maxWithdrawable",
	}
	for _, field := range fields {
		if query.Get(field) == "" {
			return nil, false, nil
		}
	}

	parse := func(field string) (lnwire.MilliSatoshi, error) {
		msat, err := amount.ParseMsat(query.Get(field))
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidURL,
				field, err)
		}

		return msat, nil
	}

	min, err := parse("minWithdrawable")
	if err != nil {
		return nil, false, err
	}
	max, err := parse("maxWithdrawable")
	if err != nil {
		return nil, false, err
	}

	meta, err := newWithdrawMetadata(&WithdrawResponse{
		Callback:           query.Get("callback"),
		K1:                 query.Get("k1"),
		MinWithdrawable:    Msat(min),
		MaxWithdrawable:    Msat(max),
		DefaultDescription: query.Get("defaultDescription"),
		Tag:                TagWithdrawRequest,
	}, u.Hostname())
	if err != nil {
		return nil, false, fmt.Errorf("%w: embedded withdraw "+
			"request: %v", ErrInvalidURL, err)
	}

	return meta, true, nil
}
