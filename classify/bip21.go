package classify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ellemouton/lnscan/address"
	"github.com/ellemouton/lnscan/amount"
)

// classifyBIP21 parses the part of a bitcoin: URI after the scheme. A
// unified URI whose lightning parameter decodes is returned as the invoice,
// with the on-chain request as its fallback.
func (c *Classifier) classifyBIP21(ctx context.Context,
	rest string) (Intent, error) {

	rest = strings.TrimPrefix(rest, "//")

	addrPart, rawQuery := rest, ""
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		addrPart, rawQuery = rest[:i], rest[i+1:]
	}

	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
	}

	btc := &Bitcoin{}
	var lightning string
	for key, values := range params {
		value := values[0]

		switch key := strings.ToLower(key); {
		case key == "amount":
			msat, err := amount.ParseBTC(value)
			if err != nil {
				return nil, err
			}
			if !amount.IsWholeSatoshi(msat) {
				return nil, fmt.Errorf("%w: %s is not a whole "+
					"number of satoshis",
					amount.ErrInvalidAmount, value)
			}
			btc.Amount = &msat

		case key == "label":
			btc.Label = value

		case key == "message":
			btc.Message = value

		case key == "lightning":
			lightning = value

		case strings.HasPrefix(key, "req-"):
			return nil, fmt.Errorf("%w: unsupported required "+
				"parameter %q", ErrUnrecognizedFormat, key)
		}
	}

	if addrPart == "" {
		if lightning == "" {
			return nil, fmt.Errorf("%w: bitcoin URI without "+
				"address", ErrUnrecognizedFormat)
		}

		return c.classifyInvoice(ctx, lightning)
	}

	btc.Address, err = address.Validate(addrPart, c.cfg.Network)
	if err != nil {
		return nil, err
	}

	if lightning == "" {
		return btc, nil
	}

	inv, err := c.classifyInvoice(ctx, lightning)
	if err != nil {
		log.Warnf("Ignoring lightning parameter of unified URI: %v",
			err)

		return btc, nil
	}
	inv.Fallback = btc

	return inv, nil
}
