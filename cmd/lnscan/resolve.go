package main

import (
	"fmt"

	"github.com/ellemouton/lnscan/amount"
	"github.com/ellemouton/lnscan/classify"
	"github.com/urfave/cli/v2"
)

var resolveCommand = &cli.Command{
	Name:      "resolve",
	Usage:     "Classify a scanned string",
	ArgsUsage: "text",
	Description: `Prints what a scanned or pasted string is: an on-chain
	payment request, a lightning invoice, a node URI or an LNURL.`,
	Action: resolve,
}

func resolve(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected exactly one argument")
	}

	wallet, err := getWallet(ctx)
	if err != nil {
		return err
	}

	intent, err := wallet.Resolve(ctx.Context, ctx.Args().First())
	if err != nil {
		return err
	}

	return printJSON(describeIntent(intent))
}

// describeIntent flattens an intent for display.
func describeIntent(intent classify.Intent) map[string]interface{} {
	out := map[string]interface{}{
		"kind": intent.Kind(),
	}

	switch i := intent.(type) {
	case *classify.Bitcoin:
		out["address"] = i.Address.EncodeAddress()
		if i.Amount != nil {
			out["amount_btc"] = amount.FormatBTC(*i.Amount)
		}
		if i.Label != "" {
			out["label"] = i.Label
		}
		if i.Message != "" {
			out["message"] = i.Message
		}

	case *classify.LightningInvoice:
		out["payment_request"] = i.Raw
		out["destination"] = i.Invoice.Destination
		out["payment_hash"] = i.Invoice.PaymentHash
		out["amount_msat"] = uint64(i.Invoice.Amount)
		out["description"] = i.Invoice.Description
		out["expires_at"] = i.Invoice.ExpiresAt()
		if i.Fallback != nil {
			out["fallback"] = describeIntent(i.Fallback)
		}

	case *classify.LightningNode:
		out["node_id"] = i.NodeID
		if i.Host != "" {
			out["host"] = i.Host
		}

	case *classify.Lnurl:
		out["url"] = i.URL
		if i.Tag != "" {
			out["tag"] = i.Tag
		}
		if i.LightningAddress != "" {
			out["lightning_address"] = i.LightningAddress
		}
	}

	return out
}
