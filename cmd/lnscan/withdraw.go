package main

import (
	"fmt"

	"github.com/ellemouton/lnscan/classify"
	"github.com/ellemouton/lnscan/lnurl"
	"github.com/urfave/cli/v2"
)

var withdrawCommand = &cli.Command{
	Name:      "withdraw",
	Usage:     "Withdraw from an LNURL-withdraw code",
	ArgsUsage: "text",
	Description: `Creates an invoice for the full withdrawable amount and
	hands it to the service. The service pays it in the background.`,
	Action: withdraw,
}

func withdraw(ctx *cli.Context) error {
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

	lnurlIntent, ok := intent.(*classify.Lnurl)
	if !ok {
		return fmt.Errorf("cannot withdraw from a %v", intent.Kind())
	}

	meta, err := wallet.FetchLnurl(ctx.Context, lnurlIntent)
	if err != nil {
		return err
	}

	withdrawMeta, ok := meta.(*lnurl.WithdrawMetadata)
	if !ok {
		return fmt.Errorf("%v is a %v service, use pay", meta.Domain(),
			meta.Tag())
	}

	payReq, err := wallet.Withdraw(ctx.Context, withdrawMeta)
	if err != nil {
		return err
	}

	fmt.Printf("Withdraw of %v from %v accepted, awaiting payment of:\n%s\n",
		withdrawMeta.WithdrawAmount(), withdrawMeta.Domain(), payReq)

	return nil
}
