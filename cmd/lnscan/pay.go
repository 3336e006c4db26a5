package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ellemouton/lnscan/amount"
	"github.com/ellemouton/lnscan/classify"
	"github.com/ellemouton/lnscan/lnurl"
	"github.com/ellemouton/lnscan/spend"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/urfave/cli/v2"
)

var payCommand = &cli.Command{
	Name:      "pay",
	Usage:     "Pay an invoice, LNURL-pay code or lightning address",
	ArgsUsage: "text",
	Description: `Resolves the given string and pays it from lnd. For
	LNURL-pay services the amount is asked for if --amt is not within the
	bounds the service accepts.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "amt",
			Usage: "The amt of millisats to pay",
		},
		&cli.StringFlag{
			Name:  "comment",
			Usage: "comment sent along to LNURL-pay services",
		},
	},
	Action: pay,
}

func pay(ctx *cli.Context) error {
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

	var (
		payReq  string
		plan    *spend.Plan
		success *lnurl.SuccessAction
	)
	switch i := intent.(type) {
	case *classify.LightningInvoice:
		if i.Invoice.Amount == 0 {
			return fmt.Errorf("invoices without an amount are not " +
				"supported")
		}

		plan, err = wallet.CheckLightning(ctx.Context, i.Invoice.Amount)
		if err != nil {
			return err
		}
		payReq = i.Raw

	case *classify.Lnurl:
		meta, err := wallet.FetchLnurl(ctx.Context, i)
		if err != nil {
			return err
		}

		payMeta, ok := meta.(*lnurl.PayMetadata)
		if !ok {
			return fmt.Errorf("%v is a %v service, use withdraw",
				meta.Domain(), meta.Tag())
		}

		fmt.Printf("Paying %v: %s\n", payMeta.Domain(),
			payMeta.Description)

		amt, err := payAmount(ctx, payMeta)
		if err != nil {
			return err
		}

		// The invoice is checked against the channels loaded here.
		if _, err := wallet.Refresh(ctx.Context); err != nil {
			return err
		}

		var opts []lnurl.PayOption
		if comment := ctx.String("comment"); comment != "" {
			opts = append(opts, lnurl.WithComment(comment))
		}

		result, p, err := wallet.RequestInvoice(
			ctx.Context, payMeta, amt, opts...,
		)
		if err != nil {
			return err
		}

		plan = p
		payReq = result.Invoice.PaymentRequest
		success = result.SuccessAction

	default:
		return fmt.Errorf("cannot pay a %v", intent.Kind())
	}

	lndClient, err := getLND(ctx)
	if err != nil {
		return fmt.Errorf("could not connect to LND: %w", err)
	}
	defer lndClient.Close()

	res := <-lndClient.Client.PayInvoice(
		ctx.Context, payReq, plan.MaxFee.ToSatoshis(), nil,
	)
	if res.Err != nil {
		return fmt.Errorf("could not pay invoice: %w", res.Err)
	}

	fmt.Printf("Successful payment! Preimage: %s\n", res.Preimage)
	printSuccessAction(success)

	return nil
}

// payAmount picks the amount to send. A fixed amount service needs no
// input, otherwise --amt is used if it is in range and the user is asked
// until it is.
func payAmount(ctx *cli.Context,
	meta *lnurl.PayMetadata) (lnwire.MilliSatoshi, error) {

	if amt, ok := meta.FixedAmount(); ok {
		return amt, nil
	}

	var millisats lnwire.MilliSatoshi
	if s := ctx.String("amt"); s != "" {
		amt, err := amount.ParseMsat(s)
		if err != nil {
			return 0, err
		}
		millisats = amt
	}

	reader := bufio.NewReader(os.Stdin)
	for !amount.InRange(millisats, meta.MinSendable, meta.MaxSendable) {
		fmt.Printf("Enter an amount (in millisatoshis) between "+
			"%d and %d\n", meta.MinSendable, meta.MaxSendable)

		userInput, err := reader.ReadString('\n')
		if err != nil {
			return 0, fmt.Errorf("could not read from console: %w",
				err)
		}
		userInput = strings.TrimSpace(userInput)

		millisats, err = amount.ParseMsat(userInput)
		if err != nil {
			fmt.Printf("error parsing input: %v\n", err)
			continue
		}

		if !amount.InRange(
			millisats, meta.MinSendable, meta.MaxSendable,
		) {

			fmt.Printf("Invalid amount. Expected an amount "+
				"between %d and %d, got %d\n", meta.MinSendable,
				meta.MaxSendable, millisats)
		}
	}

	return millisats, nil
}

func printSuccessAction(action *lnurl.SuccessAction) {
	if action == nil {
		return
	}

	switch action.Tag {
	case "message":
		fmt.Println(action.Message)

	case "url":
		fmt.Printf("%s: %s\n", action.Description, action.URL)
	}
}
