package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/ellemouton/lnscan/events"
	"github.com/ellemouton/lnscan/node"
	"github.com/urfave/cli/v2"
)

var watchCommand = &cli.Command{
	Name:  "watch",
	Usage: "Print settled invoices and backup updates until interrupted",
	Action: func(ctx *cli.Context) error {
		wallet, err := getWallet(ctx)
		if err != nil {
			return err
		}

		st, err := wallet.Refresh(ctx.Context)
		if err != nil {
			return err
		}
		fmt.Printf("%d channels, %v outbound\n", len(st.Channels),
			st.Outbound)

		err = wallet.Events().Register(
			events.SubscriberSubmarine, printEvent,
		)
		if err != nil {
			return err
		}
		defer func() {
			_ = wallet.Events().Remove(events.SubscriberSubmarine)
		}()

		sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt)
		defer stop()

		if err := wallet.Watch(sigCtx); err != nil {
			return err
		}

		st = wallet.State()
		fmt.Printf("Received %v in %d invoices\n", st.Received,
			len(st.Recent))

		return nil
	},
}

func printEvent(ev node.Event) {
	switch {
	case ev.Type == node.EventInvoiceSettled && ev.Invoice != nil:
		fmt.Printf("Invoice settled: %v %v (%s)\n",
			ev.Invoice.PaymentHash, ev.Invoice.AmountPaid,
			ev.Invoice.Memo)

	case ev.Type == node.EventChannelBackup && ev.Backup != nil:
		fmt.Printf("Backup updated: %d channels\n",
			len(ev.Backup.ChanPoints))
	}
}
