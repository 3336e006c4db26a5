package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"

	"github.com/btcsuite/btclog"
	"github.com/btcsuite/btcutil"
	"github.com/ellemouton/lnscan"
	"github.com/ellemouton/lnscan/address"
	"github.com/ellemouton/lnscan/amount"
	"github.com/ellemouton/lnscan/lnurl"
	"github.com/ellemouton/lnscan/node"
	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/urfave/cli/v2"
)

// log is replaced by run once the log level is known.
var log = btclog.Disabled

func main() {
	app := cli.NewApp()

	app.Name = "lnurl-server"
	app.Usage = "LNURL-pay and LNURL-withdraw service backed by lnd"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "lndhost",
			Value: "localhost:10009",
			Usage: "lnd instance rpc address",
		},
		&cli.StringFlag{
			Name:  "network",
			Value: "regtest",
			Usage: "the network",
		},
		&cli.StringFlag{
			Name:  "macpath",
			Usage: "Path to lnd's mac dir",
		},
		&cli.StringFlag{
			Name:  "tlspath",
			Usage: "Path to lnd's tls cert",
		},
		&cli.StringFlag{
			Name:  "protocol",
			Value: "http",
			Usage: "scheme of the advertised urls",
		},
		&cli.StringFlag{
			Name:  "host",
			Value: "localhost",
			Usage: "host of the advertised urls",
		},
		&cli.IntFlag{
			Name:  "port",
			Value: 8080,
			Usage: "port to listen on",
		},
		&cli.StringFlag{
			Name:  "minsendable",
			Value: "1000",
			Usage: "smallest amount accepted, in millisats",
		},
		&cli.StringFlag{
			Name:  "maxsendable",
			Value: "100000000",
			Usage: "largest amount accepted, in millisats",
		},
		&cli.IntFlag{
			Name:  "commentallowed",
			Value: 140,
			Usage: "longest comment accepted on the pay endpoint",
		},
		&cli.StringFlag{
			Name:  "maxwithdrawable",
			Usage: "amount paid out by the withdraw endpoint, in " +
				"millisats. Unset disables withdraws",
		},
		&cli.Int64Flag{
			Name:  "maxfee",
			Value: 100,
			Usage: "max fee in sats to pay for a withdraw",
		},
		&cli.StringFlag{
			Name:  "description",
			Value: "LNSCAN test service",
			Usage: "text/plain metadata of the service",
		},
		&cli.StringFlag{
			Name:  "loglevel",
			Value: "info",
			Usage: "trace, debug, info, warn, error, critical or off",
		},
	}
	app.Action = run

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[lnurl-server] %v\n", err)
		os.Exit(1)
	}
}

func parseMsatFlag(ctx *cli.Context, name string) (lnwire.MilliSatoshi,
	error) {

	s := ctx.String(name)
	if s == "" {
		return 0, nil
	}

	amt, err := amount.ParseMsat(s)
	if err != nil {
		return 0, fmt.Errorf("--%v: %w", name, err)
	}

	return amt, nil
}

func run(ctx *cli.Context) error {
	level := ctx.String("loglevel")
	if err := lnscan.SetupLoggers(os.Stderr, level); err != nil {
		return err
	}
	lvl, _ := btclog.LevelFromString(level)
	log = btclog.NewBackend(os.Stderr).Logger("LSRV")
	log.SetLevel(lvl)

	params, err := address.ParamsFromName(ctx.String("network"))
	if err != nil {
		return err
	}

	minSendable, err := parseMsatFlag(ctx, "minsendable")
	if err != nil {
		return err
	}
	maxSendable, err := parseMsatFlag(ctx, "maxsendable")
	if err != nil {
		return err
	}
	maxWithdrawable, err := parseMsatFlag(ctx, "maxwithdrawable")
	if err != nil {
		return err
	}

	// Connect to LND.
	lnd, err := lndclient.NewLndServices(&lndclient.LndServicesConfig{
		LndAddress:  ctx.String("lndhost"),
		Network:     lndclient.Network(ctx.String("network")),
		MacaroonDir: ctx.String("macpath"),
		TLSPath:     ctx.String("tlspath"),
	})
	if err != nil {
		return err
	}
	defer lnd.Close()

	server, err := lnurl.NewServer(&lnurl.ServerConfig{
		Protocol:        ctx.String("protocol"),
		Host:            ctx.String("host"),
		Port:            ctx.Int("port"),
		MinSendable:     minSendable,
		MaxSendable:     maxSendable,
		CommentAllowed:  ctx.Int("commentallowed"),
		Description:     ctx.String("description"),
		MaxWithdrawable: maxWithdrawable,
		Backend: &lndBackend{
			InvoiceDecoder: node.NewLocalDecoder(params),
			lnd:            lnd.Client,
			maxFee:         btcutil.Amount(ctx.Int64("maxfee")),
		},
	})
	if err != nil {
		return err
	}

	banner, err := server.Banner()
	if err != nil {
		return err
	}
	fmt.Print(banner)

	info, err := lnd.Client.GetInfo(ctx.Context)
	if err != nil {
		return err
	}

	fmt.Println("Connected to node with alias:", info.Alias)

	httpServer := &http.Server{
		Addr:    net.JoinHostPort("", strconv.Itoa(ctx.Int("port"))),
		Handler: server.Handler(),
	}

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return err

	case <-sigCtx.Done():
	}

	log.Infof("Shutting down")

	err = httpServer.Shutdown(context.Background())
	server.Wait()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
