package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ellemouton/lnscan"
	"github.com/lightninglabs/lndclient"
	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.NewApp()

	app.Name = "lnscan"
	app.Usage = "Resolve and act on scanned bitcoin and lightning strings"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Value: "localhost:10009",
			Usage: "lnd instance rpc address",
		},
		&cli.StringFlag{
			Name:  "network",
			Value: "mainnet",
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
		&cli.DurationFlag{
			Name:  "httptimeout",
			Value: lnscan.DefaultConfig().HTTPTimeout,
			Usage: "timeout for each LNURL request",
		},
		&cli.DurationFlag{
			Name:  "rpctimeout",
			Value: lnscan.DefaultConfig().RPCTimeout,
			Usage: "timeout for each lnd rpc",
		},
		&cli.BoolFlag{
			Name:  "tor",
			Usage: "accept onion hosts in node URIs",
		},
		&cli.BoolFlag{
			Name:  "notls",
			Usage: "allow plain http LNURL services (not on mainnet)",
		},
		&cli.BoolFlag{
			Name:  "localdecode",
			Usage: "decode invoices locally instead of asking lnd",
		},
		&cli.Uint64Flag{
			Name:  "maxfeeppm",
			Value: lnscan.DefaultConfig().FeePolicy.MaxFeePPM,
			Usage: "max routing fee in parts per million of the amount",
		},
		&cli.StringFlag{
			Name:  "loglevel",
			Value: "info",
			Usage: "trace, debug, info, warn, error, critical or off",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		return lnscan.SetupLoggers(os.Stderr, ctx.String("loglevel"))
	}
	app.Commands = append(app.Commands,
		resolveCommand,
		payCommand,
		withdrawCommand,
		encodeCommand,
		decodeCommand,
		backupCommand,
		watchCommand,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[lnscan] %v (%v error)\n", err,
		lnscan.Category(err))
	os.Exit(1)
}

func getConfig(ctx *cli.Context) *lnscan.Config {
	cfg := lnscan.DefaultConfig()
	cfg.Network = ctx.String("network")
	cfg.LndHost = ctx.String("host")
	cfg.MacaroonDir = ctx.String("macpath")
	cfg.TLSPath = ctx.String("tlspath")
	cfg.HTTPTimeout = ctx.Duration("httptimeout")
	cfg.RPCTimeout = ctx.Duration("rpctimeout")
	cfg.TorAvailable = ctx.Bool("tor")
	cfg.AllowInsecureLnurl = ctx.Bool("notls")
	cfg.LocalDecode = ctx.Bool("localdecode")
	cfg.FeePolicy.MaxFeePPM = ctx.Uint64("maxfeeppm")

	return &cfg
}

func getWallet(ctx *cli.Context) (*lnscan.Wallet, error) {
	return lnscan.Connect(getConfig(ctx))
}

func getLND(ctx *cli.Context) (*lndclient.GrpcLndServices, error) {
	return lndclient.NewLndServices(&lndclient.LndServicesConfig{
		LndAddress:  ctx.String("host"),
		Network:     lndclient.Network(ctx.String("network")),
		MacaroonDir: ctx.String("macpath"),
		TLSPath:     ctx.String("tlspath"),
	})
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}

	fmt.Println(string(b))

	return nil
}
